package services

import "time"

const (
	KeyTableRolls = "table:%s:rolls"
	KeyRateLimit  = "ratelimit:%s:%s"

	TTLTableRolls = 24 * time.Hour

	MaxFeedEntries = 100
)
