package models

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

const (
	MaxDice    = 20
	MaxSides   = 1000
	MaxPlayers = 12
)

func GenerateTableID() string {
	return uuid.New().String()
}

func GenerateEventID() string {
	return fmt.Sprintf("evt_%s_%d",
		time.Now().Format("20060102"),
		uuid.New().ID())
}

func (r *CreateTableRequest) Validate() error {
	if r.Preset != "" {
		if r.NumDice != 0 || r.NumSides != 0 || r.NumPlayers != 0 || r.Aggressiveness != nil || r.ContestedOutcome != 0 {
			return fmt.Errorf("preset cannot be combined with explicit dice settings")
		}
		return nil
	}

	if r.NumDice < 1 || r.NumDice > MaxDice {
		return fmt.Errorf("num_dice must be between 1 and %d", MaxDice)
	}
	if r.NumSides < 1 || r.NumSides > MaxSides {
		return fmt.Errorf("num_sides must be between 1 and %d", MaxSides)
	}
	if r.Aggressiveness == nil {
		return fmt.Errorf("aggressiveness is required without a preset")
	}
	if a := *r.Aggressiveness; math.IsNaN(a) || math.IsInf(a, 0) || a < 0 {
		return fmt.Errorf("aggressiveness must be a finite non-negative number")
	}
	if r.NumPlayers < 0 || r.NumPlayers > MaxPlayers {
		return fmt.Errorf("num_players must be between 0 and %d", MaxPlayers)
	}
	if r.ContestedOutcome != 0 && r.NumPlayers == 0 {
		return fmt.Errorf("contested_outcome requires num_players")
	}
	return nil
}
