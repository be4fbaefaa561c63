package services

import (
	"context"

	"adaptive-dice-backend/internal/models"
)

type Broadcaster interface {
	BroadcastTableUpdate(event *models.RollEvent, state *models.TableState)
	BroadcastTableClosed(tableID string)
}

// EventRecorder stores a table's activity feed.
type EventRecorder interface {
	RecordEvent(ctx context.Context, event *models.RollEvent) error
	DeleteEvents(ctx context.Context, tableID string) error
}
