package models

import "time"

type TableAction string

const (
	TableActionRoll TableAction = "roll"
	TableActionUndo TableAction = "undo"
	TableActionRedo TableAction = "redo"
)

type CreateTableRequest struct {
	Preset string `json:"preset"`

	// Explicit geometry, used when Preset is empty.
	NumDice          int      `json:"num_dice"`
	NumSides         int      `json:"num_sides"`
	Aggressiveness   *float64 `json:"aggressiveness"`
	NumPlayers       int      `json:"num_players"`       // > 0 balances the contested outcome per player
	ContestedOutcome int      `json:"contested_outcome"` // defaults to 7

	Seed *int64 `json:"seed"`
}

type OutcomeState struct {
	Label       string   `json:"label"`
	Sum         int      `json:"sum"`
	Player      int      `json:"player,omitempty"`
	Probability *float64 `json:"probability"` // nil when hidden for another player
	Percent     *int     `json:"percent"`
	Frequency   int      `json:"frequency"`
}

type TableState struct {
	ID             string         `json:"id"`
	Preset         string         `json:"preset,omitempty"`
	NumDice        int            `json:"num_dice"`
	NumSides       int            `json:"num_sides"`
	Aggressiveness float64        `json:"aggressiveness"`
	NumPlayers     int            `json:"num_players,omitempty"`
	CurrentPlayer  int            `json:"current_player,omitempty"`
	TotalRolls     int            `json:"total_rolls"`
	CanUndo        bool           `json:"can_undo"`
	CanRedo        bool           `json:"can_redo"`
	Outcomes       []OutcomeState `json:"outcomes"`
	Rendered       string         `json:"rendered"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

type TableCreated struct {
	Table     *TableState `json:"table"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// RollResult is the outcome of one table action. Roll and Player are only
// set for rolls.
type RollResult struct {
	TableID string      `json:"table_id"`
	Action  TableAction `json:"action"`
	Roll    int         `json:"roll,omitempty"`
	Player  int         `json:"player,omitempty"`
	Table   *TableState `json:"table"`
}

// RollEvent is one entry of a table's recent activity feed.
type RollEvent struct {
	ID         string      `json:"id" redis:"id"`
	TableID    string      `json:"table_id" redis:"table_id"`
	Action     TableAction `json:"action" redis:"action"`
	Roll       int         `json:"roll,omitempty" redis:"roll"`
	Player     int         `json:"player,omitempty" redis:"player"`
	TotalRolls int         `json:"total_rolls" redis:"total_rolls"`
	CreatedAt  time.Time   `json:"created_at" redis:"created_at"`
}

type CommandRequest struct {
	Input string `json:"input"`
}
