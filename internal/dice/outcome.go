package dice

import "fmt"

// Outcome identifies one line of a rendered table: a plain sum, or a
// contested sum attributed to one actor.
type Outcome struct {
	Sum   int `json:"sum"`
	Actor int `json:"actor,omitempty"` // zero for a plain sum
}

// Contested reports whether the outcome is attributed to an actor.
func (o Outcome) Contested() bool {
	return o.Actor > 0
}

func (o Outcome) String() string {
	if o.Contested() {
		return fmt.Sprintf("%d (player %d)", o.Sum, o.Actor)
	}
	return fmt.Sprintf("%d", o.Sum)
}

// Row is one outcome's current standing.
type Row struct {
	Outcome        Outcome
	Probability    float64
	HasProbability bool
	Frequency      int
}

// Roller is the operation set shared by Engine and ContestedEngine.
type Roller interface {
	Roll() int
	Undo() error
	Redo() error
	CanUndo() bool
	CanRedo() bool
	AdjustedDistribution() Distribution
	Rows() []Row
	TotalRolls() int
}
