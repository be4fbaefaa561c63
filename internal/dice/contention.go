package dice

import "fmt"

// DefaultContestedOutcome is the sum whose bias is tracked per player in
// the reference two-dice game.
const DefaultContestedOutcome = 7

// ContestedConfig configures a ContestedEngine.
type ContestedConfig struct {
	EngineConfig

	// ContestedOutcome is the sum whose bias follows the current actor's
	// own history. DefaultContestedOutcome is used when zero.
	ContestedOutcome int

	NumActors int
}

// ContestedEngine wraps an Engine so that one contested outcome is biased
// by the rolling actor's personal history instead of the group's.
//
// Before every roll or query the contested outcome's frequency is replaced
// by the current actor's own count multiplied by the number of actors: the
// count the whole group would have if everyone rolled like this actor.
// Every other outcome uses the shared history. Actors take turns in order
// 1..NumActors, one roll each.
type ContestedEngine struct {
	base      *Engine
	contested int
	numActors int
	current   int

	// counts[a-1] is how many contested outcomes actor a has rolled.
	counts  []int
	history history[[]int]
}

// NewContestedEngine builds a contested engine starting on actor 1.
func NewContestedEngine(cfg ContestedConfig) (*ContestedEngine, error) {
	if cfg.NumActors < 1 {
		return nil, fmt.Errorf("%w: number of players must be positive, got %d", ErrInvalidArgument, cfg.NumActors)
	}
	contested := cfg.ContestedOutcome
	if contested == 0 {
		contested = DefaultContestedOutcome
	}

	base, err := NewEngine(cfg.EngineConfig)
	if err != nil {
		return nil, err
	}
	if _, ok := base.trueDist[contested]; !ok {
		return nil, fmt.Errorf("%w: contested outcome %d is not a possible sum of %dd%d",
			ErrInvalidArgument, contested, cfg.NumDice, cfg.NumSides)
	}

	return &ContestedEngine{
		base:      base,
		contested: contested,
		numActors: cfg.NumActors,
		current:   1,
		counts:    make([]int, cfg.NumActors),
	}, nil
}

func (c *ContestedEngine) NumDice() int                   { return c.base.numDice }
func (c *ContestedEngine) NumSides() int                  { return c.base.numSides }
func (c *ContestedEngine) Aggressiveness() float64        { return c.base.aggressiveness }
func (c *ContestedEngine) Outcomes() []int                { return c.base.Outcomes() }
func (c *ContestedEngine) TrueDistribution() Distribution { return c.base.TrueDistribution() }

// Frequencies returns a copy of the group's aggregate frequencies. The
// contested outcome counts every actor's rolls.
func (c *ContestedEngine) Frequencies() Frequencies { return c.base.Frequencies() }

func (c *ContestedEngine) ContestedOutcome() int { return c.contested }
func (c *ContestedEngine) NumActors() int        { return c.numActors }

// CurrentActor returns the 1-indexed actor who rolls next.
func (c *ContestedEngine) CurrentActor() int { return c.current }

// ActorCount returns how many contested outcomes actor has rolled.
func (c *ContestedEngine) ActorCount(actor int) int {
	if actor < 1 || actor > c.numActors {
		return 0
	}
	return c.counts[actor-1]
}

// TotalRolls returns the number of rolls in the current state.
func (c *ContestedEngine) TotalRolls() int { return c.base.TotalRolls() }

// view returns the frequencies the bias is computed from on actor's turn.
func (c *ContestedEngine) view(actor int) Frequencies {
	view := c.base.frequencies.Clone()
	view[c.contested] = c.ActorCount(actor) * c.numActors
	return view
}

// AdjustedDistribution derives the distribution served to the current actor.
func (c *ContestedEngine) AdjustedDistribution() Distribution {
	return c.AdjustedDistributionFor(c.current)
}

// AdjustedDistributionFor derives the distribution that would be served on
// actor's turn given the current history.
func (c *ContestedEngine) AdjustedDistributionFor(actor int) Distribution {
	return c.base.adjust(c.view(actor))
}

// Roll samples an outcome for the current actor, records it, and passes the
// turn to the next actor.
func (c *ContestedEngine) Roll() int {
	c.history.record(append([]int(nil), c.counts...))
	outcome := c.base.rollWith(c.view(c.current))
	if outcome == c.contested {
		c.counts[c.current-1]++
	}
	c.current = c.current%c.numActors + 1
	return outcome
}

// Undo reverts the last roll or redo and hands the turn back. Nothing
// changes when there is no history.
func (c *ContestedEngine) Undo() error {
	if !c.base.CanUndo() || !c.history.canUndo() {
		return fmt.Errorf("undo: %w", ErrNoHistory)
	}
	if err := c.base.Undo(); err != nil {
		return err
	}
	prev, err := c.history.back(c.counts)
	if err != nil {
		return fmt.Errorf("undo: %w", err)
	}
	c.counts = prev
	c.current = (c.current+c.numActors-2)%c.numActors + 1
	return nil
}

// Redo reapplies the last undone roll and passes the turn on again.
func (c *ContestedEngine) Redo() error {
	if !c.base.CanRedo() || !c.history.canRedo() {
		return fmt.Errorf("redo: %w", ErrNoHistory)
	}
	if err := c.base.Redo(); err != nil {
		return err
	}
	next, err := c.history.forward(c.counts)
	if err != nil {
		return fmt.Errorf("redo: %w", err)
	}
	c.counts = next
	c.current = c.current%c.numActors + 1
	return nil
}

func (c *ContestedEngine) CanUndo() bool { return c.base.CanUndo() && c.history.canUndo() }
func (c *ContestedEngine) CanRedo() bool { return c.base.CanRedo() && c.history.canRedo() }

// HistoryDepth returns the depths of the actor history stacks. They always
// match the wrapped engine's.
func (c *ContestedEngine) HistoryDepth() (undo, redo int) {
	return c.history.depth()
}

// Rows lists every outcome for the current actor. The contested outcome is
// split into one row per actor, and only the current actor's row carries a
// probability.
func (c *ContestedEngine) Rows() []Row {
	dist := c.AdjustedDistribution()
	rows := make([]Row, 0, len(c.base.outcomes)+c.numActors-1)
	for _, sum := range c.base.outcomes {
		if sum != c.contested {
			rows = append(rows, Row{
				Outcome:        Outcome{Sum: sum},
				Probability:    dist[sum],
				HasProbability: true,
				Frequency:      c.base.frequencies[sum],
			})
			continue
		}
		for actor := 1; actor <= c.numActors; actor++ {
			row := Row{
				Outcome:   Outcome{Sum: sum, Actor: actor},
				Frequency: c.ActorCount(actor),
			}
			if actor == c.current {
				row.Probability = dist[sum]
				row.HasProbability = true
			}
			rows = append(rows, row)
		}
	}
	return rows
}

func (c *ContestedEngine) String() string {
	return formatRows(c.Rows())
}
