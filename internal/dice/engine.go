package dice

import (
	"fmt"
	"math"
	"strings"
)

// EngineConfig configures an Engine.
type EngineConfig struct {
	NumDice  int
	NumSides int

	// Aggressiveness scales how strongly the served distribution reacts to
	// the session's deviation from the true distribution. Zero serves
	// unbiased dice.
	Aggressiveness float64

	// Rand is the uniform source used for sampling. A crypto-seeded source
	// is used when nil.
	Rand RandomSource
}

// Validate reports whether the configuration can build an engine.
func (c EngineConfig) Validate() error {
	if c.NumDice < 1 {
		return fmt.Errorf("%w: number of dice must be positive, got %d", ErrInvalidArgument, c.NumDice)
	}
	if c.NumSides < 1 {
		return fmt.Errorf("%w: number of sides must be positive, got %d", ErrInvalidArgument, c.NumSides)
	}
	if a := c.Aggressiveness; math.IsNaN(a) || math.IsInf(a, 0) || a < 0 {
		return fmt.Errorf("%w: aggressiveness must be a finite non-negative number, got %g", ErrInvalidArgument, a)
	}
	return nil
}

// Engine serves sums of NumDice dice of NumSides sides, biased toward the
// sums the session has rolled less often than expected.
//
// The recorded frequencies are the only mutable state; the adjusted
// distribution is derived from them on every query. Engine is not safe for
// concurrent use.
type Engine struct {
	numDice        int
	numSides       int
	aggressiveness float64
	rng            RandomSource

	outcomes    []int
	trueDist    Distribution
	frequencies Frequencies
	history     history[Frequencies]
}

// NewEngine builds an engine with an all-zero frequency state.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rng := cfg.Rand
	if rng == nil {
		seed, err := NewSeed()
		if err != nil {
			return nil, err
		}
		rng = NewRandomSource(seed)
	}

	trueDist := TrueDistribution(cfg.NumDice, cfg.NumSides)
	frequencies := make(Frequencies, len(trueDist))
	for sum := range trueDist {
		frequencies[sum] = 0
	}

	return &Engine{
		numDice:        cfg.NumDice,
		numSides:       cfg.NumSides,
		aggressiveness: cfg.Aggressiveness,
		rng:            rng,
		outcomes:       sortedKeys(trueDist),
		trueDist:       trueDist,
		frequencies:    frequencies,
	}, nil
}

func (e *Engine) NumDice() int            { return e.numDice }
func (e *Engine) NumSides() int           { return e.numSides }
func (e *Engine) Aggressiveness() float64 { return e.aggressiveness }

// Outcomes returns every sum in the domain in increasing order.
func (e *Engine) Outcomes() []int {
	return append([]int(nil), e.outcomes...)
}

// TrueDistribution returns a copy of the unbiased distribution.
func (e *Engine) TrueDistribution() Distribution {
	return e.trueDist.Clone()
}

// Frequencies returns a copy of the recorded frequencies.
func (e *Engine) Frequencies() Frequencies {
	return e.frequencies.Clone()
}

// TotalRolls returns the number of rolls in the current state.
func (e *Engine) TotalRolls() int {
	return e.frequencies.Total()
}

// AdjustedDistribution derives the distribution served by the next roll.
func (e *Engine) AdjustedDistribution() Distribution {
	return e.adjust(e.frequencies)
}

// adjust derives the served distribution from an arbitrary frequency view.
//
// Each outcome's probability moves away from the true value by
// aggressiveness times its observed deviation, then negatives are clamped
// and the result renormalized. Clamping can flatten the ordering between
// strongly underrepresented outcomes; that is accepted.
func (e *Engine) adjust(frequencies Frequencies) Distribution {
	if e.aggressiveness == 0 || frequencies.Total() == 0 {
		return e.trueDist.Clone()
	}

	observed, err := frequencies.fractions()
	if err != nil {
		return e.trueDist.Clone()
	}

	adjusted := make(Distribution, len(e.trueDist))
	for sum, p := range e.trueDist {
		deviation := observed[sum] - p
		adjusted[sum] = p - e.aggressiveness*deviation
	}
	ClampNegativeToZero(adjusted)

	// The unclamped values sum to 1 and clamping only raises the sum, so
	// this cannot fail.
	if err := Normalize(adjusted); err != nil {
		return e.trueDist.Clone()
	}
	return adjusted
}

// Sample draws one outcome from the adjusted distribution without
// recording it.
func (e *Engine) Sample() int {
	return e.sampleFrom(e.AdjustedDistribution())
}

// sampleFrom walks the domain in increasing order and returns the first
// outcome whose cumulative probability exceeds the draw. Rounding can leave
// the final cumulative sum just below the draw; the last outcome is
// returned then.
func (e *Engine) sampleFrom(dist Distribution) int {
	r := e.rng.Float64()
	var cumulative float64
	for _, sum := range e.outcomes {
		cumulative += dist[sum]
		if cumulative > r {
			return sum
		}
	}
	return e.outcomes[len(e.outcomes)-1]
}

// Roll samples an outcome, records it and returns it. Any redo history is
// discarded.
func (e *Engine) Roll() int {
	return e.rollWith(e.frequencies)
}

// rollWith samples from the distribution derived from view and records the
// outcome in the engine's own frequencies.
func (e *Engine) rollWith(view Frequencies) int {
	dist := e.adjust(view)
	e.history.record(e.frequencies.Clone())
	outcome := e.sampleFrom(dist)
	e.frequencies[outcome]++
	return outcome
}

// Undo restores the frequency state that preceded the last roll or redo.
func (e *Engine) Undo() error {
	prev, err := e.history.back(e.frequencies)
	if err != nil {
		return fmt.Errorf("undo: %w", err)
	}
	e.frequencies = prev
	return nil
}

// Redo reapplies the last undone roll.
func (e *Engine) Redo() error {
	next, err := e.history.forward(e.frequencies)
	if err != nil {
		return fmt.Errorf("redo: %w", err)
	}
	e.frequencies = next
	return nil
}

func (e *Engine) CanUndo() bool { return e.history.canUndo() }
func (e *Engine) CanRedo() bool { return e.history.canRedo() }

// HistoryDepth returns the number of states on the undo and redo stacks.
func (e *Engine) HistoryDepth() (undo, redo int) {
	return e.history.depth()
}

// Rows returns every outcome's adjusted probability and frequency.
func (e *Engine) Rows() []Row {
	dist := e.AdjustedDistribution()
	rows := make([]Row, 0, len(e.outcomes))
	for _, sum := range e.outcomes {
		rows = append(rows, Row{
			Outcome:        Outcome{Sum: sum},
			Probability:    dist[sum],
			HasProbability: true,
			Frequency:      e.frequencies[sum],
		})
	}
	return rows
}

func (e *Engine) String() string {
	return formatRows(e.Rows())
}

func formatRows(rows []Row) string {
	var b strings.Builder
	for _, row := range rows {
		if row.HasProbability {
			fmt.Fprintf(&b, "%s: %.4f, %d\n", row.Outcome, row.Probability, row.Frequency)
		} else {
			fmt.Fprintf(&b, "%s: -, %d\n", row.Outcome, row.Frequency)
		}
	}
	return b.String()
}
