package console

import (
	"fmt"
	"math"
	"strings"

	"adaptive-dice-backend/internal/dice"
)

// Percent rounds a probability to a whole percentage.
func Percent(p float64) int {
	return int(math.Round(p * 100))
}

// Render lists every row as "<outcome>: <percent>% chance, <frequency>".
// Rows without a probability (other players' contested lines) show "--".
func Render(rows []dice.Row) string {
	width := 0
	for _, row := range rows {
		if n := len(row.Outcome.String()); n > width {
			width = n
		}
	}

	var b strings.Builder
	for _, row := range rows {
		if row.HasProbability {
			fmt.Fprintf(&b, "%*s: %3d%% chance, %d\n", width, row.Outcome, Percent(row.Probability), row.Frequency)
		} else {
			fmt.Fprintf(&b, "%*s:   -- chance, %d\n", width, row.Outcome, row.Frequency)
		}
	}
	return b.String()
}
