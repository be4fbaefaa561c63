package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"adaptive-dice-backend/internal/dice"
)

// turnTaker is implemented by rollers that rotate between players.
type turnTaker interface {
	CurrentActor() int
}

type styles struct {
	roll   lipgloss.Style
	notice lipgloss.Style
}

// Console drives one roller from line-oriented input.
type Console struct {
	roller dice.Roller
	in     *bufio.Scanner
	out    io.Writer
	styles styles
}

// New returns a console reading commands from in and writing to out.
// Styling is only emitted when out is a terminal.
func New(roller dice.Roller, in io.Reader, out io.Writer) *Console {
	renderer := lipgloss.NewRenderer(out)
	return &Console{
		roller: roller,
		in:     bufio.NewScanner(in),
		out:    out,
		styles: styles{
			roll:   renderer.NewStyle().Bold(true),
			notice: renderer.NewStyle().Foreground(lipgloss.Color("9")),
		},
	}
}

// Prompt returns the text shown before reading a command.
func (c *Console) Prompt() string {
	if t, ok := c.roller.(turnTaker); ok {
		return fmt.Sprintf("Player %d, press Enter to roll or type %s or %s: ", t.CurrentActor(), TokenUndo, TokenRedo)
	}
	return fmt.Sprintf("Press Enter to roll or type %s or %s: ", TokenUndo, TokenRedo)
}

// Run prints the table and then reads and executes commands until the
// input ends or ctx is cancelled. End of input is not an error.
func (c *Console) Run(ctx context.Context) error {
	fmt.Fprint(c.out, Render(c.roller.Rows()))
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprint(c.out, c.Prompt())
		if !c.in.Scan() {
			fmt.Fprintln(c.out)
			return c.in.Err()
		}
		c.Execute(ParseCommand(c.in.Text()))
	}
}

// Execute applies one command and prints its result followed by the table.
// Invalid commands and empty history only print a notice.
func (c *Console) Execute(cmd Command) {
	switch cmd {
	case CommandRoll:
		roll := c.roller.Roll()
		fmt.Fprintf(c.out, "\n%s\n\n", c.styles.roll.Render(fmt.Sprintf("Roll: %d", roll)))
	case CommandUndo:
		if err := c.roller.Undo(); err != nil {
			c.notify(err, "Nothing to undo.")
			return
		}
		fmt.Fprintln(c.out, "\nUndid the last roll.")
	case CommandRedo:
		if err := c.roller.Redo(); err != nil {
			c.notify(err, "Nothing to redo.")
			return
		}
		fmt.Fprintln(c.out, "\nRedid the last undone roll.")
	default:
		fmt.Fprintln(c.out, c.styles.notice.Render(
			fmt.Sprintf("Invalid input. Press Enter to roll, or type %s or %s.", TokenUndo, TokenRedo)))
		return
	}
	fmt.Fprint(c.out, Render(c.roller.Rows()))
}

func (c *Console) notify(err error, msg string) {
	if !errors.Is(err, dice.ErrNoHistory) {
		msg = err.Error()
	}
	fmt.Fprintln(c.out, c.styles.notice.Render(msg))
}
