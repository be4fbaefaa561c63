package console_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"adaptive-dice-backend/internal/console"
	"adaptive-dice-backend/internal/dice"
)

type fixedSource float64

func (f fixedSource) Float64() float64 { return float64(f) }

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input string
		want  console.Command
	}{
		{"", console.CommandRoll},
		{"\n", console.CommandRoll},
		{"\r\n", console.CommandRoll},
		{"UNDO", console.CommandUndo},
		{"UNDO\n", console.CommandUndo},
		{"REDO", console.CommandRedo},
		{"undo", console.CommandInvalid},
		{" UNDO", console.CommandInvalid},
		{"roll", console.CommandInvalid},
		{" ", console.CommandInvalid},
	}
	for _, tt := range tests {
		if got := console.ParseCommand(tt.input); got != tt.want {
			t.Errorf("ParseCommand(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestRender_PlainEngine(t *testing.T) {
	e, err := dice.NewEngine(dice.EngineConfig{NumDice: 2, NumSides: 6, Rand: fixedSource(0.5)})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	e.Roll()

	out := console.Render(e.Rows())
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 11 {
		t.Fatalf("Render() produced %d lines, want 11:\n%s", len(lines), out)
	}
	if lines[0] != " 2:   3% chance, 0" {
		t.Errorf("first line = %q, want %q", lines[0], " 2:   3% chance, 0")
	}
	if lines[5] != " 7:  17% chance, 1" {
		t.Errorf("seven line = %q, want %q", lines[5], " 7:  17% chance, 1")
	}
}

func TestRender_ContestedHidesOtherPlayers(t *testing.T) {
	c, err := dice.NewContestedEngine(dice.ContestedConfig{
		EngineConfig: dice.EngineConfig{NumDice: 2, NumSides: 6, Aggressiveness: 15, Rand: fixedSource(0.5)},
		NumActors:    2,
	})
	if err != nil {
		t.Fatalf("NewContestedEngine() error = %v", err)
	}
	c.Roll()

	out := console.Render(c.Rows())
	if !strings.Contains(out, "7 (player 1):   -- chance, 1") {
		t.Errorf("Render() missing hidden player 1 line:\n%s", out)
	}
	if !strings.Contains(out, "7 (player 2): ") || strings.Contains(out, "7 (player 2):   --") {
		t.Errorf("Render() should show player 2's probability:\n%s", out)
	}
}

func TestConsole_Run(t *testing.T) {
	e, err := dice.NewEngine(dice.EngineConfig{NumDice: 2, NumSides: 6, Aggressiveness: 5, Rand: fixedSource(0.5)})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	in := strings.NewReader("UNDO\n\nbogus\nUNDO\nREDO\nREDO\n")
	var out bytes.Buffer
	if err := console.New(e, in, &out).Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"Press Enter to roll or type UNDO or REDO: ",
		"Nothing to undo.",
		"Roll: 7",
		"Invalid input.",
		"Undid the last roll.",
		"Redid the last undone roll.",
		"Nothing to redo.",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if e.TotalRolls() != 1 {
		t.Errorf("TotalRolls() = %d, want 1", e.TotalRolls())
	}
}

func TestConsole_PromptNamesPlayer(t *testing.T) {
	c, err := dice.NewContestedEngine(dice.ContestedConfig{
		EngineConfig: dice.EngineConfig{NumDice: 2, NumSides: 6, Rand: fixedSource(0.1)},
		NumActors:    2,
	})
	if err != nil {
		t.Fatalf("NewContestedEngine() error = %v", err)
	}

	var out bytes.Buffer
	con := console.New(c, strings.NewReader(""), &out)
	if got := con.Prompt(); !strings.HasPrefix(got, "Player 1, ") {
		t.Errorf("Prompt() = %q, want player 1", got)
	}
	con.Execute(console.CommandRoll)
	if got := con.Prompt(); !strings.HasPrefix(got, "Player 2, ") {
		t.Errorf("Prompt() after a roll = %q, want player 2", got)
	}
}

func TestConsole_RunStopsOnCancel(t *testing.T) {
	e, err := dice.NewEngine(dice.EngineConfig{NumDice: 1, NumSides: 6})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	if err := console.New(e, strings.NewReader("\n\n"), &out).Run(ctx); err != context.Canceled {
		t.Fatalf("Run() error = %v, want %v", err, context.Canceled)
	}
	if e.TotalRolls() != 0 {
		t.Errorf("TotalRolls() = %d, want 0", e.TotalRolls())
	}
}
