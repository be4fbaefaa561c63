// Command diceroller plays an adaptive dice table in the terminal.
//
// Press Enter to roll, or type UNDO or REDO. A contested game rotates
// between players and balances the contested sum for each of them.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"adaptive-dice-backend/internal/config"
	"adaptive-dice-backend/internal/console"
	"adaptive-dice-backend/internal/dice"
)

func main() {
	presetName := flag.String("preset", "", "named preset (see -list)")
	presetsFile := flag.String("presets", "", "YAML presets file (default: built-in presets)")
	list := flag.Bool("list", false, "list presets and exit")
	numDice := flag.Int("dice", 2, "number of dice")
	numSides := flag.Int("sides", 6, "sides per die")
	aggressiveness := flag.Float64("aggressiveness", 15, "bias strength toward under-rolled sums")
	players := flag.Int("players", 0, "players sharing the contested sum (0 disables)")
	contested := flag.Int("contested", dice.DefaultContestedOutcome, "contested sum when -players is set")
	seed := flag.Int64("seed", 0, "random seed (0 picks one)")
	flag.Parse()

	log.SetFlags(0)

	presets, err := config.LoadPresets(*presetsFile)
	if err != nil {
		log.Fatalf("Failed to load presets: %v", err)
	}

	if *list {
		for _, p := range presets.List() {
			fmt.Printf("%-22s %dd%d aggressiveness %g  %s\n", p.Name, p.NumDice, p.NumSides, p.Aggressiveness, p.Description)
		}
		return
	}

	preset := config.Preset{
		Name:           "custom",
		NumDice:        *numDice,
		NumSides:       *numSides,
		Aggressiveness: *aggressiveness,
	}
	if *players > 0 {
		preset.Contested = &config.ContestedPreset{Outcome: *contested, Players: *players}
	}
	if *presetName != "" {
		var ok bool
		if preset, ok = presets.Get(*presetName); !ok {
			log.Fatalf("Unknown preset %q", *presetName)
		}
	}

	if *seed == 0 {
		if *seed, err = dice.NewSeed(); err != nil {
			log.Fatalf("Failed to seed: %v", err)
		}
	}

	roller, err := preset.NewRoller(dice.NewRandomSource(*seed))
	if err != nil {
		log.Fatalf("Invalid table: %v", err)
	}

	fmt.Printf("%s: %dd%d, aggressiveness %g, seed %d\n\n", preset.Name, preset.NumDice, preset.NumSides, preset.Aggressiveness, *seed)
	if err := console.New(roller, os.Stdin, os.Stdout).Run(context.Background()); err != nil {
		log.Fatalf("Console stopped: %v", err)
	}
}
