package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"adaptive-dice-backend/internal/dice"
)

//go:embed presets.yaml
var defaultPresets []byte

// ContestedPreset turns on per-player balancing of one outcome.
type ContestedPreset struct {
	Outcome int `yaml:"outcome" json:"outcome"`
	Players int `yaml:"players" json:"players"`
}

// Preset is a named table geometry.
type Preset struct {
	Name           string           `yaml:"name" json:"name"`
	Description    string           `yaml:"description,omitempty" json:"description,omitempty"`
	NumDice        int              `yaml:"num_dice" json:"num_dice"`
	NumSides       int              `yaml:"num_sides" json:"num_sides"`
	Aggressiveness float64          `yaml:"aggressiveness" json:"aggressiveness"`
	Contested      *ContestedPreset `yaml:"contested,omitempty" json:"contested,omitempty"`
}

type presetFile struct {
	Presets []Preset `yaml:"presets"`
}

// Presets holds presets in file order.
type Presets struct {
	list   []Preset
	byName map[string]Preset
}

// LoadPresets reads presets from path, or the built-in set when path is
// empty.
func LoadPresets(path string) (*Presets, error) {
	data := defaultPresets
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read presets file: %w", err)
		}
	}
	return ParsePresets(data)
}

// ParsePresets decodes and validates a presets document.
func ParsePresets(data []byte) (*Presets, error) {
	var file presetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse presets: %w", err)
	}
	if len(file.Presets) == 0 {
		return nil, fmt.Errorf("no presets defined")
	}

	p := &Presets{byName: make(map[string]Preset, len(file.Presets))}
	for _, preset := range file.Presets {
		if preset.Name == "" {
			return nil, fmt.Errorf("preset without a name")
		}
		if _, dup := p.byName[preset.Name]; dup {
			return nil, fmt.Errorf("duplicate preset %q", preset.Name)
		}
		if preset.Contested != nil && preset.Contested.Outcome == 0 {
			preset.Contested.Outcome = dice.DefaultContestedOutcome
		}
		if err := preset.Validate(); err != nil {
			return nil, fmt.Errorf("preset %q: %w", preset.Name, err)
		}
		p.list = append(p.list, preset)
		p.byName[preset.Name] = preset
	}
	return p, nil
}

// Validate checks the preset would build an engine.
func (p Preset) Validate() error {
	cfg := p.EngineConfig(nil)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if p.Contested == nil {
		return nil
	}
	if p.Contested.Players < 1 {
		return fmt.Errorf("%w: number of players must be positive, got %d", dice.ErrInvalidArgument, p.Contested.Players)
	}
	if o := p.Contested.Outcome; o < p.NumDice || o > p.NumDice*p.NumSides {
		return fmt.Errorf("%w: contested outcome %d is not a possible sum", dice.ErrInvalidArgument, o)
	}
	return nil
}

// EngineConfig returns the engine configuration for the preset.
func (p Preset) EngineConfig(rng dice.RandomSource) dice.EngineConfig {
	return dice.EngineConfig{
		NumDice:        p.NumDice,
		NumSides:       p.NumSides,
		Aggressiveness: p.Aggressiveness,
		Rand:           rng,
	}
}

// NewRoller builds the engine described by the preset.
func (p Preset) NewRoller(rng dice.RandomSource) (dice.Roller, error) {
	if p.Contested == nil {
		e, err := dice.NewEngine(p.EngineConfig(rng))
		if err != nil {
			return nil, err
		}
		return e, nil
	}
	c, err := dice.NewContestedEngine(dice.ContestedConfig{
		EngineConfig:     p.EngineConfig(rng),
		ContestedOutcome: p.Contested.Outcome,
		NumActors:        p.Contested.Players,
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns the preset called name.
func (p *Presets) Get(name string) (Preset, bool) {
	preset, ok := p.byName[name]
	return preset, ok
}

// List returns every preset in file order.
func (p *Presets) List() []Preset {
	return append([]Preset(nil), p.list...)
}
