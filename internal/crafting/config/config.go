// Package config loads the planner configuration: search limits, pruning
// ceilings, heuristic weights and the named heuristic rule presets.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/rsned/craft-planner/internal/crafting/planner"
	"github.com/rsned/craft-planner/pkg/crafting"
)

// MaxFileSize bounds the size of a configuration file.
const MaxFileSize = 1024 * 1024

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrUnknownPreset is returned when the heuristic names a preset that is
// not defined.
var ErrUnknownPreset = errors.New("unknown heuristic preset")

var validate = validator.New()

// Config is the full planner configuration.
type Config struct {
	Search    Search                    `yaml:"search"`
	Heuristic Heuristic                 `yaml:"heuristic"`
	Presets   map[string][]planner.Rule `yaml:"presets" validate:"dive,dive"`
}

// Search holds the limits of a single search.
type Search struct {
	Deadline time.Duration       `yaml:"deadline" validate:"gte=0"`
	Prune    planner.PruneConfig `yaml:"prune"`

	// Categories overrides the item categories derived at import.
	Categories map[string]crafting.ItemCategory `yaml:"categories,omitempty" validate:"dive,keys,required,endkeys,oneof=resource material tool"`
}

// Heuristic selects the weights and rules of the search heuristic. Rules
// of the named preset run before Rules.
type Heuristic struct {
	Weights planner.Weights `yaml:"weights"`
	Preset  string          `yaml:"preset,omitempty"`
	Rules   []planner.Rule  `yaml:"rules,omitempty" validate:"dive"`
}

// Default returns the embedded default configuration.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := decode(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("decoding embedded defaults: %w", err)
	}
	return cfg, nil
}

// Load reads the file at path on top of the defaults and validates the
// result. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return cfg, cfg.Validate()
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("config %s is %d bytes, limit is %d", path, info.Size(), MaxFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := decode(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data on top of the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}
	if err := decode(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, cfg.Validate()
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks field constraints and that the selected preset exists.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	if c.Heuristic.Preset != "" {
		if _, ok := c.Presets[c.Heuristic.Preset]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownPreset, c.Heuristic.Preset)
		}
	}
	return nil
}

// HeuristicConfig returns the planner heuristic configuration: the preset
// rules followed by the custom rules.
func (c *Config) HeuristicConfig() planner.HeuristicConfig {
	rules := slices.Clone(c.Presets[c.Heuristic.Preset])
	rules = append(rules, c.Heuristic.Rules...)
	return planner.HeuristicConfig{
		Weights: c.Heuristic.Weights,
		Rules:   rules,
	}
}

// PruneConfig returns the pruning configuration for items, applying the
// category overrides.
func (c *Config) PruneConfig(items []crafting.Item) planner.PruneConfig {
	pc := c.Search.Prune
	pc.Tools, pc.Resources = nil, nil
	for _, it := range items {
		switch c.Category(it) {
		case crafting.CategoryTool:
			pc.Tools = append(pc.Tools, it.ID)
		case crafting.CategoryResource:
			pc.Resources = append(pc.Resources, it.ID)
		}
	}
	return pc
}

// Category returns the category of item after overrides.
func (c *Config) Category(it crafting.Item) crafting.ItemCategory {
	if o, ok := c.Search.Categories[it.ID]; ok {
		return o
	}
	return it.Category
}
