// Package config loads and saves experiment files: the Morris experiment,
// the engine that serves it, and the template simulations it perturbs.
package config

import (
	"fmt"
	"os"
	"runtime"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/sensim/internal/engine"
	"github.com/san-kum/sensim/internal/model"
	"github.com/san-kum/sensim/internal/morris"
)

const (
	DefaultEngine   = "native"
	DefaultNumPaths = 20
	DefaultDataDir  = ".sensim"
	DefaultSeed     = 1
)

type Config struct {
	Experiment      morris.Experiment `yaml:"experiment"`
	Engine          EngineConfig      `yaml:"engine"`
	Workers         int               `yaml:"workers"`
	ContinueOnError bool              `yaml:"continue_on_error,omitempty"`
	DataDir         string            `yaml:"data_dir"`
	Model           model.Container   `yaml:"model"`
}

type EngineConfig struct {
	Kind     string `yaml:"kind"`
	Levels   int    `yaml:"levels"`
	GridJump int    `yaml:"grid_jump"`
	Seed     int64  `yaml:"seed"`
	RScript  string `yaml:"rscript,omitempty"`
	TempDir  string `yaml:"temp_dir,omitempty"`
}

func DefaultConfig() *Config {
	exp := morris.NewExperiment("Sensitivity", "Base")
	exp.NumPaths = DefaultNumPaths
	return &Config{
		Experiment: *exp,
		Engine: EngineConfig{
			Kind:     DefaultEngine,
			Levels:   engine.DefaultLevels,
			GridJump: engine.DefaultGridJump,
			Seed:     DefaultSeed,
		},
		Workers: runtime.NumCPU(),
		DataDir: DefaultDataDir,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Model.FileName = path
	cfg.link()
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// RecordYears stores the analysed years in the experiment and rewrites the
// file at path when they changed. It reports whether the file was written.
func (c *Config) RecordYears(path string, years []int) (bool, error) {
	if slices.Equal(c.Experiment.Years, years) {
		return false, nil
	}
	c.Experiment.Years = slices.Clone(years)
	if err := Save(path, c); err != nil {
		return false, fmt.Errorf("record years in %s: %w", path, err)
	}
	return true, nil
}

// Validate checks the experiment and engine settings and that the base
// simulation exists.
func (c *Config) Validate() error {
	if err := c.Experiment.Validate(); err != nil {
		return err
	}
	if c.Engine.Levels < 2 {
		return fmt.Errorf("%w: levels must be at least 2, got %d", morris.ErrConfiguration, c.Engine.Levels)
	}
	if c.Engine.GridJump < 1 || c.Engine.GridJump >= c.Engine.Levels {
		return fmt.Errorf("%w: grid_jump %d must be in [1, %d]", morris.ErrConfiguration, c.Engine.GridJump, c.Engine.Levels-1)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", morris.ErrConfiguration, c.Workers)
	}
	if _, err := c.Container().Simulation(c.Experiment.Base); err != nil {
		return fmt.Errorf("%w: %v", morris.ErrConfiguration, err)
	}
	return nil
}

// Container returns the template simulations with parent links restored.
func (c *Config) Container() *model.Container {
	c.link()
	return &c.Model
}

func (c *Config) EngineOptions() engine.Options {
	return engine.Options{
		Levels:   c.Engine.Levels,
		GridJump: c.Engine.GridJump,
		Seed:     c.Engine.Seed,
		RScript:  c.Engine.RScript,
		TempDir:  c.Engine.TempDir,
	}
}

func (c *Config) link() {
	for _, s := range c.Model.Simulations {
		s.ParentAllChildren()
		s.SetParent(&c.Model)
	}
}
