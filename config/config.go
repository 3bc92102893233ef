// Package config loads the solver tolerances from a TOML file.
//
//	[gjk]
//	max_iterations = 32
//	epsilon = 1e-4
//	near_zero = 1e-6
//
//	[epa]
//	max_iterations = 64
//	tolerance = 1e-4
//	degenerate_epsilon = 1e-12
//
//	[sweep]
//	margin_scale = 0.05
//
//	[log]
//	level = "warn"
//
// Missing keys keep their default value; unknown keys are rejected.
package config

import (
	"bytes"
	"os"

	"github.com/akmonengine/narrowphase/epa"
	"github.com/akmonengine/narrowphase/gjk"
	"github.com/akmonengine/narrowphase/internal/logging"
	"github.com/akmonengine/narrowphase/shape"
	"github.com/charmbracelet/log"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

type GJK struct {
	MaxIterations int     `toml:"max_iterations"`
	Epsilon       float64 `toml:"epsilon"`
	NearZero      float64 `toml:"near_zero"`
}

type EPA struct {
	MaxIterations     int     `toml:"max_iterations"`
	Tolerance         float64 `toml:"tolerance"`
	DegenerateEpsilon float64 `toml:"degenerate_epsilon"`
}

type Sweep struct {
	MarginScale float64 `toml:"margin_scale"`
}

type Log struct {
	Level string `toml:"level"`
}

// Config mirrors the TOML file.
type Config struct {
	GJK   GJK   `toml:"gjk"`
	EPA   EPA   `toml:"epa"`
	Sweep Sweep `toml:"sweep"`
	Log   Log   `toml:"log"`
}

// Default returns the built-in tolerances.
func Default() *Config {
	g := gjk.DefaultSettings()
	return &Config{
		GJK: GJK{
			MaxIterations: g.MaxIterations,
			Epsilon:       g.Epsilon,
			NearZero:      g.NearZero,
		},
		EPA: EPA{
			MaxIterations:     g.EPA.MaxIterations,
			Tolerance:         g.EPA.Tolerance,
			DegenerateEpsilon: g.EPA.DegenerateEpsilon,
		},
		Sweep: Sweep{MarginScale: shape.DefaultSweepMarginScale},
		Log:   Log{Level: "warn"},
	}
}

// Parse decodes data over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	decoder := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "load config %s", path)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.GJK.MaxIterations < 1:
		return errors.Errorf("gjk.max_iterations must be at least 1, got %d", c.GJK.MaxIterations)
	case c.GJK.Epsilon <= 0:
		return errors.Errorf("gjk.epsilon must be positive, got %g", c.GJK.Epsilon)
	case c.GJK.NearZero <= 0:
		return errors.Errorf("gjk.near_zero must be positive, got %g", c.GJK.NearZero)
	case c.EPA.MaxIterations < 1:
		return errors.Errorf("epa.max_iterations must be at least 1, got %d", c.EPA.MaxIterations)
	case c.EPA.Tolerance <= 0:
		return errors.Errorf("epa.tolerance must be positive, got %g", c.EPA.Tolerance)
	case c.EPA.DegenerateEpsilon < 0:
		return errors.Errorf("epa.degenerate_epsilon must not be negative, got %g", c.EPA.DegenerateEpsilon)
	case c.Sweep.MarginScale < 0 || c.Sweep.MarginScale > 1:
		return errors.Errorf("sweep.margin_scale must be within [0, 1], got %g", c.Sweep.MarginScale)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrapf(err, "log.level %q", c.Log.Level)
	}
	return nil
}

// Settings converts the tolerances for gjk.NewSolver.
func (c *Config) Settings() gjk.Settings {
	return gjk.Settings{
		MaxIterations: c.GJK.MaxIterations,
		Epsilon:       c.GJK.Epsilon,
		NearZero:      c.GJK.NearZero,
		EPA: epa.Settings{
			MaxIterations:     c.EPA.MaxIterations,
			Tolerance:         c.EPA.Tolerance,
			DegenerateEpsilon: c.EPA.DegenerateEpsilon,
		},
	}
}

func (c *Config) SweepMarginScale() float64 {
	return c.Sweep.MarginScale
}

// Apply pushes the log level to the shared logger.
func (c *Config) Apply() error {
	return logging.SetLevel(c.Log.Level)
}
