package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/lvsvm/lasvm"
)

// Config is the svmtrain configuration file. Flags given on the command line
// override the values read from it.
type Config struct {
	Kernel  KernelConfig  `yaml:"kernel"`
	Solver  SolverConfig  `yaml:"solver"`
	Cache   CacheConfig   `yaml:"cache"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// KernelConfig selects the kernel function.
type KernelConfig struct {
	Name   string  `yaml:"name"` // linear, rbf, poly
	Gamma  float64 `yaml:"gamma"`
	Degree int     `yaml:"degree"`
	Coef0  float64 `yaml:"coef0"`
}

// SolverConfig selects the strategy and its parameters.
type SolverConfig struct {
	Mode      string  `yaml:"mode"` // online or batch
	C         float64 `yaml:"c"`
	CNegative float64 `yaml:"c_negative"` // 0: same as c
	Epsilon   float64 `yaml:"epsilon"`
	Epochs    int     `yaml:"epochs"`
	Seed      uint64  `yaml:"seed"`
	Equality  bool    `yaml:"equality"`
	Shrinking bool    `yaml:"shrinking"`
	MaxGain   bool    `yaml:"max_gain"`
	Baseline  bool    `yaml:"gradient_baseline"`
}

// CacheConfig sizes the kernel row cache.
type CacheConfig struct {
	SizeMB int64 `yaml:"size_mb"`
}

// LogConfig sets the log level: debug, info, warn or error.
type LogConfig struct {
	Level string `yaml:"level"`
}

// MetricsConfig exposes Prometheus metrics on Addr when set.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

var errInvalidConfig = errors.New("invalid configuration")

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Kernel: KernelConfig{Name: "rbf", Gamma: 1, Degree: 3, Coef0: 0},
		Solver: SolverConfig{
			Mode:      "online",
			C:         1,
			Epsilon:   1e-3,
			Epochs:    1,
			Seed:      1,
			Equality:  lasvm.DefaultEqualityConstraint,
			Shrinking: lasvm.DefaultShrinking,
		},
		Cache: CacheConfig{SizeMB: 256},
		Log:   LogConfig{Level: "info"},
	}
}

// LoadConfig reads path over the defaults. An empty path yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read the config file: %w", err)
	}
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return cfg, cfg.Validate()
}

// Validate reports the first inconsistent setting.
func (c Config) Validate() error {
	switch {
	case c.Kernel.Name != "linear" && c.Kernel.Name != "rbf" && c.Kernel.Name != "poly":
		return fmt.Errorf("%w: kernel.name %q", errInvalidConfig, c.Kernel.Name)
	case c.Kernel.Name != "linear" && c.Kernel.Gamma <= 0:
		return fmt.Errorf("%w: kernel.gamma must be > 0", errInvalidConfig)
	case c.Kernel.Name == "poly" && c.Kernel.Degree < 1:
		return fmt.Errorf("%w: kernel.degree must be >= 1", errInvalidConfig)
	case c.Solver.Mode != "online" && c.Solver.Mode != "batch":
		return fmt.Errorf("%w: solver.mode %q", errInvalidConfig, c.Solver.Mode)
	case c.Solver.C <= 0 || c.Solver.CNegative < 0:
		return fmt.Errorf("%w: solver.c must be > 0", errInvalidConfig)
	case c.Solver.Epsilon <= 0:
		return fmt.Errorf("%w: solver.epsilon must be > 0", errInvalidConfig)
	case c.Solver.Epochs < 1:
		return fmt.Errorf("%w: solver.epochs must be >= 1", errInvalidConfig)
	case c.Cache.SizeMB < 0:
		return fmt.Errorf("%w: cache.size_mb must be >= 0", errInvalidConfig)
	}
	if _, err := c.logLevel(); err != nil {
		return err
	}

	return nil
}

// cNegative is the box size of negative examples.
func (c Config) cNegative() float64 {
	if c.Solver.CNegative > 0 {
		return c.Solver.CNegative
	}

	return c.Solver.C
}

func (c Config) logLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(c.Log.Level))); err != nil {
		return lvl, fmt.Errorf("%w: log.level %q", errInvalidConfig, c.Log.Level)
	}

	return lvl, nil
}

// solverOptions translates the solver section into lasvm options.
func (c Config) solverOptions() []lasvm.Option {
	return []lasvm.Option{
		lasvm.WithEqualityConstraint(c.Solver.Equality),
		lasvm.WithShrinking(c.Solver.Shrinking),
		lasvm.WithMaxGain(c.Solver.MaxGain),
		lasvm.WithGradientBaseline(c.Solver.Baseline),
	}
}
