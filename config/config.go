// Package config provides configuration loading and access for the simulator.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/cellflow/fixed"
	"github.com/pthm-cable/cellflow/fluid"
	"github.com/pthm-cable/cellflow/scenario"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulator configuration parameters.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Types      TypesConfig      `yaml:"types"`
	Scenario   ScenarioConfig   `yaml:"scenario"`
	Output     OutputConfig     `yaml:"output"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Logging    LoggingConfig    `yaml:"logging"`
	Screen     ScreenConfig     `yaml:"screen"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// SimulationConfig holds run length and physics parameters.
type SimulationConfig struct {
	Ticks         int     `yaml:"ticks"`
	SaveInterval  int     `yaml:"save_interval"` // Ticks between snapshots (0 = never)
	Seed          int64   `yaml:"seed"`          // 0 = time-based
	MaxRows       int     `yaml:"max_rows"`
	MaxCols       int     `yaml:"max_cols"`
	LiquidDamping float64 `yaml:"liquid_damping"` // Scales pressure from unrouted liquid velocity
}

// TypesConfig names the fixed-point formats, e.g. "FIXED(32,16)" or "FAST_FIXED(64,16)".
type TypesConfig struct {
	Pressure string `yaml:"pressure"`
	Velocity string `yaml:"velocity"`
	Flow     string `yaml:"flow"`
}

// ScenarioConfig locates the input scenario.
type ScenarioConfig struct {
	Path string `yaml:"path"`
}

// OutputConfig holds output destinations. Empty values disable an output.
type OutputConfig struct {
	SnapshotDir  string `yaml:"snapshot_dir"`
	TelemetryDir string `yaml:"telemetry_dir"`
	ArchiveDSN   string `yaml:"archive_dsn"` // PostgreSQL connection string
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsInterval int `yaml:"stats_interval"` // Ticks between stats log lines
	PerfWindow    int `yaml:"perf_window"`    // Ticks averaged by the perf collector
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or text
}

// ScreenConfig holds display settings for the graphical viewer.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
	CellSize  int `yaml:"cell_size"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Formats  fluid.Formats
	Limits   scenario.Limits
	LogLevel slog.Level
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in the file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Finalize validates the configuration and recomputes derived values. Call
// it again after changing fields, e.g. from command-line flags.
func (c *Config) Finalize() error {
	if err := c.Validate(); err != nil {
		return err
	}
	return c.computeDerived()
}

// Validate rejects values the simulator cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Simulation.Ticks <= 0 {
		errs = append(errs, fmt.Errorf("simulation.ticks must be positive, got %d", c.Simulation.Ticks))
	}
	if c.Simulation.SaveInterval < 0 {
		errs = append(errs, fmt.Errorf("simulation.save_interval must not be negative, got %d", c.Simulation.SaveInterval))
	}
	if c.Simulation.MaxRows < 0 || c.Simulation.MaxCols < 0 {
		errs = append(errs, fmt.Errorf("simulation.max_rows/max_cols must not be negative"))
	}
	if d := c.Simulation.LiquidDamping; d <= 0 || d > 1 {
		errs = append(errs, fmt.Errorf("simulation.liquid_damping must be in (0, 1], got %v", d))
	}
	if c.Telemetry.StatsInterval < 0 {
		errs = append(errs, fmt.Errorf("telemetry.stats_interval must not be negative"))
	}
	if f := c.Logging.Format; f != "json" && f != "text" {
		errs = append(errs, fmt.Errorf("logging.format must be json or text, got %q", f))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() error {
	var err error
	formats := &c.Derived.Formats
	if formats.Pressure, err = fixed.ParseFormat(c.Types.Pressure); err != nil {
		return fmt.Errorf("types.pressure: %w", err)
	}
	if formats.Velocity, err = fixed.ParseFormat(c.Types.Velocity); err != nil {
		return fmt.Errorf("types.velocity: %w", err)
	}
	if formats.Flow, err = fixed.ParseFormat(c.Types.Flow); err != nil {
		return fmt.Errorf("types.flow: %w", err)
	}

	c.Derived.Limits = scenario.Limits{MaxRows: c.Simulation.MaxRows, MaxCols: c.Simulation.MaxCols}

	if err := c.Derived.LogLevel.UnmarshalText([]byte(strings.ToUpper(c.Logging.Level))); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}

// SimOptions returns simulator options for this configuration.
func (c *Config) SimOptions() fluid.Options {
	return fluid.Options{
		Formats:       c.Derived.Formats,
		Seed:          c.Simulation.Seed,
		LiquidDamping: c.Simulation.LiquidDamping,
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
