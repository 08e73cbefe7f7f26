package cli

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/roach88/hostbridge/internal/bridge"
)

// Config is the optional hostbridge.toml file.
//
//	log_level = "debug"
//	format = "json"
//	workers = 4
//
//	[interpreter]
//	operators = ["print"]
//
//	[emitter]
//	tick_interval = "250ms"
type Config struct {
	LogLevel    string            `toml:"log_level"`
	Format      string            `toml:"format"`
	Workers     int               `toml:"workers"`
	Interpreter InterpreterConfig `toml:"interpreter"`
	Emitter     EmitterConfig     `toml:"emitter"`
}

// InterpreterConfig configures runOperations.
type InterpreterConfig struct {
	// Operators restricts the recognised operators. Empty means all.
	Operators []string `toml:"operators"`
}

// EmitterConfig configures EventEmitter.
type EmitterConfig struct {
	// TickInterval is a Go duration string, e.g. "1s".
	TickInterval string `toml:"tick_interval"`
}

// LoadConfig reads a TOML config file. Unknown keys are rejected.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Format != "" && !isValidFormat(c.Format) {
		return fmt.Errorf("format %q: must be one of %v", c.Format, ValidFormats)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative")
	}
	if _, err := c.level(); err != nil {
		return err
	}
	if _, err := c.tickInterval(); err != nil {
		return err
	}
	return nil
}

// level returns the configured log level, Info when unset.
func (c *Config) level() (slog.Level, error) {
	var lvl slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return lvl, nil
}

func (c *Config) tickInterval() (time.Duration, error) {
	if c.Emitter.TickInterval == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Emitter.TickInterval)
	if err != nil {
		return 0, fmt.Errorf("emitter.tick_interval: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("emitter.tick_interval must be positive")
	}
	return d, nil
}

// moduleOptions translates the config into bridge options.
func (c *Config) moduleOptions() []bridge.Option {
	var opts []bridge.Option
	if len(c.Interpreter.Operators) > 0 {
		opts = append(opts, bridge.WithOperators(c.Interpreter.Operators...))
	}
	if d, _ := c.tickInterval(); d > 0 {
		opts = append(opts, bridge.WithTickInterval(d))
	}
	return opts
}
