// Package config loads the anchor configuration file.
//
// Configuration is read from TOML (the default, written by "anchor config
// init") or YAML, chosen by file extension. Values missing from the file keep
// their defaults, and unknown keys are rejected so typos do not pass silently.
//
// The default location follows the XDG base directory convention:
// $XDG_CONFIG_HOME/anchor/config.toml, falling back to
// ~/.config/anchor/config.toml.
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	errs "github.com/matzehuels/anchor/pkg/errors"
	"github.com/matzehuels/anchor/pkg/geometry"
	"github.com/matzehuels/anchor/pkg/placement"
)

const (
	appName  = "anchor"
	fileName = "config.toml"

	DefaultAddr  = "127.0.0.1:7878"
	DefaultRate  = 50.0
	DefaultBurst = 100
)

// =============================================================================
// Types
// =============================================================================

// Config is the full configuration file.
type Config struct {
	Placement PlacementConfig `toml:"placement" yaml:"placement"`
	Cursor    CursorConfig    `toml:"cursor" yaml:"cursor"`
	Debounce  DebounceConfig  `toml:"debounce" yaml:"debounce"`
	Server    ServerConfig    `toml:"server" yaml:"server"`
}

// PlacementConfig holds the trigger-mode defaults.
type PlacementConfig struct {
	Side      geometry.Side      `toml:"side" yaml:"side"`
	Align     geometry.Alignment `toml:"align" yaml:"align"`
	Offset    float64            `toml:"offset" yaml:"offset"`
	Margin    float64            `toml:"margin" yaml:"margin"`
	Tolerance float64            `toml:"tolerance" yaml:"tolerance"`
}

// CursorConfig holds the pointer distance for cursor mode.
type CursorConfig struct {
	OffsetX float64 `toml:"offset_x" yaml:"offset_x"`
	OffsetY float64 `toml:"offset_y" yaml:"offset_y"`
}

// DebounceConfig holds the delays used by surfaces and menus.
type DebounceConfig struct {
	Reposition Duration `toml:"reposition" yaml:"reposition"`
	Close      Duration `toml:"close" yaml:"close"`
	Typeahead  Duration `toml:"typeahead" yaml:"typeahead"`
}

// ServerConfig configures "anchor serve".
type ServerConfig struct {
	Addr  string  `toml:"addr" yaml:"addr"`
	Rate  float64 `toml:"rate" yaml:"rate"`
	Burst int     `toml:"burst" yaml:"burst"`
}

// Duration is a time.Duration written as a Go duration string ("300ms").
type Duration struct {
	time.Duration
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return errs.Wrap(errs.ErrCodeInvalidConfig, err, "invalid duration %q", text)
	}
	d.Duration = v
	return nil
}

// =============================================================================
// Defaults
// =============================================================================

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Placement: PlacementConfig{
			Side:      geometry.SideRight,
			Align:     geometry.AlignStart,
			Offset:    placement.DefaultOffset,
			Margin:    placement.DefaultMargin,
			Tolerance: placement.DefaultTolerance,
		},
		Cursor: CursorConfig{
			OffsetX: placement.DefaultCursorOffset,
			OffsetY: placement.DefaultCursorOffset,
		},
		Debounce: DebounceConfig{
			Reposition: Duration{16 * time.Millisecond},
			Close:      Duration{300 * time.Millisecond},
			Typeahead:  Duration{500 * time.Millisecond},
		},
		Server: ServerConfig{
			Addr:  DefaultAddr,
			Rate:  DefaultRate,
			Burst: DefaultBurst,
		},
	}
}

// PlacementOptions converts the configuration into calculator options.
func (c *Config) PlacementOptions() placement.Options {
	return placement.Options{
		Side:         c.Placement.Side,
		Align:        c.Placement.Align,
		Offset:       c.Placement.Offset,
		CursorOffset: geometry.Point{X: c.Cursor.OffsetX, Y: c.Cursor.OffsetY},
		Margin:       c.Placement.Margin,
		Tolerance:    c.Placement.Tolerance,
	}
}

// Validate checks every section and returns an INVALID_CONFIG error for the
// first problem found.
func (c *Config) Validate() error {
	if err := c.PlacementOptions().Validate(); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidConfig, err, "placement")
	}
	for name, d := range map[string]Duration{
		"debounce.reposition": c.Debounce.Reposition,
		"debounce.close":      c.Debounce.Close,
		"debounce.typeahead":  c.Debounce.Typeahead,
	} {
		if d.Duration < 0 {
			return errs.New(errs.ErrCodeInvalidConfig, "%s cannot be negative: %s", name, d)
		}
	}
	if c.Server.Addr == "" {
		return errs.New(errs.ErrCodeInvalidConfig, "server.addr is required")
	}
	if c.Server.Rate <= 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "server.rate must be positive: %v", c.Server.Rate)
	}
	if c.Server.Burst < 1 {
		return errs.New(errs.ErrCodeInvalidConfig, "server.burst must be at least 1: %d", c.Server.Burst)
	}
	return nil
}

// =============================================================================
// Loading
// =============================================================================

// Load reads the file at path on top of the defaults and validates the result.
// Files ending in .yaml or .yml are decoded as YAML, everything else as TOML.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrCodeNotFound, err, "config file %s", path)
		}
		return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "read %s", path)
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = decodeYAML(data, cfg)
	default:
		err = decodeTOML(data, cfg)
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefault loads the file at DefaultPath, returning the defaults when it
// does not exist.
func LoadDefault() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return Default(), nil
	}
	cfg, err := Load(path)
	if errs.Is(err, errs.ErrCodeNotFound) {
		return Default(), nil
	}
	return cfg, err
}

func decodeTOML(data []byte, cfg *Config) error {
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return errs.New(errs.ErrCodeInvalidConfig, "unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// =============================================================================
// Writing
// =============================================================================

// Write encodes cfg as TOML.
func Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err, "encode config")
	}
	return nil
}

// WriteFile writes cfg as TOML to path, creating parent directories.
// It refuses to overwrite an existing file unless force is set.
func WriteFile(path string, cfg *Config, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return errs.New(errs.ErrCodeInvalidInput, "%s already exists (use --force to overwrite)", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err, "create config directory")
	}
	var buf bytes.Buffer
	if err := Write(&buf, cfg); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err, "write %s", path)
	}
	return nil
}

// =============================================================================
// Paths
// =============================================================================

// Dir returns the configuration directory using the XDG standard
// (~/.config/anchor/).
func Dir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// DefaultPath returns the default configuration file path.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}
