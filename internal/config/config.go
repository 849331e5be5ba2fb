// Package config handles monkey.toml / monkey.yaml runtime configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// MaxGlobals is the largest global store a 2-byte operand can address.
const MaxGlobals = 1 << 16

var ErrInvalid = errors.New("invalid configuration")

// Config is the full runtime configuration.
type Config struct {
	VM  VM  `toml:"vm" yaml:"vm"`
	Log Log `toml:"log" yaml:"log"`

	// Path is the file the configuration was loaded from (empty for defaults).
	Path string `toml:"-" yaml:"-"`
}

// VM sizes the virtual machine.
type VM struct {
	StackSize        int `toml:"stack-size" yaml:"stack-size"`
	GlobalsSize      int `toml:"globals-size" yaml:"globals-size"`
	MaxFrames        int `toml:"max-frames" yaml:"max-frames"`
	InstructionLimit int `toml:"instruction-limit" yaml:"instruction-limit"`
}

// Log configures commonlog.
type Log struct {
	Verbosity int    `toml:"verbosity" yaml:"verbosity"`
	Path      string `toml:"path" yaml:"path"`
}

func Default() *Config {
	return &Config{
		VM: VM{
			StackSize:   2048,
			GlobalsSize: MaxGlobals,
			MaxFrames:   1024,
		},
	}
}

// Load reads path, picking the decoder from its extension. Keys absent from
// the file keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("parse error in %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("parse error in %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown config format %q", ErrInvalid, filepath.Ext(path))
	}
	c.Path = path

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func (c *Config) Validate() error {
	switch {
	case c.VM.StackSize <= 0:
		return fmt.Errorf("%w: stack-size must be positive, got %d", ErrInvalid, c.VM.StackSize)
	case c.VM.GlobalsSize <= 0:
		return fmt.Errorf("%w: globals-size must be positive, got %d", ErrInvalid, c.VM.GlobalsSize)
	case c.VM.GlobalsSize > MaxGlobals:
		return fmt.Errorf("%w: globals-size %d exceeds %d", ErrInvalid, c.VM.GlobalsSize, MaxGlobals)
	case c.VM.MaxFrames <= 0:
		return fmt.Errorf("%w: max-frames must be positive, got %d", ErrInvalid, c.VM.MaxFrames)
	case c.VM.InstructionLimit < 0:
		return fmt.Errorf("%w: instruction-limit must not be negative", ErrInvalid)
	case c.Log.Verbosity < -4 || c.Log.Verbosity > 2:
		return fmt.Errorf("%w: verbosity %d out of range", ErrInvalid, c.Log.Verbosity)
	}
	return nil
}

// LogPath returns the log file path, or nil to log to stderr.
func (c *Config) LogPath() *string {
	if c.Log.Path == "" {
		return nil
	}
	p := c.Log.Path
	return &p
}
