// Package config loads nanojvm's TOML configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/daimatz/nanojvm/pkg/classfile"
	"github.com/daimatz/nanojvm/pkg/vm"
)

// Config is the contents of a nanojvm.toml file.
type Config struct {
	ClassFile   ClassFile   `toml:"classfile"`
	Interpreter Interpreter `toml:"interpreter"`
	Log         Log         `toml:"log"`
}

// ClassFile configures parsing.
type ClassFile struct {
	MajorVersion int `toml:"major-version"`
}

// Interpreter configures execution limits.
type Interpreter struct {
	MaxInstructions     int64 `toml:"max-instructions"`
	CancelCheckInterval int   `toml:"cancel-check-interval"`
}

// Log configures the commonlog backend.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	Path      string `toml:"path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ClassFile: ClassFile{MajorVersion: classfile.DefaultMajorVersion},
		Interpreter: Interpreter{
			MaxInstructions:     vm.DefaultMaxInstructions,
			CancelCheckInterval: vm.DefaultCheckInterval,
		},
	}
}

// Load reads a configuration file. Keys it does not set keep their default
// values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes configuration text over the defaults.
func Parse(data []byte) (*Config, error) {
	c := Default()
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.ClassFile.MajorVersion < 1 || c.ClassFile.MajorVersion > 0xFFFF {
		errs = append(errs, fmt.Errorf("classfile.major-version %d out of range", c.ClassFile.MajorVersion))
	}
	if c.Interpreter.MaxInstructions < 0 {
		errs = append(errs, fmt.Errorf("interpreter.max-instructions must not be negative"))
	}
	if c.Interpreter.CancelCheckInterval < 1 {
		errs = append(errs, fmt.Errorf("interpreter.cancel-check-interval must be at least 1"))
	}
	return errors.Join(errs...)
}

// ClassOptions returns the parser options.
func (c *Config) ClassOptions() classfile.Options {
	return classfile.Options{MajorVersion: uint16(c.ClassFile.MajorVersion)}
}

// VMOptions returns the VM options. The caller sets Sink.
func (c *Config) VMOptions() vm.Options {
	return vm.Options{
		Class:           c.ClassOptions(),
		MaxInstructions: c.Interpreter.MaxInstructions,
		CheckInterval:   c.Interpreter.CancelCheckInterval,
	}
}
