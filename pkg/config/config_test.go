package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c, err := Parse(nil)
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if c.ClassFile.MajorVersion != 50 || c.Interpreter.MaxInstructions != 10_000_000 || c.Interpreter.CancelCheckInterval != 1024 {
			t.Errorf("got %+v", c)
		}
	})

	t.Run("overrides", func(t *testing.T) {
		c, err := Parse([]byte(`
[classfile]
major-version = 52

[interpreter]
max-instructions = 0

[log]
verbosity = 2
path = "nanojvm.log"
`))
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if c.ClassFile.MajorVersion != 52 || c.Interpreter.MaxInstructions != 0 {
			t.Errorf("got %+v", c)
		}
		if c.Interpreter.CancelCheckInterval != 1024 {
			t.Errorf("unset key lost its default: %d", c.Interpreter.CancelCheckInterval)
		}
		if c.Log.Verbosity != 2 || c.Log.Path != "nanojvm.log" {
			t.Errorf("log: got %+v", c.Log)
		}

		opts := c.VMOptions()
		if opts.Class.MajorVersion != 52 || opts.MaxInstructions != 0 || opts.CheckInterval != 1024 {
			t.Errorf("VMOptions: got %+v", opts)
		}
	})

	t.Run("errors", func(t *testing.T) {
		tests := []struct {
			name string
			data string
			want string
		}{
			{"unknown key", "[interpreter]\nmax-instruction = 5\n", "unknown keys: interpreter.max-instruction"},
			{"syntax", "[interpreter\n", "parse error"},
			{"negative budget", "[interpreter]\nmax-instructions = -1\n", "max-instructions"},
			{"zero interval", "[interpreter]\ncancel-check-interval = 0\n", "cancel-check-interval"},
			{"version", "[classfile]\nmajor-version = 70000\n", "major-version"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := Parse([]byte(tt.data))
				if err == nil || !strings.Contains(err.Error(), tt.want) {
					t.Errorf("got %v, want error containing %q", err, tt.want)
				}
			})
		}
	})
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nanojvm.toml")
	if err := os.WriteFile(path, []byte("[interpreter]\nmax-instructions = 42\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Interpreter.MaxInstructions != 42 {
		t.Errorf("got %d, want 42", c.Interpreter.MaxInstructions)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("Load of a missing file succeeded")
	}
}
