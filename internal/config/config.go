// Package config holds the option structs consumed by the compiler and
// interpreter (spec.md §6) plus an optional TOML file loader for them.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// CompilerOptions are the options spec.md §6 lists for the compiler.
type CompilerOptions struct {
	BaseAddress    uint16 `toml:"base_address"`
	Listing        bool   `toml:"listing"`
	MaxIdentifiers int    `toml:"max_identifiers"`
	MaxCodeSize    int    `toml:"max_code_size"`
}

// DefaultCompilerOptions returns the spec.md §6 defaults.
func DefaultCompilerOptions() CompilerOptions {
	return CompilerOptions{
		BaseAddress:    0,
		Listing:        false,
		MaxIdentifiers: 100,
		MaxCodeSize:    8192,
	}
}

// InterpreterOptions are the options spec.md §6 lists for the interpreter.
// MaxJumps of 0 means unbounded, per spec.md §6 ("u32 or unbounded").
type InterpreterOptions struct {
	SampleRate uint32 `toml:"sample_rate"`
	MaxJumps   uint32 `toml:"max_jumps"`
}

// DefaultInterpreterOptions returns the spec.md §6 defaults.
func DefaultInterpreterOptions() InterpreterOptions {
	return InterpreterOptions{
		SampleRate: 8772,
		MaxJumps:   0,
	}
}

// File is the shape of an on-disk TOML config file for the notranc/notranplay
// CLIs: a "[compiler]" table and a "[interpreter]" table, either or both
// present. Unset fields keep their defaults.
type File struct {
	Compiler    CompilerOptions    `toml:"compiler"`
	Interpreter InterpreterOptions `toml:"interpreter"`
}

// LoadFile parses a TOML config file, seeding both tables with their
// defaults so a file that only sets one field doesn't zero the rest.
// BurntSushi/toml is already pulled transitively into the wider toolchain's
// dependency graph (it backs Fyne's own theme/config loading) but was never
// exercised directly; this is its first real caller.
func LoadFile(path string) (File, error) {
	f := File{
		Compiler:    DefaultCompilerOptions(),
		Interpreter: DefaultInterpreterOptions(),
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("reading config %s: %w", path, err)
	}
	if _, err := toml.Decode(string(data), &f); err != nil {
		return f, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return f, nil
}
