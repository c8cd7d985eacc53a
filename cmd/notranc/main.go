// Command notranc compiles NOTRAN source into an object file, optionally
// printing a listing, and can disassemble an object file back into a trace.
// Structured as a single cobra root command with per-operation subcommands,
// grounded on oisee-z80-optimizer/cmd/z80opt.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"notran/internal/compiler"
	"notran/internal/config"
	"notran/internal/debug"
	"notran/internal/interp"
	"notran/internal/objfile"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "notranc",
		Short: "NOTRAN compiler — turn bytecode-notation source into an object file",
	}

	var cfgPath string
	var output string
	var listing bool
	var format string
	var logPath string

	compileCmd := &cobra.Command{
		Use:   "compile [source.ntr]",
		Short: "Compile a NOTRAN source file into an object file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := compilerOptions(cfgPath)
			if err != nil {
				return err
			}

			src, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}

			logger := newCLILogger()
			defer flushLogger(logger, logPath)

			result := compiler.Compile(string(src), opts, logger)
			if listing || opts.Listing {
				printListing(result)
			}
			if !result.OK {
				for _, e := range result.Errors {
					fmt.Fprintln(os.Stderr, e.Error())
				}
				return fmt.Errorf("compilation failed with %d error(s)", len(result.Errors))
			}

			writer, err := objectWriter(format)
			if err != nil {
				return err
			}

			if output == "" {
				output = args[0] + ".obj"
			}
			out, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating %s: %w", output, err)
			}
			defer out.Close()

			if err := writer.Write(result.Code, opts.BaseAddress, out); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}
			fmt.Printf("Wrote %d bytes to %s\n", len(result.Code), output)
			return nil
		},
	}
	compileCmd.Flags().StringVar(&cfgPath, "config", "", "TOML config file (optional)")
	compileCmd.Flags().StringVarP(&output, "output", "o", "", "Output object file path (default: <source>.obj)")
	compileCmd.Flags().BoolVar(&listing, "listing", false, "Print a source/byte-offset listing to stdout")
	compileCmd.Flags().StringVar(&format, "format", "raw", "Object format: raw, ihex, or pap")
	compileCmd.Flags().StringVar(&logPath, "log", "", "Write compiler diagnostics to this file")

	var maxJumps uint32
	disasmCmd := &cobra.Command{
		Use:   "disasm [object.obj]",
		Short: "Disassemble an object file into a human-readable instruction trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer f.Close()
			code, _, err := objfile.ReadRaw(f)
			if err != nil {
				return err
			}
			entries, err := interp.Disassemble(code, maxJumps)
			for _, e := range entries {
				if e.Operands != "" {
					fmt.Printf("%04X  %-4s %s\n", e.Offset, e.Mnemonic, e.Operands)
				} else {
					fmt.Printf("%04X  %s\n", e.Offset, e.Mnemonic)
				}
			}
			if err != nil {
				return fmt.Errorf("disassembly stopped: %w", err)
			}
			return nil
		},
	}
	disasmCmd.Flags().Uint32Var(&maxJumps, "max-jumps", 0, "Jump budget (0 = unbounded)")

	rootCmd.AddCommand(compileCmd, disasmCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func compilerOptions(cfgPath string) (config.CompilerOptions, error) {
	if cfgPath == "" {
		return config.DefaultCompilerOptions(), nil
	}
	f, err := config.LoadFile(cfgPath)
	if err != nil {
		return config.CompilerOptions{}, err
	}
	return f.Compiler, nil
}

func objectWriter(format string) (objfile.Writer, error) {
	switch format {
	case "raw":
		return objfile.RawWriter{}, nil
	case "ihex":
		return objfile.IntelHexWriter{}, nil
	case "pap":
		return objfile.PAPWriter{}, nil
	default:
		return nil, fmt.Errorf("unknown object format %q: use raw, ihex, or pap", format)
	}
}

func printListing(r *compiler.Result) {
	for _, rec := range r.Listing {
		fmt.Printf("%04X  % -24x %s\n", rec.StartOffset, rec.Bytes, rec.Source)
	}
}

func newCLILogger() *debug.Logger {
	logger := debug.NewLogger(256)
	logger.SetComponentEnabled(debug.ComponentCompiler, true)
	logger.SetComponentEnabled(debug.ComponentInterp, true)
	logger.SetComponentEnabled(debug.ComponentSynth, true)
	logger.SetComponentEnabled(debug.ComponentSystem, true)
	return logger
}

// flushLogger writes every buffered entry to path, one per line, if path is
// non-empty.
func flushLogger(logger *debug.Logger, path string) {
	if path == "" {
		return
	}
	f, err := os.Create(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "creating log file %s: %v\n", path, err)
		return
	}
	defer f.Close()
	entries := logger.GetEntries()
	for i := range entries {
		fmt.Fprintln(f, entries[i].Format())
	}
}
