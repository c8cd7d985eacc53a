// Command notranplay runs a compiled NOTRAN object file against a wavetable
// set, either rendering to a WAV file or playing live through SDL2. Same
// cobra-root/subcommand shape as notranc.
package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"notran/internal/audiosink"
	"notran/internal/config"
	"notran/internal/debug"
	"notran/internal/interp"
	"notran/internal/objfile"
	"notran/internal/wavetable"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "notranplay",
		Short: "NOTRAN interpreter/synth — render or play a compiled object file",
	}

	var cfgPath string
	var wavePath string
	var output string

	renderCmd := &cobra.Command{
		Use:   "render [object.obj]",
		Short: "Render an object file to a WAV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := interpreterOptions(cfgPath)
			if err != nil {
				return err
			}
			code, tables, err := load(args[0], wavePath)
			if err != nil {
				return err
			}

			if output == "" {
				output = args[0] + ".wav"
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating %s: %w", output, err)
			}
			defer f.Close()

			sink := audiosink.NewWavSink(f, opts.SampleRate)
			ip := interp.New(code, opts, newCLILogger())
			if err := ip.Run(tables, sink, nil); err != nil {
				return fmt.Errorf("interpreter error: %w", err)
			}
			if err := sink.Close(); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}
			fmt.Printf("Rendered to %s\n", output)
			return nil
		},
	}
	renderCmd.Flags().StringVar(&cfgPath, "config", "", "TOML config file (optional)")
	renderCmd.Flags().StringVar(&wavePath, "waves", "", "Wavetable set file (required)")
	renderCmd.Flags().StringVarP(&output, "output", "o", "", "Output WAV file path (default: <object>.wav)")
	_ = renderCmd.MarkFlagRequired("waves")

	playCmd := &cobra.Command{
		Use:   "play [object.obj]",
		Short: "Play an object file through a live SDL2 audio device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := interpreterOptions(cfgPath)
			if err != nil {
				return err
			}
			code, tables, err := load(args[0], wavePath)
			if err != nil {
				return err
			}

			sink, err := audiosink.NewSDLSink(opts.SampleRate, 2048, newCLILogger())
			if err != nil {
				return err
			}
			defer sink.Close()

			stop := make(chan struct{})
			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt)
			go func() {
				<-sig
				close(stop)
			}()

			ip := interp.New(code, opts, newCLILogger())
			if err := ip.Run(tables, sink, stop); err != nil {
				return fmt.Errorf("interpreter error: %w", err)
			}
			return nil
		},
	}
	playCmd.Flags().StringVar(&cfgPath, "config", "", "TOML config file (optional)")
	playCmd.Flags().StringVar(&wavePath, "waves", "", "Wavetable set file (required)")
	_ = playCmd.MarkFlagRequired("waves")

	rootCmd.AddCommand(renderCmd, playCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func interpreterOptions(cfgPath string) (config.InterpreterOptions, error) {
	if cfgPath == "" {
		return config.DefaultInterpreterOptions(), nil
	}
	f, err := config.LoadFile(cfgPath)
	if err != nil {
		return config.InterpreterOptions{}, err
	}
	return f.Interpreter, nil
}

// load reads a raw-format object file (notranc compile's default --format)
// and its matching wavetable set.
func load(objPath, wavePath string) ([]byte, [][256]byte, error) {
	of, err := os.Open(objPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", objPath, err)
	}
	defer of.Close()
	code, _, err := objfile.ReadRaw(of)
	if err != nil {
		return nil, nil, err
	}

	wf, err := os.Open(wavePath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", wavePath, err)
	}
	defer wf.Close()
	tables, err := wavetable.LoadSet(wf)
	if err != nil {
		return nil, nil, err
	}
	return code, tables, nil
}

func newCLILogger() *debug.Logger {
	logger := debug.NewLogger(256)
	logger.SetComponentEnabled(debug.ComponentInterp, true)
	logger.SetComponentEnabled(debug.ComponentSynth, true)
	logger.SetComponentEnabled(debug.ComponentSystem, true)
	return logger
}
