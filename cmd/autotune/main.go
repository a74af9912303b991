// Command autotune inspects and exercises the learning-rate scheduler
// components: it prints search spaces, samples configurations and replays
// metric sequences through a fitted scheduler.
package main

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	logLevel string
	logger   = newLogger(os.Stderr, zerolog.InfoLevel)
)

var rootCmd = &cobra.Command{
	Use:           "autotune",
	Short:         "Learning rate scheduler search spaces and simulation",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := zerolog.ParseLevel(strings.ToLower(logLevel))
		if err != nil {
			return err
		}
		logger = newLogger(cmd.ErrOrStderr(), level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	rootCmd.AddCommand(spaceCmd, sampleCmd, simulateCmd)
}

func newLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}).
		Level(level).
		With().Timestamp().Logger()
}

// execute runs the command tree with args. Errors are always written to the
// command's error writer: flag parsing and log-level errors happen before the
// configured logger exists.
func execute(args []string) error {
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	if err != nil {
		newLogger(rootCmd.ErrOrStderr(), zerolog.ErrorLevel).Error().Err(err).Msg("command failed")
	}
	return err
}

func main() {
	if err := execute(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}
