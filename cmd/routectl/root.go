package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "routectl",
		Short:        "Plan delivery routes from the command line",
		Version:      Version,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log", "warn", "Log level (debug, info, warn, error)")

	cmd.AddCommand(newSolveCmd(opts))
	cmd.AddCommand(newProfilesCmd())

	return cmd
}

// logger writes structured logs to stderr so stdout stays reserved for results.
func (o *rootOptions) logger() (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(o.logLevel)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", o.logLevel, err)
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().
		Timestamp().
		Str("service", "routectl").
		Logger(), nil
}
