// Package cli implements catapultctl, the operator command line.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"catapult/internal/app"
	"catapult/internal/platform/config"
	"catapult/internal/platform/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	LogLevel string
	Format   string // "json" | "text"
}

var ValidFormats = []string{"text", "json"}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "catapultctl",
		Short: "Operate the catapult registration service",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewWaiveCommand(opts))
	cmd.AddCommand(NewDeleteCourseCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func (o *RootOptions) logger() *slog.Logger {
	return logger.NewWithWriter(os.Stderr, "text", o.LogLevel)
}

// withApp builds the full service graph from the environment for commands
// that run domain operations.
func (o *RootOptions) withApp(ctx context.Context, fn func(a *app.App) error) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	a, err := app.New(ctx, cfg, o.logger())
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
