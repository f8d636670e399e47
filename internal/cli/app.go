package cli

import (
	"context"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mrz1836/srcstage/internal/command"
	"github.com/mrz1836/srcstage/internal/config"
	"github.com/mrz1836/srcstage/internal/tui"
)

// app carries what every subcommand needs.
type app struct {
	flags *GlobalFlags

	// runner overrides the process runner. Nil means a DefaultRunner.
	runner command.Runner
	// logWriter, when set, receives all logs instead of the console and log file.
	logWriter io.Writer
}

// newLogger builds the run logger.
func (a *app) newLogger(verbose, quiet bool) zerolog.Logger {
	if a.logWriter != nil {
		return InitLoggerWithWriter(verbose, quiet, a.logWriter)
	}
	return InitLogger(verbose, quiet)
}

// commandRunner returns the runner external tools are started with.
// Tool output is streamed to stderr unless quiet or JSON output is selected.
func (a *app) commandRunner(cmd *cobra.Command) command.Runner {
	if a.runner != nil {
		return a.runner
	}
	if a.flags.Quiet || a.flags.Output == OutputJSON {
		return command.NewDefaultRunner(nil)
	}
	return command.NewDefaultRunner(cmd.ErrOrStderr())
}

// output returns the writer for command results in the selected format.
func (a *app) output(cmd *cobra.Command) tui.Output {
	return tui.NewOutput(cmd.OutOrStdout(), a.flags.Output)
}

// jsonOutput reports whether results should be written as JSON.
func (a *app) jsonOutput() bool {
	return a.flags.Output == OutputJSON
}

// loadConfig loads the layered configuration with flag overrides applied.
func (a *app) loadConfig(ctx context.Context, overrides *config.Config) (*config.Config, error) {
	return config.LoadWithOverrides(ctx, overrides)
}

// withTimeout bounds ctx by the configured command timeout.
func withTimeout(ctx context.Context, cfg *config.Config) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, cfg.Commands.Timeout)
}
