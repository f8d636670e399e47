package cli

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mrz1836/srcstage/internal/errors"
	"github.com/mrz1836/srcstage/internal/tui"
)

// BuildInfo contains version information set at build time via ldflags.
type BuildInfo struct {
	// Version is the semantic version (e.g., "1.0.0").
	Version string
	// Commit is the git commit hash.
	Commit string
	// Date is the build date.
	Date string
}

// newRootCmd creates the root command for the srcstage CLI.
func newRootCmd(flags *GlobalFlags, info BuildInfo) *cobra.Command {
	return buildRootCmd(&app{flags: flags}, info)
}

// buildRootCmd wires every subcommand to a.
func buildRootCmd(a *app, info BuildInfo) *cobra.Command {
	v := viper.New()
	flags := a.flags

	cmd := &cobra.Command{
		Use:   "srcstage",
		Short: "Stage patched third-party sources and record source imports",
		Long: `srcstage prepares third-party source trees for a build.

It clones a pristine tree into a staging directory, applies a versioned patch
series, and publishes the result into a persistent build directory without
touching files that did not change. A companion set of commands records
upstream source imports in git as a single reviewable commit per branch.`,
		Version: formatVersion(info),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := BindGlobalFlags(v, cmd); err != nil {
				return fmt.Errorf("failed to bind flags: %w", err)
			}
			ResolveGlobalFlags(v, flags)

			if !IsValidOutputFormat(flags.Output) {
				return fmt.Errorf("%w: %q must be one of %v", errors.ErrInvalidOutputFormat, flags.Output, ValidOutputFormats())
			}

			logger := a.newLogger(flags.Verbose, flags.Quiet).
				With().
				Str("run_id", uuid.NewString()).
				Str("command", cmd.CommandPath()).
				Logger()
			cmd.SetContext(logger.WithContext(cmd.Context()))

			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	AddGlobalFlags(cmd, flags)

	cmd.AddCommand(
		newPublishCmd(a),
		newPatchesCmd(a),
		newBranchCmd(a),
		newRecordCmd(a),
		newImportCmd(a),
		newConfigCmd(a),
	)

	return cmd
}

// formatVersion creates the version string from build info.
func formatVersion(info BuildInfo) string {
	if info.Version == "" {
		info.Version = "dev"
	}
	if info.Commit == "" {
		info.Commit = "none"
	}
	if info.Date == "" {
		info.Date = "unknown"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", info.Version, info.Commit, info.Date)
}

// Execute runs the root command with the provided context and build info.
// Errors are printed in the selected output format before being returned.
func Execute(ctx context.Context, info BuildInfo) error {
	flags := &GlobalFlags{Output: OutputText}
	//nolint:contextcheck // Cobra command pattern uses cmd.Context() internally
	cmd := newRootCmd(flags, info)
	defer CloseLogFile()

	err := cmd.ExecuteContext(ctx)
	if err != nil && !stderrors.Is(err, errors.ErrJSONErrorOutput) {
		printError(cmd, flags.Output, err)
	}
	return err
}

// printError writes err to stdout as JSON or to stderr as styled text.
func printError(cmd *cobra.Command, format string, err error) {
	if format == OutputJSON {
		tui.NewOutput(cmd.OutOrStdout(), OutputJSON).Error(err)
		return
	}
	tui.NewOutput(cmd.ErrOrStderr(), OutputText).Error(err)
}
