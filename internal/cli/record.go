package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mrz1836/srcstage/internal/config"
	"github.com/mrz1836/srcstage/internal/errors"
	"github.com/mrz1836/srcstage/internal/git"
	"github.com/mrz1836/srcstage/internal/source"
)

// recordOptions holds the record command flags.
type recordOptions struct {
	message string
	bug     string
	repoDir string
	pattern string
}

// recordResult is the JSON shape of the record command.
type recordResult struct {
	Branch  string            `json:"branch"`
	Outcome git.RecordOutcome `json:"outcome"`
	Message string            `json:"message"`
}

func newRecordCmd(a *app) *cobra.Command {
	opts := &recordOptions{}

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Stage every change and record it as the branch's import commit",
		Long: `Stage additions, modifications and deletions, then record them.

The first record on a branch creates a commit. Later records amend that
commit, so a branch always carries one import commit. Nothing to commit is
not an error.`,
		Example: `  srcstage record --message "Importing source 1.2.3"
  srcstage record --message "Update prebuilts" --bug 123456 --pattern prebuilts/`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRecord(cmd, a, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.message, "message", "m", "", "commit message ({version} is left as is)")
	cmd.Flags().StringVar(&opts.bug, "bug", "", "bug number or URL to reference in the commit message")
	cmd.Flags().StringVar(&opts.repoDir, "repo", "", "repository to operate on (default from config, then current directory)")
	cmd.Flags().StringVar(&opts.pattern, "pattern", git.DefaultStagePattern, "pathspec to stage")
	_ = cmd.MarkFlagRequired("message")

	return cmd
}

func runRecord(cmd *cobra.Command, a *app, opts *recordOptions) error {
	if opts.message == "" {
		return errors.NewExitCode2Error(fmt.Errorf("commit message: %w", errors.ErrEmptyValue))
	}

	ctx := cmd.Context()

	cfg, err := a.loadConfig(ctx, &config.Config{Source: config.SourceConfig{RepoDir: opts.repoDir}})
	if err != nil {
		return err
	}

	ctx, cancel := withTimeout(ctx, cfg)
	defer cancel()

	repo, err := openRepository(ctx, cmd, a, cfg)
	if err != nil {
		return err
	}

	if err := repo.StageAll(ctx, opts.pattern); err != nil {
		return err
	}

	message := source.FormatCommitMessage(opts.message, "", opts.bug, cfg.Git.BugURLTemplate)
	tm := git.NewTransactionManager(repo, cfg.Git.ReferenceBranch)

	outcome, err := tm.RecordChanges(ctx, message)
	if err != nil {
		return err
	}

	// Detached HEAD reports an empty branch.
	branch, err := repo.CurrentBranch(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("could not determine current branch")
	}
	where := branch
	if where == "" {
		where = "detached HEAD"
	}

	out := a.output(cmd)
	if a.jsonOutput() {
		return out.JSON(recordResult{Branch: branch, Outcome: outcome, Message: message})
	}

	switch outcome {
	case git.RecordNoOp:
		out.Info("No changes to commit")
	case git.RecordAmended:
		out.Success(fmt.Sprintf("Amended import commit on %s", where))
	default:
		out.Success(fmt.Sprintf("Committed changes on %s", where))
	}
	return nil
}
