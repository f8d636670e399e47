package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrz1836/srcstage/internal/config"
	"github.com/mrz1836/srcstage/internal/git"
)

// branchOptions holds the branch command flags.
type branchOptions struct {
	overwrite bool
	repoDir   string
}

// branchResult is the JSON shape of the branch command.
type branchResult struct {
	Branch    string            `json:"branch"`
	Outcome   git.BranchOutcome `json:"outcome"`
	Reference string            `json:"reference"`
	Commit    string            `json:"reference_commit"`
}

func newBranchCmd(a *app) *cobra.Command {
	opts := &branchOptions{}

	cmd := &cobra.Command{
		Use:   "branch NAME",
		Short: "Create or reuse the branch an import is recorded on",
		Long: `Create NAME from the reference branch and check it out.

An existing branch is an error unless --overwrite is given, in which case it
is checked out and later records amend its import commit.`,
		Example: `  srcstage branch update-source-1.2.3
  srcstage branch update-source-1.2.3 --overwrite --repo prebuilts/rust`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBranch(cmd, a, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.overwrite, "overwrite", false, "reuse the branch if it already exists")
	cmd.Flags().StringVar(&opts.repoDir, "repo", "", "repository to operate on (default from config, then current directory)")

	return cmd
}

func runBranch(cmd *cobra.Command, a *app, name string, opts *branchOptions) error {
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
	tm := git.NewTransactionManager(repo, cfg.Git.ReferenceBranch)

	outcome, err := tm.EnsureBranch(ctx, name, opts.overwrite)
	if err != nil {
		return err
	}

	out := a.output(cmd)
	if a.jsonOutput() {
		return out.JSON(branchResult{
			Branch:    name,
			Outcome:   outcome,
			Reference: tm.ReferenceBranch(),
			Commit:    tm.ReferenceCommit(),
		})
	}

	if outcome == git.BranchCreated {
		out.Success(fmt.Sprintf("Created branch %s from %s", name, tm.ReferenceBranch()))
	} else {
		out.Success(fmt.Sprintf("Checked out existing branch %s", name))
	}
	return nil
}

// openRepository opens the configured repository, defaulting to the current directory.
func openRepository(ctx context.Context, cmd *cobra.Command, a *app, cfg *config.Config) (*git.Repository, error) {
	dir := cfg.Source.RepoDir
	if dir == "" {
		dir = "."
	}
	return git.NewRepository(ctx, a.commandRunner(cmd), dir, git.WithBranchTool(git.BranchTool(cfg.Git.BranchTool)))
}
