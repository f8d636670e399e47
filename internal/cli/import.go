package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrz1836/srcstage/internal/config"
	"github.com/mrz1836/srcstage/internal/errors"
	"github.com/mrz1836/srcstage/internal/git"
	"github.com/mrz1836/srcstage/internal/logging"
	"github.com/mrz1836/srcstage/internal/source"
)

// importOptions holds the import command flags.
type importOptions struct {
	channel   string
	beta      bool
	nightly   bool
	overwrite bool
	repoDir   string
	bug       string
}

func newImportCmd(a *app) *cobra.Command {
	opts := &importOptions{}

	cmd := &cobra.Command{
		Use:   "import VERSION",
		Short: "Replace a repository's contents with an upstream source release",
		Long: `Import an upstream source release as one commit on its own branch.

The branch is named from git.branch_template and created from the reference
branch. Every tracked file is removed, the release archive is downloaded and
unpacked in place, and the result is recorded with git.commit_template.
Importing the same version again with --overwrite amends that commit.`,
		Example: `  srcstage import 1.2.3
  srcstage import 1.3.0 --beta --bug 123456
  srcstage import 1.4.0 --channel nightly
  srcstage import 1.2.3 --overwrite --repo prebuilts/rust/src`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, a, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.channel, "channel", "", "release channel: stable, beta or nightly")
	cmd.Flags().BoolVar(&opts.beta, "beta", false, "import a beta release")
	cmd.Flags().BoolVar(&opts.nightly, "nightly", false, "import a nightly release")
	cmd.Flags().BoolVar(&opts.overwrite, "overwrite", false, "reuse the import branch if it already exists")
	cmd.Flags().StringVar(&opts.repoDir, "repo", "", "repository to import into (default from config, then current directory)")
	cmd.Flags().StringVar(&opts.bug, "bug", "", "bug number or URL to reference in the commit message")
	cmd.MarkFlagsMutuallyExclusive("channel", "beta", "nightly")

	return cmd
}

func runImport(cmd *cobra.Command, a *app, version string, opts *importOptions) error {
	if err := source.ValidateVersion(version); err != nil {
		return errors.NewExitCode2Error(err)
	}

	name := opts.channel
	switch {
	case opts.beta:
		name = string(source.ChannelBeta)
	case opts.nightly:
		name = string(source.ChannelNightly)
	}
	channel, err := source.ParseChannel(name)
	if err != nil {
		return errors.NewExitCode2Error(err)
	}

	ctx := cmd.Context()

	cfg, err := a.loadConfig(ctx, &config.Config{Source: config.SourceConfig{RepoDir: opts.repoDir}})
	if err != nil {
		return err
	}

	ctx, cancel := withTimeout(ctx, cfg)
	defer cancel()

	runner := a.commandRunner(cmd)
	repo, err := openRepository(ctx, cmd, a, cfg)
	if err != nil {
		return err
	}

	importer := source.NewImporter(
		repo,
		git.NewTransactionManager(repo, cfg.Git.ReferenceBranch),
		source.NewFetcher(runner),
		source.Settings{
			BranchTemplate: cfg.Git.BranchTemplate,
			CommitTemplate: cfg.Git.CommitTemplate,
			BugURLTemplate: cfg.Git.BugURLTemplate,
			URLTemplate:    cfg.Source.URLTemplate,
			ChannelURLs:    cfg.Source.ChannelURLs,
		},
	)

	result, err := importer.Import(ctx, source.Request{
		Version:   version,
		Channel:   channel,
		Overwrite: opts.overwrite,
		Bug:       opts.bug,
	})
	if err != nil {
		return err
	}

	out := a.output(cmd)
	if a.jsonOutput() {
		safe := *result
		safe.URL = logging.SafeURL(result.URL)
		return out.JSON(safe)
	}

	switch result.Record {
	case git.RecordNoOp:
		out.Info(fmt.Sprintf("Source %s already up to date on %s", result.Tag, result.Branch))
	case git.RecordAmended:
		out.Success(fmt.Sprintf("Updated import of %s on %s (amended)", result.Tag, result.Branch))
	default:
		out.Success(fmt.Sprintf("Imported %s on %s", result.Tag, result.Branch))
	}
	return nil
}
