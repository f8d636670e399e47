package source

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	srcerrors "github.com/mrz1836/srcstage/internal/errors"
	"github.com/mrz1836/srcstage/internal/git"
)

// Default templates.
const (
	DefaultBranchTemplate = "update-source-{version}"
	DefaultCommitTemplate = "Importing source {version}"
	DefaultURLTemplate    = "https://static.rust-lang.org/dist/rustc-{version}-src.tar.gz"
)

// DefaultChannelURLs are the archives fetched for non-stable channels.
func DefaultChannelURLs() map[string]string {
	return map[string]string{
		string(ChannelBeta):    "https://static.rust-lang.org/dist/rustc-beta-src.tar.gz",
		string(ChannelNightly): "https://static.rust-lang.org/dist/rustc-nightly-src.tar.gz",
	}
}

// Settings holds the templates used by an import.
type Settings struct {
	BranchTemplate string
	CommitTemplate string
	BugURLTemplate string
	URLTemplate    string
	ChannelURLs    map[string]string
}

// ArchiveURL returns the archive for version on channel.
func (s Settings) ArchiveURL(version string, channel Channel) (string, error) {
	if channel == ChannelStable {
		tmpl := s.URLTemplate
		if tmpl == "" {
			tmpl = DefaultURLTemplate
		}
		return Expand(tmpl, version), nil
	}
	url, ok := s.ChannelURLs[string(channel)]
	if !ok || url == "" {
		return "", fmt.Errorf("no archive configured for channel %q: %w", channel, srcerrors.ErrUnknownChannel)
	}
	return Expand(url, version), nil
}

// Request describes one import.
type Request struct {
	Version   string
	Channel   Channel
	Overwrite bool
	Bug       string
}

// Result summarizes an import.
type Result struct {
	Tag     string            `json:"tag"`
	Branch  string            `json:"branch"`
	URL     string            `json:"url"`
	Message string            `json:"message"`
	Setup   git.BranchOutcome `json:"branch_outcome"`
	Record  git.RecordOutcome `json:"record_outcome"`
}

// archiveFetcher unpacks an archive into a directory.
type archiveFetcher interface {
	Fetch(ctx context.Context, url, dest string) error
}

// Importer replaces the contents of a repository with an upstream release.
type Importer struct {
	repo     *git.Repository
	tm       *git.TransactionManager
	fetcher  archiveFetcher
	settings Settings
}

// NewImporter creates an Importer.
func NewImporter(repo *git.Repository, tm *git.TransactionManager, fetcher archiveFetcher, settings Settings) *Importer {
	if settings.BranchTemplate == "" {
		settings.BranchTemplate = DefaultBranchTemplate
	}
	if settings.CommitTemplate == "" {
		settings.CommitTemplate = DefaultCommitTemplate
	}
	return &Importer{repo: repo, tm: tm, fetcher: fetcher, settings: settings}
}

// Import ensures the import branch, removes every tracked file, unpacks the
// release archive, stages the result and records it. An import that changes
// nothing ends with git.RecordNoOp and no error.
func (i *Importer) Import(ctx context.Context, req Request) (*Result, error) {
	if err := ValidateVersion(req.Version); err != nil {
		return nil, err
	}

	tag := Tag(req.Version, req.Channel)
	url, err := i.settings.ArchiveURL(tag, req.Channel)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Tag:     tag,
		Branch:  Expand(i.settings.BranchTemplate, tag),
		URL:     url,
		Message: FormatCommitMessage(i.settings.CommitTemplate, tag, req.Bug, i.settings.BugURLTemplate),
	}

	log := zerolog.Ctx(ctx).With().Str("tag", tag).Str("branch", result.Branch).Logger()
	ctx = log.WithContext(ctx)

	result.Setup, err = i.tm.EnsureBranch(ctx, result.Branch, req.Overwrite)
	if err != nil {
		return result, err
	}

	log.Info().Msg("deleting old files")
	if err := i.repo.Remove(ctx, "*"); err != nil {
		return result, err
	}

	if err := i.fetcher.Fetch(ctx, url, i.repo.Path()); err != nil {
		return result, err
	}

	if err := i.repo.StageAll(ctx, git.DefaultStagePattern); err != nil {
		return result, err
	}

	result.Record, err = i.tm.RecordChanges(ctx, result.Message)
	if err != nil {
		return result, err
	}

	return result, nil
}
