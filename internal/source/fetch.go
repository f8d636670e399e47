package source

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/mrz1836/srcstage/internal/command"
	srcerrors "github.com/mrz1836/srcstage/internal/errors"
	"github.com/mrz1836/srcstage/internal/logging"
)

// Fetcher downloads a gzipped tarball and unpacks it into a directory,
// dropping the archive's top-level directory.
type Fetcher struct {
	runner command.Runner

	// Curl and Tar name the executables. Empty means "curl" and "tar".
	Curl string
	Tar  string
}

// NewFetcher creates a Fetcher that runs its tools through runner.
func NewFetcher(runner command.Runner) *Fetcher {
	return &Fetcher{runner: runner, Curl: "curl", Tar: "tar"}
}

// Fetch downloads url over HTTPS and unpacks it into dest.
func (f *Fetcher) Fetch(ctx context.Context, url, dest string) error {
	log := zerolog.Ctx(ctx).With().Str("url", logging.SafeURL(url)).Logger()

	archive, err := os.CreateTemp("", "srcstage-archive-*.tar.gz")
	if err != nil {
		return fmt.Errorf("%w: %w", srcerrors.ErrFetchFailed, err)
	}
	archivePath := archive.Name()
	_ = archive.Close()
	defer func() { _ = os.Remove(archivePath) }()

	curl := f.Curl
	if curl == "" {
		curl = "curl"
	}
	log.Info().Msg("fetching archive")
	if err := f.run(ctx, command.Command{
		Dir:  dest,
		Name: curl,
		Args: []string{"--proto", "=https", "--tlsv1.2", "-f", "-sS", "-L", "-o", archivePath, url},
	}); err != nil {
		return fmt.Errorf("%w: downloading %s: %w", srcerrors.ErrFetchFailed, logging.SafeURL(url), err)
	}

	tar := f.Tar
	if tar == "" {
		tar = "tar"
	}
	log.Debug().Str("dest", dest).Msg("unpacking archive")
	if err := f.run(ctx, command.Command{
		Dir:  dest,
		Name: tar,
		Args: []string{"xzf", archivePath, "--strip-components=1", "-C", dest},
	}); err != nil {
		return fmt.Errorf("%w: unpacking %s: %w", srcerrors.ErrFetchFailed, logging.SafeURL(url), err)
	}

	return nil
}

func (f *Fetcher) run(ctx context.Context, cmd command.Command) error {
	result, err := f.runner.Run(ctx, cmd)
	if err != nil {
		return err
	}
	if !result.Success() {
		return fmt.Errorf("%s exited with code %d: %s", cmd.Name, result.ExitCode, result.Output())
	}
	return nil
}
