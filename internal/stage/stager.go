// Package stage builds patched source trees in a staging path and publishes
// them into a persistent output tree without disturbing unchanged files.
package stage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	srcerrors "github.com/mrz1836/srcstage/internal/errors"
	"github.com/mrz1836/srcstage/internal/flock"
	"github.com/mrz1836/srcstage/internal/fsutil"
	"github.com/mrz1836/srcstage/internal/patch"
)

// DefaultStagingSuffix is appended to the output path to form the staging path.
const DefaultStagingSuffix = ".tmp"

// lockSuffix is appended to the output path to form the advisory lock path.
const lockSuffix = ".lock"

// WorkingTree pairs a published root with its staging path.
type WorkingTree struct {
	Root        string `json:"root"`
	StagingPath string `json:"staging_path"`
}

// NewWorkingTree returns the working tree for root. An empty suffix means
// DefaultStagingSuffix.
func NewWorkingTree(root, suffix string) WorkingTree {
	if suffix == "" {
		suffix = DefaultStagingSuffix
	}
	root = filepath.Clean(root)
	return WorkingTree{Root: root, StagingPath: root + suffix}
}

// PublishMethod reports how the staged tree reached the output path.
type PublishMethod string

// Publish methods.
const (
	PublishRename PublishMethod = "rename"
	PublishSync   PublishMethod = "sync"
	// PublishSkipped means patch failures prevented publishing.
	PublishSkipped PublishMethod = "skipped"
)

// Request describes one publish run.
type Request struct {
	InputTree  string
	OutputTree string
	PatchDir   string
	PatchGlob  string

	// AbortOnPatchFailure stops at the first failing patch.
	AbortOnPatchFailure bool
	// PublishPartial publishes the tree even when some patches failed with
	// AbortOnPatchFailure unset. When false such a run fails with
	// ErrPatchFailed and leaves the staging path for inspection.
	PublishPartial bool
	// Lock takes an advisory lock on the output path for the whole run.
	Lock bool
}

// Result summarizes a publish run.
type Result struct {
	Tree    WorkingTree        `json:"tree"`
	Clone   fsutil.CloneMethod `json:"clone"`
	Method  PublishMethod      `json:"method"`
	Patches *patch.Report      `json:"patches"`
	Sync    *fsutil.SyncStats  `json:"sync,omitempty"`
}

// TreeCloner clones a directory tree into a path that does not exist yet.
type TreeCloner interface {
	Clone(ctx context.Context, src, dst string) (fsutil.CloneMethod, error)
}

// SeriesApplier applies an ordered patch series to a tree.
type SeriesApplier interface {
	Apply(ctx context.Context, tree string, series *patch.Series, abortOnFailure bool) (*patch.Report, error)
}

// Stager runs the clone, patch and publish pipeline.
type Stager struct {
	cloner  TreeCloner
	applier SeriesApplier

	// StagingSuffix overrides DefaultStagingSuffix.
	StagingSuffix string
	// SyncOptions tunes the incremental sync.
	SyncOptions fsutil.SyncOptions
}

// New creates a Stager.
func New(cloner TreeCloner, applier SeriesApplier) *Stager {
	return &Stager{cloner: cloner, applier: applier}
}

// Publish clones req.InputTree into the staging path, applies the patch
// series, then renames the staging path onto req.OutputTree if it does not
// exist or incrementally syncs into it if it does.
//
// Any stale staging path from an interrupted run is removed first. On patch
// or sync failure the staging path is left in place.
func (s *Stager) Publish(ctx context.Context, req Request) (*Result, error) {
	if req.InputTree == "" {
		return nil, fmt.Errorf("input tree: %w", srcerrors.ErrEmptyValue)
	}
	if req.OutputTree == "" {
		return nil, fmt.Errorf("output tree: %w", srcerrors.ErrEmptyValue)
	}

	input, err := filepath.Abs(req.InputTree)
	if err != nil {
		return nil, err
	}
	output, err := filepath.Abs(req.OutputTree)
	if err != nil {
		return nil, err
	}
	tree := NewWorkingTree(output, s.StagingSuffix)

	log := zerolog.Ctx(ctx).With().Str("output", tree.Root).Logger()
	ctx = log.WithContext(ctx)

	if req.Lock {
		lock, lockErr := flock.Acquire(tree.Root + lockSuffix)
		if lockErr != nil {
			return nil, fmt.Errorf("%w: %w", srcerrors.ErrStageLocked, lockErr)
		}
		defer func() {
			if relErr := lock.Release(); relErr != nil {
				log.Warn().Err(relErr).Msg("failed to release output lock")
			}
		}()
	}

	if req.PatchDir == "" {
		log.Warn().Msg("no patch directory configured, publishing unpatched tree")
	}
	series, err := patch.LoadSeries(req.PatchDir, req.PatchGlob)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", srcerrors.ErrPatchFailed, err)
	}

	result := &Result{Tree: tree}

	if err := s.prepareStaging(ctx, tree); err != nil {
		return nil, err
	}

	// Resolve a symlinked input so the walk descends into the real tree.
	resolved, err := filepath.EvalSymlinks(input)
	if err != nil {
		return nil, fmt.Errorf("%w: input tree %s: %w", srcerrors.ErrCopyFailed, input, err)
	}

	result.Clone, err = s.cloner.Clone(ctx, resolved, tree.StagingPath)
	if err != nil {
		return nil, fmt.Errorf("%w: cloning %s into %s: %w", srcerrors.ErrCopyFailed, resolved, tree.StagingPath, err)
	}
	log.Info().Str("input", resolved).Str("method", string(result.Clone)).Msg("input tree cloned into staging")

	result.Patches, err = s.applier.Apply(ctx, tree.StagingPath, series, req.AbortOnPatchFailure)
	if err != nil {
		return result, err
	}
	if failures := result.Patches.Failures(); len(failures) > 0 && !req.PublishPartial {
		result.Method = PublishSkipped
		log.Warn().Int("failed", len(failures)).Str("staging", tree.StagingPath).Msg("not publishing partially patched tree")
		return result, &patch.FailureError{Failures: failures}
	}

	exists, err := fsutil.Exists(tree.Root)
	if err != nil {
		return result, fmt.Errorf("%w: %w", srcerrors.ErrSyncFailed, err)
	}

	if !exists {
		if err := os.Rename(tree.StagingPath, tree.Root); err != nil {
			return result, fmt.Errorf("%w: renaming %s to %s: %w", srcerrors.ErrSyncFailed, tree.StagingPath, tree.Root, err)
		}
		result.Method = PublishRename
		log.Info().Msg("published staged tree by rename")
		return result, nil
	}

	// A symlinked output root is synced through to the directory it names.
	target, err := filepath.EvalSymlinks(tree.Root)
	if err != nil {
		return result, fmt.Errorf("%w: output tree %s: %w", srcerrors.ErrSyncFailed, tree.Root, err)
	}

	result.Sync, err = fsutil.Sync(ctx, tree.StagingPath, target, s.SyncOptions)
	if err != nil {
		return result, fmt.Errorf("%w: syncing %s into %s: %w", srcerrors.ErrSyncFailed, tree.StagingPath, target, err)
	}
	result.Method = PublishSync

	if err := os.RemoveAll(tree.StagingPath); err != nil {
		return result, fmt.Errorf("%w: removing staging %s: %w", srcerrors.ErrSyncFailed, tree.StagingPath, err)
	}

	log.Info().
		Int("copied", result.Sync.Copied).
		Int("deleted", result.Sync.Deleted).
		Int("unchanged", result.Sync.Unchanged).
		Msg("published staged tree by incremental sync")

	return result, nil
}

// prepareStaging removes a stale staging path and makes sure its parent exists.
func (s *Stager) prepareStaging(ctx context.Context, tree WorkingTree) error {
	stale, err := fsutil.Exists(tree.StagingPath)
	if err != nil {
		return fmt.Errorf("%w: %w", srcerrors.ErrCopyFailed, err)
	}
	if stale {
		zerolog.Ctx(ctx).Debug().Str("staging", tree.StagingPath).Msg("removing stale staging path")
		if err := os.RemoveAll(tree.StagingPath); err != nil {
			return fmt.Errorf("%w: removing stale staging %s: %w", srcerrors.ErrCopyFailed, tree.StagingPath, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(tree.StagingPath), 0o750); err != nil {
		return fmt.Errorf("%w: %w", srcerrors.ErrCopyFailed, err)
	}
	return nil
}
