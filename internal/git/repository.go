// Package git provides the version-control operations srcstage needs.
// This file implements Repository, the primitive operations against one
// working copy.
package git

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/mrz1836/srcstage/internal/command"
	srcerrors "github.com/mrz1836/srcstage/internal/errors"
)

// BranchTool selects how new branches are created.
type BranchTool string

// Branch creation tools.
const (
	// BranchToolGit creates branches with git checkout -b.
	BranchToolGit BranchTool = "git"
	// BranchToolRepo creates branches with repo start, for trees managed by
	// the repo multi-repository tool.
	BranchToolRepo BranchTool = "repo"
)

// DefaultStagePattern stages everything below the repository root.
const DefaultStagePattern = "."

// Repository runs git operations against a fixed working copy.
type Repository struct {
	runner     command.Runner
	path       string
	branchTool BranchTool
}

// Option configures a Repository.
type Option func(*Repository)

// WithBranchTool sets the branch creation tool. Empty keeps BranchToolGit.
func WithBranchTool(tool BranchTool) Option {
	return func(r *Repository) {
		if tool != "" {
			r.branchTool = tool
		}
	}
}

// NewRepository opens the working copy at path.
// Returns ErrNotGitRepo if path is not inside a git repository.
func NewRepository(ctx context.Context, runner command.Runner, path string, opts ...Option) (*Repository, error) {
	if path == "" {
		return nil, fmt.Errorf("repository path cannot be empty: %w", srcerrors.ErrEmptyValue)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	r := &Repository{runner: runner, path: abs, branchTool: BranchToolGit}
	for _, opt := range opts {
		opt(r)
	}

	if _, err := r.run(ctx, "rev-parse", "--git-dir"); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", srcerrors.ErrNotGitRepo, abs, err)
	}

	return r, nil
}

// Path returns the absolute repository path.
func (r *Repository) Path() string {
	return r.path
}

// BranchExists reports whether a local branch exists. A non-zero probe exit
// means absent; the error return is reserved for cancellation and start
// failures.
func (r *Repository) BranchExists(ctx context.Context, name string) (bool, error) {
	if name == "" {
		return false, fmt.Errorf("branch name: %w", srcerrors.ErrEmptyValue)
	}
	result, err := probe(ctx, r.runner, r.path, "show-ref", "--verify", "--quiet", "refs/heads/"+name)
	if err != nil {
		return false, err
	}
	return result.Success(), nil
}

// CreateBranch creates name and checks it out. With BranchToolGit the branch
// starts at startPoint, or HEAD when startPoint is empty. With BranchToolRepo
// the manifest decides the start point.
func (r *Repository) CreateBranch(ctx context.Context, name, startPoint string) error {
	if name == "" {
		return fmt.Errorf("branch name: %w", srcerrors.ErrEmptyValue)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if r.branchTool == BranchToolRepo {
		zerolog.Ctx(ctx).Debug().Str("branch", name).Msg("creating branch with repo start")
		result, err := r.runner.Run(ctx, command.Command{
			Dir:   r.path,
			Name:  string(BranchToolRepo),
			Args:  []string{"start", name, "."},
			Quiet: true,
		})
		if err != nil {
			return fmt.Errorf("failed to create branch %s: %w", name, err)
		}
		if !result.Success() {
			return fmt.Errorf("failed to create branch %s: repo start: %s: %w", name, result.Output(), srcerrors.ErrGitOperation)
		}
		return nil
	}

	args := []string{"checkout", "-b", name}
	if startPoint != "" {
		args = append(args, startPoint)
	}
	if _, err := r.mutate(ctx, args...); err != nil {
		return fmt.Errorf("failed to create branch %s: %w", name, err)
	}
	return nil
}

// Checkout switches to an existing branch.
func (r *Repository) Checkout(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("branch name: %w", srcerrors.ErrEmptyValue)
	}
	if _, err := r.mutate(ctx, "checkout", name); err != nil {
		return fmt.Errorf("failed to checkout %s: %w", name, err)
	}
	return nil
}

// StageAll stages additions, modifications and deletions matching pattern.
// Staging an unchanged tree is a no-op.
func (r *Repository) StageAll(ctx context.Context, pattern string) error {
	if pattern == "" {
		pattern = DefaultStagePattern
	}
	if _, err := r.mutate(ctx, "add", "--all", "--", pattern); err != nil {
		return fmt.Errorf("failed to stage %s: %w", pattern, err)
	}
	return nil
}

// Remove deletes tracked files matching pattern from the index and the
// working tree. Matching nothing is not an error.
func (r *Repository) Remove(ctx context.Context, pattern string) error {
	if pattern == "" {
		return fmt.Errorf("remove pattern: %w", srcerrors.ErrEmptyValue)
	}
	if _, err := r.mutate(ctx, "rm", "-r", "-f", "--quiet", "--ignore-unmatch", "--", pattern); err != nil {
		return fmt.Errorf("failed to remove %s: %w", pattern, err)
	}
	return nil
}

// HasStagedChanges reports whether the index differs from HEAD.
// Exit 0 means no staged changes, exit 1 means changes; anything else is a
// failed query.
func (r *Repository) HasStagedChanges(ctx context.Context) (bool, error) {
	result, err := probe(ctx, r.runner, r.path, "diff", "--cached", "--quiet")
	if err != nil {
		return false, err
	}
	switch result.ExitCode {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("failed to query staged changes (exit code %d): %s: %w",
			result.ExitCode, result.Output(), srcerrors.ErrGitOperation)
	}
}

// Commit records the index as a new commit. Hooks are skipped.
func (r *Repository) Commit(ctx context.Context, message string) error {
	if message == "" {
		return fmt.Errorf("commit message: %w", srcerrors.ErrEmptyValue)
	}
	if _, err := r.mutate(ctx, "commit", "--no-verify", "-m", message); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// AmendLatest folds the index into the tip commit, keeping its message.
func (r *Repository) AmendLatest(ctx context.Context) error {
	if _, err := r.mutate(ctx, "commit", "--amend", "--no-edit", "--no-verify"); err != nil {
		return fmt.Errorf("failed to amend latest commit: %w", err)
	}
	return nil
}

// ResolveRef returns the commit id ref points to.
func (r *Repository) ResolveRef(ctx context.Context, ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("ref: %w", srcerrors.ErrEmptyValue)
	}
	id, err := r.run(ctx, "rev-parse", "--verify", "--quiet", ref+"^{commit}")
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", ref, err)
	}
	return id, nil
}

// CurrentBranch returns the checked out branch name.
func (r *Repository) CurrentBranch(ctx context.Context) (string, error) {
	output, err := r.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to get current branch: %w", err)
	}

	// Handle detached HEAD state
	if output == "HEAD" {
		return "", fmt.Errorf("repository is in detached HEAD state: %w", srcerrors.ErrGitOperation)
	}

	return output, nil
}

// CommitCount returns the number of commits reachable from ref.
func (r *Repository) CommitCount(ctx context.Context, ref string) (int, error) {
	output, err := r.run(ctx, "rev-list", "--count", ref)
	if err != nil {
		return 0, fmt.Errorf("failed to count commits on %s: %w", ref, err)
	}
	n, err := strconv.Atoi(output)
	if err != nil {
		return 0, fmt.Errorf("unexpected rev-list output %q: %w", output, srcerrors.ErrGitOperation)
	}
	return n, nil
}

// run executes git in the repository.
func (r *Repository) run(ctx context.Context, args ...string) (string, error) {
	return RunCommand(ctx, r.runner, r.path, args...)
}

// mutate executes a git command that writes to the repository. A held index
// or ref lock fails at once with ErrGitLocked.
func (r *Repository) mutate(ctx context.Context, args ...string) (string, error) {
	out, err := r.run(ctx, args...)
	if err != nil && MatchesLockFileError(err.Error()) {
		zerolog.Ctx(ctx).Debug().Strs("args", args).Err(err).Msg("git lock held by another process")
		return "", fmt.Errorf("%w: %w", srcerrors.ErrGitLocked, err)
	}
	return out, err
}
