package git

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/srcstage/internal/command"
	srcerrors "github.com/mrz1836/srcstage/internal/errors"
	"github.com/mrz1836/srcstage/internal/testutil"
)

// createTestGitRepo initializes a temporary git repository whose main branch
// holds one commit. Tests using it are skipped when git is not installed.
func createTestGitRepo(t *testing.T) string {
	t.Helper()
	return testutil.NewGitRepo(t, map[string]string{"README": "initial\n"})
}

func openTestRepo(t *testing.T, dir string) *Repository {
	t.Helper()
	repo, err := NewRepository(context.Background(), command.NewDefaultRunner(nil), dir)
	require.NoError(t, err)
	return repo
}

func TestRunCommand_Success(t *testing.T) {
	dir := createTestGitRepo(t)

	output, err := RunCommand(context.Background(), command.NewDefaultRunner(nil), dir, "rev-parse", "--git-dir")

	require.NoError(t, err)
	assert.Equal(t, ".git", output)
}

func TestRunCommand_WithStderr(t *testing.T) {
	dir := createTestGitRepo(t)

	_, err := RunCommand(context.Background(), command.NewDefaultRunner(nil), dir, "show", "nonexistent-commit-hash")

	require.Error(t, err)
	require.ErrorIs(t, err, srcerrors.ErrGitOperation)
	assert.Contains(t, err.Error(), "git show failed")
}

func TestRunCommand_StartFailure(t *testing.T) {
	runner := command.NewFakeRunner().OnError("git", srcerrors.ErrCommandFailed)

	_, err := RunCommand(context.Background(), runner, "/repo", "status")

	require.ErrorIs(t, err, srcerrors.ErrGitOperation)
	require.ErrorIs(t, err, srcerrors.ErrCommandFailed)
}

func TestRunCommand_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunCommand(ctx, command.NewFakeRunner(), "/repo", "status")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRepository(t *testing.T) {
	t.Run("opens a working copy", func(t *testing.T) {
		dir := createTestGitRepo(t)
		repo := openTestRepo(t, dir)
		assert.Equal(t, dir, repo.Path())
	})

	t.Run("rejects a plain directory", func(t *testing.T) {
		runner := command.NewFakeRunner().OnExit("rev-parse --git-dir", 128, "fatal: not a git repository")
		_, err := NewRepository(context.Background(), runner, t.TempDir())
		require.ErrorIs(t, err, srcerrors.ErrNotGitRepo)
	})

	t.Run("rejects an empty path", func(t *testing.T) {
		_, err := NewRepository(context.Background(), command.NewFakeRunner(), "")
		require.ErrorIs(t, err, srcerrors.ErrEmptyValue)
	})
}

func newFakeRepo(t *testing.T) (*Repository, *command.FakeRunner) {
	t.Helper()
	runner := command.NewFakeRunner().On("rev-parse --git-dir", command.Result{Stdout: ".git\n"})
	repo, err := NewRepository(context.Background(), runner, "/repo")
	require.NoError(t, err)
	return repo, runner
}

func TestRepository_BranchExistsProbe(t *testing.T) {
	repo, runner := newFakeRepo(t)
	runner.On("refs/heads/present", command.Result{})
	runner.OnExit("refs/heads/absent", 1, "")
	runner.OnExit("refs/heads/broken", 128, "fatal: something odd")

	ok, err := repo.BranchExists(context.Background(), "present")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.BranchExists(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.BranchExists(context.Background(), "broken")
	require.NoError(t, err, "a probe exit is never fatal")
	assert.False(t, ok)

	_, err = repo.BranchExists(context.Background(), "")
	require.ErrorIs(t, err, srcerrors.ErrEmptyValue)
}

func TestRepository_HasStagedChangesTriState(t *testing.T) {
	tests := []struct {
		name     string
		exitCode int
		want     bool
		wantErr  bool
	}{
		{name: "no diff", exitCode: 0, want: false},
		{name: "diff present", exitCode: 1, want: true},
		{name: "query failed", exitCode: 128, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, runner := newFakeRepo(t)
			runner.OnExit("diff --cached --quiet", tt.exitCode, "")

			got, err := repo.HasStagedChanges(context.Background())
			if tt.wantErr {
				require.ErrorIs(t, err, srcerrors.ErrGitOperation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRepository_CommandLines(t *testing.T) {
	repo, runner := newFakeRepo(t)
	runner.Default = &command.Result{}
	ctx := context.Background()

	require.NoError(t, repo.CreateBranch(ctx, "update-source-1.2.3", "aosp/master"))
	require.NoError(t, repo.Checkout(ctx, "update-source-1.2.3"))
	require.NoError(t, repo.StageAll(ctx, ""))
	require.NoError(t, repo.Remove(ctx, "*"))
	require.NoError(t, repo.Commit(ctx, "Importing source 1.2.3"))
	require.NoError(t, repo.AmendLatest(ctx))

	assert.Equal(t, []string{
		"git rev-parse --git-dir",
		"git checkout -b update-source-1.2.3 aosp/master",
		"git checkout update-source-1.2.3",
		"git add --all -- .",
		"git rm -r -f --quiet --ignore-unmatch -- *",
		"git commit --no-verify -m Importing source 1.2.3",
		"git commit --amend --no-edit --no-verify",
	}, runner.Lines())

	for _, c := range runner.Calls() {
		assert.Equal(t, "/repo", c.Dir)
	}
}

func TestRepository_CreateBranchWithRepoTool(t *testing.T) {
	runner := command.NewFakeRunner().On("rev-parse --git-dir", command.Result{Stdout: ".git"})
	runner.Default = &command.Result{}
	repo, err := NewRepository(context.Background(), runner, "/repo", WithBranchTool(BranchToolRepo))
	require.NoError(t, err)

	require.NoError(t, repo.CreateBranch(context.Background(), "update-source-2.0.0", "aosp/master"))

	lines := runner.Lines()
	assert.Equal(t, "repo start update-source-2.0.0 .", lines[len(lines)-1])
}

func TestRepository_CreateBranchWithRepoToolFailure(t *testing.T) {
	runner := command.NewFakeRunner().On("rev-parse --git-dir", command.Result{Stdout: ".git"})
	runner.OnExit("repo start", 1, "error: project not found")
	repo, err := NewRepository(context.Background(), runner, "/repo", WithBranchTool(BranchToolRepo))
	require.NoError(t, err)

	err = repo.CreateBranch(context.Background(), "b", "")
	require.ErrorIs(t, err, srcerrors.ErrGitOperation)
	assert.Contains(t, err.Error(), "project not found")
}

func TestRepository_FatalFailures(t *testing.T) {
	repo, runner := newFakeRepo(t)
	runner.Default = &command.Result{ExitCode: 1, Stderr: "error: pathspec did not match"}
	ctx := context.Background()

	require.ErrorIs(t, repo.Checkout(ctx, "nope"), srcerrors.ErrGitOperation)
	require.ErrorIs(t, repo.CreateBranch(ctx, "x", ""), srcerrors.ErrGitOperation)
	require.ErrorIs(t, repo.StageAll(ctx, "missing"), srcerrors.ErrGitOperation)
	require.ErrorIs(t, repo.Commit(ctx, "msg"), srcerrors.ErrGitOperation)
	require.ErrorIs(t, repo.AmendLatest(ctx), srcerrors.ErrGitOperation)
	_, err := repo.ResolveRef(ctx, "nope")
	require.ErrorIs(t, err, srcerrors.ErrGitOperation)

	require.ErrorIs(t, repo.Commit(ctx, ""), srcerrors.ErrEmptyValue)
	require.ErrorIs(t, repo.Remove(ctx, ""), srcerrors.ErrEmptyValue)
}

func TestRepository_RealGit(t *testing.T) {
	dir := createTestGitRepo(t)
	repo := openTestRepo(t, dir)
	ctx := context.Background()

	branch, err := repo.CurrentBranch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "main", branch)

	exists, err := repo.BranchExists(ctx, "main")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.BranchExists(ctx, "feature")
	require.NoError(t, err)
	assert.False(t, exists)

	staged, err := repo.HasStagedChanges(ctx)
	require.NoError(t, err)
	assert.False(t, staged)

	require.NoError(t, repo.StageAll(ctx, ""))
	staged, err = repo.HasStagedChanges(ctx)
	require.NoError(t, err)
	assert.False(t, staged, "staging an unchanged tree is a no-op")

	testutil.WriteFiles(t, dir, map[string]string{"src/new.c": "int x;\n"})
	require.NoError(t, repo.StageAll(ctx, ""))
	staged, err = repo.HasStagedChanges(ctx)
	require.NoError(t, err)
	assert.True(t, staged)

	require.NoError(t, repo.Commit(ctx, "add new.c"))
	count, err := repo.CommitCount(ctx, "HEAD")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, repo.Remove(ctx, "*"))
	assert.NoFileExists(t, filepath.Join(dir, "README"))
	assert.NoFileExists(t, filepath.Join(dir, "src/new.c"))
	staged, err = repo.HasStagedChanges(ctx)
	require.NoError(t, err)
	assert.True(t, staged)

	id, err := repo.ResolveRef(ctx, "main")
	require.NoError(t, err)
	assert.Len(t, id, 40)

	_, err = repo.ResolveRef(ctx, "does-not-exist")
	require.ErrorIs(t, err, srcerrors.ErrGitOperation)
}
