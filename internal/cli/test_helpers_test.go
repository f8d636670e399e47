package cli

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/mrz1836/srcstage/internal/command"
	"github.com/mrz1836/srcstage/internal/constants"
	"github.com/mrz1836/srcstage/internal/testutil"
)

// isolateConfig points the global config at an empty temp dir and runs the
// test from an empty working directory, so no real config is picked up.
func isolateConfig(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv(constants.EnvHome, home)
	t.Chdir(t.TempDir())
	return home
}

// runCLI executes the root command with args and returns stdout and stderr.
// Logs are discarded.
func runCLI(t *testing.T, runner command.Runner, args ...string) (string, string, error) {
	t.Helper()

	a := &app{flags: &GlobalFlags{Output: OutputText}, runner: runner, logWriter: io.Discard}
	cmd := buildRootCmd(a, BuildInfo{Version: "test"})

	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// writeTree creates files below root.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	testutil.WriteFiles(t, root, files)
}

// writeFile creates root/rel with content.
func writeFile(root, rel, content string) error {
	return testutil.WriteFile(root, rel, content)
}

// gitCmd runs git in dir and returns its trimmed output.
func gitCmd(t *testing.T, dir string, args ...string) string {
	t.Helper()
	return testutil.Git(t, dir, args...)
}

// createTestGitRepo creates a repository on branch main with one commit.
// The reference branch is pointed at main through the environment.
func createTestGitRepo(t *testing.T) string {
	t.Helper()
	dir := testutil.NewGitRepo(t, map[string]string{"OLD_FILE": "old\n"})
	t.Setenv("SRCSTAGE_GIT_REFERENCE_BRANCH", testutil.MainBranch)
	return dir
}

// gitRunner returns a FakeRunner that runs git for real.
// Rules registered on it afterwards are checked after the git rule.
func gitRunner() *command.FakeRunner {
	delegate := command.NewDefaultRunner(nil)
	return command.NewFakeRunner().OnFunc("git ", func(c command.Command) (*command.Result, error) {
		return delegate.Run(context.Background(), c)
	})
}
