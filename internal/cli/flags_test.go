package cli

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/srcstage/internal/errors"
)

func TestExitCodes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, ExitSuccess)
	assert.Equal(t, 1, ExitError)
	assert.Equal(t, 2, ExitInvalidInput)
	assert.Equal(t, 130, ExitInterrupted)
}

func TestAddGlobalFlags_ParsesCorrectly(t *testing.T) {
	t.Parallel()

	flags := &GlobalFlags{}
	cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
	AddGlobalFlags(cmd, flags)
	cmd.SetArgs([]string{"-o", "json", "-v"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, OutputJSON, flags.Output)
	assert.True(t, flags.Verbose)
	assert.False(t, flags.Quiet)
}

func TestBindGlobalFlags_EnvFallback(t *testing.T) {
	t.Setenv("SRCSTAGE_QUIET", "true")
	t.Setenv("SRCSTAGE_OUTPUT", "Json")

	flags := &GlobalFlags{}
	root := &cobra.Command{Use: "root"}
	AddGlobalFlags(root, flags)
	child := &cobra.Command{Use: "child"}
	root.AddCommand(child)

	v := viper.New()
	require.NoError(t, BindGlobalFlags(v, child))
	ResolveGlobalFlags(v, flags)

	assert.Equal(t, OutputJSON, flags.Output)
	assert.True(t, flags.Quiet)
	assert.False(t, flags.Verbose)
}

func TestBindGlobalFlags_FlagBeatsEnv(t *testing.T) {
	t.Setenv("SRCSTAGE_OUTPUT", "json")

	flags := &GlobalFlags{}
	root := &cobra.Command{Use: "root", RunE: func(*cobra.Command, []string) error { return nil }}
	AddGlobalFlags(root, flags)
	root.SetArgs([]string{"--output", "text"})
	require.NoError(t, root.Execute())

	v := viper.New()
	require.NoError(t, BindGlobalFlags(v, root))
	ResolveGlobalFlags(v, flags)
	assert.Equal(t, OutputText, flags.Output)
}

func TestIsValidOutputFormat(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"text", "json"}, ValidOutputFormats())
	assert.True(t, IsValidOutputFormat("text"))
	assert.True(t, IsValidOutputFormat("json"))
	assert.False(t, IsValidOutputFormat("yaml"))
	assert.False(t, IsValidOutputFormat(""))
}

func TestExitCodeForError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"exit code 2 wrapper", errors.NewExitCode2Error(stderrors.New("bad")), ExitInvalidInput},
		{"invalid output format", fmt.Errorf("x: %w", errors.ErrInvalidOutputFormat), ExitInvalidInput},
		{"invalid version", fmt.Errorf("x: %w", errors.ErrInvalidVersion), ExitInvalidInput},
		{"unknown flag", stderrors.New("unknown flag: --frob"), ExitInvalidInput},
		{"required flag", stderrors.New(`required flag(s) "input" not set`), ExitInvalidInput},
		{"arg count", stderrors.New("accepts 1 arg(s), received 0"), ExitInvalidInput},
		{"patch failure", errors.ErrPatchFailed, ExitError},
		{"branch exists", errors.ErrBranchExists, ExitError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, ExitCodeForError(tc.err))
		})
	}
}
