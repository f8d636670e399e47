package tui

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	srcerrors "github.com/mrz1836/srcstage/internal/errors"
)

func TestNewOutput(t *testing.T) {
	var buf bytes.Buffer
	assert.IsType(t, &JSONOutput{}, NewOutput(&buf, "json"))
	assert.IsType(t, &TTYOutput{}, NewOutput(&buf, "text"))
	assert.IsType(t, &TTYOutput{}, NewOutput(&buf, ""))
}

func TestTTYOutput_Messages(t *testing.T) {
	var buf bytes.Buffer
	out := NewTTYOutput(&buf)

	out.Success("published")
	out.Warning("partial")
	out.Info("3 patches")

	output := buf.String()
	assert.Contains(t, output, IconSuccess+" published")
	assert.Contains(t, output, IconWarning+" partial")
	assert.Contains(t, output, IconInfo+" 3 patches")
}

func TestTTYOutput_Error(t *testing.T) {
	t.Run("known error shows suggestion", func(t *testing.T) {
		var buf bytes.Buffer
		out := NewTTYOutput(&buf)

		out.Error(fmt.Errorf("branch update-source-1.2.3: %w", srcerrors.ErrBranchExists))

		output := buf.String()
		assert.Contains(t, output, IconError+" branch update-source-1.2.3: branch already exists")
		assert.Contains(t, output, "▸ Try: Pass --overwrite")
	})

	t.Run("unknown error has no suggestion", func(t *testing.T) {
		var buf bytes.Buffer
		out := NewTTYOutput(&buf)

		out.Error(errors.New("boom"))

		assert.Contains(t, buf.String(), "boom")
		assert.NotContains(t, buf.String(), "Try:")
	})
}

func TestTTYOutput_Table(t *testing.T) {
	var buf bytes.Buffer
	out := NewTTYOutput(&buf)

	out.Table([]string{"PATCH", "FILES"}, [][]string{
		{"0001-a.patch", "1"},
		{"0010-longer-name.patch"},
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "PATCH"))
	assert.Equal(t, strings.Index(lines[0], "FILES"), strings.LastIndex(lines[1], "1"), "columns are aligned")
	assert.Equal(t, "0010-longer-name.patch", lines[2])
}

func TestTTYOutput_TableNoHeaders(t *testing.T) {
	var buf bytes.Buffer
	NewTTYOutput(&buf).Table(nil, [][]string{{"x"}})
	assert.Empty(t, buf.String())
}

func TestTTYOutput_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTTYOutput(&buf).JSON(map[string]int{"copied": 2}))
	assert.Equal(t, "{\n  \"copied\": 2\n}\n", buf.String())
}

func TestJSONOutput_Messages(t *testing.T) {
	var buf bytes.Buffer
	out := NewJSONOutput(&buf)

	out.Success("done")
	out.Warning("careful")
	out.Info("fyi")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	var msg jsonMessage
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &msg))
	assert.Equal(t, jsonMessage{Type: "success", Message: "done"}, msg)
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &msg))
	assert.Equal(t, "warning", msg.Type)
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &msg))
	assert.Equal(t, "info", msg.Type)
}

func TestJSONOutput_Error(t *testing.T) {
	t.Run("known error", func(t *testing.T) {
		var buf bytes.Buffer
		err := fmt.Errorf("%w: patch 0002-b.patch failed", srcerrors.ErrPatchFailed)
		NewJSONOutput(&buf).Error(err)

		var got jsonError
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, "error", got.Type)
		assert.Contains(t, got.Message, "did not apply cleanly")
		assert.Equal(t, err.Error(), got.Details)
		assert.NotEmpty(t, got.Suggestion)
	})

	t.Run("unknown error", func(t *testing.T) {
		var buf bytes.Buffer
		NewJSONOutput(&buf).Error(errors.New("boom"))

		var got jsonError
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, jsonError{Type: "error", Message: "boom"}, got)
	})
}

func TestJSONOutput_Table(t *testing.T) {
	var buf bytes.Buffer
	NewJSONOutput(&buf).Table([]string{"patch", "status"}, [][]string{
		{"0001-a.patch", "applied"},
		{"0002-b.patch"},
	})

	var got []map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, []map[string]string{
		{"patch": "0001-a.patch", "status": "applied"},
		{"patch": "0002-b.patch", "status": ""},
	}, got)
}

func TestJSONOutput_TableNoHeaders(t *testing.T) {
	var buf bytes.Buffer
	NewJSONOutput(&buf).Table(nil, nil)
	assert.Equal(t, "[]\n", buf.String())
}
