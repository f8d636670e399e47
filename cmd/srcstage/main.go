// Package main provides the entry point for the srcstage CLI.
package main

import (
	"context"
	"os"

	"github.com/mrz1836/srcstage/internal/cli"
	"github.com/mrz1836/srcstage/internal/signal"
)

// Set via ldflags at build time.
var (
	version = "" //nolint:gochecknoglobals // ldflags target
	commit  = "" //nolint:gochecknoglobals // ldflags target
	date    = "" //nolint:gochecknoglobals // ldflags target
)

func main() {
	os.Exit(run())
}

func run() int {
	h := signal.NewHandler(context.Background())
	defer h.Stop()

	err := cli.Execute(h.Context(), cli.BuildInfo{Version: version, Commit: commit, Date: date})
	if h.Received() != nil {
		return cli.ExitInterrupted
	}
	return cli.ExitCodeForError(err)
}
