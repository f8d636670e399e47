package patch

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sourcegraph/go-diff/diff"
)

const devNull = "/dev/null"

// FileChange is one file touched by a patch, with its path after stripping.
type FileChange struct {
	Path    string `json:"path"`
	Added   int    `json:"added"`
	Removed int    `json:"removed"`
	Created bool   `json:"created,omitempty"`
	Deleted bool   `json:"deleted,omitempty"`
}

// Stats summarizes what a patch touches.
type Stats struct {
	Patch   string       `json:"patch"`
	Files   []FileChange `json:"files"`
	Added   int          `json:"added"`
	Removed int          `json:"removed"`
}

// Inspect parses the unified diff in p and counts changed lines per file.
// strip removes leading path components the same way patch -p does.
func Inspect(p Patch, strip int) (*Stats, error) {
	data, err := os.ReadFile(p.Path) //#nosec G304 -- path comes from the configured patch directory
	if err != nil {
		return nil, fmt.Errorf("failed to read patch %s: %w", p.Name, err)
	}

	fileDiffs, err := diff.NewMultiFileDiffReader(strings.NewReader(string(data))).ReadAllFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to parse patch %s: %w", p.Name, err)
	}

	stats := &Stats{Patch: p.Name, Files: make([]FileChange, 0, len(fileDiffs))}
	for _, fd := range fileDiffs {
		change := FileChange{
			Created: fd.OrigName == devNull,
			Deleted: fd.NewName == devNull,
		}
		name := fd.NewName
		if change.Deleted {
			name = fd.OrigName
		}
		change.Path = stripComponents(name, strip)

		for _, hunk := range fd.Hunks {
			for _, line := range strings.Split(string(hunk.Body), "\n") {
				switch {
				case strings.HasPrefix(line, "+"):
					change.Added++
				case strings.HasPrefix(line, "-"):
					change.Removed++
				}
			}
		}

		stats.Added += change.Added
		stats.Removed += change.Removed
		stats.Files = append(stats.Files, change)
	}

	return stats, nil
}

// InspectSeries inspects every patch in order.
func InspectSeries(ctx context.Context, series *Series, strip int) ([]*Stats, error) {
	all := make([]*Stats, 0, series.Len())
	for _, p := range series.Patches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s, err := Inspect(p, strip)
		if err != nil {
			return nil, err
		}
		all = append(all, s)
	}
	return all, nil
}

func stripComponents(name string, n int) string {
	// Timestamps may follow the name after a tab.
	if i := strings.IndexByte(name, '\t'); i >= 0 {
		name = name[:i]
	}
	for ; n > 0; n-- {
		i := strings.IndexByte(name, '/')
		if i < 0 {
			break
		}
		name = name[i+1:]
	}
	return name
}
