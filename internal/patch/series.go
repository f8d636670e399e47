// Package patch loads ordered patch series and applies them to source trees.
package patch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultGlob matches every file in the patch directory.
const DefaultGlob = "*"

// Patch is a single patch file. Name is the stable identity used in reports.
type Patch struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Series is an ordered list of patches, sorted by file name.
type Series struct {
	Dir     string  `json:"dir"`
	Patches []Patch `json:"patches"`
}

// Len returns the number of patches in the series.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Patches)
}

// NewSeries builds a series from paths in any order. File names encode the
// apply order, so the result is sorted lexicographically by base name.
func NewSeries(paths []string) *Series {
	patches := make([]Patch, 0, len(paths))
	for _, p := range paths {
		patches = append(patches, Patch{Name: filepath.Base(p), Path: p})
	}
	sort.SliceStable(patches, func(i, j int) bool {
		return patches[i].Name < patches[j].Name
	})
	return &Series{Patches: patches}
}

// LoadSeries lists the regular, non-hidden files in dir matching glob.
// An empty dir yields an empty series; a dir that does not exist is an error.
func LoadSeries(dir, glob string) (*Series, error) {
	if dir == "" {
		return &Series{}, nil
	}
	if glob == "" {
		glob = DefaultGlob
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("patch directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("patch directory %s is not a directory", dir)
	}

	matches, err := filepath.Glob(filepath.Join(dir, glob))
	if err != nil {
		return nil, fmt.Errorf("invalid patch glob %q: %w", glob, err)
	}

	paths := make([]string, 0, len(matches))
	for _, m := range matches {
		if strings.HasPrefix(filepath.Base(m), ".") {
			continue
		}
		fi, err := os.Stat(m)
		if err != nil {
			return nil, fmt.Errorf("patch %s: %w", m, err)
		}
		if !fi.Mode().IsRegular() {
			continue
		}
		abs, err := filepath.Abs(m)
		if err != nil {
			return nil, err
		}
		paths = append(paths, abs)
	}

	series := NewSeries(paths)
	series.Dir = dir
	return series, nil
}
