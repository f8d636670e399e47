package fsutil

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultHashWorkers bounds concurrent checksum computation during Sync.
const DefaultHashWorkers = 4

// SyncOptions configures Sync.
type SyncOptions struct {
	// Workers bounds concurrent checksum reads. Zero means DefaultHashWorkers.
	Workers int
}

// SyncStats summarizes an incremental sync.
type SyncStats struct {
	Copied    int `json:"copied"`
	Deleted   int `json:"deleted"`
	Unchanged int `json:"unchanged"`
}

type entryKind int

const (
	kindOther entryKind = iota
	kindDir
	kindFile
	kindSymlink
)

type treeEntry struct {
	kind entryKind
	perm fs.FileMode
	size int64
}

// Sync makes dst mirror src. Files are compared by content checksum; only
// files whose content differs (or that are missing) are rewritten, entries
// absent from src are deleted, and symbolic links are recreated rather than
// followed. Unchanged files are left alone, so their modification times
// survive.
func Sync(ctx context.Context, src, dst string, opts SyncOptions) (*SyncStats, error) {
	log := zerolog.Ctx(ctx)
	stats := &SyncStats{}

	srcEntries, srcOrder, err := scanTree(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", src, err)
	}
	dstEntries, dstOrder, err := scanTree(ctx, dst)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dst, err)
	}

	if err := deleteExtraneous(dst, srcEntries, dstEntries, dstOrder, stats); err != nil {
		return nil, err
	}

	same, err := identicalFiles(ctx, src, dst, srcEntries, dstEntries, opts.Workers)
	if err != nil {
		return nil, err
	}

	for _, rel := range srcOrder {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := syncEntry(src, dst, rel, srcEntries[rel], dstEntries, same, stats); err != nil {
			return nil, fmt.Errorf("failed to sync %s: %w", rel, err)
		}
	}

	log.Debug().
		Int("copied", stats.Copied).
		Int("deleted", stats.Deleted).
		Int("unchanged", stats.Unchanged).
		Str("dst", dst).
		Msg("incremental sync complete")

	return stats, nil
}

// deleteExtraneous removes entries of dst that are missing from src or whose
// type differs. Removed entries (and their children) are dropped from dstEntries.
func deleteExtraneous(dst string, srcEntries, dstEntries map[string]treeEntry, dstOrder []string, stats *SyncStats) error {
	var removedDirs []string

	for _, rel := range dstOrder {
		if underAny(rel, removedDirs) {
			delete(dstEntries, rel)
			continue
		}

		d := dstEntries[rel]
		s, ok := srcEntries[rel]
		if ok && s.kind == d.kind {
			continue
		}

		if err := os.RemoveAll(filepath.Join(dst, rel)); err != nil {
			return fmt.Errorf("failed to delete %s: %w", rel, err)
		}
		delete(dstEntries, rel)
		stats.Deleted++
		if d.kind == kindDir {
			removedDirs = append(removedDirs, rel+string(filepath.Separator))
		}
	}
	return nil
}

func underAny(rel string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(rel, p) {
			return true
		}
	}
	return false
}

// identicalFiles checksums every file present in both trees with equal size
// and returns the set whose contents match.
func identicalFiles(ctx context.Context, src, dst string, srcEntries, dstEntries map[string]treeEntry, workers int) (map[string]bool, error) {
	if workers <= 0 {
		workers = DefaultHashWorkers
	}

	var (
		mu   sync.Mutex
		same = make(map[string]bool)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for rel, s := range srcEntries {
		d, ok := dstEntries[rel]
		if s.kind != kindFile || !ok || d.kind != kindFile || s.size != d.size {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			a, err := fileChecksum(filepath.Join(src, rel))
			if err != nil {
				return err
			}
			b, err := fileChecksum(filepath.Join(dst, rel))
			if err != nil {
				return err
			}
			if bytes.Equal(a, b) {
				mu.Lock()
				same[rel] = true
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to checksum files: %w", err)
	}
	return same, nil
}

func syncEntry(src, dst, rel string, s treeEntry, dstEntries map[string]treeEntry, same map[string]bool, stats *SyncStats) error {
	srcPath := filepath.Join(src, rel)
	dstPath := filepath.Join(dst, rel)
	d, exists := dstEntries[rel]

	switch s.kind {
	case kindDir:
		if !exists {
			return os.Mkdir(dstPath, s.perm|0o700)
		}
		return nil

	case kindSymlink:
		link, err := os.Readlink(srcPath)
		if err != nil {
			return err
		}
		if exists {
			current, err := os.Readlink(dstPath)
			if err == nil && current == link {
				stats.Unchanged++
				return nil
			}
			if err := os.Remove(dstPath); err != nil {
				return err
			}
		}
		stats.Copied++
		return os.Symlink(link, dstPath)

	case kindFile:
		if same[rel] {
			stats.Unchanged++
			if d.perm != s.perm {
				return os.Chmod(dstPath, s.perm)
			}
			return nil
		}
		stats.Copied++
		return replaceFile(srcPath, dstPath, s.perm)

	default:
		return nil
	}
}

// replaceFile writes src next to dst and renames it into place.
func replaceFile(src, dst string, perm fs.FileMode) (err error) {
	in, err := os.Open(src) //#nosec G304 -- path comes from walking the staging tree
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".sync-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = io.Copy(tmp, in); err != nil {
		return err
	}
	if err = tmp.Chmod(perm); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}

func fileChecksum(path string) ([]byte, error) {
	f, err := os.Open(path) //#nosec G304 -- path comes from walking a managed tree
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}

// scanTree lists every entry below root keyed by its relative path, plus the
// keys in lexicographic order (parents before children).
func scanTree(ctx context.Context, root string) (map[string]treeEntry, []string, error) {
	entries := make(map[string]treeEntry)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}

		e := treeEntry{perm: info.Mode().Perm(), size: info.Size()}
		switch {
		case d.IsDir():
			e.kind = kindDir
		case info.Mode()&fs.ModeSymlink != 0:
			e.kind = kindSymlink
		case info.Mode().IsRegular():
			e.kind = kindFile
		default:
			e.kind = kindOther
		}
		entries[rel] = e
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	order := make([]string, 0, len(entries))
	for rel := range entries {
		order = append(order, rel)
	}
	sort.Strings(order)

	return entries, order, nil
}
