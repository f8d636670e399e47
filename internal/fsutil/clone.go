// Package fsutil provides the filesystem primitives used to stage source trees:
// a copy-on-write clone with plain-copy fallback, and a checksum-based
// incremental sync.
package fsutil

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// CloneMethod reports how a tree was cloned.
type CloneMethod string

// Clone methods.
const (
	CloneReflink CloneMethod = "reflink"
	ClonePlain   CloneMethod = "plain"
)

// FileCopier copies the contents of src into the freshly created dst.
type FileCopier func(dst, src *os.File) error

// Cloner clones directory trees. Symbolic links are recreated, not followed,
// and timestamps are not preserved so every cloned file carries a fresh
// modification time.
type Cloner struct {
	// Reflink shares storage blocks between src and dst. It is tried first for
	// the whole tree; any failure degrades to a plain copy. Nil skips the probe.
	Reflink FileCopier
}

// NewCloner returns a Cloner using the platform reflink primitive, if any.
func NewCloner() *Cloner {
	return &Cloner{Reflink: reflinkFile}
}

// Clone copies the tree at src to dst, which must not exist yet.
func (c *Cloner) Clone(ctx context.Context, src, dst string) (CloneMethod, error) {
	log := zerolog.Ctx(ctx)

	if c.Reflink != nil {
		err := copyTree(ctx, src, dst, c.Reflink)
		if err == nil {
			return CloneReflink, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		log.Debug().Err(err).Str("dst", dst).Msg("reflink clone unavailable, falling back to plain copy")
		if rmErr := os.RemoveAll(dst); rmErr != nil {
			return "", fmt.Errorf("failed to remove partial clone %s: %w", dst, rmErr)
		}
	}

	if err := copyTree(ctx, src, dst, plainCopy); err != nil {
		return "", err
	}
	return ClonePlain, nil
}

func plainCopy(dst, src *os.File) error {
	_, err := io.Copy(dst, src)
	return err
}

// copyTree walks src and recreates it under dst using copier for regular files.
func copyTree(ctx context.Context, src, dst string, copier FileCopier) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		info, err := d.Info()
		if err != nil {
			return err
		}

		switch {
		case d.IsDir():
			return os.MkdirAll(target, info.Mode().Perm()|0o700)
		case info.Mode()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		case info.Mode().IsRegular():
			return copyFile(path, target, info.Mode().Perm(), copier)
		default:
			zerolog.Ctx(ctx).Debug().Str("path", path).Msg("skipping special file")
			return nil
		}
	})
}

func copyFile(src, dst string, perm fs.FileMode, copier FileCopier) (err error) {
	in, err := os.Open(src) //#nosec G304 -- path comes from walking the input tree
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm) //#nosec G304 -- target is under the staging path
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); err == nil {
			err = closeErr
		}
	}()

	if err := copier(out, in); err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return nil
}

// Exists reports whether path exists without following a final symlink.
func Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
