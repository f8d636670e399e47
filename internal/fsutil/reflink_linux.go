//go:build linux

package fsutil

import (
	"os"

	"golang.org/x/sys/unix"
)

// reflinkFile clones src into dst with the FICLONE ioctl. It fails with
// EOPNOTSUPP or EXDEV on filesystems without copy-on-write support.
func reflinkFile(dst, src *os.File) error {
	return unix.IoctlFileClone(int(dst.Fd()), int(src.Fd()))
}
