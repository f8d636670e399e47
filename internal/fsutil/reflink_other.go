//go:build !linux

package fsutil

import (
	"errors"
	"os"
)

// reflinkFile is not implemented off Linux; the clone degrades to a plain copy.
func reflinkFile(_, _ *os.File) error {
	return errors.ErrUnsupported
}
