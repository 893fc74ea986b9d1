//go:build !linux

package xtaf

import (
	"os"
)

// deviceSize returns the size of a regular file or seekable device.
func deviceSize(f *os.File) (int64, error) {
	return seekSize(f)
}
