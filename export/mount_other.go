//go:build !linux
// +build !linux

package export

import (
	"github.com/dsoprea/go-logging"
)

// Serve is only supported on Linux.
func Serve(mountpoint string, source DeviceSource) error {
	return log.Errorf("FUSE export is only supported on Linux")
}
