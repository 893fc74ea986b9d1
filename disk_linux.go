//go:build linux

package xtaf

import (
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// deviceSize returns the size of a regular file or block device. Block
// devices report their size through the BLKGETSIZE64 ioctl.
func deviceSize(f *os.File) (int64, error) {
	fi, err := f.Stat()
	if err != nil {
		return 0, err
	}

	if fi.Mode()&os.ModeDevice == 0 {
		return seekSize(f)
	}

	var size uint64

	_, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), unix.BLKGETSIZE64, uintptr(unsafe.Pointer(&size)))
	if errno != 0 {
		return seekSize(f)
	}

	return int64(size), nil
}
