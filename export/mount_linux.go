//go:build linux
// +build linux

package export

import (
	"os"
	"os/signal"
	"reflect"
	"syscall"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"

	"github.com/dsoprea/go-logging"
)

const (
	maxUnmountAttempts = 3
)

var (
	exportLogger = log.NewLogger("xtaf.export")
)

// Serve exports the devices at the mountpoint and blocks until an interrupt
// or termination signal unmounts it. The mountpoint is created if it doesn't
// exist and removed again afterward.
func Serve(mountpoint string, source DeviceSource) (err error) {
	defer func() {
		if errRaw := recover(); errRaw != nil {
			var ok bool
			if err, ok = errRaw.(error); ok == true {
				err = log.Wrap(err)
			} else {
				err = log.Errorf("Error not an error: [%s] [%v]", reflect.TypeOf(err).Name(), err)
			}
		}
	}()

	created, err := PrepareMountpoint(mountpoint)
	log.PanicIf(err)

	if created == true {
		defer os.Remove(mountpoint)
	}

	c, err := fuse.Mount(
		mountpoint,
		fuse.FSName("xtaf"),
		fuse.Subtype("xtaf"),
		fuse.ReadOnly())

	log.PanicIf(err)

	defer c.Close()

	pfs := NewPartitionFS(source)

	served := make(chan error, 1)

	go func() {
		served <- fusefs.New(c, nil).Serve(pfs)
	}()

	exportLogger.Infof(nil, "Exported (%d) device(s) at [%s].", len(source.Names()), mountpoint)

	err = waitForUnmount(mountpoint, served)
	log.PanicIf(err)

	return nil
}

// waitForUnmount unmounts on each signal until it succeeds. It returns early
// if the server stops on its own (e.g. an external umount).
func waitForUnmount(mountpoint string, served <-chan error) error {
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)

	defer signal.Stop(sigc)

	attempts := 0

	for {
		select {
		case err := <-served:
			return err
		case sig := <-sigc:
			attempts++

			exportLogger.Infof(nil, "Signal received (%s). Unmounting [%s] (%d/%d).", sig, mountpoint, attempts, maxUnmountAttempts)

			err := fuse.Unmount(mountpoint)
			if err == nil {
				return <-served
			}

			if attempts >= maxUnmountAttempts {
				return log.Errorf("could not unmount [%s] after (%d) attempts: %s", mountpoint, attempts, err)
			}

			exportLogger.Warningf(nil, "Unmount failed; send another signal to retry: %s", err)
		}
	}
}
