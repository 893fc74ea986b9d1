package export

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dsoprea/go-xtaf"
)

// DeviceSource is the set of registered devices to export.
// *xtaf.DeviceTable satisfies it.
type DeviceSource interface {
	Names() []string
	Lookup(name string) (device xtaf.Device, found bool)
}

// PrepareMountpoint makes sure that the path is an empty directory, creating
// it if necessary. `created` is true if the directory didn't exist before.
func PrepareMountpoint(mountpoint string) (created bool, err error) {
	fi, err := os.Stat(mountpoint)
	if errors.Is(err, os.ErrNotExist) {
		err := os.Mkdir(mountpoint, 0755)
		if err != nil {
			return false, fmt.Errorf("failed to create mountpoint [%s]: %w", mountpoint, err)
		}

		return true, nil
	} else if err != nil {
		return false, fmt.Errorf("failed to stat mountpoint [%s]: %w", mountpoint, err)
	}

	if fi.IsDir() != true {
		return false, fmt.Errorf("mountpoint [%s] is not a directory", mountpoint)
	}

	empty, err := IsDirEmpty(mountpoint)
	if err != nil {
		return false, fmt.Errorf("failed to check mountpoint [%s]: %w", mountpoint, err)
	}

	if empty != true {
		return false, fmt.Errorf("mountpoint [%s] is not empty", mountpoint)
	}

	return false, nil
}

// IsDirEmpty returns true if the directory has no entries.
func IsDirEmpty(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}

	defer f.Close()

	_, err = f.Readdirnames(1)
	if err == io.EOF {
		return true, nil
	} else if err != nil {
		return false, err
	}

	return false, nil
}
