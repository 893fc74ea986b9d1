package xtaf

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sort"
	"sync"
)

var (
	// ErrDeviceExists indicates that a device with the same name is already
	// registered.
	ErrDeviceExists = errors.New("device already registered")

	// ErrInvalidDeviceName indicates an empty device name.
	ErrInvalidDeviceName = errors.New("invalid device name")
)

// Device is the set of operations that a registered partition provides. The
// raw partition can be opened and seeked with
// io.NewSectionReader(device, 0, device.Geometry().SizeBytes()). Paths given
// to the file operations use forward-slashes and are relative to the root
// directory of the partition.
type Device interface {
	io.ReaderAt

	// Name is the name of the catalog slot that the device was mounted from.
	Name() string

	// Geometry returns the derived partition geometry.
	Geometry() PartitionGeometry

	// ReadSectors reads partition-relative sectors.
	ReadSectors(sector uint64, count uint32, buffer []byte) error

	// Open returns a seekable reader over a file.
	Open(filepath string) (*File, error)

	// Stat describes a file or directory.
	Stat(filepath string) (fs.FileInfo, error)

	// ReadDir lists a directory.
	ReadDir(filepath string) ([]fs.FileInfo, error)
}

// Registrar makes mounted devices available by name.
type Registrar interface {
	AddDevice(name string, device Device) error
}

// DeviceTable is an in-process Registrar.
type DeviceTable struct {
	mu      sync.RWMutex
	devices map[string]Device
}

// NewDeviceTable returns a new, empty DeviceTable.
func NewDeviceTable() *DeviceTable {
	return &DeviceTable{
		devices: make(map[string]Device),
	}
}

// AddDevice registers the device under the given name.
func (dt *DeviceTable) AddDevice(name string, device Device) error {
	if name == "" {
		return ErrInvalidDeviceName
	}

	dt.mu.Lock()
	defer dt.mu.Unlock()

	if _, found := dt.devices[name]; found == true {
		return fmt.Errorf("%w: [%s]", ErrDeviceExists, name)
	}

	dt.devices[name] = device

	return nil
}

// Lookup returns the device registered under the given name.
func (dt *DeviceTable) Lookup(name string) (device Device, found bool) {
	dt.mu.RLock()
	defer dt.mu.RUnlock()

	device, found = dt.devices[name]
	return device, found
}

// Remove unregisters the named device. It returns false if there was no such
// device.
func (dt *DeviceTable) Remove(name string) bool {
	dt.mu.Lock()
	defer dt.mu.Unlock()

	if _, found := dt.devices[name]; found == false {
		return false
	}

	delete(dt.devices, name)
	return true
}

// Names returns the sorted names of all registered devices.
func (dt *DeviceTable) Names() []string {
	dt.mu.RLock()
	defer dt.mu.RUnlock()

	names := make([]string, 0, len(dt.devices))
	for name := range dt.devices {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
