package xtaf

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// SlotResult is the outcome of mounting one catalog slot.
type SlotResult struct {
	Index       int
	Slot        PartitionSlot
	StartSector uint64
	NumSectors  uint64

	// Partition is nil if the mount failed.
	Partition *MountedPartition

	// Err is ErrNotXtafPartition for an unused slot, a *DiskReadError, or
	// ErrInvalidGeometry.
	Err error

	// RegistrationErr is set if the partition mounted but couldn't be
	// registered.
	RegistrationErr error
}

// MountSummary is the result of mounting every slot of a catalog.
type MountSummary struct {
	// Mounted holds the successfully-mounted partitions in catalog order.
	Mounted []*MountedPartition

	// Results has one entry per attempted slot.
	Results []SlotResult

	Attempted uint32
	Succeeded uint32

	// Catalog is the catalog that was actually probed. It differs from the
	// one given if a devkit layout was detected.
	Catalog Catalog

	DevkitDetected bool
	Devkit         DevkitLayout

	// DevkitErr is set if the devkit probe failed. The given catalog is used
	// unmodified in that case.
	DevkitErr error
}

// Lookup returns the mounted partition with the given catalog name.
func (ms MountSummary) Lookup(name string) *MountedPartition {
	for _, mp := range ms.Mounted {
		if mp.Name() == name {
			return mp
		}
	}

	return nil
}

// Dump prints the summary.
func (ms MountSummary) Dump() {
	fmt.Printf("Mount Summary\n")
	fmt.Printf("=============\n")
	fmt.Printf("\n")

	if ms.DevkitDetected == true {
		fmt.Printf("Devkit: %s\n", ms.Devkit)
	} else if ms.DevkitErr != nil {
		fmt.Printf("Devkit: probe failed: %s\n", ms.DevkitErr)
	} else {
		fmt.Printf("Devkit: not detected\n")
	}

	fmt.Printf("Attempted: (%d)\n", ms.Attempted)
	fmt.Printf("Succeeded: (%d)\n", ms.Succeeded)
	fmt.Printf("\n")

	for _, sr := range ms.Results {
		status := "OK"
		if sr.Err != nil {
			status = sr.Err.Error()
		} else if sr.RegistrationErr != nil {
			status = "not registered: " + sr.RegistrationErr.Error()
		}

		fmt.Printf("(%d) [%s] START=(%d) SIZE=[%s]: %s\n", sr.Index, sr.Slot.Name, sr.StartSector, humanize.IBytes(sr.NumSectors*SectorSize), status)
	}

	fmt.Printf("\n")
}

// MountSession mounts every partition on one disk.
type MountSession struct {
	disk    DiskReader
	config  Config
	mounter *PartitionMounter
}

// NewMountSession returns a new MountSession instance. `registrar` may be nil.
func NewMountSession(disk DiskReader, registrar Registrar, config Config) *MountSession {
	return &MountSession{
		disk:    disk,
		config:  config,
		mounter: NewPartitionMounter(disk, registrar, config.CacheConfig(), config.DeviceNamePrefix),
	}
}

// MountAll probes for a devkit layout and then mounts each slot of the
// catalog in order. Failures are recorded per slot and never stop the walk.
// The walk ends at the end of the catalog or at the first slot after the
// first whose offset is zero.
func (ms *MountSession) MountAll(catalog Catalog, deviceTotalSectors uint64) (summary MountSummary) {
	summary.Catalog = catalog.Clone()

	if ms.config.SkipDevkitProbe == false {
		dl, present, err := ProbeDevkitLayout(ms.disk, ms.config.ByteOrder())
		if err != nil {
			mountLogger.Warningf(nil, "Devkit probe failed; using the retail partition table: %s", err)
			summary.DevkitErr = err
		} else if present == true {
			mountLogger.Infof(nil, "Devkit disk detected.")

			summary.DevkitDetected = true
			summary.Devkit = dl
			summary.Catalog = summary.Catalog.WithDevkitLayout(dl)
		}
	}

	summary.Mounted = make([]*MountedPartition, 0)
	summary.Results = make([]SlotResult, 0, len(summary.Catalog))

	// Shared across every slot.
	scratch := make([]byte, SectorSize)

	for i, slot := range summary.Catalog {
		if i > 0 && slot.ByteOffset == 0 {
			break
		}

		startSector, numSectors := slot.SectorRange(deviceTotalSectors)

		mp, registrationErr, err := ms.mounter.Mount(i, slot, startSector, numSectors, scratch)

		summary.Attempted++

		sr := SlotResult{
			Index:           i,
			Slot:            slot,
			StartSector:     startSector,
			NumSectors:      numSectors,
			Partition:       mp,
			Err:             err,
			RegistrationErr: registrationErr,
		}

		summary.Results = append(summary.Results, sr)

		if err == ErrNotXtafPartition {
			mountLogger.Debugf(nil, "No partition in slot (%d) [%s].", i, slot.Name)
			continue
		} else if err != nil {
			mountLogger.Warningf(nil, "Could not mount slot (%d) [%s]: %s", i, slot.Name, err)
			continue
		}

		summary.Mounted = append(summary.Mounted, mp)
		summary.Succeeded++
	}

	return summary
}
