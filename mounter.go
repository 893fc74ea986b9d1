package xtaf

import (
	"fmt"

	"github.com/dsoprea/go-logging"
)

var (
	mountLogger = log.NewLogger("xtaf.mount")
)

// PartitionMounter validates and mounts a single slot.
type PartitionMounter struct {
	disk       DiskReader
	registrar  Registrar
	cache      CacheConfig
	namePrefix string
}

// NewPartitionMounter returns a new PartitionMounter instance. `registrar` may
// be nil, in which case partitions aren't registered anywhere.
func NewPartitionMounter(disk DiskReader, registrar Registrar, cacheConfig CacheConfig, namePrefix string) *PartitionMounter {
	return &PartitionMounter{
		disk:       disk,
		registrar:  registrar,
		cache:      cacheConfig,
		namePrefix: namePrefix,
	}
}

// DeviceName returns the name that the partition from the given slot is
// registered under.
func (pm *PartitionMounter) DeviceName(slotIndex int) string {
	return fmt.Sprintf("%s%d", pm.namePrefix, slotIndex)
}

// Mount reads and validates the header at `startSector`, derives the geometry,
// builds the cache and registers the partition. `scratch` must hold at least
// one sector and isn't referenced after return.
//
// A slot without the XTAF signature returns ErrNotXtafPartition. A failed
// registration is returned as `registrationErr` alongside the still-usable
// partition.
func (pm *PartitionMounter) Mount(slotIndex int, slot PartitionSlot, startSector, numSectors uint64, scratch []byte) (mp *MountedPartition, registrationErr error, err error) {
	if len(scratch) < SectorSize {
		return nil, nil, &DiskReadError{
			Sector: startSector,
			Count:  1,
			Cause:  fmt.Errorf("scratch buffer too small: (%d)", len(scratch)),
		}
	}

	err = pm.disk.ReadSectors(startSector, 1, scratch[:SectorSize])
	if err != nil {
		return nil, nil, err
	}

	xh, err := ParseXtafHeader(scratch[:SectorSize])
	if err != nil {
		return nil, nil, err
	}

	mountLogger.Debugf(nil, "Found a partition at sector (%d): %s", startSector, xh)

	pg, err := ComputeGeometry(xh, startSector, numSectors)
	if err != nil {
		return nil, nil, err
	}

	cache := NewSectorCache(pm.cache.PageCount, pm.cache.SectorsPerPage, pm.disk, startSector+numSectors, SectorSize)

	mp = &MountedPartition{
		index:      slotIndex,
		name:       slot.Name,
		deviceName: pm.DeviceName(slotIndex),
		header:     xh,
		geometry:   pg,
		cache:      cache,
		disk:       pm.disk,
	}

	if pm.registrar != nil {
		registrationErr = pm.registrar.AddDevice(mp.deviceName, mp)
		if registrationErr != nil {
			mountLogger.Warningf(nil, "Could not register partition [%s] as [%s]: %s", mp.name, mp.deviceName, registrationErr)
		}
	}

	return mp, registrationErr, nil
}
