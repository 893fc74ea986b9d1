package xtaf

import (
	"encoding/binary"
	"errors"
	"fmt"
	"reflect"

	"github.com/dsoprea/go-logging"
	"github.com/go-restruct/restruct"
)

const (
	// devkitPartitionTableSize is the size of the record at the front of
	// sector zero on a devkit disk.
	devkitPartitionTableSize = 24

	// requiredDevkitMagic identifies a devkit partition table.
	requiredDevkitMagic = uint32(0x00020000)
)

var (
	// ErrSignatureMismatch indicates that a region referenced by the devkit
	// partition table doesn't carry the XTAF signature.
	ErrSignatureMismatch = errors.New("XTAF signature not found")
)

var (
	devkitLogger = log.NewLogger("xtaf.devkit")
)

// DevkitPartitionTable is the record at the front of sector zero of a devkit
// disk. It's written by the console, so it's in the console's byte-order
// rather than the partition headers' fixed big-endian order.
type DevkitPartitionTable struct {
	Magic                  uint32
	Unknown                uint32
	ContentOffsetSectors   uint32
	ContentLengthSectors   uint32
	DashboardOffsetSectors uint32
	DashboardLengthSectors uint32
}

// ParseDevkitPartitionTable decodes the record from sector zero.
func ParseDevkitPartitionTable(data []byte, order binary.ByteOrder) (dpt DevkitPartitionTable, err error) {
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

	if len(data) < devkitPartitionTableSize {
		log.Panicf("devkit partition-table data too short: (%d) < (%d)", len(data), devkitPartitionTableSize)
	}

	err = restruct.Unpack(data[:devkitPartitionTableSize], order, &dpt)
	log.PanicIf(err)

	return dpt, nil
}

// Encode returns the on-disk representation of the record.
func (dpt DevkitPartitionTable) Encode(order binary.ByteOrder) []byte {
	raw, err := restruct.Pack(order, &dpt)
	log.PanicIf(err)

	return raw
}

// IsDevkit indicates whether the magic identifies a devkit table.
func (dpt DevkitPartitionTable) IsDevkit() bool {
	return dpt.Magic == requiredDevkitMagic
}

// DevkitLayout is the pair of regions that replace the first two catalog slots
// on a devkit disk. All values are in bytes.
type DevkitLayout struct {
	ContentOffset   uint64
	ContentLength   uint64
	DashboardOffset uint64
	DashboardLength uint64
}

// Layout converts the sector-based record to a byte-based layout.
func (dpt DevkitPartitionTable) Layout() DevkitLayout {
	return DevkitLayout{
		ContentOffset:   uint64(dpt.ContentOffsetSectors) * SectorSize,
		ContentLength:   uint64(dpt.ContentLengthSectors) * SectorSize,
		DashboardOffset: uint64(dpt.DashboardOffsetSectors) * SectorSize,
		DashboardLength: uint64(dpt.DashboardLengthSectors) * SectorSize,
	}
}

// String returns a description of the layout.
func (dl DevkitLayout) String() string {
	return fmt.Sprintf("DevkitLayout<CONTENT=(0x%x)+(0x%x) DASHBOARD=(0x%x)+(0x%x)>", dl.ContentOffset, dl.ContentLength, dl.DashboardOffset, dl.DashboardLength)
}

// ProbeDevkitLayout checks sector zero for a devkit partition table. `present`
// is false for a retail disk, which isn't an error. A table whose regions
// don't both carry the XTAF signature fails with ErrSignatureMismatch.
func ProbeDevkitLayout(dr DiskReader, order binary.ByteOrder) (dl DevkitLayout, present bool, err error) {
	sector := make([]byte, SectorSize)

	err = dr.ReadSectors(0, 1, sector)
	if err != nil {
		return dl, false, err
	}

	dpt, err := ParseDevkitPartitionTable(sector, order)
	if err != nil {
		return dl, false, err
	}

	if dpt.IsDevkit() != true {
		devkitLogger.Debugf(nil, "No devkit partition-table magic found: (0x%08x)", dpt.Magic)
		return dl, false, nil
	}

	regions := []struct {
		name   string
		sector uint32
	}{
		{"content", dpt.ContentOffsetSectors},
		{"dashboard", dpt.DashboardOffsetSectors},
	}

	for _, region := range regions {
		err := dr.ReadSectors(uint64(region.sector), 1, sector)
		if err != nil {
			return dl, false, err
		}

		if HasXtafSignature(sector) != true {
			return dl, false, fmt.Errorf("%w at %s partition sector (%d)", ErrSignatureMismatch, region.name, region.sector)
		}
	}

	dl = dpt.Layout()

	devkitLogger.Debugf(nil, "Devkit disk detected: %s", dl)

	return dl, true, nil
}
