package xtaf

import (
	"errors"
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

const (
	// SectorSize is the fixed sector-size of the console hard disk.
	SectorSize = 0x200

	// fatByteOffset is the partition-relative byte offset of the allocation
	// table. It doesn't depend on the geometry.
	fatByteOffset = 0x1000

	// fatAlignment is the byte multiple that the allocation table is rounded
	// up to.
	fatAlignment = 4096

	// fat32ClusterThreshold is the cluster-count at and above which the
	// allocation table uses 32-bit entries instead of 16-bit ones.
	fat32ClusterThreshold = 0xfff4
)

var (
	// ErrInvalidGeometry indicates that the header fields can not describe a
	// usable allocation table.
	ErrInvalidGeometry = errors.New("invalid partition geometry")
)

// FatEntryWidth returns the size in bytes of one allocation-table entry for
// the given cluster-count.
func FatEntryWidth(numClusters uint64) uint64 {
	if numClusters >= fat32ClusterThreshold {
		return 4
	}

	return 2
}

// CalculateFatSize returns the size of the allocation table in sectors. The
// table is rounded up to a multiple of 4K.
func CalculateFatSize(numberOfSectors uint64, sectorsPerCluster uint32) (fatSizeSectors uint32, err error) {
	if sectorsPerCluster == 0 {
		return 0, ErrInvalidGeometry
	}

	numClusters := numberOfSectors / uint64(sectorsPerCluster)
	fatBytes := numClusters * FatEntryWidth(numClusters)

	if fatBytes%fatAlignment != 0 {
		fatBytes = (fatBytes/fatAlignment + 1) * fatAlignment
	}

	sectors := fatBytes / SectorSize
	if sectors > 0xffffffff {
		return 0, ErrInvalidGeometry
	}

	return uint32(sectors), nil
}

// PartitionGeometry is the set of offsets and sizes derived from a partition
// header. Offsets ending in "Start" are absolute sectors on the disk. The
// others are relative to the start of the partition.
type PartitionGeometry struct {
	BytesPerSector    uint32
	SectorsPerCluster uint32
	BytesPerCluster   uint32

	FatOffsetSectors     uint32
	FatSizeSectors       uint32
	RootDirOffsetSectors uint32

	FatAbsoluteStart     uint64
	RootDirAbsoluteStart uint64

	// DataAbsoluteStart is the same sector as RootDirAbsoluteStart. The root
	// directory lives in the first cluster of the data region.
	DataAbsoluteStart uint64

	PartitionStartSector uint64
	NumberOfSectors      uint64
}

// ComputeGeometry derives the full geometry for a partition with the given
// header that starts at `startSector` and spans `numSectors` sectors.
func ComputeGeometry(xh XtafHeader, startSector, numSectors uint64) (pg PartitionGeometry, err error) {
	fatSize, err := CalculateFatSize(numSectors, xh.SectorsPerCluster)
	if err != nil {
		return pg, err
	}

	if fatSize == 0 {
		return pg, ErrInvalidGeometry
	}

	if uint64(xh.SectorsPerCluster)*SectorSize > math.MaxUint32 {
		return pg, ErrInvalidGeometry
	}

	fatOffset := uint32(fatByteOffset / SectorSize)

	rootDirOffsetRaw := uint64(fatOffset) + uint64(fatSize)
	if rootDirOffsetRaw > math.MaxUint32 {
		return pg, ErrInvalidGeometry
	}

	rootDirOffset := uint32(rootDirOffsetRaw)

	pg = PartitionGeometry{
		BytesPerSector:    SectorSize,
		SectorsPerCluster: xh.SectorsPerCluster,
		BytesPerCluster:   xh.SectorsPerCluster * SectorSize,

		FatOffsetSectors:     fatOffset,
		FatSizeSectors:       fatSize,
		RootDirOffsetSectors: rootDirOffset,

		FatAbsoluteStart:     uint64(fatOffset) + startSector,
		RootDirAbsoluteStart: uint64(rootDirOffset) + startSector,
		DataAbsoluteStart:    uint64(rootDirOffset) + startSector,

		PartitionStartSector: startSector,
		NumberOfSectors:      numSectors,
	}

	return pg, nil
}

// FatSizeBytes is the size of the allocation table in bytes.
func (pg PartitionGeometry) FatSizeBytes() uint64 {
	return uint64(pg.FatSizeSectors) * uint64(pg.BytesPerSector)
}

// SizeBytes is the size of the whole partition in bytes.
func (pg PartitionGeometry) SizeBytes() uint64 {
	return pg.NumberOfSectors * uint64(pg.BytesPerSector)
}

// DumpBareIndented prints the geometry with arbitrary indentation.
func (pg PartitionGeometry) DumpBareIndented(indent string) {
	fmt.Printf("%sBytesPerSector: (%d)\n", indent, pg.BytesPerSector)
	fmt.Printf("%sSectorsPerCluster: (%d)\n", indent, pg.SectorsPerCluster)
	fmt.Printf("%sBytesPerCluster: (%d)\n", indent, pg.BytesPerCluster)
	fmt.Printf("%sFatOffsetSectors: (%d)\n", indent, pg.FatOffsetSectors)
	fmt.Printf("%sFatSizeSectors: (%d) -> %s\n", indent, pg.FatSizeSectors, humanize.IBytes(pg.FatSizeBytes()))
	fmt.Printf("%sRootDirOffsetSectors: (%d)\n", indent, pg.RootDirOffsetSectors)
	fmt.Printf("%sFatAbsoluteStart: (%d) -> (0x%x)\n", indent, pg.FatAbsoluteStart, pg.FatAbsoluteStart*uint64(pg.BytesPerSector))
	fmt.Printf("%sRootDirAbsoluteStart: (%d) -> (0x%x)\n", indent, pg.RootDirAbsoluteStart, pg.RootDirAbsoluteStart*uint64(pg.BytesPerSector))
	fmt.Printf("%sDataAbsoluteStart: (%d)\n", indent, pg.DataAbsoluteStart)
	fmt.Printf("%sPartitionStartSector: (%d)\n", indent, pg.PartitionStartSector)
	fmt.Printf("%sNumberOfSectors: (%d) -> %s\n", indent, pg.NumberOfSectors, humanize.IBytes(pg.SizeBytes()))
}

// String returns a description of the geometry.
func (pg PartitionGeometry) String() string {
	return fmt.Sprintf("PartitionGeometry<START=(%d) SECTORS=(%d) SPC=(%d) FAT-SECTORS=(%d) ROOT=(%d)>", pg.PartitionStartSector, pg.NumberOfSectors, pg.SectorsPerCluster, pg.FatSizeSectors, pg.RootDirAbsoluteStart)
}
