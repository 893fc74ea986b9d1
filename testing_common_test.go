package xtaf

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/dsoprea/go-logging"
)

const (
	// testDiskSectors is the size of the retail disk-dump used by the tests
	// (20003880960 bytes).
	testDiskSectors = uint64(39070080)
)

// sparseImage is an in-memory disk image that only stores the sectors that
// were written. Everything else reads as zeros.
type sparseImage struct {
	size    int64
	sectors map[uint64][]byte
}

func newSparseImage(totalSectors uint64) *sparseImage {
	return &sparseImage{
		size:    int64(totalSectors * SectorSize),
		sectors: make(map[uint64][]byte),
	}
}

func (si *sparseImage) WriteSector(sector uint64, data []byte) {
	buffer := make([]byte, SectorSize)
	copy(buffer, data)

	si.sectors[sector] = buffer
}

func (si *sparseImage) ReadAt(p []byte, off int64) (n int, err error) {
	if off >= si.size {
		return 0, io.EOF
	}

	want := len(p)
	if int64(want) > si.size-off {
		want = int(si.size - off)
	}

	for n < want {
		current := off + int64(n)
		sector := uint64(current / SectorSize)
		within := int(current % SectorSize)

		chunk := SectorSize - within
		if chunk > want-n {
			chunk = want - n
		}

		if data, found := si.sectors[sector]; found == true {
			copy(p[n:n+chunk], data[within:])
		} else {
			for i := n; i < n+chunk; i++ {
				p[i] = 0
			}
		}

		n += chunk
	}

	if n < len(p) {
		return n, io.EOF
	}

	return n, nil
}

// writeXtafHeader writes a partition header with big-endian fields at the
// given sector.
func (si *sparseImage) writeXtafHeader(sector uint64, partitionId, sectorsPerCluster, rootDirCluster uint32) {
	data := make([]byte, SectorSize)

	copy(data[0:4], "XTAF")
	binary.BigEndian.PutUint32(data[4:8], partitionId)
	binary.BigEndian.PutUint32(data[8:12], sectorsPerCluster)
	binary.BigEndian.PutUint32(data[12:16], rootDirCluster)

	si.WriteSector(sector, data)
}

// writeDevkitTable writes a devkit partition-table to sector zero.
func (si *sparseImage) writeDevkitTable(order binary.ByteOrder, magic, contentOffset, contentLength, dashboardOffset, dashboardLength uint32) {
	data := make([]byte, SectorSize)

	order.PutUint32(data[0:4], magic)
	order.PutUint32(data[4:8], 0)
	order.PutUint32(data[8:12], contentOffset)
	order.PutUint32(data[12:16], contentLength)
	order.PutUint32(data[16:20], dashboardOffset)
	order.PutUint32(data[20:24], dashboardLength)

	si.WriteSector(0, data)
}

// countingDiskReader counts the reads that reach the disk.
type countingDiskReader struct {
	dr    DiskReader
	reads int
}

func (cdr *countingDiskReader) ReadSectors(sector uint64, count uint32, buffer []byte) error {
	cdr.reads++
	return cdr.dr.ReadSectors(sector, count, buffer)
}

// getTestRetailDisk returns a retail disk with partitions in hdd0, hdd1 and
// ext2. ext1 is empty.
func getTestRetailDisk() (si *sparseImage, dr DiskReader) {
	si = newSparseImage(testDiskSectors)

	si.writeXtafHeader(9467264, 0x11111111, 32, 1)
	si.writeXtafHeader(9991552, 0x22222222, 32, 1)
	si.writeXtafHeader(9205120, 0x44444444, 32, 1)

	return si, NewSectorReader(si)
}

// encodeDirectoryEntry builds one 64-byte directory record.
func encodeDirectoryEntry(name string, flags uint8, firstCluster, fileSize, timestamp uint32) []byte {
	data := make([]byte, directoryEntrySize)

	data[0] = uint8(len(name))
	data[1] = flags

	for i := 2; i < 2+maxFilenameLength; i++ {
		data[i] = 0xff
	}

	copy(data[2:], name)

	binary.BigEndian.PutUint32(data[44:48], firstCluster)
	binary.BigEndian.PutUint32(data[48:52], fileSize)
	binary.BigEndian.PutUint32(data[52:56], timestamp)
	binary.BigEndian.PutUint32(data[56:60], timestamp)
	binary.BigEndian.PutUint32(data[60:64], timestamp)

	return data
}

const (
	// testTimestamp is 2010-05-17 13:45:30.
	testTimestamp = uint32(15537)<<16 | uint32(28079)
)

// getTestFilesystem returns a 1000-sector partition at sector 1000 with one
// sector per cluster. Cluster N is at absolute sector 1015+N.
//
//	/Content/save.dat   (10 bytes, cluster 5)
//	/default.xex        (700 bytes, clusters 3 and 4)
func getTestFilesystem() (si *sparseImage, mp *MountedPartition) {
	si = newSparseImage(4000)
	si.writeXtafHeader(1000, 0x1234, 1, 1)

	fat := make([]byte, SectorSize)
	binary.BigEndian.PutUint16(fat[0:2], 0xfff8)
	binary.BigEndian.PutUint16(fat[2:4], 0xffff)
	binary.BigEndian.PutUint16(fat[4:6], 0xffff)
	binary.BigEndian.PutUint16(fat[6:8], 4)
	binary.BigEndian.PutUint16(fat[8:10], 0xffff)
	binary.BigEndian.PutUint16(fat[10:12], 0xffff)
	si.WriteSector(1008, fat)

	root := make([]byte, 0, SectorSize)
	root = append(root, encodeDirectoryEntry("default.xex", 0x20, 3, 700, testTimestamp)...)
	root = append(root, encodeDirectoryEntry("removed", 0, 9, 100, testTimestamp)...)
	root[directoryEntrySize] = deletedEntryMarker
	root = append(root, encodeDirectoryEntry("Content", 0x10, 2, 0, testTimestamp)...)
	si.WriteSector(1016, root)

	content := encodeDirectoryEntry("save.dat", 0, 5, 10, testTimestamp)
	si.WriteSector(1017, content)

	si.WriteSector(1018, bytes.Repeat([]byte{0x33}, SectorSize))
	si.WriteSector(1019, bytes.Repeat([]byte{0x44}, SectorSize))
	si.WriteSector(1020, []byte("hello save"))

	pm := NewPartitionMounter(NewSectorReader(si), nil, DefaultConfig().CacheConfig(), DefaultDeviceNamePrefix)

	mp, _, err := pm.Mount(0, PartitionSlot{Name: "hdd1"}, 1000, 1000, make([]byte, SectorSize))
	log.PanicIf(err)

	return si, mp
}
