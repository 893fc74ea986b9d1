package xtaf

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
)

// MountedPartition is a validated XTAF partition along with its derived
// geometry and its own sector cache. It is not modified after it's built.
type MountedPartition struct {
	index      int
	name       string
	deviceName string

	header   XtafHeader
	geometry PartitionGeometry

	cache *SectorCache
	disk  DiskReader
}

// Index is the catalog index that the partition was mounted from.
func (mp *MountedPartition) Index() int {
	return mp.index
}

// Name is the catalog name of the partition (e.g. "hdd1").
func (mp *MountedPartition) Name() string {
	return mp.name
}

// DeviceName is the name that the partition was registered under (e.g.
// "sda1").
func (mp *MountedPartition) DeviceName() string {
	return mp.deviceName
}

// Header returns a copy of the on-disk header.
func (mp *MountedPartition) Header() XtafHeader {
	return mp.header
}

// Magic returns the signature from the header.
func (mp *MountedPartition) Magic() [4]byte {
	return mp.header.Magic
}

// PartitionId returns the id from the header.
func (mp *MountedPartition) PartitionId() uint32 {
	return mp.header.PartitionId
}

// RootDirCluster returns the first cluster of the root directory.
func (mp *MountedPartition) RootDirCluster() uint32 {
	return mp.header.RootDirCluster
}

// Geometry returns the derived geometry.
func (mp *MountedPartition) Geometry() PartitionGeometry {
	return mp.geometry
}

// Cache returns the partition's sector cache.
func (mp *MountedPartition) Cache() *SectorCache {
	return mp.cache
}

// Disk returns the disk that the partition lives on.
func (mp *MountedPartition) Disk() DiskReader {
	return mp.disk
}

// Size returns the size of the partition in bytes.
func (mp *MountedPartition) Size() int64 {
	return int64(mp.geometry.SizeBytes())
}

// ClusterToSector returns the absolute sector of the given cluster. Clusters
// are numbered from one, and cluster one is the first cluster of the data
// region.
func (mp *MountedPartition) ClusterToSector(cluster uint32) (sector uint64, err error) {
	if cluster == 0 {
		return 0, fmt.Errorf("cluster-number can not be zero")
	}

	sector = mp.geometry.DataAbsoluteStart + uint64(cluster-1)*uint64(mp.geometry.SectorsPerCluster)

	if sector+uint64(mp.geometry.SectorsPerCluster) > mp.geometry.PartitionStartSector+mp.geometry.NumberOfSectors {
		return 0, fmt.Errorf("cluster (%d) is beyond the end of the partition", cluster)
	}

	return sector, nil
}

// RootDirectorySector returns the absolute sector of the first cluster of the
// root directory.
func (mp *MountedPartition) RootDirectorySector() (uint64, error) {
	return mp.ClusterToSector(mp.header.RootDirCluster)
}

// ReadCluster reads the whole of the given cluster into `buffer`.
func (mp *MountedPartition) ReadCluster(cluster uint32, buffer []byte) error {
	sector, err := mp.ClusterToSector(cluster)
	if err != nil {
		return err
	}

	return mp.cache.ReadSectors(sector, mp.geometry.SectorsPerCluster, buffer)
}

// ReadSectors reads `count` sectors starting at partition-relative sector
// `sector` through the cache.
func (mp *MountedPartition) ReadSectors(sector uint64, count uint32, buffer []byte) error {
	return mp.cache.ReadSectors(mp.geometry.PartitionStartSector+sector, count, buffer)
}

// ReadAt reads partition-relative bytes. Reads needn't be sector-aligned.
func (mp *MountedPartition) ReadAt(p []byte, off int64) (n int, err error) {
	if off < 0 {
		return 0, fmt.Errorf("negative offset: (%d)", off)
	}

	size := mp.Size()
	if off >= size {
		return 0, io.EOF
	}

	want := len(p)
	if int64(want) > size-off {
		want = int(size - off)
	}

	sector := make([]byte, SectorSize)

	for n < want {
		current := off + int64(n)
		sectorNumber := uint64(current / SectorSize)
		within := int(current % SectorSize)

		err := mp.ReadSectors(sectorNumber, 1, sector)
		if err != nil {
			return n, err
		}

		n += copy(p[n:want], sector[within:])
	}

	if n < len(p) {
		return n, io.EOF
	}

	return n, nil
}

// Dump prints the partition information.
func (mp *MountedPartition) Dump() {
	fmt.Printf("Partition Information\n")
	fmt.Printf("=====================\n")
	fmt.Printf("\n")

	fmt.Printf("Index: (%d)\n", mp.index)
	fmt.Printf("Name: [%s]\n", mp.name)
	fmt.Printf("DeviceName: [%s]\n", mp.deviceName)
	fmt.Printf("Size: %s\n", humanize.IBytes(uint64(mp.Size())))
	fmt.Printf("\n")

	mp.header.Dump()

	fmt.Printf("Geometry\n")
	fmt.Printf("\n")

	mp.geometry.DumpBareIndented("  ")

	fmt.Printf("\n")
}

// String returns a description of the partition.
func (mp *MountedPartition) String() string {
	return fmt.Sprintf("MountedPartition<NAME=[%s] DEVICE=[%s] ID=(0x%08x) START=(%d) SECTORS=(%d)>", mp.name, mp.deviceName, mp.header.PartitionId, mp.geometry.PartitionStartSector, mp.geometry.NumberOfSectors)
}
