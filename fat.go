package xtaf

import (
	"encoding/binary"
	"reflect"

	"github.com/dsoprea/go-logging"
)

// AllocationEntry is one allocation-table entry, widened to 32 bits. 16-bit
// marker values are sign-extended so that both widths classify the same way.
type AllocationEntry uint32

// IsFree indicates that the cluster isn't allocated.
func (ae AllocationEntry) IsFree() bool {
	return ae == 0
}

// IsReserved indicates one of the reserved marker values.
func (ae AllocationEntry) IsReserved() bool {
	return ae >= 0xfffffff0 && ae < 0xfffffff7
}

// IsBad indicates that the cluster has been marked as unusable.
func (ae AllocationEntry) IsBad() bool {
	return ae == 0xfffffff7
}

// IsLast indicates that no more clusters follow the cluster that led to this
// entry.
func (ae AllocationEntry) IsLast() bool {
	return ae >= 0xfffffff8
}

// AllocationTable reads the allocation-table of a mounted partition through
// the partition's cache.
type AllocationTable struct {
	mp         *MountedPartition
	entryWidth uint64
}

// NewAllocationTable returns a new AllocationTable instance.
func NewAllocationTable(mp *MountedPartition) *AllocationTable {
	pg := mp.Geometry()
	numClusters := pg.NumberOfSectors / uint64(pg.SectorsPerCluster)

	return &AllocationTable{
		mp:         mp,
		entryWidth: FatEntryWidth(numClusters),
	}
}

// EntryWidth is the size of one entry in bytes (two or four).
func (at *AllocationTable) EntryWidth() uint64 {
	return at.entryWidth
}

// EntryCount is the number of entries that fit in the table, including the
// reserved first one.
func (at *AllocationTable) EntryCount() uint64 {
	return at.mp.Geometry().FatSizeBytes() / at.entryWidth
}

// Entry returns the entry for the given cluster.
func (at *AllocationTable) Entry(cluster uint32) (ae AllocationEntry, err error) {
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

	if uint64(cluster) >= at.EntryCount() {
		log.Panicf("cluster exceeds allocation-table bounds: (%d) >= (%d)", cluster, at.EntryCount())
	}

	pg := at.mp.Geometry()

	// Entries never straddle a sector.
	byteOffset := uint64(cluster) * at.entryWidth
	sector := uint64(pg.FatOffsetSectors) + byteOffset/SectorSize
	within := byteOffset % SectorSize

	data := make([]byte, SectorSize)

	err = at.mp.ReadSectors(sector, 1, data)
	log.PanicIf(err)

	if at.entryWidth == 2 {
		value := binary.BigEndian.Uint16(data[within : within+2])

		ae = AllocationEntry(value)
		if value >= 0xfff0 {
			ae |= 0xffff0000
		}
	} else {
		ae = AllocationEntry(binary.BigEndian.Uint32(data[within : within+4]))
	}

	return ae, nil
}

// ClusterVisitorFunc is a visitor callback as all clusters in the chain are
// visited. `sector` is the absolute first sector of the cluster.
type ClusterVisitorFunc func(cluster uint32, sector uint64) (doContinue bool, err error)

// EnumerateClusters calls the given callback for each cluster in the chain
// starting from the given cluster.
func (at *AllocationTable) EnumerateClusters(firstCluster uint32, cb ClusterVisitorFunc) (err error) {
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

	entryCount := at.EntryCount()

	current := firstCluster
	for visited := uint64(0); ; visited++ {
		if visited >= entryCount {
			log.Panicf("cluster chain starting at (%d) does not terminate", firstCluster)
		}

		sector, err := at.mp.ClusterToSector(current)
		log.PanicIf(err)

		doContinue, err := cb(current, sector)
		log.PanicIf(err)

		if doContinue == false {
			break
		}

		next, err := at.Entry(current)
		log.PanicIf(err)

		if next.IsLast() == true {
			break
		} else if next.IsFree() == true || next.IsBad() == true || next.IsReserved() == true {
			log.Panicf("cluster (%d) has an invalid successor: (0x%08x)", current, uint32(next))
		}

		current = uint32(next)
	}

	return nil
}

// Chain returns every cluster in the chain starting from the given cluster.
func (at *AllocationTable) Chain(firstCluster uint32) (clusters []uint32, err error) {
	clusters = make([]uint32, 0)

	cb := func(cluster uint32, sector uint64) (bool, error) {
		clusters = append(clusters, cluster)
		return true, nil
	}

	err = at.EnumerateClusters(firstCluster, cb)
	if err != nil {
		return nil, err
	}

	return clusters, nil
}
