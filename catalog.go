package xtaf

import (
	"fmt"
)

// SlotExtent is the length of a partition slot. The zero value extends to the
// end of the device.
type SlotExtent struct {
	byteLength uint64
	bounded    bool
}

// Bounded returns an extent of exactly `byteLength` bytes.
func Bounded(byteLength uint64) SlotExtent {
	return SlotExtent{
		byteLength: byteLength,
		bounded:    true,
	}
}

// ToEndOfDevice returns an extent that reaches the last sector of the device.
func ToEndOfDevice() SlotExtent {
	return SlotExtent{}
}

// IsBounded indicates whether the extent has a fixed length.
func (se SlotExtent) IsBounded() bool {
	return se.bounded
}

// ByteLength returns the fixed length. It's zero for unbounded extents.
func (se SlotExtent) ByteLength() uint64 {
	return se.byteLength
}

// String returns a description of the extent.
func (se SlotExtent) String() string {
	if se.bounded == false {
		return "END-OF-DEVICE"
	}

	return fmt.Sprintf("0x%x", se.byteLength)
}

// PartitionSlot is a named region of the disk that might hold a partition.
type PartitionSlot struct {
	Name       string
	ByteOffset uint64
	Extent     SlotExtent
}

// SectorRange returns the first sector and sector-count of the slot on a
// device of `deviceTotalSectors` sectors.
func (ps PartitionSlot) SectorRange(deviceTotalSectors uint64) (startSector, numSectors uint64) {
	startSector = ps.ByteOffset / SectorSize

	if ps.Extent.IsBounded() == true {
		return startSector, ps.Extent.ByteLength() / SectorSize
	}

	if deviceTotalSectors <= startSector {
		return startSector, 0
	}

	return startSector, deviceTotalSectors - startSector
}

// String returns a description of the slot.
func (ps PartitionSlot) String() string {
	return fmt.Sprintf("PartitionSlot<NAME=[%s] OFFSET=(0x%x) LENGTH=[%s]>", ps.Name, ps.ByteOffset, ps.Extent)
}

// Catalog is the ordered list of slots that are probed for partitions.
type Catalog []PartitionSlot

// DefaultCatalog returns the partition table of a retail disk.
func DefaultCatalog() Catalog {
	return Catalog{
		// Xbox 1 backwards-compatibility.
		{Name: "hdd0", ByteOffset: 0x120eb0000, Extent: Bounded(0x10000000)},

		// Content.
		{Name: "hdd1", ByteOffset: 0x130eb0000, Extent: ToEndOfDevice()},

		// System extended.
		{Name: "ext1", ByteOffset: 0x10c080000, Extent: Bounded(0xce30000)},

		// System extended 2.
		{Name: "ext2", ByteOffset: 0x118eb0000, Extent: Bounded(0xce30000)},
	}
}

// Clone returns an independent copy of the catalog.
func (c Catalog) Clone() Catalog {
	cloned := make(Catalog, len(c))
	copy(cloned, c)

	return cloned
}

// WithDevkitLayout returns a copy of the catalog with the first two slots
// replaced by the content and dashboard regions of a devkit disk. The names
// are kept.
func (c Catalog) WithDevkitLayout(dl DevkitLayout) Catalog {
	updated := c.Clone()

	for len(updated) < 2 {
		updated = append(updated, PartitionSlot{Name: fmt.Sprintf("hdd%d", len(updated))})
	}

	updated[0].ByteOffset = dl.ContentOffset
	updated[0].Extent = devkitExtent(dl.ContentLength)

	updated[1].ByteOffset = dl.DashboardOffset
	updated[1].Extent = devkitExtent(dl.DashboardLength)

	return updated
}

// devkitExtent maps a devkit region length to an extent. A zero length on
// disk means "to the end of the device".
func devkitExtent(byteLength uint64) SlotExtent {
	if byteLength == 0 {
		return ToEndOfDevice()
	}

	return Bounded(byteLength)
}

// Dump prints the catalog.
func (c Catalog) Dump() {
	fmt.Printf("Partition Catalog\n")
	fmt.Printf("=================\n")
	fmt.Printf("\n")

	for i, ps := range c {
		fmt.Printf("(%d) [%s] OFFSET=(0x%x) LENGTH=[%s]\n", i, ps.Name, ps.ByteOffset, ps.Extent)
	}

	fmt.Printf("\n")
}
