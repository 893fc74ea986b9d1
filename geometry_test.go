package xtaf

import (
	"testing"

	"github.com/dsoprea/go-logging"
)

func TestFatEntryWidth(t *testing.T) {
	if FatEntryWidth(0xfff3) != 2 {
		t.Fatalf("Entry-width below threshold not correct.")
	} else if FatEntryWidth(0xfff4) != 4 {
		t.Fatalf("Entry-width at threshold not correct.")
	}
}

func TestCalculateFatSize_SixteenBitBoundary(t *testing.T) {
	// 0xfff3 clusters * 2 bytes -> 131046 -> rounded to 131072.
	fatSize, err := CalculateFatSize(0xfff3, 1)
	log.PanicIf(err)

	if fatSize != 256 {
		t.Fatalf("FAT size not correct: (%d)", fatSize)
	}
}

func TestCalculateFatSize_ThirtyTwoBitBoundary(t *testing.T) {
	// 0xfff4 clusters * 4 bytes -> 262096 -> rounded to 262144.
	fatSize, err := CalculateFatSize(0xfff4, 1)
	log.PanicIf(err)

	if fatSize != 512 {
		t.Fatalf("FAT size not correct: (%d)", fatSize)
	}
}

func TestCalculateFatSize_Truncation(t *testing.T) {
	// 1,000,000 / 32 -> 31250 clusters -> 62500 bytes -> 65536.
	fatSize, err := CalculateFatSize(1000000, 32)
	log.PanicIf(err)

	if fatSize != 128 {
		t.Fatalf("FAT size not correct: (%d)", fatSize)
	}
}

func TestCalculateFatSize_AlreadyAligned(t *testing.T) {
	// 2048 clusters * 2 bytes is exactly 4K.
	fatSize, err := CalculateFatSize(2048*16, 16)
	log.PanicIf(err)

	if fatSize != 8 {
		t.Fatalf("FAT size not correct: (%d)", fatSize)
	}
}

func TestCalculateFatSize_ZeroSectorsPerCluster(t *testing.T) {
	_, err := CalculateFatSize(1000000, 0)
	if err != ErrInvalidGeometry {
		t.Fatalf("Expected invalid geometry: [%v]", err)
	}
}

func TestCalculateFatSize_AlignedToFourK(t *testing.T) {
	spcs := []uint32{1, 2, 3, 7, 16, 32, 64, 128}

	for numberOfSectors := uint64(0); numberOfSectors < 5000000; numberOfSectors += 65537 {
		for _, spc := range spcs {
			fatSize, err := CalculateFatSize(numberOfSectors, spc)
			log.PanicIf(err)

			if (uint64(fatSize)*SectorSize)%4096 != 0 {
				t.Fatalf("FAT not aligned: (%d) (%d) -> (%d)", numberOfSectors, spc, fatSize)
			}
		}
	}
}

func TestCalculateFatSize_Monotonic(t *testing.T) {
	for _, spc := range []uint32{1, 8, 32} {
		last := uint32(0)

		for numberOfSectors := uint64(0); numberOfSectors < 4000000; numberOfSectors += 4099 {
			fatSize, err := CalculateFatSize(numberOfSectors, spc)
			log.PanicIf(err)

			if fatSize < last {
				t.Fatalf("FAT size decreased: (%d) (%d) -> (%d) < (%d)", numberOfSectors, spc, fatSize, last)
			}

			last = fatSize
		}
	}
}

func TestComputeGeometry(t *testing.T) {
	xh := XtafHeader{
		SectorsPerCluster: 32,
		RootDirCluster:    1,
	}

	pg, err := ComputeGeometry(xh, 1000, 1000000)
	log.PanicIf(err)

	if pg.BytesPerSector != 512 {
		t.Fatalf("BytesPerSector not correct: (%d)", pg.BytesPerSector)
	} else if pg.BytesPerCluster != 16384 {
		t.Fatalf("BytesPerCluster not correct: (%d)", pg.BytesPerCluster)
	} else if pg.FatOffsetSectors != 8 {
		t.Fatalf("FatOffsetSectors not correct: (%d)", pg.FatOffsetSectors)
	} else if pg.FatSizeSectors != 128 {
		t.Fatalf("FatSizeSectors not correct: (%d)", pg.FatSizeSectors)
	} else if pg.RootDirOffsetSectors != pg.FatOffsetSectors+pg.FatSizeSectors {
		t.Fatalf("RootDirOffsetSectors not correct: (%d)", pg.RootDirOffsetSectors)
	} else if pg.FatAbsoluteStart != 1008 {
		t.Fatalf("FatAbsoluteStart not correct: (%d)", pg.FatAbsoluteStart)
	} else if pg.RootDirAbsoluteStart != 1136 {
		t.Fatalf("RootDirAbsoluteStart not correct: (%d)", pg.RootDirAbsoluteStart)
	} else if pg.DataAbsoluteStart != pg.RootDirAbsoluteStart {
		t.Fatalf("DataAbsoluteStart not correct: (%d)", pg.DataAbsoluteStart)
	} else if pg.PartitionStartSector != 1000 || pg.NumberOfSectors != 1000000 {
		t.Fatalf("Partition range not correct: (%d) (%d)", pg.PartitionStartSector, pg.NumberOfSectors)
	}
}

func TestComputeGeometry_ZeroSizeTable(t *testing.T) {
	xh := XtafHeader{
		SectorsPerCluster: 32,
	}

	_, err := ComputeGeometry(xh, 1000, 16)
	if err != ErrInvalidGeometry {
		t.Fatalf("Expected invalid geometry: [%v]", err)
	}
}

func TestComputeGeometry_ClusterSizeOverflow(t *testing.T) {
	xh := XtafHeader{
		SectorsPerCluster: 0x800000,
	}

	_, err := ComputeGeometry(xh, 0, 39070080)
	if err != ErrInvalidGeometry {
		t.Fatalf("Expected invalid geometry: [%v]", err)
	}

	// The largest cluster that still fits.
	xh.SectorsPerCluster = 0x7fffff

	pg, err := ComputeGeometry(xh, 0, 39070080*0x10000)
	log.PanicIf(err)

	if pg.BytesPerCluster != 0x7fffff*SectorSize {
		t.Fatalf("BytesPerCluster not correct: (%d)", pg.BytesPerCluster)
	}
}

func TestComputeGeometry_RootDirOffsetOverflow(t *testing.T) {
	xh := XtafHeader{
		SectorsPerCluster: 1,
	}

	// 32-bit entries. The table is 0xfffffff8 sectors, so the root directory
	// would land past the 32-bit offset range.
	numSectors := uint64(0xfffffff8) * SectorSize / 4

	fatSize, err := CalculateFatSize(numSectors, 1)
	log.PanicIf(err)

	if fatSize != 0xfffffff8 {
		t.Fatalf("FAT size not correct: (%d)", fatSize)
	}

	_, err = ComputeGeometry(xh, 0, numSectors)
	if err != ErrInvalidGeometry {
		t.Fatalf("Expected invalid geometry: [%v]", err)
	}
}

func TestPartitionGeometry_DumpBareIndented(t *testing.T) {
	pg, err := ComputeGeometry(XtafHeader{SectorsPerCluster: 32}, 0, 1000000)
	log.PanicIf(err)

	pg.DumpBareIndented("  ")
}
