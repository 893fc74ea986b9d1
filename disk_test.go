package xtaf

import (
	"errors"
	"io"
	"os"
	"path"
	"testing"

	"github.com/dsoprea/go-logging"
)

func TestSectorReader_ReadSectors(t *testing.T) {
	_, cdr := getTestPatternDisk(4)
	sr := cdr.dr

	buffer := make([]byte, 2*SectorSize)

	err := sr.ReadSectors(2, 2, buffer)
	log.PanicIf(err)

	if buffer[0] != 2 || buffer[SectorSize] != 3 {
		t.Fatalf("Sectors not correct: (%d) (%d)", buffer[0], buffer[SectorSize])
	}
}

func TestSectorReader_ReadSectors_Short(t *testing.T) {
	_, cdr := getTestPatternDisk(4)
	sr := cdr.dr

	buffer := make([]byte, 2*SectorSize)

	err := sr.ReadSectors(3, 2, buffer)

	var dre *DiskReadError
	if errors.As(err, &dre) != true {
		t.Fatalf("Expected disk-read error: [%v]", err)
	} else if dre.Sector != 3 || dre.Count != 2 {
		t.Fatalf("Error detail not correct: (%d) (%d)", dre.Sector, dre.Count)
	} else if errors.Is(err, io.EOF) != true {
		t.Fatalf("Cause not correct: [%v]", dre.Cause)
	}
}

func TestSectorReader_ReadSectors_SmallBuffer(t *testing.T) {
	_, cdr := getTestPatternDisk(4)

	err := cdr.dr.ReadSectors(0, 2, make([]byte, SectorSize))
	if err == nil {
		t.Fatalf("Expected error for small buffer.")
	}
}

func TestDiskReadError_Error(t *testing.T) {
	dre := &DiskReadError{Sector: 2, Count: 1}

	if dre.Error() != "failed to read (1) sector(s) at sector (2) (offset 0x400)" {
		t.Fatalf("Message not correct: [%s]", dre.Error())
	}
}

func TestOpenDisk(t *testing.T) {
	filepath := path.Join(t.TempDir(), "disk.img")

	data := make([]byte, 4*SectorSize+100)
	copy(data[SectorSize:], "XTAF")

	err := os.WriteFile(filepath, data, 0644)
	log.PanicIf(err)

	disk, err := OpenDisk(filepath)
	log.PanicIf(err)

	defer disk.Close()

	if disk.TotalSectors() != 4 {
		t.Fatalf("TotalSectors not correct: (%d)", disk.TotalSectors())
	}

	buffer := make([]byte, SectorSize)

	err = disk.ReadSectors(1, 1, buffer)
	log.PanicIf(err)

	if HasXtafSignature(buffer) != true {
		t.Fatalf("Sector not correct.")
	}
}

func TestOpenDisk_Missing(t *testing.T) {
	_, err := OpenDisk(path.Join(t.TempDir(), "missing.img"))
	if err == nil {
		t.Fatalf("Expected error for missing disk.")
	}
}
