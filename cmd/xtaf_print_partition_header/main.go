package main

import (
	"fmt"
	"os"

	"github.com/dsoprea/go-logging"
	"github.com/jessevdk/go-flags"

	"github.com/dsoprea/go-xtaf"
)

type rootParameters struct {
	Filepath    string `short:"f" long:"filepath" description:"File-path of disk image or device" required:"true"`
	StartSector uint64 `short:"s" long:"start-sector" description:"Sector that the partition starts at" required:"true"`
	SectorCount uint64 `short:"n" long:"sector-count" description:"Size of the partition in sectors (default: to the end of the disk)"`
}

var (
	rootArguments = new(rootParameters)
)

func main() {
	defer func() {
		if state := recover(); state != nil {
			err := log.Wrap(state.(error))
			log.PrintError(err)
			os.Exit(-1)
		}
	}()

	p := flags.NewParser(rootArguments, flags.Default)

	_, err := p.Parse()
	if err != nil {
		os.Exit(1)
	}

	disk, err := xtaf.OpenDisk(rootArguments.Filepath)
	log.PanicIf(err)

	defer disk.Close()

	buffer := make([]byte, xtaf.SectorSize)

	err = disk.ReadSectors(rootArguments.StartSector, 1, buffer)
	log.PanicIf(err)

	xh, err := xtaf.ParseXtafHeader(buffer)
	log.PanicIf(err)

	xh.Dump()

	sectorCount := rootArguments.SectorCount
	if sectorCount == 0 {
		if rootArguments.StartSector >= disk.TotalSectors() {
			log.Panicf("start-sector (%d) is beyond the end of the disk (%d)", rootArguments.StartSector, disk.TotalSectors())
		}

		sectorCount = disk.TotalSectors() - rootArguments.StartSector
	}

	pg, err := xtaf.ComputeGeometry(xh, rootArguments.StartSector, sectorCount)
	log.PanicIf(err)

	fmt.Printf("Geometry\n")
	fmt.Printf("\n")

	pg.DumpBareIndented("  ")
}
