package main

import (
	"fmt"
	"os"

	"github.com/dsoprea/go-logging"
	"github.com/dustin/go-humanize"
	"github.com/jessevdk/go-flags"

	"github.com/dsoprea/go-xtaf"
)

type rootParameters struct {
	Filepath       string `short:"f" long:"filepath" description:"File-path of disk image or device" required:"true"`
	ConfigFilepath string `short:"c" long:"config-filepath" description:"File-path of ini configuration"`
	ShowDetail     bool   `short:"d" long:"detail" description:"Show headers and geometry of each partition"`

	Mount xtaf.Config `group:"Mount Options"`
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

	config, err := xtaf.ResolveConfig(rootArguments.ConfigFilepath, os.Args[1:])
	log.PanicIf(err)

	disk, err := xtaf.OpenDisk(rootArguments.Filepath)
	log.PanicIf(err)

	defer disk.Close()

	dt := xtaf.NewDeviceTable()
	ms := xtaf.NewMountSession(disk, dt, config)

	summary := ms.MountAll(xtaf.DefaultCatalog(), disk.TotalSectors())

	if rootArguments.ShowDetail == true {
		summary.Catalog.Dump()
		summary.Dump()

		for _, mp := range summary.Mounted {
			mp.Dump()
		}

		return
	}

	for _, mp := range summary.Mounted {
		pg := mp.Geometry()

		fmt.Printf("%-6s %-6s 0x%08x %12d %10s\n", mp.DeviceName(), mp.Name(), mp.PartitionId(), pg.PartitionStartSector, humanize.IBytes(pg.SizeBytes()))
	}

	if summary.Succeeded < summary.Attempted {
		fmt.Printf("\n(%d) of (%d) slot(s) had no usable partition.\n", summary.Attempted-summary.Succeeded, summary.Attempted)
	}
}
