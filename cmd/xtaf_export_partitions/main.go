package main

import (
	"fmt"
	"os"

	"github.com/dsoprea/go-logging"
	"github.com/jessevdk/go-flags"

	"github.com/dsoprea/go-xtaf"
	"github.com/dsoprea/go-xtaf/export"
)

type rootParameters struct {
	Filepath       string `short:"f" long:"filepath" description:"File-path of disk image or device" required:"true"`
	Mountpoint     string `short:"m" long:"mountpoint" description:"Directory to export the partitions at" required:"true"`
	ConfigFilepath string `short:"c" long:"config-filepath" description:"File-path of ini configuration"`

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

	summary := xtaf.NewMountSession(disk, dt, config).MountAll(xtaf.DefaultCatalog(), disk.TotalSectors())
	if summary.Succeeded == 0 {
		log.Panicf("no partitions found")
	}

	for _, name := range dt.Names() {
		device, _ := dt.Lookup(name)
		fmt.Printf("%s: %s\n", name, device.Name())
	}

	err = export.Serve(rootArguments.Mountpoint, dt)
	log.PanicIf(err)
}
