package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/dsoprea/go-logging"
	"github.com/jessevdk/go-flags"

	"github.com/dsoprea/go-xtaf"
)

type rootParameters struct {
	Filepath        string `short:"f" long:"filepath" description:"File-path of disk image or device" required:"true"`
	PartitionName   string `short:"n" long:"partition" description:"Name of the partition to extract from" default:"hdd1"`
	ExtractFilepath string `short:"e" long:"extract-filepath" description:"File-path to extract (use forward slashes)" required:"true"`
	OutputFilepath  string `short:"o" long:"output-filepath" description:"File-path to write to ('-' for STDOUT)" required:"true"`
	ConfigFilepath  string `short:"c" long:"config-filepath" description:"File-path of ini configuration"`

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

	summary := xtaf.NewMountSession(disk, nil, config).MountAll(xtaf.DefaultCatalog(), disk.TotalSectors())

	mp := summary.Lookup(rootArguments.PartitionName)
	if mp == nil {
		fmt.Printf("Partition not mounted: [%s]\n", rootArguments.PartitionName)
		os.Exit(2)
	}

	f, err := mp.Open(rootArguments.ExtractFilepath)
	if errors.Is(err, fs.ErrNotExist) == true || errors.Is(err, xtaf.ErrIsDirectory) == true || errors.Is(err, xtaf.ErrNotDirectory) == true {
		fmt.Printf("File not found.\n")
		os.Exit(2)
	}

	log.PanicIf(err)

	defer f.Close()

	var g *os.File

	if rootArguments.OutputFilepath == "-" {
		g = os.Stdout
	} else {
		var err error

		g, err = os.Create(rootArguments.OutputFilepath)
		log.PanicIf(err)

		defer func() {
			g.Close()
		}()
	}

	written, err := io.Copy(g, f)
	log.PanicIf(err)

	if rootArguments.OutputFilepath != "-" {
		fmt.Printf("(%d) bytes written.\n", written)
	}
}
