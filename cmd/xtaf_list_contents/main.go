package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dsoprea/go-logging"
	"github.com/dustin/go-humanize"
	"github.com/jessevdk/go-flags"

	"github.com/dsoprea/go-xtaf"
)

type rootParameters struct {
	Filepath       string `short:"f" long:"filepath" description:"File-path of disk image or device" required:"true"`
	PartitionName  string `short:"n" long:"partition" description:"Name of the partition to list" default:"hdd1"`
	ConfigFilepath string `short:"c" long:"config-filepath" description:"File-path of ini configuration"`
	FilenameFilter string `short:"p" long:"pattern" description:"Filename filter"`
	ShowDetail     bool   `short:"d" long:"detail" description:"Show additional entry detail"`

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

	tree := xtaf.NewTree(mp)

	err = tree.Load()
	log.PanicIf(err)

	files, nodes, err := tree.List()
	log.PanicIf(err)

	for _, currentFilepath := range files {
		node := nodes[currentFilepath]

		if rootArguments.FilenameFilter != "" {
			isMatched, err := filepath.Match(rootArguments.FilenameFilter, node.Name())
			log.PanicIf(err)

			if isMatched != true {
				continue
			}
		}

		de := node.DirectoryEntry()

		if rootArguments.ShowDetail == true {
			fmt.Printf("## %s\n", currentFilepath)
			fmt.Printf("\n")

			de.Dump()
		} else {
			fmt.Printf("%15s %20s %s\n", humanize.Comma(int64(de.FileSize)), de.UpdateTimestamp, currentFilepath)
		}
	}
}
