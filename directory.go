// This file supports enumerating the entries of a single directory.

package xtaf

import (
	"encoding/binary"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/dsoprea/go-logging"
	"github.com/go-restruct/restruct"
)

const (
	directoryEntrySize = 64
	maxFilenameLength  = 42

	// Filename-length markers.
	endOfDirectoryMarker = 0x00
	unusedEntryMarker    = 0xff
	deletedEntryMarker   = 0xe5
)

// EntryFlags are the attribute bits of a directory entry.
type EntryFlags uint8

func (ef EntryFlags) IsReadOnly() bool {
	return ef&0x01 > 0
}

func (ef EntryFlags) IsHidden() bool {
	return ef&0x02 > 0
}

func (ef EntryFlags) IsSystem() bool {
	return ef&0x04 > 0
}

func (ef EntryFlags) IsDirectory() bool {
	return ef&0x10 > 0
}

func (ef EntryFlags) IsArchive() bool {
	return ef&0x20 > 0
}

func (ef EntryFlags) String() string {
	flags := make([]string, 0)

	if ef.IsReadOnly() == true {
		flags = append(flags, "READ-ONLY")
	}

	if ef.IsHidden() == true {
		flags = append(flags, "HIDDEN")
	}

	if ef.IsSystem() == true {
		flags = append(flags, "SYSTEM")
	}

	if ef.IsDirectory() == true {
		flags = append(flags, "DIRECTORY")
	}

	if ef.IsArchive() == true {
		flags = append(flags, "ARCHIVE")
	}

	return strings.Join(flags, "|")
}

// XtafTimestamp is a DOS date (high word) and time (low word).
type XtafTimestamp uint32

func (xt XtafTimestamp) Second() int {
	return int(xt&31) * 2
}

func (xt XtafTimestamp) Minute() int {
	return int(xt&2016) >> 5
}

func (xt XtafTimestamp) Hour() int {
	return int(xt&63488) >> 11
}

func (xt XtafTimestamp) Day() int {
	return int(xt&2031616) >> 16
}

func (xt XtafTimestamp) Month() int {
	return int(xt&31457280) >> 21
}

func (xt XtafTimestamp) Year() int {
	return 1980 + int((uint32(xt)&0xfe000000)>>25)
}

// Timestamp returns the time. The disk doesn't record a zone so UTC is
// assumed.
func (xt XtafTimestamp) Timestamp() time.Time {
	return time.Date(xt.Year(), time.Month(xt.Month()), xt.Day(), xt.Hour(), xt.Minute(), xt.Second(), 0, time.UTC)
}

func (xt XtafTimestamp) String() string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", xt.Year(), xt.Month(), xt.Day(), xt.Hour(), xt.Minute(), xt.Second())
}

// DirectoryEntry is one 64-byte record of a directory. The integers are
// big-endian on disk.
type DirectoryEntry struct {
	FilenameLength uint8
	Flags          EntryFlags
	FilenameRaw    [maxFilenameLength]byte

	FirstCluster uint32
	FileSize     uint32

	CreationTimestamp XtafTimestamp
	AccessTimestamp   XtafTimestamp
	UpdateTimestamp   XtafTimestamp
}

// IsEndOfDirectory indicates that neither this nor any later record is used.
func (de *DirectoryEntry) IsEndOfDirectory() bool {
	return de.FilenameLength == endOfDirectoryMarker || de.FilenameLength == unusedEntryMarker
}

// IsDeleted indicates a record that was freed.
func (de *DirectoryEntry) IsDeleted() bool {
	return de.FilenameLength == deletedEntryMarker
}

func (de *DirectoryEntry) IsDirectory() bool {
	return de.Flags.IsDirectory()
}

// Filename returns the name. Only the first FilenameLength bytes are used.
func (de *DirectoryEntry) Filename() string {
	length := int(de.FilenameLength)
	if length > maxFilenameLength {
		length = maxFilenameLength
	}

	return string(de.FilenameRaw[:length])
}

// Dump prints the entry.
func (de *DirectoryEntry) Dump() {
	fmt.Printf("Directory Entry\n")
	fmt.Printf("\n")

	fmt.Printf("  Filename: [%s]\n", de.Filename())
	fmt.Printf("  Flags: [%s] (0x%02x)\n", de.Flags, uint8(de.Flags))
	fmt.Printf("  FirstCluster: (%d)\n", de.FirstCluster)
	fmt.Printf("  FileSize: (%d)\n", de.FileSize)
	fmt.Printf("  CreationTimestamp: [%s]\n", de.CreationTimestamp)
	fmt.Printf("  AccessTimestamp: [%s]\n", de.AccessTimestamp)
	fmt.Printf("  UpdateTimestamp: [%s]\n", de.UpdateTimestamp)

	fmt.Printf("\n")
}

func (de *DirectoryEntry) String() string {
	return fmt.Sprintf("DirectoryEntry<NAME=[%s] FLAGS=[%s] FIRST-CLUSTER=(%d) SIZE=(%d)>", de.Filename(), de.Flags, de.FirstCluster, de.FileSize)
}

func parseDirectoryEntry(data []byte) (de *DirectoryEntry, err error) {
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

	if len(data) < directoryEntrySize {
		log.Panicf("directory-entry data too short: (%d)", len(data))
	}

	de = new(DirectoryEntry)

	err = restruct.Unpack(data[:directoryEntrySize], binary.BigEndian, de)
	log.PanicIf(err)

	return de, nil
}

// Navigator knows how to get the entries of a single directory.
type Navigator struct {
	mp           *MountedPartition
	at           *AllocationTable
	firstCluster uint32
}

// NewNavigator returns a new Navigator instance for the directory whose
// records start at the given cluster.
func NewNavigator(mp *MountedPartition, at *AllocationTable, firstCluster uint32) *Navigator {
	return &Navigator{
		mp:           mp,
		at:           at,
		firstCluster: firstCluster,
	}
}

// DirectoryEntryVisitorFunc is a function type used as a callback over each
// directory entry.
type DirectoryEntryVisitorFunc func(de *DirectoryEntry) (err error)

// EnumerateDirectoryEntries calls the callback for each live entry. Deleted
// entries are skipped.
func (nav *Navigator) EnumerateDirectoryEntries(cb DirectoryEntryVisitorFunc) (visitedClusters []uint32, err error) {
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

	visitedClusters = make([]uint32, 0)

	data := make([]byte, nav.mp.Geometry().BytesPerCluster)

	cvf := func(cluster uint32, sector uint64) (doContinue bool, err error) {
		visitedClusters = append(visitedClusters, cluster)

		err = nav.mp.ReadCluster(cluster, data)
		if err != nil {
			return false, err
		}

		for offset := 0; offset+directoryEntrySize <= len(data); offset += directoryEntrySize {
			de, err := parseDirectoryEntry(data[offset : offset+directoryEntrySize])
			if err != nil {
				return false, err
			}

			if de.IsEndOfDirectory() == true {
				return false, nil
			} else if de.IsDeleted() == true {
				continue
			}

			err = cb(de)
			if err != nil {
				return false, err
			}
		}

		return true, nil
	}

	err = nav.at.EnumerateClusters(nav.firstCluster, cvf)
	log.PanicIf(err)

	return visitedClusters, nil
}

// DirectoryEntryIndex maps filenames to entries.
type DirectoryEntryIndex map[string]*DirectoryEntry

// Filenames returns every filename along with whether it's a directory.
func (dei DirectoryEntryIndex) Filenames() (filenames map[string]bool) {
	filenames = make(map[string]bool)

	for filename, de := range dei {
		filenames[filename] = de.IsDirectory()
	}

	return filenames
}

// IndexDirectoryEntries returns the live entries keyed by filename.
func (nav *Navigator) IndexDirectoryEntries() (index DirectoryEntryIndex, err error) {
	index = make(DirectoryEntryIndex)

	cb := func(de *DirectoryEntry) error {
		index[de.Filename()] = de
		return nil
	}

	_, err = nav.EnumerateDirectoryEntries(cb)
	if err != nil {
		return nil, err
	}

	return index, nil
}
