package xtaf

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sort"
	"strings"
	"time"
)

var (
	// ErrNotDirectory indicates that a path traverses or lists a file.
	ErrNotDirectory = errors.New("not a directory")

	// ErrIsDirectory indicates an attempt to open a directory for reading.
	ErrIsDirectory = errors.New("is a directory")
)

// EntryInfo describes one file or directory of a mounted partition. It
// satisfies fs.FileInfo.
type EntryInfo struct {
	name string
	de   *DirectoryEntry
}

func (ei EntryInfo) Name() string {
	return ei.name
}

func (ei EntryInfo) Size() int64 {
	if ei.IsDir() == true {
		return 0
	}

	return int64(ei.de.FileSize)
}

func (ei EntryInfo) Mode() fs.FileMode {
	if ei.IsDir() == true {
		return fs.ModeDir | 0555
	}

	return 0444
}

// ModTime returns the update timestamp. The root directory has none.
func (ei EntryInfo) ModTime() time.Time {
	if ei.de == nil {
		return time.Time{}
	}

	return ei.de.UpdateTimestamp.Timestamp()
}

func (ei EntryInfo) IsDir() bool {
	return ei.de == nil || ei.de.IsDirectory()
}

// Sys returns the *DirectoryEntry, or nil for the root directory.
func (ei EntryInfo) Sys() interface{} {
	if ei.de == nil {
		return nil
	}

	return ei.de
}

// DirectoryEntry returns the underlying entry. It's nil for the root.
func (ei EntryInfo) DirectoryEntry() *DirectoryEntry {
	return ei.de
}

func splitPath(filepath string) []string {
	parts := make([]string, 0)

	for _, part := range strings.Split(filepath, "/") {
		if part == "" || part == "." {
			continue
		}

		parts = append(parts, part)
	}

	return parts
}

// findEntry walks the directories from the root. A nil entry is the root
// directory itself.
func (mp *MountedPartition) findEntry(filepath string) (de *DirectoryEntry, err error) {
	at := NewAllocationTable(mp)
	cluster := mp.RootDirCluster()

	for _, part := range splitPath(filepath) {
		if de != nil {
			if de.IsDirectory() == false {
				return nil, fmt.Errorf("%w: [%s]", ErrNotDirectory, filepath)
			} else if de.FirstCluster == 0 {
				return nil, fmt.Errorf("%w: [%s]", fs.ErrNotExist, filepath)
			}

			cluster = de.FirstCluster
		}

		index, err := NewNavigator(mp, at, cluster).IndexDirectoryEntries()
		if err != nil {
			return nil, err
		}

		child, found := index[part]
		if found == false {
			return nil, fmt.Errorf("%w: [%s]", fs.ErrNotExist, filepath)
		}

		de = child
	}

	return de, nil
}

// Stat describes the file or directory at the given forward-slash path.
func (mp *MountedPartition) Stat(filepath string) (fi fs.FileInfo, err error) {
	de, err := mp.findEntry(filepath)
	if err != nil {
		return nil, err
	}

	if de == nil {
		return EntryInfo{name: "/"}, nil
	}

	return EntryInfo{name: de.Filename(), de: de}, nil
}

// ReadDir returns the live entries of the directory at the given path, sorted
// by name.
func (mp *MountedPartition) ReadDir(filepath string) (entries []fs.FileInfo, err error) {
	de, err := mp.findEntry(filepath)
	if err != nil {
		return nil, err
	}

	entries = make([]fs.FileInfo, 0)

	cluster := mp.RootDirCluster()
	if de != nil {
		if de.IsDirectory() == false {
			return nil, fmt.Errorf("%w: [%s]", ErrNotDirectory, filepath)
		} else if de.FirstCluster == 0 {
			return entries, nil
		}

		cluster = de.FirstCluster
	}

	cb := func(child *DirectoryEntry) error {
		entries = append(entries, EntryInfo{name: child.Filename(), de: child})
		return nil
	}

	_, err = NewNavigator(mp, NewAllocationTable(mp), cluster).EnumerateDirectoryEntries(cb)
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	return entries, nil
}

// Open returns a reader over the file at the given path.
func (mp *MountedPartition) Open(filepath string) (f *File, err error) {
	de, err := mp.findEntry(filepath)
	if err != nil {
		return nil, err
	}

	if de == nil || de.IsDirectory() == true {
		return nil, fmt.Errorf("%w: [%s]", ErrIsDirectory, filepath)
	}

	clusters := make([]uint32, 0)

	if de.FileSize > 0 {
		clusters, err = NewAllocationTable(mp).Chain(de.FirstCluster)
		if err != nil {
			return nil, err
		}

		if uint64(len(clusters))*uint64(mp.geometry.BytesPerCluster) < uint64(de.FileSize) {
			return nil, fmt.Errorf("cluster chain of [%s] is too short for (%d) bytes", filepath, de.FileSize)
		}
	}

	f = &File{
		mp:       mp,
		info:     EntryInfo{name: de.Filename(), de: de},
		clusters: clusters,
	}

	return f, nil
}

// File is an open file on a mounted partition. Reads go through the
// partition's sector cache.
type File struct {
	mp       *MountedPartition
	info     EntryInfo
	clusters []uint32
	position int64
}

// Stat describes the file.
func (f *File) Stat() (fs.FileInfo, error) {
	return f.info, nil
}

// Clusters returns the cluster chain of the file.
func (f *File) Clusters() []uint32 {
	return f.clusters
}

// ReadAt reads file-relative bytes. It doesn't move the position.
func (f *File) ReadAt(p []byte, off int64) (n int, err error) {
	if off < 0 {
		return 0, fmt.Errorf("negative offset: (%d)", off)
	}

	size := f.info.Size()
	if off >= size {
		return 0, io.EOF
	}

	want := len(p)
	if int64(want) > size-off {
		want = int(size - off)
	}

	bytesPerCluster := int64(f.mp.geometry.BytesPerCluster)
	sector := make([]byte, SectorSize)

	for n < want {
		current := off + int64(n)
		within := current % bytesPerCluster

		clusterSector, err := f.mp.ClusterToSector(f.clusters[current/bytesPerCluster])
		if err != nil {
			return n, err
		}

		err = f.mp.cache.ReadSectors(clusterSector+uint64(within/SectorSize), 1, sector)
		if err != nil {
			return n, err
		}

		n += copy(p[n:want], sector[within%SectorSize:])
	}

	if n < len(p) {
		return n, io.EOF
	}

	return n, nil
}

func (f *File) Read(p []byte) (n int, err error) {
	n, err = f.ReadAt(p, f.position)
	f.position += int64(n)

	return n, err
}

func (f *File) Seek(offset int64, whence int) (int64, error) {
	var base int64

	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = f.position
	case io.SeekEnd:
		base = f.info.Size()
	default:
		return f.position, fmt.Errorf("whence not valid: (%d)", whence)
	}

	if base+offset < 0 {
		return f.position, fmt.Errorf("seek before the start of the file: (%d)", base+offset)
	}

	f.position = base + offset

	return f.position, nil
}

// Close releases the file. Nothing is held open.
func (f *File) Close() error {
	return nil
}
