package xtaf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestXtafTimestamp(t *testing.T) {
	xt := XtafTimestamp(testTimestamp)

	require.Equal(t, 2010, xt.Year())
	require.Equal(t, 5, xt.Month())
	require.Equal(t, 17, xt.Day())
	require.Equal(t, 13, xt.Hour())
	require.Equal(t, 45, xt.Minute())
	require.Equal(t, 30, xt.Second())

	require.Equal(t, "2010-05-17 13:45:30", xt.String())
	require.Equal(t, time.Date(2010, 5, 17, 13, 45, 30, 0, time.UTC), xt.Timestamp())
}

func TestXtafTimestamp_LateYear(t *testing.T) {
	// Year 127 is the largest the seven bits hold.
	xt := XtafTimestamp(uint32(127)<<25 | uint32(12)<<21 | uint32(31)<<16)

	require.Equal(t, 2107, xt.Year())
	require.Equal(t, 12, xt.Month())
	require.Equal(t, 31, xt.Day())

	xt = XtafTimestamp(uint32(64)<<25 | uint32(1)<<21 | uint32(1)<<16)

	require.Equal(t, 2044, xt.Year())
	require.Equal(t, "2044-01-01 00:00:00", xt.String())
}

func TestEntryFlags(t *testing.T) {
	ef := EntryFlags(0x10 | 0x02)

	require.True(t, ef.IsDirectory())
	require.True(t, ef.IsHidden())
	require.False(t, ef.IsReadOnly())
	require.False(t, ef.IsSystem())
	require.False(t, ef.IsArchive())

	require.Equal(t, "HIDDEN|DIRECTORY", ef.String())
}

func TestParseDirectoryEntry(t *testing.T) {
	de, err := parseDirectoryEntry(encodeDirectoryEntry("default.xex", 0x20, 3, 700, testTimestamp))
	require.NoError(t, err)

	require.Equal(t, "default.xex", de.Filename())
	require.True(t, de.Flags.IsArchive())
	require.False(t, de.IsDirectory())
	require.Equal(t, uint32(3), de.FirstCluster)
	require.Equal(t, uint32(700), de.FileSize)
	require.Equal(t, XtafTimestamp(testTimestamp), de.UpdateTimestamp)
	require.False(t, de.IsEndOfDirectory())
	require.False(t, de.IsDeleted())

	require.Equal(t, "DirectoryEntry<NAME=[default.xex] FLAGS=[ARCHIVE] FIRST-CLUSTER=(3) SIZE=(700)>", de.String())

	de.Dump()
}

func TestParseDirectoryEntry_Markers(t *testing.T) {
	data := make([]byte, directoryEntrySize)

	de, err := parseDirectoryEntry(data)
	require.NoError(t, err)
	require.True(t, de.IsEndOfDirectory())

	data[0] = unusedEntryMarker

	de, err = parseDirectoryEntry(data)
	require.NoError(t, err)
	require.True(t, de.IsEndOfDirectory())

	data[0] = deletedEntryMarker

	de, err = parseDirectoryEntry(data)
	require.NoError(t, err)
	require.True(t, de.IsDeleted())
	require.False(t, de.IsEndOfDirectory())
}

func TestParseDirectoryEntry_Truncated(t *testing.T) {
	_, err := parseDirectoryEntry(make([]byte, 10))
	require.Error(t, err)
}

func TestNavigator_EnumerateDirectoryEntries(t *testing.T) {
	_, mp := getTestFilesystem()

	nav := NewNavigator(mp, NewAllocationTable(mp), mp.RootDirCluster())

	names := make([]string, 0)

	cb := func(de *DirectoryEntry) error {
		names = append(names, de.Filename())
		return nil
	}

	visitedClusters, err := nav.EnumerateDirectoryEntries(cb)
	require.NoError(t, err)

	// The deleted entry is skipped.
	require.Equal(t, []string{"default.xex", "Content"}, names)
	require.Equal(t, []uint32{1}, visitedClusters)
}

func TestNavigator_IndexDirectoryEntries(t *testing.T) {
	_, mp := getTestFilesystem()

	nav := NewNavigator(mp, NewAllocationTable(mp), 2)

	index, err := nav.IndexDirectoryEntries()
	require.NoError(t, err)

	require.Equal(t, map[string]bool{"save.dat": false}, index.Filenames())
	require.Equal(t, uint32(10), index["save.dat"].FileSize)
}
