package xtaf

import (
	"fmt"

	"github.com/dsoprea/go-logging"
	"github.com/hashicorp/golang-lru/v2"
)

const (
	// DefaultCachePages is the default number of pages held per partition.
	DefaultCachePages = 16

	// DefaultSectorsPerPage is the default number of sectors in one page.
	DefaultSectorsPerPage = 8
)

// CacheConfig parameterizes the per-partition sector cache.
type CacheConfig struct {
	PageCount      uint32
	SectorsPerPage uint32
}

// SectorCache is a read cache of fixed-size pages of sectors. Each mounted
// partition owns one. It is safe for concurrent readers.
type SectorCache struct {
	disk DiskReader

	pages          *lru.Cache[uint64, []byte]
	pageCount      uint32
	sectorsPerPage uint32
	boundSector    uint64
	sectorSize     uint32
}

// NewSectorCache returns a cache of `pageCount` pages of `sectorsPerPage`
// sectors each. No sector at or beyond `boundSector` will be read.
func NewSectorCache(pageCount, sectorsPerPage uint32, disk DiskReader, boundSector uint64, sectorSize uint32) *SectorCache {
	if pageCount == 0 {
		pageCount = 1
	}

	if sectorsPerPage == 0 {
		sectorsPerPage = 1
	}

	pages, err := lru.New[uint64, []byte](int(pageCount))
	log.PanicIf(err)

	return &SectorCache{
		disk:           disk,
		pages:          pages,
		pageCount:      pageCount,
		sectorsPerPage: sectorsPerPage,
		boundSector:    boundSector,
		sectorSize:     sectorSize,
	}
}

// PageCount is the maximum number of resident pages.
func (sc *SectorCache) PageCount() uint32 {
	return sc.pageCount
}

// SectorsPerPage is the number of sectors in one page.
func (sc *SectorCache) SectorsPerPage() uint32 {
	return sc.sectorsPerPage
}

// BoundSector is the first absolute sector that the cache refuses to read.
func (sc *SectorCache) BoundSector() uint64 {
	return sc.boundSector
}

// ResidentPages returns the number of pages currently held.
func (sc *SectorCache) ResidentPages() int {
	return sc.pages.Len()
}

// Purge drops all resident pages.
func (sc *SectorCache) Purge() {
	sc.pages.Purge()
}

// page returns the data for the page that starts at `firstSector`, loading it
// from disk if it's not resident. The last page may be short if it would
// otherwise cross the bound.
func (sc *SectorCache) page(firstSector uint64) ([]byte, error) {
	if data, found := sc.pages.Get(firstSector); found == true {
		return data, nil
	}

	count := uint64(sc.sectorsPerPage)
	if firstSector+count > sc.boundSector {
		count = sc.boundSector - firstSector
	}

	data := make([]byte, count*uint64(sc.sectorSize))

	err := sc.disk.ReadSectors(firstSector, uint32(count), data)
	if err != nil {
		return nil, err
	}

	sc.pages.Add(firstSector, data)

	return data, nil
}

// ReadSectors reads `count` sectors starting at absolute sector `sector`
// through the cache.
func (sc *SectorCache) ReadSectors(sector uint64, count uint32, buffer []byte) error {
	if sector+uint64(count) > sc.boundSector {
		return &DiskReadError{
			Sector: sector,
			Count:  count,
			Cause:  fmt.Errorf("read crosses cache bound (%d)", sc.boundSector),
		}
	}

	size := int(count) * int(sc.sectorSize)
	if len(buffer) < size {
		return &DiskReadError{
			Sector: sector,
			Count:  count,
			Cause:  fmt.Errorf("buffer too small: (%d) < (%d)", len(buffer), size),
		}
	}

	written := 0
	current := sector
	end := sector + uint64(count)

	for current < end {
		firstSector := current - current%uint64(sc.sectorsPerPage)

		data, err := sc.page(firstSector)
		if err != nil {
			return err
		}

		from := (current - firstSector) * uint64(sc.sectorSize)
		n := copy(buffer[written:size], data[from:])

		written += n
		current += uint64(n) / uint64(sc.sectorSize)
	}

	return nil
}

// String returns a description of the cache.
func (sc *SectorCache) String() string {
	return fmt.Sprintf("SectorCache<PAGES=(%d)/(%d) SECTORS-PER-PAGE=(%d) BOUND=(%d)>", sc.pages.Len(), sc.pageCount, sc.sectorsPerPage, sc.boundSector)
}
