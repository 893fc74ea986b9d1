package xtaf

import (
	"fmt"
	"io"
	"os"
	"reflect"

	"github.com/dsoprea/go-logging"
)

// DiskReader knows how to read whole sectors from the physical disk.
type DiskReader interface {
	// ReadSectors fills `buffer` with exactly `count` sectors starting at
	// absolute sector `sector`. Any failure is a *DiskReadError.
	ReadSectors(sector uint64, count uint32, buffer []byte) error
}

// DiskReadError describes a read that did not return every requested sector.
type DiskReadError struct {
	Sector uint64
	Count  uint32
	Cause  error
}

// Error returns the error message.
func (dre *DiskReadError) Error() string {
	if dre.Cause == nil {
		return fmt.Sprintf("failed to read (%d) sector(s) at sector (%d) (offset 0x%x)", dre.Count, dre.Sector, dre.Sector*SectorSize)
	}

	return fmt.Sprintf("failed to read (%d) sector(s) at sector (%d) (offset 0x%x): %s", dre.Count, dre.Sector, dre.Sector*SectorSize, dre.Cause)
}

// Unwrap returns the underlying error, if any.
func (dre *DiskReadError) Unwrap() error {
	return dre.Cause
}

// SectorReader adapts an image-file or raw device to DiskReader.
type SectorReader struct {
	ra io.ReaderAt
}

// NewSectorReader returns a new SectorReader instance.
func NewSectorReader(ra io.ReaderAt) *SectorReader {
	return &SectorReader{
		ra: ra,
	}
}

// ReadSectors reads `count` sectors starting at `sector` into `buffer`.
func (sr *SectorReader) ReadSectors(sector uint64, count uint32, buffer []byte) error {
	size := int(count) * SectorSize

	if len(buffer) < size {
		return &DiskReadError{
			Sector: sector,
			Count:  count,
			Cause:  fmt.Errorf("buffer too small: (%d) < (%d)", len(buffer), size),
		}
	}

	n, err := sr.ra.ReadAt(buffer[:size], int64(sector*SectorSize))
	if n == size {
		// io.ReaderAt may return EOF alongside a full read at the end of the
		// device.
		return nil
	} else if err == nil {
		err = io.ErrUnexpectedEOF
	}

	return &DiskReadError{
		Sector: sector,
		Count:  count,
		Cause:  err,
	}
}

// Disk is an opened image-file or block device.
type Disk struct {
	*SectorReader

	f            *os.File
	totalSectors uint64
}

// OpenDisk opens the image or device at the given path for reading and
// determines its size.
func OpenDisk(filepath string) (disk *Disk, err error) {
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

	f, err := os.Open(filepath)
	log.PanicIf(err)

	size, err := deviceSize(f)
	if err != nil {
		f.Close()
		log.PanicIf(err)
	}

	disk = &Disk{
		SectorReader: NewSectorReader(f),
		f:            f,
		totalSectors: uint64(size) / SectorSize,
	}

	return disk, nil
}

// TotalSectors returns the number of whole sectors on the device.
func (disk *Disk) TotalSectors() uint64 {
	return disk.totalSectors
}

// ReaderAt returns the raw device.
func (disk *Disk) ReaderAt() io.ReaderAt {
	return disk.f
}

// Close closes the underlying file.
func (disk *Disk) Close() error {
	return disk.f.Close()
}

// seekSize returns the size of a regular file (or of any device that supports
// seeking to its end).
func seekSize(f *os.File) (int64, error) {
	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}

	_, err = f.Seek(0, io.SeekStart)
	if err != nil {
		return 0, err
	}

	return size, nil
}
