// This file manages the low-level, on-disk partition header.

package xtaf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"reflect"

	"github.com/dsoprea/go-logging"
	"github.com/go-restruct/restruct"
)

const (
	// xtafHeaderSize is the number of bytes at the front of the first sector
	// of a partition that we interpret.
	xtafHeaderSize = 16
)

var (
	// requiredXtafSignature is the magic at offset zero of every partition.
	requiredXtafSignature = []byte("XTAF")
)

var (
	// ErrNotXtafPartition indicates that the sector at the front of a slot
	// does not carry the XTAF signature. This is expected for unused slots.
	ErrNotXtafPartition = errors.New("not an XTAF partition")
)

// XtafHeader is the header at the front of every XTAF partition. The integers
// are big-endian on disk.
type XtafHeader struct {
	// Magic is always "XTAF".
	Magic [4]byte

	// PartitionId is a serial-number for the partition.
	PartitionId uint32 `struct:"big"`

	// SectorsPerCluster is the number of 512-byte sectors in one cluster.
	SectorsPerCluster uint32 `struct:"big"`

	// RootDirCluster is the first cluster of the root directory.
	RootDirCluster uint32 `struct:"big"`
}

// HasXtafSignature indicates whether the given sector data begins with the
// XTAF signature.
func HasXtafSignature(data []byte) bool {
	if len(data) < len(requiredXtafSignature) {
		return false
	}

	return bytes.Equal(data[:len(requiredXtafSignature)], requiredXtafSignature)
}

// ParseXtafHeader decodes the header from the first sector of a partition.
// It returns ErrNotXtafPartition if the signature doesn't match.
func ParseXtafHeader(data []byte) (xh XtafHeader, err error) {
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

	if len(data) < xtafHeaderSize {
		log.Panicf("header data too short: (%d) < (%d)", len(data), xtafHeaderSize)
	}

	if HasXtafSignature(data) != true {
		return xh, ErrNotXtafPartition
	}

	err = restruct.Unpack(data[:xtafHeaderSize], binary.BigEndian, &xh)
	log.PanicIf(err)

	return xh, nil
}

// Encode returns the on-disk representation of the header. This is mostly
// useful for building test images.
func (xh XtafHeader) Encode() []byte {
	raw, err := restruct.Pack(binary.BigEndian, &xh)
	log.PanicIf(err)

	return raw
}

// MagicString returns the signature as a string.
func (xh XtafHeader) MagicString() string {
	return string(xh.Magic[:])
}

// Dump prints all of the header fields.
func (xh XtafHeader) Dump() {
	fmt.Printf("XTAF Partition Header\n")
	fmt.Printf("=====================\n")
	fmt.Printf("\n")

	fmt.Printf("Magic: [%s]\n", xh.MagicString())
	fmt.Printf("PartitionId: (0x%08x)\n", xh.PartitionId)
	fmt.Printf("SectorsPerCluster: (0x%08x)\n", xh.SectorsPerCluster)
	fmt.Printf("RootDirCluster: (0x%08x)\n", xh.RootDirCluster)

	fmt.Printf("\n")
}

// String returns a description of the header.
func (xh XtafHeader) String() string {
	return fmt.Sprintf("XtafHeader<ID=(0x%08x) SPC=(%d) ROOT-CLUSTER=(%d)>", xh.PartitionId, xh.SectorsPerCluster, xh.RootDirCluster)
}
