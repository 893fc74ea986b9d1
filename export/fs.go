//go:build linux
// +build linux

package export

import (
	"context"
	"io"
	"os"
	"syscall"
	"time"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"

	"github.com/dsoprea/go-xtaf"
)

const (
	rootInode = 1
)

// PartitionFS is a read-only filesystem with one flat file per registered
// partition. Each file is the raw partition, starting at its header.
type PartitionFS struct {
	source    DeviceSource
	mountedAt time.Time
}

// NewPartitionFS returns a new PartitionFS instance.
func NewPartitionFS(source DeviceSource) *PartitionFS {
	return &PartitionFS{
		source:    source,
		mountedAt: time.Now(),
	}
}

// Root returns the top directory.
func (pfs *PartitionFS) Root() (fusefs.Node, error) {
	return &Dir{
		pfs: pfs,
	}, nil
}

// Dir is the top directory. It implements fs.Node, fs.NodeStringLookuper and
// fs.HandleReadDirAller.
type Dir struct {
	pfs *PartitionFS
}

func (d *Dir) Attr(ctx context.Context, a *fuse.Attr) error {
	a.Inode = rootInode
	a.Mode = os.ModeDir | 0555
	a.Mtime = d.pfs.mountedAt

	return nil
}

// inode returns a stable inode for the device. Names are listed in order so
// the position doesn't change while the table doesn't.
func (d *Dir) inode(name string) uint64 {
	for i, current := range d.pfs.source.Names() {
		if current == name {
			return uint64(i) + rootInode + 1
		}
	}

	return 0
}

func (d *Dir) Lookup(ctx context.Context, name string) (fusefs.Node, error) {
	device, found := d.pfs.source.Lookup(name)
	if found != true {
		return nil, fuse.ENOENT
	}

	df := &DeviceFile{
		device:    device,
		inode:     d.inode(name),
		size:      device.Geometry().SizeBytes(),
		mountedAt: d.pfs.mountedAt,
	}

	return df, nil
}

func (d *Dir) ReadDirAll(ctx context.Context) ([]fuse.Dirent, error) {
	names := d.pfs.source.Names()
	dirents := make([]fuse.Dirent, len(names))

	for i, name := range names {
		dirents[i] = fuse.Dirent{
			Inode: uint64(i) + rootInode + 1,
			Name:  name,
			Type:  fuse.DT_File,
		}
	}

	return dirents, nil
}

// DeviceFile is one exported partition. It implements fs.Node and
// fs.HandleReader.
type DeviceFile struct {
	device    xtaf.Device
	inode     uint64
	size      uint64
	mountedAt time.Time
}

func (df *DeviceFile) Attr(ctx context.Context, a *fuse.Attr) error {
	a.Inode = df.inode
	a.Mode = 0444
	a.Size = df.size
	a.Blocks = df.size / xtaf.SectorSize
	a.BlockSize = xtaf.SectorSize
	a.Mtime = df.mountedAt

	return nil
}

func (df *DeviceFile) Read(ctx context.Context, req *fuse.ReadRequest, resp *fuse.ReadResponse) error {
	if req.Offset < 0 {
		return fuse.Errno(syscall.EINVAL)
	} else if uint64(req.Offset) >= df.size {
		resp.Data = []byte{}
		return nil
	}

	size := uint64(req.Size)
	if uint64(req.Offset)+size > df.size {
		size = df.size - uint64(req.Offset)
	}

	buffer := make([]byte, size)

	n, err := df.device.ReadAt(buffer, req.Offset)
	if err != nil && err != io.EOF {
		exportLogger.Warningf(nil, "Read of (%d) bytes at (%d) failed: %s", size, req.Offset, err)
		return fuse.Errno(syscall.EIO)
	}

	resp.Data = buffer[:n]

	return nil
}
