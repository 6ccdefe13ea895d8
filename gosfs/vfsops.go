package gosfs

import (
	"github.com/mit-pdos/gosfs/addr"
	"github.com/mit-pdos/gosfs/common"
	"github.com/mit-pdos/gosfs/disk"
	"github.com/mit-pdos/gosfs/vfs"
)

// Name is the filesystem type GOSFS registers with vfs.
const Name = "gosfs"

type fsOps struct{}

func (fsOps) Format(d disk.Disk) error {
	return Format(d)
}

func (fsOps) Mount(d disk.Disk) (vfs.MountPointOps, error) {
	fs, err := Mount(d)
	if err != nil {
		return nil, err
	}
	return &mountOps{fs: fs}, nil
}

// mountOps is the vfs view of a mounted instance. Nodes are entry pointer
// flat ids.
type mountOps struct {
	fs *Fs
}

func (m *mountOps) Open(path string, mode int) (vfs.DataFile, error) {
	f, err := m.fs.Open(path, mode)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (m *mountOps) CreateDirectory(path string) error {
	return m.fs.CreateDirectory(path)
}

func (m *mountOps) OpenDirectory(path string) (vfs.Directory, error) {
	d, err := m.fs.OpenDirectory(path)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (m *mountOps) Stat(path string) (vfs.FileStat, error) {
	return m.fs.Stat(path)
}

func (m *mountOps) Sync() error {
	return m.fs.Sync()
}

func (m *mountOps) Delete(path string) error {
	return m.fs.Delete(path)
}

func (m *mountOps) Lookup(path string) (uint64, error) {
	r, err := m.fs.Lookup(path)
	if err != nil {
		return 0, err
	}
	if !r.Found {
		return 0, common.ErrNotFound
	}
	return r.Addr.Flatid(), nil
}

func (m *mountOps) GetPath(node uint64) (string, error) {
	return m.fs.GetPath(addr.FromFlatid(node))
}

func (m *mountOps) Unmount() error {
	return m.fs.Unmount()
}

func init() {
	vfs.Register(Name, fsOps{})
}
