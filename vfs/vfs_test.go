package vfs

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/mit-pdos/gosfs/disk"
)

var errFake = errors.New("fake")

// fakeOps records the paths it is handed.
type fakeOps struct {
	paths     []string
	unmounted bool
}

func (f *fakeOps) Open(path string, mode int) (DataFile, error) {
	f.paths = append(f.paths, path)
	return nil, errFake
}

func (f *fakeOps) CreateDirectory(path string) error {
	f.paths = append(f.paths, path)
	return nil
}

func (f *fakeOps) OpenDirectory(path string) (Directory, error) {
	f.paths = append(f.paths, path)
	return nil, errFake
}

func (f *fakeOps) Stat(path string) (FileStat, error) {
	f.paths = append(f.paths, path)
	return FileStat{IsDirectory: true}, nil
}

func (f *fakeOps) Sync() error { return nil }

func (f *fakeOps) Delete(path string) error {
	f.paths = append(f.paths, path)
	return nil
}

func (f *fakeOps) Lookup(path string) (uint64, error) {
	f.paths = append(f.paths, path)
	return 7, nil
}

func (f *fakeOps) GetPath(node uint64) (string, error) {
	if node != 7 {
		return "", errFake
	}
	return "/a/b", nil
}

func (f *fakeOps) Unmount() error {
	f.unmounted = true
	return nil
}

type fakeFs struct {
	formatted int
	mounts    []*fakeOps
}

func (fs *fakeFs) Format(d disk.Disk) error {
	fs.formatted++
	return nil
}

func (fs *fakeFs) Mount(d disk.Disk) (MountPointOps, error) {
	ops := &fakeOps{}
	fs.mounts = append(fs.mounts, ops)
	return ops, nil
}

var fake = &fakeFs{}

func init() {
	Register("fake", fake)
}

func TestRegister(t *testing.T) {
	assert := assert.New(t)
	assert.Contains(Filesystems(), "fake")
	assert.Panics(func() { Register("fake", fake) })
	assert.NoError(Format("fake", disk.NewMemDisk(4)))
	assert.Equal(1, fake.formatted)
	err := Format("nosuch", disk.NewMemDisk(4))
	assert.True(errors.Is(err, ErrNoFilesystem))
}

func TestRouting(t *testing.T) {
	assert := assert.New(t)
	tbl := MkTable()
	_, err := tbl.Mount("fake", disk.NewMemDisk(4), "/")
	assert.NoError(err)
	_, err = tbl.Mount("fake", disk.NewMemDisk(4), "/d/")
	assert.NoError(err)
	_, err = tbl.Mount("fake", disk.NewMemDisk(4), "/d")
	assert.True(errors.Is(err, ErrBusy))
	_, err = tbl.Mount("fake", disk.NewMemDisk(4), "d")
	assert.Equal(ErrBadPath, err)

	n := len(fake.mounts)
	root, d := fake.mounts[n-2], fake.mounts[n-1]

	assert.NoError(tbl.CreateDirectory("/d/x"))
	assert.NoError(tbl.CreateDirectory("/dx"))
	assert.NoError(tbl.Delete("/d"))
	_, err = tbl.Stat("/etc")
	assert.NoError(err)
	assert.Equal([]string{"/x", "/"}, d.paths)
	assert.Equal([]string{"/dx", "/etc"}, root.paths)

	p, err := tbl.GetPath("/d/a/b")
	assert.NoError(err)
	assert.Equal("/d/a/b", p)
	p, err = tbl.GetPath("/a/b")
	assert.NoError(err)
	assert.Equal("/a/b", p)

	_, err = tbl.Stat("rel")
	assert.Equal(ErrBadPath, err)
	assert.NoError(tbl.Sync())

	assert.NoError(tbl.Unmount("/d"))
	assert.True(d.unmounted)
	assert.True(errors.Is(tbl.Unmount("/d"), ErrNotMounted))
	assert.NoError(tbl.CreateDirectory("/d/y"))
	assert.Equal("/d/y", root.paths[len(root.paths)-1])
}

func TestNotMounted(t *testing.T) {
	assert := assert.New(t)
	tbl := MkTable()
	_, err := tbl.Stat("/x")
	assert.True(errors.Is(err, ErrNotMounted))
	_, err = tbl.Mount("nosuch", disk.NewMemDisk(4), "/")
	assert.True(errors.Is(err, ErrNoFilesystem))
}
