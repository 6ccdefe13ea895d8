// Package vfs routes path operations to mounted filesystems.
//
// Filesystem implementations register themselves by name (GOSFS registers
// "gosfs" when its package is imported). A Table maps mount prefixes such as
// "/d" to mounted instances; a path is handed to the instance with the
// longest matching prefix, with the prefix stripped.
package vfs

import (
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/mit-pdos/gosfs/disk"
	"github.com/mit-pdos/gosfs/util"
)

var (
	ErrNoFilesystem = errors.New("vfs: unknown filesystem type")
	ErrNotMounted   = errors.New("vfs: no filesystem mounted at path")
	ErrBusy         = errors.New("vfs: mount point in use")
	ErrBadPath      = errors.New("vfs: path must be absolute")
)

var (
	fsmu        sync.Mutex
	filesystems = make(map[string]FilesystemOps)
)

// Register makes a filesystem type available by name. Registering a name
// twice panics.
func Register(name string, ops FilesystemOps) {
	fsmu.Lock()
	defer fsmu.Unlock()
	if _, dup := filesystems[name]; dup {
		panic("vfs: Register called twice for " + name)
	}
	filesystems[name] = ops
}

func Filesystems() []string {
	fsmu.Lock()
	defer fsmu.Unlock()
	var names []string
	for name := range filesystems {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookupFilesystem(name string) (FilesystemOps, error) {
	fsmu.Lock()
	defer fsmu.Unlock()
	ops, ok := filesystems[name]
	if !ok {
		return nil, errors.Wrap(ErrNoFilesystem, name)
	}
	return ops, nil
}

// Format formats d with the named filesystem.
func Format(fsType string, d disk.Disk) error {
	ops, err := lookupFilesystem(fsType)
	if err != nil {
		return err
	}
	return ops.Format(d)
}

type MountPoint struct {
	Prefix string
	FsType string
	Ops    MountPointOps
}

type Table struct {
	mu     *sync.Mutex
	mounts map[string]*MountPoint
}

func MkTable() *Table {
	return &Table{
		mu:     new(sync.Mutex),
		mounts: make(map[string]*MountPoint),
	}
}

func cleanPrefix(prefix string) (string, error) {
	if !strings.HasPrefix(prefix, "/") {
		return "", ErrBadPath
	}
	p := strings.TrimRight(prefix, "/")
	if p == "" {
		p = "/"
	}
	return p, nil
}

// Mount mounts d, formatted with fsType, at prefix.
func (t *Table) Mount(fsType string, d disk.Disk, prefix string) (*MountPoint, error) {
	prefix, err := cleanPrefix(prefix)
	if err != nil {
		return nil, err
	}
	ops, err := lookupFilesystem(fsType)
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, busy := t.mounts[prefix]; busy {
		return nil, errors.Wrap(ErrBusy, prefix)
	}
	mops, err := ops.Mount(d)
	if err != nil {
		return nil, err
	}
	mp := &MountPoint{Prefix: prefix, FsType: fsType, Ops: mops}
	t.mounts[prefix] = mp
	util.DPrintf(1, "vfs: mounted %s at %s\n", fsType, prefix)
	return mp, nil
}

func (t *Table) Unmount(prefix string) error {
	prefix, err := cleanPrefix(prefix)
	if err != nil {
		return err
	}
	t.mu.Lock()
	mp, ok := t.mounts[prefix]
	if ok {
		delete(t.mounts, prefix)
	}
	t.mu.Unlock()
	if !ok {
		return errors.Wrap(ErrNotMounted, prefix)
	}
	return mp.Ops.Unmount()
}

// resolve finds the mount point for path and the path within it.
func (t *Table) resolve(path string) (*MountPoint, string, error) {
	if !strings.HasPrefix(path, "/") {
		return nil, "", ErrBadPath
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	var best *MountPoint
	for prefix, mp := range t.mounts {
		if prefix != "/" && path != prefix && !strings.HasPrefix(path, prefix+"/") {
			continue
		}
		if best == nil || len(prefix) > len(best.Prefix) {
			best = mp
		}
	}
	if best == nil {
		return nil, "", errors.Wrap(ErrNotMounted, path)
	}
	rest := path
	if best.Prefix != "/" {
		rest = strings.TrimPrefix(path, best.Prefix)
	}
	if rest == "" {
		rest = "/"
	}
	return best, rest, nil
}

func (t *Table) Open(path string, mode int) (DataFile, error) {
	mp, rest, err := t.resolve(path)
	if err != nil {
		return nil, err
	}
	return mp.Ops.Open(rest, mode)
}

func (t *Table) CreateDirectory(path string) error {
	mp, rest, err := t.resolve(path)
	if err != nil {
		return err
	}
	return mp.Ops.CreateDirectory(rest)
}

func (t *Table) OpenDirectory(path string) (Directory, error) {
	mp, rest, err := t.resolve(path)
	if err != nil {
		return nil, err
	}
	return mp.Ops.OpenDirectory(rest)
}

func (t *Table) Stat(path string) (FileStat, error) {
	mp, rest, err := t.resolve(path)
	if err != nil {
		return FileStat{}, err
	}
	return mp.Ops.Stat(rest)
}

func (t *Table) Delete(path string) error {
	mp, rest, err := t.resolve(path)
	if err != nil {
		return err
	}
	return mp.Ops.Delete(rest)
}

// Sync syncs every mounted filesystem.
func (t *Table) Sync() error {
	t.mu.Lock()
	var mps []*MountPoint
	for _, mp := range t.mounts {
		mps = append(mps, mp)
	}
	t.mu.Unlock()
	for _, mp := range mps {
		if err := mp.Ops.Sync(); err != nil {
			return errors.Wrapf(err, "sync %s", mp.Prefix)
		}
	}
	return nil
}

// GetPath returns the full path, mount prefix included, of a node found by
// looking up path.
func (t *Table) GetPath(path string) (string, error) {
	mp, rest, err := t.resolve(path)
	if err != nil {
		return "", err
	}
	node, err := mp.Ops.Lookup(rest)
	if err != nil {
		return "", err
	}
	p, err := mp.Ops.GetPath(node)
	if err != nil {
		return "", err
	}
	if mp.Prefix == "/" {
		return p, nil
	}
	if p == "/" {
		return mp.Prefix, nil
	}
	return mp.Prefix + p, nil
}
