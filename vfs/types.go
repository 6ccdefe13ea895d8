package vfs

import (
	"github.com/mit-pdos/gosfs/disk"
)

// Open modes.
const (
	O_CREATE = 0x1
	O_READ   = 0x2
	O_WRITE  = 0x4
	O_EXCL   = 0x8
)

type ACLEntry struct {
	Uid        uint32
	Permission uint32
}

// FileStat is the filesystem-independent description of a file.
type FileStat struct {
	Size        uint64
	IsDirectory bool
	IsSetuid    bool
	ACL         []ACLEntry
}

type DirEntry struct {
	Name string
	Stat FileStat
}

type File interface {
	FStat() (FileStat, error)
	Close() error
}

type DataFile interface {
	File
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Seek(pos uint64) error
}

// Directory is an open directory. ReadEntry returns the next used entry and
// fails with the filesystem's end-of-directory error when none is left.
type Directory interface {
	File
	ReadEntry() (DirEntry, error)
}

// MountPointOps is the table of operations of a mounted filesystem. Paths
// are absolute within the filesystem; nodes are filesystem-specific ids as
// returned by Lookup.
type MountPointOps interface {
	Open(path string, mode int) (DataFile, error)
	CreateDirectory(path string) error
	OpenDirectory(path string) (Directory, error)
	Stat(path string) (FileStat, error)
	Sync() error
	Delete(path string) error
	Lookup(path string) (uint64, error)
	GetPath(node uint64) (string, error)
	Unmount() error
}

type FilesystemOps interface {
	Format(d disk.Disk) error
	Mount(d disk.Disk) (MountPointOps, error)
}
