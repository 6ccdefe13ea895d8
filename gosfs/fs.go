// Package gosfs implements GOSFS, a hierarchical filesystem laid out directly
// on a block device.
//
// Block 0 holds the superblock and the free-block bitmap. Every directory is
// one block of fixed-size entries; a file or directory is addressed by the
// (block, slot) of its entry, and the root directory, which has no entry of
// its own, by addr.Root. Directories store only their own and their parent's
// block number, so finding a directory's name means scanning its parent (see
// dirent.LocateSelfInParent).
//
// All logical operations on one mounted instance are serialized by the
// instance's operation lock. Open files are cached per entry for the life of
// the mount and each has its own lock for handle I/O.
package gosfs

import (
	"sync"

	"github.com/mit-pdos/gosfs/addr"
	"github.com/mit-pdos/gosfs/alloc"
	"github.com/mit-pdos/gosfs/bcache"
	"github.com/mit-pdos/gosfs/buf"
	"github.com/mit-pdos/gosfs/common"
	"github.com/mit-pdos/gosfs/dirent"
	"github.com/mit-pdos/gosfs/disk"
	"github.com/mit-pdos/gosfs/lockmap"
	"github.com/mit-pdos/gosfs/super"
	"github.com/mit-pdos/gosfs/util"
)

const DefaultCacheBlocks uint64 = 256

type Fs struct {
	d     disk.Disk
	cache *bcache.Cache
	sbuf  *buf.Buf // pinned until Unmount
	sb    *super.Superblock
	alloc *alloc.Alloc
	root  *dirent.Entry

	oplock  *sync.Mutex // serializes logical operations; protects mounted
	mounted bool

	mu    *sync.Mutex // protects files
	files map[addr.Addr]*ofile
	locks *lockmap.LockMap
}

// Format writes an empty filesystem to d: the superblock with the superblock
// and root blocks allocated, and a root directory whose "." and ".." both
// point at itself.
func Format(d disk.Disk) error {
	n, err := d.Size()
	if err != nil {
		return common.IOError(err, "disk size")
	}
	if n < 2 {
		return common.ErrInvalid
	}
	sb := super.MkSuperblock(n)
	util.DPrintf(1, "Format: %d blocks, root %d\n", sb.Size, sb.Root)
	if err := d.Write(common.SUPERBLK, sb.Encode()); err != nil {
		return common.IOError(err, "write superblock")
	}
	if err := d.Write(sb.Root, dirent.MkDirBlock(sb.Root, sb.Root)); err != nil {
		return common.IOError(err, "write root directory")
	}
	return common.IOError(d.Barrier(), "barrier")
}

func Mount(d disk.Disk) (*Fs, error) {
	return MountCache(d, DefaultCacheBlocks)
}

// MountCache mounts the filesystem on d with a buffer cache that keeps up to
// cacheBlocks unused blocks resident.
func MountCache(d disk.Disk, cacheBlocks uint64) (*Fs, error) {
	n, err := d.Size()
	if err != nil {
		return nil, common.IOError(err, "disk size")
	}
	cache := bcache.MkCache(d, n, cacheBlocks)
	sbuf, err := cache.Get(common.SUPERBLK)
	if err != nil {
		return nil, err
	}
	sb := super.Decode(sbuf.Data)
	if !sb.Valid(n) {
		util.DPrintf(0, "Bad magic number (%#x) for GOSFS filesystem\n", sb.Magic)
		cache.Release(sbuf)
		return nil, common.ErrInvalidFS
	}
	root := &dirent.Entry{
		Name:  "/",
		Flags: common.FlagUsed | common.FlagDir,
		Size:  common.BlockSize,
	}
	root.Blocks[0] = sb.Root
	fs := &Fs{
		d:       d,
		cache:   cache,
		sbuf:    sbuf,
		sb:      sb,
		alloc:   sb.Alloc(),
		root:    root,
		oplock:  new(sync.Mutex),
		mounted: true,
		mu:      new(sync.Mutex),
		files:   make(map[addr.Addr]*ofile),
		locks:   lockmap.MkLockMap(),
	}
	util.DPrintf(1, "Mount: %d blocks, root %d, %d free\n", sb.Size, sb.Root, fs.alloc.NumFree())
	return fs, nil
}

// Unmount syncs the volume and drops all cached state. The instance is
// unusable afterwards.
func (fs *Fs) Unmount() error {
	fs.oplock.Lock()
	defer fs.oplock.Unlock()
	if !fs.mounted {
		return common.ErrInvalid
	}
	if err := fs.cache.Sync(); err != nil {
		return err
	}
	fs.dropOfiles()
	fs.cache.Release(fs.sbuf)
	fs.mounted = false
	util.DPrintf(1, "Unmount\n")
	return fs.cache.Close()
}

func (fs *Fs) Sync() error {
	fs.oplock.Lock()
	defer fs.oplock.Unlock()
	if !fs.mounted {
		return common.ErrInvalid
	}
	return fs.cache.Sync()
}

type FsStat struct {
	BlockSize uint64
	Blocks    uint64
	Free      uint64
	Used      uint64
	OpenFiles uint64
}

func (fs *Fs) StatFS() (FsStat, error) {
	fs.oplock.Lock()
	defer fs.oplock.Unlock()
	if !fs.mounted {
		return FsStat{}, common.ErrInvalid
	}
	free := fs.alloc.NumFree()
	return FsStat{
		BlockSize: common.BlockSize,
		Blocks:    fs.sb.Size,
		Free:      free,
		Used:      fs.sb.Size - free,
		OpenFiles: fs.NumOpenFiles(),
	}, nil
}

func (fs *Fs) Size() uint64 {
	return fs.sb.Size
}

func (fs *Fs) RootBlock() common.Bnum {
	return fs.sb.Root
}
