package gosfs

import (
	"github.com/mit-pdos/gosfs/addr"
	"github.com/mit-pdos/gosfs/buf"
	"github.com/mit-pdos/gosfs/common"
	"github.com/mit-pdos/gosfs/dirent"
	"github.com/mit-pdos/gosfs/util"
	"github.com/mit-pdos/gosfs/vfs"
)

const allModes = vfs.O_CREATE | vfs.O_READ | vfs.O_WRITE | vfs.O_EXCL

func toStat(e *dirent.Entry) vfs.FileStat {
	st := vfs.FileStat{
		Size:        e.Size,
		IsDirectory: e.IsDir(),
		IsSetuid:    e.IsSetuid(),
	}
	for _, acl := range e.ACL {
		st.ACL = append(st.ACL, vfs.ACLEntry{Uid: acl.Uid, Permission: acl.Perm})
	}
	return st
}

func (fs *Fs) begin() error {
	fs.oplock.Lock()
	if !fs.mounted {
		fs.oplock.Unlock()
		return common.ErrInvalid
	}
	return nil
}

func (fs *Fs) end() {
	fs.oplock.Unlock()
}

// Open opens the plain file at path, creating it if it is missing and mode
// has O_CREATE.
func (fs *Fs) Open(path string, mode int) (*File, error) {
	util.DPrintf(1, "Open %s %#x\n", path, mode)
	if mode&^allModes != 0 {
		return nil, common.ErrInvalid
	}
	if err := fs.begin(); err != nil {
		return nil, err
	}
	defer fs.end()
	r, err := fs.lookup(path)
	if err != nil {
		return nil, err
	}
	a := r.Addr
	if r.Found {
		if mode&vfs.O_CREATE != 0 && mode&vfs.O_EXCL != 0 {
			return nil, common.ErrExists
		}
		if r.Entry.IsDir() {
			return nil, common.ErrIsDir
		}
	} else {
		if mode&vfs.O_CREATE == 0 {
			return nil, common.ErrNotFound
		}
		a, err = fs.create(r, false)
		if err != nil {
			return nil, err
		}
	}
	return &File{fs: fs, of: fs.getOfile(a), mode: mode}, nil
}

// create fills the free slot of a lookup miss with a new file or directory,
// allocating its data block.
func (fs *Fs) create(r *LookupResult, dir bool) (addr.Addr, error) {
	if err := dirent.ValidName(r.Name); err != nil {
		return addr.Addr{}, err
	}
	if !r.HasFree {
		return addr.Addr{}, common.ErrNoSpace
	}
	bn, err := fs.allocBlock()
	if err != nil {
		return addr.Addr{}, err
	}
	e := &dirent.Entry{Name: r.Name, Flags: common.FlagUsed}
	e.Blocks[0] = bn
	if dir {
		e.Flags |= common.FlagDir
		e.Size = common.BlockSize
		err = fs.writeBlock(bn, dirent.MkDirBlock(bn, r.Parent))
	} else {
		err = fs.zeroBlock(bn)
	}
	if err != nil {
		fs.freeBlock(bn)
		return addr.Addr{}, err
	}
	a := addr.MkAddr(r.Parent, r.FreeSlot)
	if err := fs.writeEntry(a, e); err != nil {
		fs.freeBlock(bn)
		return addr.Addr{}, err
	}
	if err := fs.cache.Sync(); err != nil {
		return addr.Addr{}, err
	}
	util.DPrintf(1, "create %v: %v\n", a, e)
	return a, nil
}

func (fs *Fs) CreateDirectory(path string) error {
	util.DPrintf(1, "CreateDirectory %s\n", path)
	if err := fs.begin(); err != nil {
		return err
	}
	defer fs.end()
	r, err := fs.lookup(path)
	if err != nil {
		return err
	}
	if r.Found {
		return common.ErrExists
	}
	_, err = fs.create(r, true)
	return err
}

func (fs *Fs) OpenDirectory(path string) (*Dir, error) {
	util.DPrintf(1, "OpenDirectory %s\n", path)
	if err := fs.begin(); err != nil {
		return nil, err
	}
	defer fs.end()
	r, err := fs.lookup(path)
	if err != nil {
		return nil, err
	}
	if !r.Found {
		return nil, common.ErrNotFound
	}
	if !r.Entry.IsDir() {
		return nil, common.ErrNotDir
	}
	return &Dir{fs: fs, of: fs.getOfile(r.Addr)}, nil
}

func (fs *Fs) Stat(path string) (vfs.FileStat, error) {
	if err := fs.begin(); err != nil {
		return vfs.FileStat{}, err
	}
	defer fs.end()
	r, err := fs.lookup(path)
	if err != nil {
		return vfs.FileStat{}, err
	}
	if !r.Found {
		return vfs.FileStat{}, common.ErrNotFound
	}
	return toStat(r.Entry), nil
}

// StatAddr stats the entry at a.
func (fs *Fs) StatAddr(a addr.Addr) (vfs.FileStat, error) {
	if err := fs.begin(); err != nil {
		return vfs.FileStat{}, err
	}
	defer fs.end()
	e, err := fs.entryAt(a)
	if err != nil {
		return vfs.FileStat{}, err
	}
	return toStat(e), nil
}

// entryAt reads the used entry at a, rejecting pointers that cannot name an
// entry. Assumes fs.oplock is held.
func (fs *Fs) entryAt(a addr.Addr) (*dirent.Entry, error) {
	if !a.IsRoot() {
		if a.Blkno >= fs.sb.Size || a.Blkno == common.SUPERBLK || a.Slot < common.FIRSTSLOT ||
			a.Slot >= common.DIRENTS || !fs.alloc.IsSet(a.Blkno) {
			return nil, common.ErrNotFound
		}
	}
	e, err := fs.readEntry(a)
	if err != nil {
		return nil, err
	}
	if !e.IsUsed() {
		return nil, common.ErrNotFound
	}
	return e, nil
}

// Delete removes the file or empty directory at path, freeing its block.
func (fs *Fs) Delete(path string) error {
	util.DPrintf(1, "Delete %s\n", path)
	if err := fs.begin(); err != nil {
		return err
	}
	defer fs.end()
	r, err := fs.lookup(path)
	if err != nil {
		return err
	}
	if !r.Found {
		return common.ErrNotFound
	}
	if r.Addr.IsRoot() || r.Name == "." || r.Name == ".." {
		return common.ErrInvalid
	}
	data := r.Entry.Data()
	if r.Entry.IsDir() {
		empty := false
		err := fs.withBlock(data, func(b *buf.Buf) error {
			empty = dirent.IsEmpty(b.Data)
			return nil
		})
		if err != nil {
			return err
		}
		if !empty {
			return common.ErrNotEmpty
		}
	}
	fs.evictOfile(r.Addr)
	if data != common.NULLBNUM {
		if err := fs.zeroBlock(data); err != nil {
			return err
		}
	}
	if err := fs.clearEntry(r.Addr); err != nil {
		return err
	}
	if data != common.NULLBNUM {
		fs.freeBlock(data)
	}
	return fs.cache.Sync()
}
