package gosfs

import (
	"github.com/mit-pdos/gosfs/addr"
	"github.com/mit-pdos/gosfs/buf"
	"github.com/mit-pdos/gosfs/common"
	"github.com/mit-pdos/gosfs/dirent"
	"github.com/mit-pdos/gosfs/util"
)

// withBlock pins block bn for the duration of f.
func (fs *Fs) withBlock(bn common.Bnum, f func(b *buf.Buf) error) error {
	b, err := fs.cache.Get(bn)
	if err != nil {
		return err
	}
	defer fs.cache.Release(b)
	return f(b)
}

func (fs *Fs) readEntry(a addr.Addr) (*dirent.Entry, error) {
	if a.IsRoot() {
		root := *fs.root
		return &root, nil
	}
	var e *dirent.Entry
	err := fs.withBlock(a.Blkno, func(b *buf.Buf) error {
		e = dirent.Get(b.Data, a.Slot)
		return nil
	})
	return e, err
}

func (fs *Fs) writeEntry(a addr.Addr, e *dirent.Entry) error {
	if a.IsRoot() {
		panic("writeEntry: root has no entry")
	}
	return fs.withBlock(a.Blkno, func(b *buf.Buf) error {
		dirent.Put(b.Data, a.Slot, e)
		fs.cache.Modify(b)
		return nil
	})
}

func (fs *Fs) clearEntry(a addr.Addr) error {
	return fs.withBlock(a.Blkno, func(b *buf.Buf) error {
		dirent.Clear(b.Data, a.Slot)
		fs.cache.Modify(b)
		return nil
	})
}

func (fs *Fs) writeBlock(bn common.Bnum, data []byte) error {
	return fs.withBlock(bn, func(b *buf.Buf) error {
		copy(b.Data, data)
		fs.cache.Modify(b)
		return nil
	})
}

func (fs *Fs) zeroBlock(bn common.Bnum) error {
	return fs.withBlock(bn, func(b *buf.Buf) error {
		b.Zero()
		fs.cache.Modify(b)
		return nil
	})
}

// allocBlock takes the first free block. The bitmap change is only in the
// cached superblock until the caller syncs.
func (fs *Fs) allocBlock() (common.Bnum, error) {
	bn := fs.alloc.AllocNum()
	if bn == 0 {
		return 0, common.ErrNoMem
	}
	fs.cache.Modify(fs.sbuf)
	util.DPrintf(3, "allocBlock: %d\n", bn)
	return bn, nil
}

func (fs *Fs) freeBlock(bn common.Bnum) {
	fs.alloc.FreeNum(bn)
	fs.cache.Modify(fs.sbuf)
	util.DPrintf(3, "freeBlock: %d\n", bn)
}

// parentOf returns the block that directory block dir's ".." points at.
func (fs *Fs) parentOf(dir common.Bnum) (common.Bnum, error) {
	var parent common.Bnum
	err := fs.withBlock(dir, func(b *buf.Buf) error {
		parent = dirent.Parent(b.Data)
		return nil
	})
	return parent, err
}

// locateSelfInParent returns the entry in directory block parent that refers
// to directory block child.
func (fs *Fs) locateSelfInParent(child common.Bnum, parent common.Bnum) (addr.Addr, error) {
	var slot uint64
	var ok bool
	err := fs.withBlock(parent, func(b *buf.Buf) error {
		slot, ok = dirent.LocateSelfInParent(b.Data, child)
		return nil
	})
	if err != nil {
		return addr.Addr{}, err
	}
	if !ok {
		util.DPrintf(0, "locateSelfInParent: block %d not in parent %d\n", child, parent)
		return addr.Addr{}, common.ErrUnspecified
	}
	return addr.MkAddr(parent, slot), nil
}

// dirAddr returns the entry of the directory stored in block dir.
func (fs *Fs) dirAddr(dir common.Bnum) (addr.Addr, error) {
	if dir == fs.sb.Root {
		return addr.Root, nil
	}
	parent, err := fs.parentOf(dir)
	if err != nil {
		return addr.Addr{}, err
	}
	return fs.locateSelfInParent(dir, parent)
}
