package gosfs

import (
	"github.com/mit-pdos/gosfs/addr"
	"github.com/mit-pdos/gosfs/common"
	"github.com/mit-pdos/gosfs/util"
)

// ofile is the in-memory object shared by all handles on one directory
// entry. It stays in fs.files after its last handle closes, until the entry
// is deleted or the filesystem unmounted. Its lock is the entry's lock in
// fs.locks; err is set, under that lock, once the object is dropped.
type ofile struct {
	a    addr.Addr
	refs uint64
	err  error
}

func (fs *Fs) getOfile(a addr.Addr) *ofile {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	of, ok := fs.files[a]
	if !ok {
		of = &ofile{a: a}
		fs.files[a] = of
		util.DPrintf(3, "getOfile: new %v\n", a)
	}
	of.refs += 1
	return of
}

func (fs *Fs) putOfile(of *ofile) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if of.refs == 0 {
		panic("putOfile: no references")
	}
	of.refs -= 1
}

func (fs *Fs) lockOfile(of *ofile) {
	fs.locks.Acquire(of.a)
}

func (fs *Fs) unlockOfile(of *ofile) {
	fs.locks.Release(of.a)
}

// evictOfile drops the object for a deleted entry, if there is one; handles
// still referring to it fail with ErrNotFound from then on. Assumes
// fs.oplock is held.
func (fs *Fs) evictOfile(a addr.Addr) {
	fs.mu.Lock()
	of, ok := fs.files[a]
	var refs uint64
	if ok {
		refs = of.refs
		delete(fs.files, a)
	}
	fs.mu.Unlock()
	if !ok {
		return
	}
	fs.lockOfile(of)
	of.err = common.ErrNotFound
	fs.unlockOfile(of)
	util.DPrintf(3, "evictOfile: %v with %d refs\n", a, refs)
}

// dropOfiles invalidates every object at unmount. Assumes fs.oplock is held.
func (fs *Fs) dropOfiles() {
	fs.mu.Lock()
	files := fs.files
	fs.files = make(map[addr.Addr]*ofile)
	fs.mu.Unlock()
	for _, of := range files {
		fs.lockOfile(of)
		of.err = common.ErrInvalid
		fs.unlockOfile(of)
	}
}

// NumOpenFiles is the number of cached open-file objects.
func (fs *Fs) NumOpenFiles() uint64 {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return uint64(len(fs.files))
}

// NumRefs is the number of open handles on the entry at a.
func (fs *Fs) NumRefs(a addr.Addr) uint64 {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	of, ok := fs.files[a]
	if !ok {
		return 0
	}
	return of.refs
}
