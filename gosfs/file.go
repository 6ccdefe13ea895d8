package gosfs

import (
	"io"

	"github.com/mit-pdos/gosfs/addr"
	"github.com/mit-pdos/gosfs/buf"
	"github.com/mit-pdos/gosfs/common"
	"github.com/mit-pdos/gosfs/util"
	"github.com/mit-pdos/gosfs/vfs"
)

// File is an open handle on a plain file. Its position is private to the
// handle; the file itself is shared with other handles on the same entry.
type File struct {
	fs     *Fs
	of     *ofile
	mode   int
	pos    uint64
	closed bool
}

func (f *File) Addr() addr.Addr {
	return f.of.a
}

func (f *File) Position() uint64 {
	f.fs.lockOfile(f.of)
	defer f.fs.unlockOfile(f.of)
	return f.pos
}

// acquire locks the file for handle I/O and checks that the handle is
// still usable.
func (f *File) acquire() error {
	f.fs.lockOfile(f.of)
	if f.closed {
		f.fs.unlockOfile(f.of)
		return common.ErrInvalid
	}
	if f.of.err != nil {
		f.fs.unlockOfile(f.of)
		return f.of.err
	}
	return nil
}

func (f *File) release() {
	f.fs.unlockOfile(f.of)
}

func (f *File) FStat() (vfs.FileStat, error) {
	if err := f.acquire(); err != nil {
		return vfs.FileStat{}, err
	}
	defer f.release()
	e, err := f.fs.readEntry(f.of.a)
	if err != nil {
		return vfs.FileStat{}, err
	}
	return toStat(e), nil
}

// Read reads from the current position, returning io.EOF at the end of the
// file.
func (f *File) Read(p []byte) (int, error) {
	if f.mode&vfs.O_READ == 0 {
		return 0, common.ErrAccess
	}
	if err := f.acquire(); err != nil {
		return 0, err
	}
	defer f.release()
	e, err := f.fs.readEntry(f.of.a)
	if err != nil {
		return 0, err
	}
	if f.pos >= e.Size {
		return 0, io.EOF
	}
	var n int
	err = f.fs.withBlock(e.Data(), func(b *buf.Buf) error {
		n = copy(p, b.Data[f.pos:e.Size])
		return nil
	})
	if err != nil {
		return 0, err
	}
	f.pos += uint64(n)
	util.DPrintf(3, "Read %v: %d bytes, pos %d\n", f.of.a, n, f.pos)
	return n, nil
}

// Write writes p at the current position, growing the file as needed, and
// syncs. Files are limited to one block; a write that would cross it fails
// without writing anything.
func (f *File) Write(p []byte) (int, error) {
	if f.mode&vfs.O_WRITE == 0 {
		return 0, common.ErrAccess
	}
	fs := f.fs
	if err := fs.begin(); err != nil {
		return 0, err
	}
	defer fs.end()
	if err := f.acquire(); err != nil {
		return 0, err
	}
	defer f.release()
	end := f.pos + uint64(len(p))
	if util.SumOverflows(f.pos, uint64(len(p))) || end > common.BlockSize {
		return 0, common.ErrFileTooBig
	}
	e, err := fs.readEntry(f.of.a)
	if err != nil {
		return 0, err
	}
	err = fs.withBlock(e.Data(), func(b *buf.Buf) error {
		copy(b.Data[f.pos:end], p)
		fs.cache.Modify(b)
		return nil
	})
	if err != nil {
		return 0, err
	}
	if end > e.Size {
		e.Size = end
		if err := fs.writeEntry(f.of.a, e); err != nil {
			return 0, err
		}
	}
	if err := fs.cache.Sync(); err != nil {
		return 0, err
	}
	f.pos = end
	util.DPrintf(3, "Write %v: %d bytes, size %d\n", f.of.a, len(p), e.Size)
	return len(p), nil
}

// Seek moves the position to pos, which may not be past the end of the
// file.
func (f *File) Seek(pos uint64) error {
	if err := f.acquire(); err != nil {
		return err
	}
	defer f.release()
	e, err := f.fs.readEntry(f.of.a)
	if err != nil {
		return err
	}
	if pos > e.Size {
		return common.ErrInvalid
	}
	f.pos = pos
	return nil
}

// Close releases the handle. The shared open-file object stays cached.
func (f *File) Close() error {
	f.fs.lockOfile(f.of)
	defer f.fs.unlockOfile(f.of)
	if f.closed {
		return common.ErrInvalid
	}
	f.closed = true
	f.fs.putOfile(f.of)
	return nil
}
