package gosfs

import (
	"github.com/mit-pdos/gosfs/addr"
	"github.com/mit-pdos/gosfs/buf"
	"github.com/mit-pdos/gosfs/common"
	"github.com/mit-pdos/gosfs/dirent"
	"github.com/mit-pdos/gosfs/util"
	"github.com/mit-pdos/gosfs/vfs"
)

// Dir is an open handle on a directory. ReadEntry walks the directory's
// slots in order, "." and ".." included.
type Dir struct {
	fs     *Fs
	of     *ofile
	off    uint64
	closed bool
}

func (d *Dir) Addr() addr.Addr {
	return d.of.a
}

func (d *Dir) acquire() error {
	d.fs.lockOfile(d.of)
	if d.closed {
		d.fs.unlockOfile(d.of)
		return common.ErrInvalid
	}
	if d.of.err != nil {
		d.fs.unlockOfile(d.of)
		return d.of.err
	}
	return nil
}

func (d *Dir) release() {
	d.fs.unlockOfile(d.of)
}

func (d *Dir) FStat() (vfs.FileStat, error) {
	if err := d.acquire(); err != nil {
		return vfs.FileStat{}, err
	}
	defer d.release()
	e, err := d.fs.readEntry(d.of.a)
	if err != nil {
		return vfs.FileStat{}, err
	}
	return toStat(e), nil
}

// ReadEntry returns the next used entry, or common.ErrEOF once the
// directory's size is exhausted.
func (d *Dir) ReadEntry() (vfs.DirEntry, error) {
	fs := d.fs
	if err := fs.begin(); err != nil {
		return vfs.DirEntry{}, err
	}
	defer fs.end()
	if err := d.acquire(); err != nil {
		return vfs.DirEntry{}, err
	}
	defer d.release()
	self, err := fs.readEntry(d.of.a)
	if err != nil {
		return vfs.DirEntry{}, err
	}
	end := util.Min(self.Size, common.DIRENTS*common.DIRENTSZ)
	var de vfs.DirEntry
	found := false
	err = fs.withBlock(self.Data(), func(b *buf.Buf) error {
		for d.off < end {
			slot := d.off / common.DIRENTSZ
			d.off += common.DIRENTSZ
			e := dirent.Get(b.Data, slot)
			if e.IsUsed() {
				de = vfs.DirEntry{Name: e.Name, Stat: toStat(e)}
				found = true
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return vfs.DirEntry{}, err
	}
	if !found {
		return vfs.DirEntry{}, common.ErrEOF
	}
	return de, nil
}

// Rewind restarts iteration at the first slot.
func (d *Dir) Rewind() error {
	if err := d.acquire(); err != nil {
		return err
	}
	defer d.release()
	d.off = 0
	return nil
}

func (d *Dir) Close() error {
	d.fs.lockOfile(d.of)
	defer d.fs.unlockOfile(d.of)
	if d.closed {
		return common.ErrInvalid
	}
	d.closed = true
	d.fs.putOfile(d.of)
	return nil
}
