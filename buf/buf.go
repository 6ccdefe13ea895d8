// Package buf holds one cached disk block.
//
// A Buf is owned by the buffer cache; users borrow it between a cache Get and
// the matching Release, and must tell the cache about modifications so the
// block is written back on the next sync.
package buf

import (
	"fmt"

	"github.com/mit-pdos/gosfs/common"
)

type Buf struct {
	Blkno common.Bnum
	Data  []byte
	dirty bool // has this block been written to?
	pins  uint64
}

func MkBuf(blkno common.Bnum, data []byte) *Buf {
	b := &Buf{
		Blkno: blkno,
		Data:  data,
		dirty: false,
	}
	return b
}

func (buf *Buf) String() string {
	return fmt.Sprintf("buf %d pins %d dirty %v", buf.Blkno, buf.pins, buf.dirty)
}

func (buf *Buf) IsDirty() bool {
	return buf.dirty
}

func (buf *Buf) SetDirty() {
	buf.dirty = true
}

func (buf *Buf) ClearDirty() {
	buf.dirty = false
}

func (buf *Buf) Pin() {
	buf.pins += 1
}

// Unpin drops one pin and returns the pins left.
func (buf *Buf) Unpin() uint64 {
	if buf.pins == 0 {
		panic(fmt.Sprintf("unpin of unpinned %v", buf))
	}
	buf.pins -= 1
	return buf.pins
}

func (buf *Buf) IsPinned() bool {
	return buf.pins > 0
}

// Zero clears the whole block and marks it dirty.
func (buf *Buf) Zero() {
	for i := range buf.Data {
		buf.Data[i] = 0
	}
	buf.SetDirty()
}
