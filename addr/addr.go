package addr

import (
	"fmt"

	"github.com/mit-pdos/gosfs/common"
)

// Addr identifies a directory entry.
//
// Blkno is the directory block containing the entry and Slot is the index of
// the entry within that block. The root directory has no entry of its own; it
// is named by Root, which points into the superblock where no directory entry
// can live.
type Addr struct {
	Blkno common.Bnum
	Slot  uint64
}

var Root = Addr{Blkno: common.SUPERBLK, Slot: 0}

func MkAddr(blkno common.Bnum, slot uint64) Addr {
	return Addr{Blkno: blkno, Slot: slot}
}

func (a Addr) IsRoot() bool {
	return a == Root
}

func (a Addr) Flatid() uint64 {
	return uint64(a.Blkno)*common.DIRENTS + a.Slot
}

func FromFlatid(id uint64) Addr {
	return MkAddr(id/common.DIRENTS, id%common.DIRENTS)
}

func (a Addr) String() string {
	return fmt.Sprintf("(%d,%d)", a.Blkno, a.Slot)
}
