// Package dirent is the GOSFS directory entry record and directory block
// format.
//
// A directory block is an array of DIRENTS fixed-size records. Each record is
//
//	size u64 | flags u32 | nacl u32 | blocks [NBLOCKPTRS]u64 | acl [NACL]u32 | name [128]byte
//
// with the name NUL padded. Slot 0 of every directory block is "." (pointing
// at the block itself) and slot 1 is ".." (pointing at the parent's block;
// the root's ".." points at itself).
package dirent

import (
	"bytes"
	"fmt"

	"github.com/tchajed/marshal"

	"github.com/mit-pdos/gosfs/common"
)

const nameOff uint64 = 8 + 4 + 4 + 8*common.NBLOCKPTRS + 4*common.NACL

// ACLEntry grants Perm (low four bits) to Uid.
type ACLEntry struct {
	Uid  uint32
	Perm uint32
}

type Entry struct {
	Size   uint64
	Flags  uint32
	Name   string
	Blocks [common.NBLOCKPTRS]common.Bnum
	ACL    []ACLEntry
}

func (e *Entry) IsUsed() bool {
	return e.Flags != 0
}

func (e *Entry) IsDir() bool {
	return e.Flags&common.FlagDir != 0
}

func (e *Entry) IsSetuid() bool {
	return e.Flags&common.FlagSetuid != 0
}

// Data is the entry's only data block.
func (e *Entry) Data() common.Bnum {
	return e.Blocks[0]
}

func (e *Entry) String() string {
	return fmt.Sprintf("%q flags %#x size %d blk %d", e.Name, e.Flags, e.Size, e.Blocks[0])
}

func ValidName(name string) error {
	if name == "" || name == "." || name == ".." {
		return common.ErrInvalid
	}
	if uint64(len(name)) > common.FILENAMEMAX {
		return common.ErrNameTooLong
	}
	if bytes.IndexByte([]byte(name), 0) >= 0 || bytes.IndexByte([]byte(name), '/') >= 0 {
		return common.ErrInvalid
	}
	return nil
}

func (e *Entry) Encode() []byte {
	enc := marshal.NewEnc(nameOff)
	enc.PutInt(e.Size)
	enc.PutInt32(e.Flags)
	nacl := uint64(len(e.ACL))
	if nacl > common.NACL {
		nacl = common.NACL
	}
	enc.PutInt32(uint32(nacl))
	enc.PutInts(e.Blocks[:])
	for i := uint64(0); i < common.NACL; i++ {
		var v uint32
		if i < nacl {
			v = e.ACL[i].Uid<<4 | e.ACL[i].Perm&0xf
		}
		enc.PutInt32(v)
	}
	rec := make([]byte, common.DIRENTSZ)
	copy(rec, enc.Finish())
	copy(rec[nameOff:nameOff+common.FILENAMEMAX], e.Name)
	return rec
}

func Decode(rec []byte) *Entry {
	dec := marshal.NewDec(rec[:nameOff])
	e := &Entry{}
	e.Size = dec.GetInt()
	e.Flags = dec.GetInt32()
	nacl := uint64(dec.GetInt32())
	copy(e.Blocks[:], dec.GetInts(common.NBLOCKPTRS))
	if nacl > common.NACL {
		nacl = common.NACL
	}
	for i := uint64(0); i < common.NACL; i++ {
		v := dec.GetInt32()
		if i < nacl {
			e.ACL = append(e.ACL, ACLEntry{Uid: v >> 4, Perm: v & 0xf})
		}
	}
	name := rec[nameOff : nameOff+common.FILENAMEMAX+1]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	e.Name = string(name)
	return e
}

func record(blk []byte, slot uint64) []byte {
	if slot >= common.DIRENTS {
		panic(fmt.Sprintf("slot %d", slot))
	}
	off := slot * common.DIRENTSZ
	return blk[off : off+common.DIRENTSZ]
}

// Get decodes the entry in slot of directory block blk.
func Get(blk []byte, slot uint64) *Entry {
	return Decode(record(blk, slot))
}

func Put(blk []byte, slot uint64, e *Entry) {
	copy(record(blk, slot), e.Encode())
}

func Clear(blk []byte, slot uint64) {
	rec := record(blk, slot)
	for i := range rec {
		rec[i] = 0
	}
}

// MkDirBlock formats a directory block whose "." is self and ".." is parent.
func MkDirBlock(self common.Bnum, parent common.Bnum) []byte {
	blk := make([]byte, common.BlockSize)
	dot := &Entry{
		Name:  ".",
		Flags: common.FlagUsed | common.FlagDir,
		Size:  common.BlockSize,
	}
	dot.Blocks[0] = self
	dotdot := &Entry{
		Name:  "..",
		Flags: common.FlagUsed | common.FlagDir,
		Size:  common.BlockSize,
	}
	dotdot.Blocks[0] = parent
	Put(blk, 0, dot)
	Put(blk, 1, dotdot)
	return blk
}

// Parent returns the block ".." of directory block blk points at.
func Parent(blk []byte) common.Bnum {
	return Get(blk, 1).Data()
}

// IsEmpty reports whether blk has no entries besides "." and "..".
func IsEmpty(blk []byte) bool {
	for slot := common.FIRSTSLOT; slot < common.DIRENTS; slot++ {
		if Get(blk, slot).IsUsed() {
			return false
		}
	}
	return true
}

// LocateSelfInParent finds the slot of parent block blk whose entry is the
// directory stored at block child. Directories record only their parent's
// block, never their own name, so this scan is the only way back up.
func LocateSelfInParent(blk []byte, child common.Bnum) (uint64, bool) {
	for slot := common.FIRSTSLOT; slot < common.DIRENTS; slot++ {
		e := Get(blk, slot)
		if e.IsDir() && e.Data() == child {
			return slot, true
		}
	}
	return 0, false
}
