// Package super encodes the GOSFS superblock, block 0 of every volume:
//
//	magic | size | rootDirectoryPointer | bitmap
//
// The bitmap has one bit per block; bit i set means block i belongs to the
// superblock, a directory or a file.
package super

import (
	"github.com/tchajed/marshal"

	"github.com/mit-pdos/gosfs/alloc"
	"github.com/mit-pdos/gosfs/common"
	"github.com/mit-pdos/gosfs/util"
)

type Superblock struct {
	Magic uint64
	Size  uint64 // in blocks
	Root  common.Bnum
	// Bitmap aliases the block the superblock was decoded from, so updates
	// through Alloc land in that block.
	Bitmap []byte
}

// MkSuperblock describes a fresh volume of size blocks (capped at the bitmap
// capacity) with the superblock and root directory already allocated.
func MkSuperblock(size uint64) *Superblock {
	sb := &Superblock{
		Magic:  common.MAGIC,
		Size:   util.Min(size, common.MAXBLOCKS),
		Root:   common.ROOTBLOCK,
		Bitmap: make([]byte, common.BITMAPBYTES),
	}
	a := sb.Alloc()
	a.MarkUsed(common.SUPERBLK)
	a.MarkUsed(common.ROOTBLOCK)
	return sb
}

// Decode reads the superblock in blk without copying the bitmap.
func Decode(blk []byte) *Superblock {
	dec := marshal.NewDec(blk[:common.HDRSZ])
	sb := &Superblock{}
	sb.Magic = dec.GetInt()
	sb.Size = dec.GetInt()
	sb.Root = common.Bnum(dec.GetInt())
	sb.Bitmap = blk[common.HDRSZ:common.BlockSize]
	return sb
}

func (sb *Superblock) Encode() []byte {
	enc := marshal.NewEnc(common.HDRSZ)
	enc.PutInt(sb.Magic)
	enc.PutInt(sb.Size)
	enc.PutInt(uint64(sb.Root))
	blk := make([]byte, common.BlockSize)
	copy(blk, enc.Finish())
	copy(blk[common.HDRSZ:], sb.Bitmap)
	return blk
}

// Valid checks the magic number and that the geometry fits a disk of
// nblocks blocks.
func (sb *Superblock) Valid(nblocks uint64) bool {
	return sb.Magic == common.MAGIC &&
		sb.Size >= 2 && sb.Size <= nblocks && sb.Size <= common.MAXBLOCKS &&
		sb.Root > common.SUPERBLK && sb.Root < sb.Size
}

func (sb *Superblock) Alloc() *alloc.Alloc {
	return alloc.MkAlloc(sb.Bitmap, sb.Size)
}
