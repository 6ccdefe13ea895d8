package alloc

import (
	"fmt"

	"github.com/mit-pdos/gosfs/util"
)

// Alloc uses a bit map to allocate and free block numbers. Bit i corresponds
// to block i; block 0 is always in use, so 0 doubles as "no block".
//
// The bitmap is borrowed, typically from the pinned superblock buffer, and
// the caller is responsible for marking it dirty after AllocNum, FreeNum or
// MarkUsed.
type Alloc struct {
	bitmap []byte
	nbits  uint64
}

func MkAlloc(bitmap []byte, nbits uint64) *Alloc {
	if nbits > uint64(len(bitmap))*8 {
		panic(fmt.Sprintf("MkAlloc: %d bits in %d bytes", nbits, len(bitmap)))
	}
	a := &Alloc{
		bitmap: bitmap,
		nbits:  nbits,
	}
	return a
}

func (a *Alloc) Len() uint64 {
	return a.nbits
}

func (a *Alloc) IsSet(n uint64) bool {
	return a.bitmap[n/8]&(1<<(n%8)) != 0
}

func (a *Alloc) setBit(n uint64) {
	a.bitmap[n/8] = a.bitmap[n/8] | (1 << (n % 8))
}

func (a *Alloc) clearBit(n uint64) {
	a.bitmap[n/8] = a.bitmap[n/8] & ^(1 << (n % 8))
}

// FindFirstFree returns the lowest clear bit.
func (a *Alloc) FindFirstFree() (uint64, bool) {
	for byt := uint64(0); byt*8 < a.nbits; byt++ {
		if a.bitmap[byt] == 0xff {
			continue
		}
		for bit := uint64(0); bit < 8; bit++ {
			n := byt*8 + bit
			if n >= a.nbits {
				return 0, false
			}
			if a.bitmap[byt]&(1<<bit) == 0 {
				return n, true
			}
		}
	}
	return 0, false
}

// AllocNum marks the first free number used and returns it, or 0 when the
// bitmap is full.
func (a *Alloc) AllocNum() uint64 {
	n, ok := a.FindFirstFree()
	if !ok {
		util.DPrintf(1, "AllocNum: bitmap full\n")
		return 0
	}
	a.setBit(n)
	util.DPrintf(10, "AllocNum: %d\n", n)
	return n
}

func (a *Alloc) MarkUsed(n uint64) {
	if n >= a.nbits {
		panic("MarkUsed")
	}
	a.setBit(n)
}

func (a *Alloc) FreeNum(n uint64) {
	if n == 0 || n >= a.nbits {
		panic("FreeNum")
	}
	a.clearBit(n)
	util.DPrintf(10, "FreeNum: %d\n", n)
}

func popCnt(b byte) uint64 {
	var count uint64
	var x = b
	for i := uint64(0); i < 8; i++ {
		count += uint64(x & 1)
		x = x >> 1
	}
	return count
}

// NumFree returns the number of free bits.
func (a *Alloc) NumFree() uint64 {
	var used uint64
	for n := uint64(0); n < a.nbits; n += 8 {
		b := a.bitmap[n/8]
		if a.nbits-n < 8 {
			b = b & (1<<(a.nbits-n) - 1)
		}
		used += popCnt(b)
	}
	return a.nbits - used
}
