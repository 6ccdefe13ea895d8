package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func mkMaxAlloc(max uint64) *Alloc {
	a := MkAlloc(make([]byte, (max+7)/8), max)
	a.MarkUsed(0)
	return a
}

func TestPopCnt(t *testing.T) {
	assert.Equal(t, uint64(0), popCnt(0))
	assert.Equal(t, uint64(1), popCnt(1))
	assert.Equal(t, uint64(1), popCnt(2))
	assert.Equal(t, uint64(2), popCnt(3))
	assert.Equal(t, uint64(8), popCnt(255))
}

func TestAlloc(t *testing.T) {
	assert := assert.New(t)
	max := uint64(32)
	a := mkMaxAlloc(max)

	assert.Equal(max-1, a.NumFree(), "everything (but 0) should be initially free")

	n := a.AllocNum()
	assert.NotEqual(uint64(0), n, "should not allocate 0")
	assert.Equal(uint64(1), n, "first fit")

	a.MarkUsed(n + 1)
	n2 := a.AllocNum()
	assert.NotEqual(n+1, n2, "should not allocate something marked used")

	assert.Equal(max-4, a.NumFree(), "should have used 4 items")

	a.FreeNum(n)
	a.FreeNum(n2)
	assert.Equal(max-2, a.NumFree(), "should have freed")
	assert.Equal(n, a.AllocNum(), "freed number is reused first")
}

func TestAllocFull(t *testing.T) {
	assert := assert.New(t)
	a := mkMaxAlloc(11)
	for i := 1; i < 11; i++ {
		assert.NotEqual(uint64(0), a.AllocNum())
	}
	assert.Equal(uint64(0), a.NumFree())
	assert.Equal(uint64(0), a.AllocNum(), "full bitmap")
	_, ok := a.FindFirstFree()
	assert.False(ok)
}

func TestBitsBeyondLenIgnored(t *testing.T) {
	bitmap := []byte{0x01, 0xf0}
	a := MkAlloc(bitmap, 12)
	assert.Equal(t, uint64(11), a.NumFree(), "bits 12..15 are outside the bitmap")
	assert.True(t, a.IsSet(0))
	assert.False(t, a.IsSet(11))
}

func TestFreeZeroPanics(t *testing.T) {
	a := mkMaxAlloc(8)
	assert.Panics(t, func() { a.FreeNum(0) })
}
