package buf

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mit-pdos/gosfs/common"
)

func TestDirty(t *testing.T) {
	assert := assert.New(t)
	b := MkBuf(3, make([]byte, common.BlockSize))
	assert.False(b.IsDirty())
	b.SetDirty()
	assert.True(b.IsDirty())
	b.ClearDirty()
	assert.False(b.IsDirty())
	assert.Equal("buf 3 pins 0 dirty false", b.String())
}

func TestPins(t *testing.T) {
	assert := assert.New(t)
	b := MkBuf(1, make([]byte, common.BlockSize))
	assert.False(b.IsPinned())
	b.Pin()
	b.Pin()
	assert.Equal(uint64(1), b.Unpin())
	assert.True(b.IsPinned())
	assert.Equal(uint64(0), b.Unpin())
	assert.Panics(func() { b.Unpin() }, "unpin below zero")
}

func TestZero(t *testing.T) {
	b := MkBuf(1, []byte{1, 2, 3})
	b.ClearDirty()
	b.Zero()
	assert.Equal(t, []byte{0, 0, 0}, b.Data)
	assert.True(t, b.IsDirty())
}
