package common

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIOError(t *testing.T) {
	assert := assert.New(t)
	assert.Nil(IOError(nil, "read %d", 3))

	err := IOError(io.ErrUnexpectedEOF, "read block %d", 3)
	assert.True(errors.Is(err, ErrUnspecified))
	assert.True(errors.Is(err, io.ErrUnexpectedEOF), "cause should be kept")
	assert.False(errors.Is(err, ErrNotFound))
	assert.Contains(err.Error(), "read block 3")
}

func TestGeometry(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(uint64(16), DIRENTS)
	assert.Equal(uint64(0), BlockSize%DIRENTSZ, "entries should tile a block")
	assert.Equal(BITMAPBYTES*8, MAXBLOCKS)
}

func TestNotEmptyIsUnspecified(t *testing.T) {
	assert := assert.New(t)
	assert.True(errors.Is(ErrNotEmpty, ErrNotEmpty))
	assert.True(errors.Is(ErrNotEmpty, ErrUnspecified))
	assert.False(errors.Is(ErrUnspecified, ErrNotEmpty))
	assert.False(errors.Is(ErrNotEmpty, ErrInvalid))

	wrapped := fmt.Errorf("delete /x: %w", ErrNotEmpty)
	assert.True(errors.Is(wrapped, ErrNotEmpty))
	assert.True(errors.Is(wrapped, ErrUnspecified))
}
