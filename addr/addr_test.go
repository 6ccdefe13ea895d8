package addr

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mit-pdos/gosfs/common"
)

func TestFlatid(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(uint64(0), Root.Flatid())
	a := MkAddr(7, 3)
	assert.Equal(7*common.DIRENTS+3, a.Flatid())
	assert.Equal(a, FromFlatid(a.Flatid()))
	assert.NotEqual(MkAddr(1, 0).Flatid(), MkAddr(0, 1).Flatid())
}

func TestRoot(t *testing.T) {
	assert.True(t, Root.IsRoot())
	assert.False(t, MkAddr(common.ROOTBLOCK, 0).IsRoot())
	assert.Equal(t, "(4,2)", MkAddr(4, 2).String())
}
