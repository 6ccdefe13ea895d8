package util

import (
	"bytes"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMin(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(uint64(2), Min(2, 3))
	assert.Equal(uint64(2), Min(3, 2))
	assert.Equal(uint64(2), Min(2, 2))
}

func TestRoundUp(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(uint64(4), RoundUp(10, 3))
	assert.Equal(uint64(3), RoundUp(9, 3), "exact division")
	assert.Equal(uint64(0), RoundUp(0, 3))
	assert.Equal(uint64(5), RoundUp(4096*4+4095, 4096))
	assert.Equal(uint64(5), RoundUp(4096*4+1, 4096), "round up by sz-1")
}

func TestSumOverflows(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(false, SumOverflows(1<<31, 1<<31))
	assert.Equal(false, SumOverflows(1<<64-2, 1))
	assert.Equal(false, SumOverflows(1, 1<<64-2))
	assert.Equal(false, SumOverflows(1<<32, 1<<32))

	assert.Equal(true, SumOverflows(1, 1<<64-1))
	assert.Equal(true, SumOverflows(1<<64-1, 1))
	assert.Equal(true, SumOverflows(2, 1<<64-1))
	assert.Equal(true, SumOverflows(1<<63, 1<<63))
}

// A write of n bytes at position pos is in range only when pos+n neither
// wraps nor passes the block size.
func TestWriteBound(t *testing.T) {
	assert := assert.New(t)
	const blockSize = 4096
	inRange := func(pos, n uint64) bool {
		return !SumOverflows(pos, n) && pos+n <= blockSize
	}
	assert.True(inRange(0, blockSize))
	assert.True(inRange(blockSize, 0))
	assert.True(inRange(11, blockSize-11))
	assert.False(inRange(11, blockSize))
	assert.False(inRange(blockSize, 1))
	assert.False(inRange(2, 1<<64-1), "wrapped sum is small but invalid")
}

func TestDPrintfLevel(t *testing.T) {
	assert := assert.New(t)
	var out bytes.Buffer
	log.SetOutput(&out)
	defer log.SetOutput(os.Stderr)
	old := Debug
	defer func() { Debug = old }()

	Debug = 1
	DPrintf(1, "mount %d\n", 7)
	DPrintf(2, "hidden %d\n", 8)
	assert.Contains(out.String(), "mount 7")
	assert.NotContains(out.String(), "hidden")
}
