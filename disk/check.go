package disk

import (
	"github.com/pkg/errors"
)

func checkAddr(a uint64, numBlocks uint64) error {
	if a >= numBlocks {
		return errors.Errorf("block %d out of range (disk has %d)", a, numBlocks)
	}
	return nil
}

func checkBlock(b Block) error {
	if uint64(len(b)) != BlockSize {
		return errors.Errorf("buffer is %d bytes, not a block", len(b))
	}
	return nil
}
