package disk

import (
	"encoding/binary"

	"github.com/golang/snappy"
	"github.com/pkg/errors"
)

// blockKey orders keys by block number.
func blockKey(a uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, a)
	return k
}

func compressBlock(b Block) []byte {
	return snappy.Encode(nil, b)
}

// decompressBlock decodes v into buf; a missing value reads as zeroes.
func decompressBlock(v []byte, buf Block) error {
	if v == nil {
		for i := range buf {
			buf[i] = 0
		}
		return nil
	}
	dec, err := snappy.Decode(nil, v)
	if err != nil {
		return errors.Wrap(err, "snappy decode")
	}
	if uint64(len(dec)) != BlockSize {
		return errors.Errorf("stored block has %d bytes", len(dec))
	}
	copy(buf, dec)
	return nil
}
