package common

import (
	"github.com/tchajed/goose/machine/disk"
)

// On-disk geometry of a GOSFS volume.
const (
	BlockSize uint64 = disk.BlockSize

	MAGIC uint64 = 0x60F5B10C

	// superblock header: magic, size, root pointer
	HDRSZ       uint64 = 3 * 8
	BITMAPBYTES uint64 = BlockSize - HDRSZ
	MAXBLOCKS   uint64 = BITMAPBYTES * 8

	DIRENTSZ    uint64 = 256
	DIRENTS     uint64 = BlockSize / DIRENTSZ
	FILENAMEMAX uint64 = 127
	NBLOCKPTRS  uint64 = 10
	NACL        uint64 = 8

	// first slot available to children; 0 is "." and 1 is ".."
	FIRSTSLOT uint64 = 2
)

// Directory entry flags.
const (
	FlagUsed   uint32 = 0x1
	FlagDir    uint32 = 0x2
	FlagSetuid uint32 = 0x4
)

type Bnum = uint64

const (
	NULLBNUM  Bnum = 0
	SUPERBLK  Bnum = 0
	ROOTBLOCK Bnum = 1
)
