// Package disk provides the block devices a GOSFS volume lives on.
//
// Every device stores fixed-size blocks of BlockSize bytes addressed by block
// number. Besides a plain file and memory, blocks can be kept in a bbolt or
// badger database, where they are stored snappy-compressed.
package disk

import (
	goosedisk "github.com/tchajed/goose/machine/disk"
)

// Block is a BlockSize-byte buffer
type Block = []byte

const BlockSize uint64 = goosedisk.BlockSize

// Disk provides access to a logical block-based disk
type Disk interface {
	// Read reads a disk block by address
	//
	// Expects a < Size().
	Read(a uint64) (Block, error)

	// ReadTo reads the disk block at a and stores the result in b
	//
	// Expects a < Size().
	ReadTo(a uint64, b Block) error

	// Write updates a disk block by address
	//
	// Expects a < Size().
	Write(a uint64, v Block) error

	// Size reports how big the disk is, in blocks
	Size() (uint64, error)

	// Barrier ensures data is persisted.
	//
	// When it returns, all outstanding writes are guaranteed to be durably on
	// disk
	Barrier() error

	// Close releases any resources used by the disk and makes it unusable.
	Close() error
}
