package disk

import (
	goosedisk "github.com/tchajed/goose/machine/disk"
)

// memDisk keeps blocks in a goose in-memory disk.
type memDisk struct {
	mem       goosedisk.MemDisk
	numBlocks uint64
}

var _ Disk = (*memDisk)(nil)

func NewMemDisk(numBlocks uint64) Disk {
	return &memDisk{
		mem:       goosedisk.NewMemDisk(numBlocks),
		numBlocks: numBlocks,
	}
}

func (d *memDisk) ReadTo(a uint64, buf Block) error {
	if err := checkBlock(buf); err != nil {
		return err
	}
	if err := checkAddr(a, d.numBlocks); err != nil {
		return err
	}
	copy(buf, d.mem.Read(a))
	return nil
}

func (d *memDisk) Read(a uint64) (Block, error) {
	buf := make(Block, BlockSize)
	err := d.ReadTo(a, buf)
	return buf, err
}

func (d *memDisk) Write(a uint64, v Block) error {
	if err := checkBlock(v); err != nil {
		return err
	}
	if err := checkAddr(a, d.numBlocks); err != nil {
		return err
	}
	d.mem.Write(a, v)
	return nil
}

func (d *memDisk) Size() (uint64, error) {
	// this never changes so we assume it's safe to run lock-free
	return d.numBlocks, nil
}

func (d *memDisk) Barrier() error { return nil }

func (d *memDisk) Close() error { return nil }
