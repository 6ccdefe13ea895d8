// Package bcache is a write-back cache of disk blocks.
//
// Get pins a block in memory, reading it from the disk on a miss; every Get
// must be matched by a Release. Modify marks a pinned block dirty, and Sync
// writes all dirty blocks back and issues a disk barrier. Clean, unpinned
// blocks are evicted once the cache holds more than its capacity; dirty blocks
// stay until the next Sync.
package bcache

import (
	"sync"

	"github.com/mit-pdos/gosfs/buf"
	"github.com/mit-pdos/gosfs/common"
	"github.com/mit-pdos/gosfs/disk"
	"github.com/mit-pdos/gosfs/shardmap"
	"github.com/mit-pdos/gosfs/util"
)

type Cache struct {
	mu      *sync.Mutex // protects pins, dirty bits and membership
	d       disk.Disk
	nblocks uint64
	max     uint64
	bufs    *shardmap.BufMap
}

// MkCache caches blocks [0, nblocks) of d, keeping up to max blocks resident
// when they are not in use.
func MkCache(d disk.Disk, nblocks uint64, max uint64) *Cache {
	c := &Cache{
		mu:      new(sync.Mutex),
		d:       d,
		nblocks: nblocks,
		max:     max,
		bufs:    shardmap.MkBufMap(),
	}
	return c
}

// Get returns the pinned buffer for block bn.
func (c *Cache) Get(bn common.Bnum) (*buf.Buf, error) {
	if bn >= c.nblocks {
		return nil, common.IOError(common.ErrInvalid, "get block %d of %d", bn, c.nblocks)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.bufs.Lookup(bn)
	if ok {
		b.Pin()
		util.DPrintf(5, "bcache.Get: hit %v\n", b)
		return b, nil
	}
	data, err := c.d.Read(bn)
	if err != nil {
		return nil, common.IOError(err, "read block %d", bn)
	}
	b = buf.MkBuf(bn, data)
	b.Pin()
	c.bufs.Insert(b)
	util.DPrintf(5, "bcache.Get: miss %v\n", b)
	c.evict()
	return b, nil
}

// Release gives back a buffer obtained from Get.
func (c *Cache) Release(b *buf.Buf) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b.Unpin() == 0 {
		c.evict()
	}
}

// Modify marks a pinned buffer dirty.
func (c *Cache) Modify(b *buf.Buf) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !b.IsPinned() {
		panic("Modify of unpinned buffer")
	}
	b.SetDirty()
}

// evict drops clean unpinned buffers while over capacity. Assumes c.mu is
// held.
func (c *Cache) evict() {
	if c.bufs.Len() <= c.max {
		return
	}
	for _, b := range c.bufs.Bufs() {
		if c.bufs.Len() <= c.max {
			break
		}
		if !b.IsPinned() && !b.IsDirty() {
			util.DPrintf(5, "bcache.evict: %v\n", b)
			c.bufs.Del(b.Blkno)
		}
	}
}

// Sync writes every dirty buffer to the disk, then issues a barrier.
func (c *Cache) Sync() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, b := range c.bufs.Bufs() {
		if !b.IsDirty() {
			continue
		}
		if err := c.d.Write(b.Blkno, b.Data); err != nil {
			return common.IOError(err, "write block %d", b.Blkno)
		}
		b.ClearDirty()
		n++
	}
	util.DPrintf(3, "bcache.Sync: wrote %d blocks\n", n)
	err := c.d.Barrier()
	if err == nil {
		c.evict()
	}
	return common.IOError(err, "barrier")
}

func (c *Cache) NumDirty() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := uint64(0)
	for _, b := range c.bufs.Bufs() {
		if b.IsDirty() {
			n += 1
		}
	}
	return n
}

func (c *Cache) NumPinned() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := uint64(0)
	for _, b := range c.bufs.Bufs() {
		if b.IsPinned() {
			n += 1
		}
	}
	return n
}

// Close syncs and drops every buffer. Buffers still pinned are a leak in the
// caller and make Close fail.
func (c *Cache) Close() error {
	if err := c.Sync(); err != nil {
		return err
	}
	if n := c.NumPinned(); n > 0 {
		return common.IOError(common.ErrInvalid, "close with %d pinned buffers", n)
	}
	c.mu.Lock()
	c.bufs = shardmap.MkBufMap()
	c.mu.Unlock()
	return nil
}
