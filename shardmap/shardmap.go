// Package shardmap is a sharded map from block numbers to cached buffers.
package shardmap

import (
	"sort"
	"sync"

	"github.com/mit-pdos/gosfs/buf"
	"github.com/mit-pdos/gosfs/common"
)

type mapShard struct {
	mu    *sync.RWMutex
	state map[common.Bnum]*buf.Buf
}

type BufMap struct {
	shards []*mapShard
}

const NSHARD uint64 = 43

func mkMapShard() *mapShard {
	state := make(map[common.Bnum]*buf.Buf)
	mu := new(sync.RWMutex)
	a := &mapShard{
		mu:    mu,
		state: state,
	}
	return a
}

func MkBufMap() *BufMap {
	var shards []*mapShard
	for i := uint64(0); i < NSHARD; i++ {
		shards = append(shards, mkMapShard())
	}
	a := &BufMap{
		shards: shards,
	}
	return a
}

func (bmap *BufMap) getShard(bn common.Bnum) *mapShard {
	return bmap.shards[bn%NSHARD]
}

func (bmap *BufMap) Lookup(bn common.Bnum) (*buf.Buf, bool) {
	shard := bmap.getShard(bn)
	shard.mu.RLock()
	b, ok := shard.state[bn]
	shard.mu.RUnlock()
	return b, ok
}

func (bmap *BufMap) Insert(b *buf.Buf) {
	shard := bmap.getShard(b.Blkno)
	shard.mu.Lock()
	shard.state[b.Blkno] = b
	shard.mu.Unlock()
}

func (bmap *BufMap) Del(bn common.Bnum) {
	shard := bmap.getShard(bn)
	shard.mu.Lock()
	delete(shard.state, bn)
	shard.mu.Unlock()
}

func (bmap *BufMap) Len() uint64 {
	var n uint64
	for _, shard := range bmap.shards {
		shard.mu.RLock()
		n += uint64(len(shard.state))
		shard.mu.RUnlock()
	}
	return n
}

// Bufs returns all buffers ordered by block number.
func (bmap *BufMap) Bufs() []*buf.Buf {
	bufs := make([]*buf.Buf, 0)
	for _, shard := range bmap.shards {
		shard.mu.RLock()
		for _, b := range shard.state {
			bufs = append(bufs, b)
		}
		shard.mu.RUnlock()
	}
	sort.Slice(bufs, func(i, j int) bool { return bufs[i].Blkno < bufs[j].Blkno })
	return bufs
}
