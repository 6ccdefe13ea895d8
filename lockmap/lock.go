// Package lockmap gives every directory entry its own lock.
//
// The API is as if LockMap held a lock for every possible addr.Addr.
// Acquire(a) blocks until the lock for the entry at a is free and takes it;
// Release(a) gives it back. GOSFS takes these locks for open-file I/O.
//
// Locks only exist while held or waited for. They live in a fixed number of
// shards, an entry's shard chosen by its flat id, so lockers of unrelated
// entries rarely contend on a shard mutex.
package lockmap

import (
	"sync"

	"github.com/mit-pdos/gosfs/addr"
)

type entryLock struct {
	held    bool
	cond    *sync.Cond
	waiters uint64
}

type shard struct {
	mu    *sync.Mutex
	locks map[addr.Addr]*entryLock
}

func mkShard() *shard {
	return &shard{
		mu:    new(sync.Mutex),
		locks: make(map[addr.Addr]*entryLock),
	}
}

func (s *shard) acquire(a addr.Addr) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[a]
	if !ok {
		l = &entryLock{cond: sync.NewCond(s.mu)}
		s.locks[a] = l
	}
	for l.held {
		l.waiters += 1
		l.cond.Wait()
		l.waiters -= 1
	}
	l.held = true
}

func (s *shard) release(a addr.Addr) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[a]
	if !ok || !l.held {
		panic("release of unheld lock " + a.String())
	}
	l.held = false
	if l.waiters > 0 {
		l.cond.Signal()
		return
	}
	delete(s.locks, a)
}

func (s *shard) isHeld(a addr.Addr) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[a]
	return ok && l.held
}

func (s *shard) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locks)
}

const NSHARD uint64 = 43

type LockMap struct {
	shards [NSHARD]*shard
}

func MkLockMap() *LockMap {
	lmap := &LockMap{}
	for i := range lmap.shards {
		lmap.shards[i] = mkShard()
	}
	return lmap
}

func (lmap *LockMap) shard(a addr.Addr) *shard {
	return lmap.shards[a.Flatid()%NSHARD]
}

func (lmap *LockMap) Acquire(a addr.Addr) {
	lmap.shard(a).acquire(a)
}

func (lmap *LockMap) Release(a addr.Addr) {
	lmap.shard(a).release(a)
}

func (lmap *LockMap) Held(a addr.Addr) bool {
	return lmap.shard(a).isHeld(a)
}

// Len is the number of locks currently held or waited for.
func (lmap *LockMap) Len() int {
	n := 0
	for _, s := range lmap.shards {
		n += s.size()
	}
	return n
}
