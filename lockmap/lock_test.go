package lockmap

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mit-pdos/gosfs/addr"
)

func TestAcquireRelease(t *testing.T) {
	assert := assert.New(t)
	l := MkLockMap()
	a := addr.MkAddr(1, 7)
	// same flat id modulo NSHARD, so same shard
	b := addr.FromFlatid(a.Flatid() + NSHARD)
	l.Acquire(a)
	assert.True(l.Held(a))
	assert.False(l.Held(b), "same shard, different lock")
	l.Acquire(b)
	assert.Equal(2, l.Len())
	l.Release(a)
	assert.False(l.Held(a))
	l.Release(b)
	assert.Equal(0, l.Len())
	assert.Panics(func() { l.Release(a) })
}

func TestRootLock(t *testing.T) {
	l := MkLockMap()
	l.Acquire(addr.Root)
	assert.True(t, l.Held(addr.Root))
	l.Release(addr.Root)
}

func TestMutualExclusion(t *testing.T) {
	l := MkLockMap()
	a := addr.MkAddr(3, 2)
	var wg sync.WaitGroup
	counter := 0
	const n = 100
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			l.Acquire(a)
			counter++
			l.Release(a)
			wg.Done()
		}()
	}
	wg.Wait()
	assert.Equal(t, n, counter)
	assert.False(t, l.Held(a))
	assert.Equal(t, 0, l.Len())
}
