package sync

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShardedMutex_LockUnlock(t *testing.T) {
	m := NewShardedMutex(0)
	m.Lock("person-1")
	m.Unlock("person-1")
	m.Lock("")
	m.Unlock("")
	assert.Len(t, m.shards, defaultShards)
}

func TestShardedMutex_SameKeySerializes(t *testing.T) {
	m := NewShardedMutex(8)
	counter := 0
	var wg sync.WaitGroup
	for range 200 {
		wg.Go(func() {
			_ = m.Do("person-1", func() error {
				counter++
				return nil
			})
		})
	}
	wg.Wait()
	assert.Equal(t, 200, counter)
}

func TestShardedMutex_StableShard(t *testing.T) {
	m := NewShardedMutex(16)
	first := m.shardFor("08.3174.")
	for range 10 {
		assert.Equal(t, first, m.shardFor("08.3174."))
	}
	assert.Equal(t, 0, m.shardFor(""))
}

func TestShardedMutex_DoReturnsError(t *testing.T) {
	m := NewShardedMutex(4)
	boom := errors.New("boom")
	err := m.Do("k", func() error { return boom })
	require.ErrorIs(t, err, boom)

	// lock released after error
	m.Lock("k")
	m.Unlock("k")
}
