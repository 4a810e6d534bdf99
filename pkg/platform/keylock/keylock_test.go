package keylock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShardIsStable(t *testing.T) {
	l := New(16)
	key := "holder:0x52908400098527886E0F7030069857D2E4169EE7"
	assert.Equal(t, l.Shard(key), l.Shard(key))
	assert.Less(t, l.Shard(key), 16)
}

func TestDefaultShardCount(t *testing.T) {
	assert.Len(t, New(0).shards, DefaultShards)
}

func TestLockSerializesSameKey(t *testing.T) {
	l := New(DefaultShards)
	const workers = 64
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock("same-key")
			defer unlock()
			v := counter
			v++
			counter = v
		}()
	}
	wg.Wait()

	assert.Equal(t, workers, counter)
}
