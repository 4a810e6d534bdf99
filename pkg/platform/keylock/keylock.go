// Package keylock serializes work per key using a fixed set of sharded
// mutexes. Keys hashing to the same shard share a lock, which bounds memory
// regardless of how many distinct keys are seen.
package keylock

import "sync"

// DefaultShards spreads holders across enough locks that unrelated holders
// rarely contend.
const DefaultShards = 128

// Locker hands out per-key critical sections.
type Locker struct {
	shards []sync.Mutex
}

// New creates a Locker with n shards. n <= 0 selects DefaultShards.
func New(n int) *Locker {
	if n <= 0 {
		n = DefaultShards
	}
	return &Locker{shards: make([]sync.Mutex, n)}
}

// Lock acquires the shard guarding key and returns its unlock function.
func (l *Locker) Lock(key string) (unlock func()) {
	m := &l.shards[l.Shard(key)]
	m.Lock()
	return m.Unlock
}

// Shard returns the shard index for key.
func (l *Locker) Shard(key string) int {
	return int(fnv1a(key) % uint32(len(l.shards)))
}

// fnv1a spreads keys better than a multiply-add hash for short hex strings.
func fnv1a(s string) uint32 {
	const (
		offset = 2166136261
		prime  = 16777619
	)
	h := uint32(offset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime
	}
	return h
}
