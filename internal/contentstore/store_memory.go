package contentstore

import (
	"context"
	"sync"

	id "vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
)

// InMemoryStore keeps blobs in a map. Blobs are copied in and out.
type InMemoryStore struct {
	mu    sync.RWMutex
	blobs map[id.ContentHash][]byte
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{blobs: make(map[id.ContentHash][]byte)}
}

func (s *InMemoryStore) Put(ctx context.Context, blob []byte) (id.ContentHash, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	hash := HashOf(blob)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[hash]; !ok {
		s.blobs[hash] = append([]byte(nil), blob...)
	}
	return hash, nil
}

func (s *InMemoryStore) Get(ctx context.Context, hash id.ContentHash) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.blobs[hash]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return append([]byte(nil), blob...), nil
}
