// Package contentstore is the client side of the content-addressed blob store
// that holds identity profiles and endorsement messages.
package contentstore

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/ethereum/go-ethereum/crypto"

	id "vouch/pkg/domain"
)

// Store puts and gets opaque blobs by content hash.
type Store interface {
	Put(ctx context.Context, blob []byte) (id.ContentHash, error)
	// Get returns sentinel.ErrNotFound for unknown hashes.
	Get(ctx context.Context, hash id.ContentHash) ([]byte, error)
}

// HashOf returns the content address of blob: 0x-prefixed Keccak-256 hex.
func HashOf(blob []byte) id.ContentHash {
	return id.ContentHash("0x" + hex.EncodeToString(crypto.Keccak256(blob)))
}

// timeoutStore bounds every call with a deadline.
type timeoutStore struct {
	next    Store
	timeout time.Duration
}

// WithTimeout wraps s so each call runs under its own deadline. A zero
// timeout returns s unchanged.
func WithTimeout(s Store, timeout time.Duration) Store {
	if timeout <= 0 {
		return s
	}
	return &timeoutStore{next: s, timeout: timeout}
}

func (t *timeoutStore) Put(ctx context.Context, blob []byte) (id.ContentHash, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Put(ctx, blob)
}

func (t *timeoutStore) Get(ctx context.Context, hash id.ContentHash) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Get(ctx, hash)
}
