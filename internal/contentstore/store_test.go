package contentstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
)

func TestHashOfIsKeccak(t *testing.T) {
	// Keccak-256 of the empty string.
	assert.Equal(t,
		id.ContentHash("0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"),
		HashOf(nil))
}

func TestInMemoryStore_PutGet(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	blob := []byte(`{"name":"Ada"}`)

	hash, err := s.Put(ctx, blob)
	require.NoError(t, err)
	assert.Equal(t, HashOf(blob), hash)

	again, err := s.Put(ctx, blob)
	require.NoError(t, err)
	assert.Equal(t, hash, again, "content addressing is idempotent")

	got, err := s.Get(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, blob, got)

	got[0] = 'X'
	fresh, _ := s.Get(ctx, hash)
	assert.Equal(t, blob, fresh, "callers receive copies")
}

func TestInMemoryStore_GetUnknown(t *testing.T) {
	_, err := NewInMemoryStore().Get(context.Background(), "0xdeadbeef")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

type slowStore struct{}

func (slowStore) Put(ctx context.Context, _ []byte) (id.ContentHash, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func (slowStore) Get(ctx context.Context, _ id.ContentHash) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestWithTimeoutBoundsCalls(t *testing.T) {
	s := WithTimeout(slowStore{}, 10*time.Millisecond)

	_, err := s.Put(context.Background(), []byte("x"))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	_, err = s.Get(context.Background(), "0x01")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	inner := NewInMemoryStore()
	assert.Same(t, inner, WithTimeout(inner, 0))
}
