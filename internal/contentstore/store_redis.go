package contentstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	id "vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
)

const keyPrefix = "content:"

// RedisStore keeps blobs as plain string values. Content addressing makes
// writes idempotent, so Put uses SET NX and never overwrites.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Put(ctx context.Context, blob []byte) (id.ContentHash, error) {
	hash := HashOf(blob)
	if err := s.client.SetNX(ctx, keyPrefix+string(hash), blob, 0).Err(); err != nil {
		return "", fmt.Errorf("put blob: %w: %w", sentinel.ErrUnavailable, err)
	}
	return hash, nil
}

func (s *RedisStore) Get(ctx context.Context, hash id.ContentHash) ([]byte, error) {
	blob, err := s.client.Get(ctx, keyPrefix+string(hash)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get blob: %w: %w", sentinel.ErrUnavailable, err)
	}
	if HashOf(blob) != hash {
		return nil, fmt.Errorf("blob under %s does not match its hash", hash)
	}
	return blob, nil
}
