package blob

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each object as a Redis value under a bucket prefix,
// mirroring the remote-bucket layout: one value per object name, existence
// checked before load.
type RedisStore struct {
	client *redis.Client
	bucket string
}

func NewRedisStore(client *redis.Client, bucket string) *RedisStore {
	return &RedisStore{
		client: client,
		bucket: bucket,
	}
}

func (s *RedisStore) Exists(ctx context.Context, name string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(name)).Result()
	if err != nil {
		return false, fmt.Errorf("redis.Exists: %w", err)
	}

	return n > 0, nil
}

func (s *RedisStore) Load(ctx context.Context, name string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("redis.Get: %w", err)
	}

	return data, nil
}

func (s *RedisStore) Save(ctx context.Context, name string, data []byte) error {
	if err := s.client.Set(ctx, s.key(name), data, 0).Err(); err != nil {
		return fmt.Errorf("redis.Set: %w", err)
	}

	return nil
}

func (s *RedisStore) key(name string) string {
	return s.bucket + "/" + name
}
