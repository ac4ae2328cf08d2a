package redisdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// KVStore stores JSON encoded values of type T under prefix+id.
type KVStore[T any] struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisKVStore[T any](rdb *redis.Client, prefix string) *KVStore[T] {
	return &KVStore[T]{rdb: rdb, prefix: prefix}
}

func (s *KVStore[T]) Key(id string) string {
	return s.prefix + id
}

// Get returns nil, nil if the key does not exist.
func (s *KVStore[T]) Get(ctx context.Context, id string) (*T, error) {
	return s.GetWith(ctx, s.rdb, id)
}

// GetWith reads through the given client, ie. a transaction that WATCHes the key.
func (s *KVStore[T]) GetWith(ctx context.Context, c redis.Cmdable, id string) (*T, error) {
	buf, err := c.Get(ctx, s.Key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var value T
	if err := json.Unmarshal(buf, &value); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", s.Key(id), err)
	}
	return &value, nil
}

// GetMulti returns the values in the same order as ids, nil for missing ones.
func (s *KVStore[T]) GetMulti(ctx context.Context, ids []string) ([]*T, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, s.Key(id))
	}
	values, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	result := make([]*T, 0, len(values))
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			result = append(result, nil)
			continue
		}
		var value T
		if err := json.Unmarshal([]byte(str), &value); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", keys[i], err)
		}
		result = append(result, &value)
	}
	return result, nil
}

func (s *KVStore[T]) SetPipe(
	ctx context.Context, pipe redis.Pipeliner, id string, value *T,
) error {
	buf, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", s.Key(id), err)
	}
	pipe.Set(ctx, s.Key(id), buf, 0)
	return nil
}
