package redisdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arkade-os/assetreg/internal/core/domain"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const collectionKeyPrefix = "collection:"

type collectionRepository struct {
	rdb          *redis.Client
	collections  *KVStore[domain.Collection]
	numOfRetries int
	retryDelay   time.Duration
}

// NewCollectionRepository expects [*redis.Client, numOfRetries].
func NewCollectionRepository(config ...interface{}) (domain.CollectionRepository, error) {
	rdb, numOfRetries, err := parseConfig(config...)
	if err != nil {
		return nil, err
	}
	return &collectionRepository{
		rdb:          rdb,
		collections:  NewRedisKVStore[domain.Collection](rdb, collectionKeyPrefix),
		numOfRetries: numOfRetries,
		retryDelay:   10 * time.Millisecond,
	}, nil
}

func (r *collectionRepository) AddCollection(
	ctx context.Context, collection domain.Collection,
) error {
	id := collection.Address.String()
	key := r.collections.Key(id)

	var err error
	for range r.numOfRetries {
		err = r.rdb.Watch(ctx, func(tx *redis.Tx) error {
			exists, err := tx.Exists(ctx, key).Result()
			if err != nil {
				return fmt.Errorf("failed to check existence of collection: %v", err)
			}
			if exists > 0 {
				return domain.ErrRecordExists
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				return r.collections.SetPipe(ctx, pipe, id, &collection)
			})
			return err
		}, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
		time.Sleep(r.retryDelay)
	}
	return fmt.Errorf("failed to add collection after max number of retries: %w", err)
}

func (r *collectionRepository) GetCollection(
	ctx context.Context, address domain.Identity,
) (*domain.Collection, error) {
	collection, err := r.collections.Get(ctx, address.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}
	return collection, nil
}

func (r *collectionRepository) Close() {
	if err := r.rdb.Close(); err != nil {
		log.WithError(err).Warn("failed to close collection repository redis client")
	}
}

func parseConfig(config ...interface{}) (*redis.Client, int, error) {
	if len(config) != 2 {
		return nil, 0, fmt.Errorf("invalid config: expected 2 arguments, got %d", len(config))
	}
	rdb, ok := config[0].(*redis.Client)
	if !ok {
		return nil, 0, fmt.Errorf("invalid redis client: got %T", config[0])
	}
	numOfRetries, ok := config[1].(int)
	if !ok || numOfRetries <= 0 {
		return nil, 0, fmt.Errorf("invalid number of retries")
	}
	return rdb, numOfRetries, nil
}
