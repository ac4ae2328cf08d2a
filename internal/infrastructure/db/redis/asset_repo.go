package redisdb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/arkade-os/assetreg/internal/core/domain"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	assetKeyPrefix           = "asset:"
	assetIdsKey              = "asset:ids"
	collectionAssetKeyPrefix = "collection_assets:"
	ownerAssetKeyPrefix      = "owner_assets:"
)

type assetRepository struct {
	rdb          *redis.Client
	assets       *KVStore[domain.Asset]
	numOfRetries int
	retryDelay   time.Duration
}

// NewAssetRepository expects [*redis.Client, numOfRetries].
func NewAssetRepository(config ...interface{}) (domain.AssetRepository, error) {
	rdb, numOfRetries, err := parseConfig(config...)
	if err != nil {
		return nil, err
	}
	return &assetRepository{
		rdb:          rdb,
		assets:       NewRedisKVStore[domain.Asset](rdb, assetKeyPrefix),
		numOfRetries: numOfRetries,
		retryDelay:   10 * time.Millisecond,
	}, nil
}

func (r *assetRepository) AddAsset(ctx context.Context, asset domain.Asset) error {
	id := asset.Address.String()
	key := r.assets.Key(id)

	var err error
	for range r.numOfRetries {
		err = r.rdb.Watch(ctx, func(tx *redis.Tx) error {
			exists, err := tx.Exists(ctx, key).Result()
			if err != nil {
				return fmt.Errorf("failed to check existence of asset: %v", err)
			}
			if exists > 0 {
				return domain.ErrRecordExists
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				if err := r.assets.SetPipe(ctx, pipe, id, &asset); err != nil {
					return err
				}
				pipe.SAdd(ctx, assetIdsKey, id)
				pipe.SAdd(ctx, collectionAssetsKey(asset.Collection), id)
				pipe.SAdd(ctx, ownerAssetsKey(asset.Owner), id)
				return nil
			})
			return err
		}, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
		time.Sleep(r.retryDelay)
	}
	return fmt.Errorf("failed to add asset after max number of retries: %w", err)
}

func (r *assetRepository) GetAsset(
	ctx context.Context, address domain.Identity,
) (*domain.Asset, error) {
	asset, err := r.assets.Get(ctx, address.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}
	return asset, nil
}

// UpdateAsset WATCHes the asset key so that a concurrent write aborts the
// transaction, which is then retried against a fresh read.
func (r *assetRepository) UpdateAsset(
	ctx context.Context, address domain.Identity, fn func(asset *domain.Asset) error,
) (*domain.Asset, error) {
	id := address.String()
	key := r.assets.Key(id)

	var (
		updated *domain.Asset
		err     error
	)
	for range r.numOfRetries {
		err = r.rdb.Watch(ctx, func(tx *redis.Tx) error {
			asset, err := r.assets.GetWith(ctx, tx, id)
			if err != nil {
				return fmt.Errorf("failed to get asset: %w", err)
			}
			if asset == nil {
				return domain.ErrRecordNotFound
			}
			prevOwner := asset.Owner

			if err := fn(asset); err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				if err := r.assets.SetPipe(ctx, pipe, id, asset); err != nil {
					return err
				}
				if asset.Owner != prevOwner {
					pipe.SRem(ctx, ownerAssetsKey(prevOwner), id)
					pipe.SAdd(ctx, ownerAssetsKey(asset.Owner), id)
				}
				return nil
			})
			if err == nil {
				updated = asset
			}
			return err
		}, key)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
		time.Sleep(r.retryDelay)
	}
	if err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return nil, fmt.Errorf("failed to update asset after max number of retries: %w", err)
		}
		return nil, err
	}
	return updated, nil
}

func (r *assetRepository) ListAssets(
	ctx context.Context, filter domain.AssetFilter,
) ([]domain.Asset, error) {
	var cmd *redis.StringSliceCmd
	switch {
	case !filter.Collection.IsZero() && !filter.Owner.IsZero():
		cmd = r.rdb.SInter(
			ctx, collectionAssetsKey(filter.Collection), ownerAssetsKey(filter.Owner),
		)
	case !filter.Collection.IsZero():
		cmd = r.rdb.SMembers(ctx, collectionAssetsKey(filter.Collection))
	case !filter.Owner.IsZero():
		cmd = r.rdb.SMembers(ctx, ownerAssetsKey(filter.Owner))
	default:
		cmd = r.rdb.SMembers(ctx, assetIdsKey)
	}
	ids, err := cmd.Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get asset ids: %w", err)
	}
	sort.Strings(ids)

	values, err := r.assets.GetMulti(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get assets: %w", err)
	}
	assets := make([]domain.Asset, 0, len(values))
	for _, asset := range values {
		// Index sets are updated in the same MULTI as the record, so a
		// missing value means a stale id and is skipped.
		if asset == nil || !filter.Match(*asset) {
			continue
		}
		assets = append(assets, *asset)
	}
	return assets, nil
}

func (r *assetRepository) Close() {
	if err := r.rdb.Close(); err != nil {
		log.WithError(err).Warn("failed to close asset repository redis client")
	}
}

func collectionAssetsKey(collection domain.Identity) string {
	return collectionAssetKeyPrefix + collection.String()
}

func ownerAssetsKey(owner domain.Identity) string {
	return ownerAssetKeyPrefix + owner.String()
}
