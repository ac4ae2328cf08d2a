package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/arkade-os/assetreg/internal/core/domain"
	"github.com/dgraph-io/badger/v4"
	"github.com/go-co-op/gocron"
	"github.com/timshannon/badgerhold/v4"
)

const assetStoreDir = "assets"

type assetRepository struct {
	store *badgerhold.Store
	gc    *gocron.Scheduler
}

type assetDTO struct {
	Address    string
	Collection string `badgerhold:"index"`
	Owner      string `badgerhold:"index"`
	Name       string
	Uri        string
	Plugins    domain.PluginSet
	CreatedAt  int64
	UpdatedAt  int64
}

// NewAssetRepository expects [baseDir, badger.Logger] and optionally a value
// log GC interval. An empty baseDir opens an in-memory store.
func NewAssetRepository(config ...interface{}) (domain.AssetRepository, error) {
	baseDir, logger, gcInterval, err := parseConfig(config...)
	if err != nil {
		return nil, err
	}

	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, assetStoreDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open asset store: %s", err)
	}
	gc, err := startValueLogGC(store, assetStoreDir, gcInterval)
	if err != nil {
		// nolint:all
		store.Close()
		return nil, fmt.Errorf("failed to schedule asset store gc: %s", err)
	}

	return &assetRepository{store, gc}, nil
}

func (r *assetRepository) AddAsset(ctx context.Context, asset domain.Asset) error {
	dto := toAssetDTO(asset)
	err := withRetry(func() error {
		return r.store.Insert(dto.Address, dto)
	})
	if errors.Is(err, badgerhold.ErrKeyExists) {
		return domain.ErrRecordExists
	}
	return err
}

func (r *assetRepository) GetAsset(
	ctx context.Context, address domain.Identity,
) (*domain.Asset, error) {
	var dto assetDTO
	if err := r.store.Get(address.String(), &dto); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	asset := dto.toDomain()
	return &asset, nil
}

// UpdateAsset runs fn inside a single read-write badger transaction. On
// conflict the whole transaction, fn included, is retried against a fresh read.
func (r *assetRepository) UpdateAsset(
	ctx context.Context, address domain.Identity, fn func(asset *domain.Asset) error,
) (*domain.Asset, error) {
	var updated domain.Asset
	err := withRetry(func() error {
		return r.store.Badger().Update(func(tx *badger.Txn) error {
			var dto assetDTO
			if err := r.store.TxGet(tx, address.String(), &dto); err != nil {
				if errors.Is(err, badgerhold.ErrNotFound) {
					return domain.ErrRecordNotFound
				}
				return err
			}

			asset := dto.toDomain()
			if err := fn(&asset); err != nil {
				return err
			}
			if err := r.store.TxUpdate(tx, dto.Address, toAssetDTO(asset)); err != nil {
				return err
			}
			updated = asset
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *assetRepository) ListAssets(
	ctx context.Context, filter domain.AssetFilter,
) ([]domain.Asset, error) {
	var query *badgerhold.Query
	switch {
	case !filter.Collection.IsZero() && !filter.Owner.IsZero():
		query = badgerhold.Where("Collection").Eq(filter.Collection.String()).
			Index("Collection").And("Owner").Eq(filter.Owner.String())
	case !filter.Collection.IsZero():
		query = badgerhold.Where("Collection").Eq(filter.Collection.String()).Index("Collection")
	case !filter.Owner.IsZero():
		query = badgerhold.Where("Owner").Eq(filter.Owner.String()).Index("Owner")
	default:
		query = &badgerhold.Query{}
	}

	var dtos []assetDTO
	if err := r.store.Find(&dtos, query.SortBy("Address")); err != nil &&
		!errors.Is(err, badgerhold.ErrNotFound) {
		return nil, err
	}

	assets := make([]domain.Asset, 0, len(dtos))
	for _, dto := range dtos {
		assets = append(assets, dto.toDomain())
	}
	return assets, nil
}

func (r *assetRepository) Close() {
	if r.gc != nil {
		r.gc.Stop()
	}
	// nolint:all
	r.store.Close()
}

func toAssetDTO(asset domain.Asset) assetDTO {
	return assetDTO{
		Address:    asset.Address.String(),
		Collection: asset.Collection.String(),
		Owner:      asset.Owner.String(),
		Name:       asset.Name,
		Uri:        asset.Uri,
		Plugins:    asset.Plugins,
		CreatedAt:  asset.CreatedAt,
		UpdatedAt:  asset.UpdatedAt,
	}
}

func (d assetDTO) toDomain() domain.Asset {
	return domain.Asset{
		Address:    domain.Identity(d.Address),
		Collection: domain.Identity(d.Collection),
		Owner:      domain.Identity(d.Owner),
		Name:       d.Name,
		Uri:        d.Uri,
		Plugins:    d.Plugins,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}
