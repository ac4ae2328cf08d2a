package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/arkade-os/assetreg/internal/core/domain"
	"github.com/go-co-op/gocron"
	"github.com/timshannon/badgerhold/v4"
)

const collectionStoreDir = "collections"

type collectionRepository struct {
	store *badgerhold.Store
	gc    *gocron.Scheduler
}

type collectionDTO struct {
	Address         string
	Name            string
	Uri             string
	UpdateAuthority string
	Plugins         domain.PluginSet
	CreatedAt       int64
}

// NewCollectionRepository expects [baseDir, badger.Logger] and optionally a
// value log GC interval. An empty baseDir opens an in-memory store.
func NewCollectionRepository(config ...interface{}) (domain.CollectionRepository, error) {
	baseDir, logger, gcInterval, err := parseConfig(config...)
	if err != nil {
		return nil, err
	}

	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, collectionStoreDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection store: %s", err)
	}
	gc, err := startValueLogGC(store, collectionStoreDir, gcInterval)
	if err != nil {
		// nolint:all
		store.Close()
		return nil, fmt.Errorf("failed to schedule collection store gc: %s", err)
	}

	return &collectionRepository{store, gc}, nil
}

func (r *collectionRepository) AddCollection(
	ctx context.Context, collection domain.Collection,
) error {
	dto := toCollectionDTO(collection)
	err := withRetry(func() error {
		return r.store.Insert(dto.Address, dto)
	})
	if errors.Is(err, badgerhold.ErrKeyExists) {
		return domain.ErrRecordExists
	}
	return err
}

func (r *collectionRepository) GetCollection(
	ctx context.Context, address domain.Identity,
) (*domain.Collection, error) {
	var dto collectionDTO
	if err := r.store.Get(address.String(), &dto); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	collection := dto.toDomain()
	return &collection, nil
}

func (r *collectionRepository) Close() {
	if r.gc != nil {
		r.gc.Stop()
	}
	// nolint:all
	r.store.Close()
}

func toCollectionDTO(collection domain.Collection) collectionDTO {
	return collectionDTO{
		Address:         collection.Address.String(),
		Name:            collection.Name,
		Uri:             collection.Uri,
		UpdateAuthority: collection.UpdateAuthority.String(),
		Plugins:         collection.Plugins,
		CreatedAt:       collection.CreatedAt,
	}
}

func (d collectionDTO) toDomain() domain.Collection {
	return domain.Collection{
		Address:         domain.Identity(d.Address),
		Name:            d.Name,
		Uri:             d.Uri,
		UpdateAuthority: domain.Identity(d.UpdateAuthority),
		Plugins:         d.Plugins,
		CreatedAt:       d.CreatedAt,
	}
}
