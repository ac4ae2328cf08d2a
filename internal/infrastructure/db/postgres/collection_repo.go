package pgdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/arkade-os/assetreg/internal/core/domain"
)

const (
	insertCollectionQuery = `
INSERT INTO collection (address, name, uri, update_authority, plugins, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	selectCollectionQuery = `
SELECT address, name, uri, update_authority, plugins, created_at
FROM collection WHERE address = $1`
)

type collectionRepository struct {
	db *sql.DB
}

func NewCollectionRepository(config ...interface{}) (domain.CollectionRepository, error) {
	if len(config) != 1 {
		return nil, fmt.Errorf("invalid config: expected 1 argument, got %d", len(config))
	}
	db, ok := config[0].(*sql.DB)
	if !ok {
		return nil, fmt.Errorf(
			"cannot open collection repository: expected *sql.DB but got %T", config[0],
		)
	}

	return &collectionRepository{db}, nil
}

func (r *collectionRepository) AddCollection(
	ctx context.Context, collection domain.Collection,
) error {
	plugins, err := encodePlugins(collection.Plugins)
	if err != nil {
		return err
	}

	if _, err := r.db.ExecContext(
		ctx, insertCollectionQuery,
		collection.Address.String(), collection.Name, collection.Uri,
		collection.UpdateAuthority.String(), plugins, collection.CreatedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrRecordExists
		}
		return fmt.Errorf("failed to insert collection: %w", err)
	}
	return nil
}

func (r *collectionRepository) GetCollection(
	ctx context.Context, address domain.Identity,
) (*domain.Collection, error) {
	var (
		collection      domain.Collection
		addr, authority string
		plugins         []byte
	)
	err := r.db.QueryRowContext(ctx, selectCollectionQuery, address.String()).Scan(
		&addr, &collection.Name, &collection.Uri, &authority, &plugins,
		&collection.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}

	collection.Address = domain.Identity(addr)
	collection.UpdateAuthority = domain.Identity(authority)
	if collection.Plugins, err = decodePlugins(plugins); err != nil {
		return nil, err
	}
	return &collection, nil
}

func (r *collectionRepository) Close() {
	// nolint:all
	r.db.Close()
}
