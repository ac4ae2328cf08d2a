package pgdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/arkade-os/assetreg/internal/core/domain"
)

const (
	insertAssetQuery = `
INSERT INTO asset (address, collection, owner, name, uri, plugins, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	selectAssetQuery = `
SELECT address, collection, owner, name, uri, plugins, created_at, updated_at
FROM asset WHERE address = $1`
	updateAssetQuery = `
UPDATE asset SET owner = $1, name = $2, uri = $3, plugins = $4, updated_at = $5
WHERE address = $6`
	listAssetsQuery = `
SELECT address, collection, owner, name, uri, plugins, created_at, updated_at
FROM asset
WHERE ($1::text = '' OR collection = $1) AND ($2::text = '' OR owner = $2)
ORDER BY address COLLATE "C"`
)

const selectAssetForUpdateQuery = selectAssetQuery + " FOR UPDATE"

type assetRepository struct {
	db *sql.DB
}

func NewAssetRepository(config ...interface{}) (domain.AssetRepository, error) {
	if len(config) != 1 {
		return nil, fmt.Errorf("invalid config: expected 1 argument, got %d", len(config))
	}
	db, ok := config[0].(*sql.DB)
	if !ok {
		return nil, fmt.Errorf(
			"cannot open asset repository: expected *sql.DB but got %T", config[0],
		)
	}

	return &assetRepository{db}, nil
}

func (r *assetRepository) AddAsset(ctx context.Context, asset domain.Asset) error {
	plugins, err := encodePlugins(asset.Plugins)
	if err != nil {
		return err
	}

	if _, err := r.db.ExecContext(
		ctx, insertAssetQuery,
		asset.Address.String(), asset.Collection.String(), asset.Owner.String(),
		asset.Name, asset.Uri, plugins, asset.CreatedAt, asset.UpdatedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrRecordExists
		}
		return fmt.Errorf("failed to insert asset: %w", err)
	}
	return nil
}

func (r *assetRepository) GetAsset(
	ctx context.Context, address domain.Identity,
) (*domain.Asset, error) {
	return selectAsset(ctx, r.db, selectAssetQuery, address)
}

func (r *assetRepository) UpdateAsset(
	ctx context.Context, address domain.Identity, fn func(asset *domain.Asset) error,
) (*domain.Asset, error) {
	var updated *domain.Asset
	if err := execTx(ctx, r.db, func(tx *sql.Tx) error {
		// The row lock is held until commit.
		asset, err := selectAsset(ctx, tx, selectAssetForUpdateQuery, address)
		if err != nil {
			return err
		}
		if asset == nil {
			return domain.ErrRecordNotFound
		}
		if err := fn(asset); err != nil {
			return err
		}

		plugins, err := encodePlugins(asset.Plugins)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(
			ctx, updateAssetQuery,
			asset.Owner.String(), asset.Name, asset.Uri, plugins, asset.UpdatedAt,
			address.String(),
		); err != nil {
			return fmt.Errorf("failed to update asset: %w", err)
		}
		updated = asset
		return nil
	}); err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *assetRepository) ListAssets(
	ctx context.Context, filter domain.AssetFilter,
) ([]domain.Asset, error) {
	rows, err := r.db.QueryContext(
		ctx, listAssetsQuery, filter.Collection.String(), filter.Owner.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	// nolint
	defer rows.Close()

	assets := make([]domain.Asset, 0)
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, *asset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	return assets, nil
}

func (r *assetRepository) Close() {
	// nolint:all
	r.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func selectAsset(
	ctx context.Context, q querier, query string, address domain.Identity,
) (*domain.Asset, error) {
	asset, err := scanAsset(q.QueryRowContext(ctx, query, address.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return asset, err
}

func scanAsset(row scanner) (*domain.Asset, error) {
	var (
		asset                   domain.Asset
		addr, collection, owner string
		plugs                   []byte
	)
	if err := row.Scan(
		&addr, &collection, &owner, &asset.Name, &asset.Uri, &plugs,
		&asset.CreatedAt, &asset.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan asset: %w", err)
	}

	asset.Address = domain.Identity(addr)
	asset.Collection = domain.Identity(collection)
	asset.Owner = domain.Identity(owner)
	plugins, err := decodePlugins(plugs)
	if err != nil {
		return nil, err
	}
	asset.Plugins = plugins
	return &asset, nil
}
