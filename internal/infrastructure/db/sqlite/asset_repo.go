package sqlitedb

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
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	selectAssetQuery = `
SELECT address, collection, owner, name, uri, plugins, created_at, updated_at
FROM asset WHERE address = ?`
	updateAssetQuery = `
UPDATE asset SET owner = ?, name = ?, uri = ?, plugins = ?, updated_at = ?
WHERE address = ?`
	listAssetsQuery = `
SELECT address, collection, owner, name, uri, plugins, created_at, updated_at
FROM asset
WHERE (?1 = '' OR collection = ?1) AND (?2 = '' OR owner = ?2)
ORDER BY address`
)

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

	return execTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(
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
	})
}

func (r *assetRepository) GetAsset(
	ctx context.Context, address domain.Identity,
) (*domain.Asset, error) {
	return selectAsset(ctx, r.db, address)
}

func (r *assetRepository) UpdateAsset(
	ctx context.Context, address domain.Identity, fn func(asset *domain.Asset) error,
) (*domain.Asset, error) {
	var updated *domain.Asset
	if err := execTx(ctx, r.db, func(tx *sql.Tx) error {
		asset, err := selectAsset(ctx, tx, address)
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
	ctx context.Context, q querier, address domain.Identity,
) (*domain.Asset, error) {
	asset, err := scanAsset(q.QueryRowContext(ctx, selectAssetQuery, address.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return asset, err
}

func scanAsset(row scanner) (*domain.Asset, error) {
	var (
		asset                          domain.Asset
		addr, collection, owner, plugs string
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
