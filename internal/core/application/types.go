package application

import (
	"context"

	"github.com/arkade-os/assetreg/internal/core/domain"
	"github.com/arkade-os/assetreg/pkg/errors"
)

type Service interface {
	CreateCollection(
		ctx context.Context, req CreateCollectionRequest,
	) (*domain.Collection, errors.Error)
	MintAsset(ctx context.Context, req MintAssetRequest) (*domain.Asset, errors.Error)
	UpdateAsset(ctx context.Context, req UpdateAssetRequest) (*domain.Asset, errors.Error)
	TransferAsset(ctx context.Context, req TransferAssetRequest) (*domain.Asset, errors.Error)
	UpdateFreezeDelegate(
		ctx context.Context, req UpdateFreezeDelegateRequest,
	) (*domain.Asset, errors.Error)

	GetCollection(ctx context.Context, address domain.Identity) (*domain.Collection, errors.Error)
	GetAsset(ctx context.Context, address domain.Identity) (*domain.Asset, errors.Error)
	ListAssets(ctx context.Context, filter domain.AssetFilter) ([]domain.Asset, errors.Error)
}

// Every request carries the signers of the transition. Authority is the
// identity whose rights are checked, Payer funds the new or updated record.

type CreateCollectionRequest struct {
	Address           domain.Identity `validate:"required"`
	Name              string
	Uri               string
	RoyaltyPercentage uint8
	Authority         domain.Identity `validate:"required"`
	Payer             domain.Identity `validate:"required"`
}

type MintAssetRequest struct {
	Address         domain.Identity `validate:"required"`
	Name            string
	Uri             string
	AddFreezePlugin bool
	Collection      domain.Identity `validate:"required"`
	Authority       domain.Identity `validate:"required"`
	Owner           domain.Identity `validate:"required"`
	Payer           domain.Identity `validate:"required"`
}

type UpdateAssetRequest struct {
	Asset      domain.Identity `validate:"required"`
	Collection domain.Identity `validate:"required"`
	Patch      domain.AssetPatch
	Authority  domain.Identity `validate:"required"`
	Payer      domain.Identity `validate:"required"`
}

type TransferAssetRequest struct {
	Asset      domain.Identity `validate:"required"`
	Collection domain.Identity `validate:"required"`
	Authority  domain.Identity `validate:"required"`
	NewOwner   domain.Identity `validate:"required"`
	Payer      domain.Identity `validate:"required"`
}

type UpdateFreezeDelegateRequest struct {
	Asset      domain.Identity `validate:"required"`
	Collection domain.Identity `validate:"required"`
	Frozen     bool
	Authority  domain.Identity `validate:"required"`
	Payer      domain.Identity `validate:"required"`
}
