package application

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/arkade-os/assetreg/internal/core/domain"
	"github.com/arkade-os/assetreg/internal/core/ports"
	"github.com/arkade-os/assetreg/pkg/errors"
	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
)

// errNoChanges aborts an asset update that would not write anything.
var errNoChanges = stderrors.New("no changes")

type service struct {
	repoManager ports.RepoManager
	validator   *validator.Validate
	metrics     *transitionMetrics

	// updateAuthorityOverride lets the collection update authority change the
	// metadata of assets it does not own.
	updateAuthorityOverride bool
}

func NewService(repoManager ports.RepoManager, updateAuthorityOverride bool) (Service, error) {
	metrics, err := newTransitionMetrics()
	if err != nil {
		return nil, err
	}
	return &service{
		repoManager:             repoManager,
		validator:               validator.New(),
		metrics:                 metrics,
		updateAuthorityOverride: updateAuthorityOverride,
	}, nil
}

func (s *service) CreateCollection(
	ctx context.Context, req CreateCollectionRequest,
) (collection *domain.Collection, err errors.Error) {
	ctx, done := s.startTransition(ctx, "CreateCollection", req.Address)
	defer func() { done(err) }()

	if err := s.validate(req); err != nil {
		return nil, err
	}

	// The creator of the collection is the only royalty recipient.
	plugins := domain.EncodePlugins(domain.RoyaltiesSpec{
		BasisPoints: uint16(req.RoyaltyPercentage) * 100,
		Creators: []domain.Creator{
			{Address: req.Authority, Percentage: domain.CreatorsTotalPercent},
		},
		RuleSet: domain.RuleSet{Type: domain.RuleSetTypeNone},
	})
	if err := domain.ValidatePlugins(plugins); err != nil {
		return nil, err
	}

	newCollection := domain.Collection{
		Address:         req.Address,
		Name:            req.Name,
		Uri:             req.Uri,
		UpdateAuthority: req.Authority,
		Plugins:         plugins,
		CreatedAt:       time.Now().Unix(),
	}
	if err := s.repoManager.Collections().AddCollection(ctx, newCollection); err != nil {
		return nil, storageError(err, req.Address)
	}

	log.WithField("payer", req.Payer).Debugf("created collection %s", req.Address)

	s.saveEvents(
		ctx, domain.CollectionTopic, req.Address.String(),
		domain.NewCollectionCreated(newCollection),
	)
	return &newCollection, nil
}

func (s *service) MintAsset(
	ctx context.Context, req MintAssetRequest,
) (asset *domain.Asset, err errors.Error) {
	ctx, done := s.startTransition(ctx, "MintAsset", req.Address)
	defer func() { done(err) }()

	if err := s.validate(req); err != nil {
		return nil, err
	}

	collection, err := s.getCollection(ctx, req.Collection)
	if err != nil {
		return nil, err
	}
	if err := domain.Authorize(
		domain.RoleCollectionUpdateAuthority, collection.UpdateAuthority, req.Authority,
	); err != nil {
		return nil, err
	}

	var specs []domain.PluginSpec
	if req.AddFreezePlugin {
		specs = append(specs, domain.FreezeDelegateSpec{})
	}
	plugins := domain.EncodePlugins(specs...)
	if err := domain.ValidatePlugins(plugins); err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	newAsset := domain.Asset{
		Address:    req.Address,
		Collection: req.Collection,
		Owner:      req.Owner,
		Name:       req.Name,
		Uri:        req.Uri,
		Plugins:    plugins,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repoManager.Assets().AddAsset(ctx, newAsset); err != nil {
		return nil, storageError(err, req.Address)
	}

	log.WithField("payer", req.Payer).Debugf(
		"minted asset %s in collection %s to %s", req.Address, req.Collection, req.Owner,
	)

	s.saveEvents(ctx, domain.AssetTopic, req.Address.String(), domain.NewAssetMinted(newAsset))
	return &newAsset, nil
}

func (s *service) UpdateAsset(
	ctx context.Context, req UpdateAssetRequest,
) (asset *domain.Asset, err errors.Error) {
	ctx, done := s.startTransition(ctx, "UpdateAsset", req.Asset)
	defer func() { done(err) }()

	if err := s.validate(req); err != nil {
		return nil, err
	}

	grants := []domain.AuthorityGrant{}
	if s.updateAuthorityOverride {
		collection, err := s.getAssetCollection(ctx, req.Asset, req.Collection)
		if err != nil {
			return nil, err
		}
		grants = append(grants, domain.AuthorityGrant{
			Role:      domain.RoleCollectionUpdateAuthority,
			Authority: collection.UpdateAuthority,
		})
	}

	asset, changed, err := s.updateAsset(
		ctx, req.Asset, func(asset *domain.Asset) error {
			if err := checkCollection(*asset, req.Collection); err != nil {
				return err
			}
			ownerGrant := domain.AuthorityGrant{
				Role: domain.RoleAssetOwner, Authority: asset.Owner,
			}
			if err := domain.AuthorizeAny(
				req.Authority, append([]domain.AuthorityGrant{ownerGrant}, grants...)...,
			); err != nil {
				return err
			}
			if !asset.ApplyPatch(req.Patch) {
				return errNoChanges
			}
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	if !changed {
		log.Debugf("nothing to update for asset %s", req.Asset)
		return asset, nil
	}

	log.WithField("payer", req.Payer).Debugf("updated asset %s", req.Asset)

	s.saveEvents(
		ctx, domain.AssetTopic, req.Asset.String(), domain.NewAssetUpdated(*asset, req.Authority),
	)
	return asset, nil
}

func (s *service) TransferAsset(
	ctx context.Context, req TransferAssetRequest,
) (asset *domain.Asset, err errors.Error) {
	ctx, done := s.startTransition(ctx, "TransferAsset", req.Asset)
	defer func() { done(err) }()

	if err := s.validate(req); err != nil {
		return nil, err
	}

	var from domain.Identity
	asset, _, err = s.updateAsset(ctx, req.Asset, func(asset *domain.Asset) error {
		if err := checkCollection(*asset, req.Collection); err != nil {
			return err
		}
		// A frozen asset can't move, whoever signs.
		if asset.IsFrozen() {
			return errors.ASSET_FROZEN.New("asset %s is frozen", asset.Address).
				WithMetadata(errors.AssetMetadata{Asset: asset.Address.String()})
		}
		if err := domain.Authorize(domain.RoleAssetOwner, asset.Owner, req.Authority); err != nil {
			return err
		}
		from = asset.Owner
		asset.TransferTo(req.NewOwner)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithField("payer", req.Payer).Debugf(
		"transferred asset %s from %s to %s", req.Asset, from, req.NewOwner,
	)

	s.saveEvents(
		ctx, domain.AssetTopic, req.Asset.String(), domain.NewAssetTransferred(*asset, from),
	)
	return asset, nil
}

func (s *service) UpdateFreezeDelegate(
	ctx context.Context, req UpdateFreezeDelegateRequest,
) (asset *domain.Asset, err errors.Error) {
	ctx, done := s.startTransition(ctx, "UpdateFreezeDelegate", req.Asset)
	defer func() { done(err) }()

	if err := s.validate(req); err != nil {
		return nil, err
	}

	collection, err := s.getAssetCollection(ctx, req.Asset, req.Collection)
	if err != nil {
		return nil, err
	}

	asset, _, err = s.updateAsset(ctx, req.Asset, func(asset *domain.Asset) error {
		if err := checkCollection(*asset, req.Collection); err != nil {
			return err
		}
		if !asset.Plugins.Has(domain.PluginTypeFreezeDelegate) {
			return errors.PLUGIN_NOT_FOUND.New(
				"asset %s has no %s plugin", asset.Address, domain.PluginTypeFreezeDelegate,
			).WithMetadata(errors.AssetPluginMetadata{
				Asset:      asset.Address.String(),
				PluginType: domain.PluginTypeFreezeDelegate.String(),
			})
		}
		authority := domain.ResolvePluginAuthority(
			*asset, collection, domain.PluginTypeFreezeDelegate,
		)
		if err := domain.Authorize(
			domain.RolePluginAuthority(domain.PluginTypeFreezeDelegate), authority, req.Authority,
		); err != nil {
			return err
		}
		asset.SetFrozen(req.Frozen)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithField("payer", req.Payer).Debugf(
		"set frozen=%t for asset %s", req.Frozen, req.Asset,
	)

	s.saveEvents(
		ctx, domain.AssetTopic, req.Asset.String(),
		domain.NewAssetFreezeUpdated(*asset, req.Authority),
	)
	return asset, nil
}

func (s *service) GetCollection(
	ctx context.Context, address domain.Identity,
) (*domain.Collection, errors.Error) {
	return s.getCollection(ctx, address)
}

func (s *service) GetAsset(ctx context.Context, address domain.Identity) (*domain.Asset, errors.Error) {
	asset, err := s.repoManager.Assets().GetAsset(ctx, address)
	if err != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(err)
	}
	if asset == nil {
		return nil, assetNotFound(address)
	}
	return asset, nil
}

func (s *service) ListAssets(
	ctx context.Context, filter domain.AssetFilter,
) ([]domain.Asset, errors.Error) {
	assets, err := s.repoManager.Assets().ListAssets(ctx, filter)
	if err != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(err)
	}
	return assets, nil
}

func (s *service) validate(req any) errors.Error {
	if err := s.validator.Struct(req); err != nil {
		metadata := map[string]any{}
		var validationErrs validator.ValidationErrors
		if stderrors.As(err, &validationErrs) {
			for _, fieldErr := range validationErrs {
				metadata[fieldErr.Field()] = fieldErr.Tag()
			}
		}
		return errors.INVALID_REQUEST.Wrap(err).WithMetadata(metadata)
	}
	return nil
}

func (s *service) getCollection(
	ctx context.Context, address domain.Identity,
) (*domain.Collection, errors.Error) {
	collection, err := s.repoManager.Collections().GetCollection(ctx, address)
	if err != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(err)
	}
	if collection == nil {
		return nil, errors.COLLECTION_NOT_FOUND.New("collection %s not found", address).
			WithMetadata(errors.CollectionMetadata{Collection: address.String()})
	}
	return collection, nil
}

// getAssetCollection loads the collection an asset is checked against. The
// asset must exist and belong to it, so those errors take precedence over a
// missing collection.
func (s *service) getAssetCollection(
	ctx context.Context, assetAddress, collectionAddress domain.Identity,
) (*domain.Collection, errors.Error) {
	asset, err := s.GetAsset(ctx, assetAddress)
	if err != nil {
		return nil, err
	}
	if err := checkCollection(*asset, collectionAddress); err != nil {
		return nil, err
	}
	return s.getCollection(ctx, collectionAddress)
}

// updateAsset runs fn against the stored asset within a single read-modify-write
// and returns the resulting record. Any error returned by fn aborts the write;
// errNoChanges is not reported to the caller and changed is false.
func (s *service) updateAsset(
	ctx context.Context, address domain.Identity, fn func(asset *domain.Asset) error,
) (*domain.Asset, bool, errors.Error) {
	var current domain.Asset
	updated, err := s.repoManager.Assets().UpdateAsset(
		ctx, address, func(asset *domain.Asset) error {
			current = *asset
			return fn(asset)
		},
	)
	if err == nil {
		return updated, true, nil
	}

	if stderrors.Is(err, errNoChanges) {
		return &current, false, nil
	}
	if stderrors.Is(err, domain.ErrRecordNotFound) {
		return nil, false, assetNotFound(address)
	}
	var typedErr errors.Error
	if stderrors.As(err, &typedErr) {
		return nil, false, typedErr
	}
	return nil, false, errors.INTERNAL_ERROR.Wrap(err)
}

func (s *service) saveEvents(ctx context.Context, topic, id string, events ...domain.Event) {
	if len(events) <= 0 {
		return
	}
	if err := s.repoManager.Events().Save(ctx, topic, id, events); err != nil {
		log.WithError(err).Warnf("failed to save %s events for %s", topic, id)
	}
}

func checkCollection(asset domain.Asset, collection domain.Identity) errors.Error {
	if asset.BelongsTo(collection) {
		return nil
	}
	return errors.ASSET_COLLECTION_MISMATCH.New(
		"asset %s does not belong to collection %s", asset.Address, collection,
	).WithMetadata(errors.CollectionMismatchMetadata{
		Asset:              asset.Address.String(),
		ExpectedCollection: collection.String(),
		GotCollection:      asset.Collection.String(),
	})
}

func storageError(err error, address domain.Identity) errors.Error {
	if stderrors.Is(err, domain.ErrRecordExists) {
		return errors.STORAGE_CONFLICT.New("address %s is already in use", address).
			WithMetadata(errors.StorageConflictMetadata{Address: address.String()})
	}
	return errors.INTERNAL_ERROR.Wrap(err)
}

func assetNotFound(address domain.Identity) errors.Error {
	return errors.ASSET_NOT_FOUND.New("asset %s not found", address).
		WithMetadata(errors.AssetMetadata{Asset: address.String()})
}
