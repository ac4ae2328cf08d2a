package domain

import (
	"context"
	"time"
)

type Asset struct {
	Address    Identity
	Collection Identity
	Owner      Identity
	Name       string
	Uri        string
	Plugins    PluginSet
	CreatedAt  int64
	UpdatedAt  int64
}

func (a Asset) IsFrozen() bool {
	return a.Plugins.IsFrozen()
}

func (a Asset) BelongsTo(collection Identity) bool {
	return a.Collection == collection
}

// ApplyPatch overwrites the fields set in the patch and reports whether
// anything was written.
func (a *Asset) ApplyPatch(patch AssetPatch) bool {
	nameSet := patch.Name.Apply(&a.Name)
	uriSet := patch.Uri.Apply(&a.Uri)
	if nameSet || uriSet {
		a.touch()
		return true
	}
	return false
}

func (a *Asset) TransferTo(owner Identity) {
	a.Owner = owner
	a.touch()
}

// SetFrozen updates the FreezeDelegate plugin and reports whether the asset
// carries one.
func (a *Asset) SetFrozen(frozen bool) bool {
	plugin, ok := a.Plugins.Get(PluginTypeFreezeDelegate)
	if !ok || plugin.FreezeDelegate == nil {
		return false
	}
	plugin.FreezeDelegate.Frozen = frozen
	a.touch()
	return true
}

func (a *Asset) touch() {
	a.UpdatedAt = time.Now().Unix()
}

type AssetFilter struct {
	Collection Identity
	Owner      Identity
}

func (f AssetFilter) Match(asset Asset) bool {
	if !f.Collection.IsZero() && asset.Collection != f.Collection {
		return false
	}
	if !f.Owner.IsZero() && asset.Owner != f.Owner {
		return false
	}
	return true
}

type AssetRepository interface {
	// AddAsset fails with ErrRecordExists if the address is taken.
	AddAsset(ctx context.Context, asset Asset) error
	// GetAsset returns nil, nil if no asset exists at the address.
	GetAsset(ctx context.Context, address Identity) (*Asset, error)
	// UpdateAsset atomically loads the asset, passes it to fn and writes it
	// back. If fn returns an error nothing is written and the error is returned
	// as is. Fails with ErrRecordNotFound if the asset does not exist.
	UpdateAsset(
		ctx context.Context, address Identity, fn func(asset *Asset) error,
	) (*Asset, error)
	// ListAssets returns the assets matching the filter, sorted by address.
	ListAssets(ctx context.Context, filter AssetFilter) ([]Asset, error)
	Close()
}
