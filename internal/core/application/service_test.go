package application

import (
	"context"
	"crypto/rand"
	"fmt"
	"testing"

	"github.com/arkade-os/assetreg/internal/core/domain"
	badgerdb "github.com/arkade-os/assetreg/internal/infrastructure/db/badger"
	"github.com/arkade-os/assetreg/pkg/errors"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockEventRepository struct {
	mock.Mock
}

func (m *mockEventRepository) Save(
	ctx context.Context, topic, id string, events []domain.Event,
) error {
	args := m.Called(ctx, topic, id, events)
	return args.Error(0)
}

func (m *mockEventRepository) RegisterEventsHandler(topic string, handler func([]domain.Event)) {}
func (m *mockEventRepository) ClearRegisteredHandlers(topics ...string)                         {}
func (m *mockEventRepository) Close()                                                           {}

// savedEvents returns all events saved so far, in order.
func (m *mockEventRepository) savedEvents() []domain.Event {
	events := make([]domain.Event, 0)
	for _, call := range m.Calls {
		if call.Method != "Save" {
			continue
		}
		events = append(events, call.Arguments.Get(3).([]domain.Event)...)
	}
	return events
}

type testRepoManager struct {
	events      *mockEventRepository
	collections domain.CollectionRepository
	assets      domain.AssetRepository
}

func (r *testRepoManager) Events() domain.EventRepository           { return r.events }
func (r *testRepoManager) Collections() domain.CollectionRepository { return r.collections }
func (r *testRepoManager) Assets() domain.AssetRepository           { return r.assets }
func (r *testRepoManager) Close() {
	r.collections.Close()
	r.assets.Close()
}

func newTestService(t *testing.T, updateAuthorityOverride bool) (Service, *mockEventRepository) {
	collections, err := badgerdb.NewCollectionRepository("", nil)
	require.NoError(t, err)
	assets, err := badgerdb.NewAssetRepository("", nil)
	require.NoError(t, err)

	events := &mockEventRepository{}
	events.On("Save", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	repoManager := &testRepoManager{events: events, collections: collections, assets: assets}
	t.Cleanup(repoManager.Close)

	svc, err := NewService(repoManager, updateAuthorityOverride)
	require.NoError(t, err)
	return svc, events
}

func newIdentity(t *testing.T) domain.Identity {
	buf := make([]byte, domain.IdentitySize)
	_, err := rand.Read(buf)
	require.NoError(t, err)
	id, err := domain.IdentityFromBytes(buf)
	require.NoError(t, err)
	return id
}

func requireErrorCode(t *testing.T, err errors.Error, code uint16) {
	t.Helper()
	require.NotNil(t, err)
	require.Equal(t, code, err.Code(), err.Error())
}

type testFixture struct {
	svc        Service
	events     *mockEventRepository
	authority  domain.Identity
	payer      domain.Identity
	collection *domain.Collection
}

func newTestFixture(t *testing.T, updateAuthorityOverride bool) *testFixture {
	svc, events := newTestService(t, updateAuthorityOverride)
	f := &testFixture{
		svc:       svc,
		events:    events,
		authority: newIdentity(t),
		payer:     newIdentity(t),
	}
	collection, err := svc.CreateCollection(context.Background(), CreateCollectionRequest{
		Address:   newIdentity(t),
		Name:      "Min",
		Uri:       "https://min.com",
		Authority: f.authority,
		Payer:     f.payer,
	})
	require.NoError(t, err)
	f.collection = collection
	return f
}

func (f *testFixture) mint(
	t *testing.T, owner domain.Identity, addFreezePlugin bool,
) *domain.Asset {
	asset, err := f.svc.MintAsset(context.Background(), MintAssetRequest{
		Address:         newIdentity(t),
		Name:            "Min NFT",
		Uri:             "https://min.com/nft.json",
		AddFreezePlugin: addFreezePlugin,
		Collection:      f.collection.Address,
		Authority:       f.authority,
		Owner:           owner,
		Payer:           f.payer,
	})
	require.NoError(t, err)
	return asset
}

func TestCreateCollection(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		svc, events := newTestService(t, true)
		authority := newIdentity(t)

		for pct := 0; pct <= 100; pct++ {
			address := newIdentity(t)
			collection, err := svc.CreateCollection(ctx, CreateCollectionRequest{
				Address:           address,
				Name:              fmt.Sprintf("Collection %d", pct),
				Uri:               "https://min.com",
				RoyaltyPercentage: uint8(pct),
				Authority:         authority,
				Payer:             authority,
			})
			require.NoError(t, err)
			require.NotNil(t, collection)
			require.Equal(t, authority, collection.UpdateAuthority)

			royalties := collection.Royalties()
			require.NotNil(t, royalties)
			require.Equal(t, uint16(pct*100), royalties.BasisPoints)
			require.LessOrEqual(t, int(royalties.BasisPoints), domain.MaxBasisPoints)
			require.Equal(t, []domain.Creator{{Address: authority, Percentage: 100}}, royalties.Creators)
			require.Equal(t, domain.RuleSetTypeNone, royalties.RuleSet.Type)

			plugin, ok := collection.Plugins.Get(domain.PluginTypeRoyalties)
			require.True(t, ok)
			require.Equal(t, domain.OwnerAuthority(), plugin.Authority)

			got, err := svc.GetCollection(ctx, address)
			require.NoError(t, err)
			require.Equal(t, *collection, *got)
		}

		saved := events.savedEvents()
		require.Len(t, saved, 101)
		for _, event := range saved {
			require.Equal(t, domain.EventTypeCollectionCreated, event.GetType())
			require.Equal(t, domain.CollectionTopic, event.GetTopic())
		}
	})

	t.Run("min collection", func(t *testing.T) {
		svc, _ := newTestService(t, true)
		authority := newIdentity(t)

		collection, err := svc.CreateCollection(ctx, CreateCollectionRequest{
			Address:   newIdentity(t),
			Name:      "Min",
			Uri:       "https://min.com",
			Authority: authority,
			Payer:     authority,
		})
		require.NoError(t, err)
		require.Equal(t, "Min", collection.Name)
		require.Equal(t, "https://min.com", collection.Uri)
		require.Zero(t, collection.Royalties().BasisPoints)
	})

	t.Run("empty metadata", func(t *testing.T) {
		svc, _ := newTestService(t, true)
		authority := newIdentity(t)

		collection, err := svc.CreateCollection(ctx, CreateCollectionRequest{
			Address:   newIdentity(t),
			Authority: authority,
			Payer:     authority,
		})
		require.NoError(t, err)
		require.Empty(t, collection.Name)
		require.Empty(t, collection.Uri)
	})

	t.Run("invalid", func(t *testing.T) {
		svc, events := newTestService(t, true)
		authority := newIdentity(t)
		takenAddress := newIdentity(t)

		_, err := svc.CreateCollection(ctx, CreateCollectionRequest{
			Address:   takenAddress,
			Name:      "Taken",
			Authority: authority,
			Payer:     authority,
		})
		require.NoError(t, err)

		fixtures := []struct {
			name string
			req  CreateCollectionRequest
			code uint16
		}{
			{
				name: "royalty percentage above 100",
				req: CreateCollectionRequest{
					Address:           newIdentity(t),
					RoyaltyPercentage: 101,
					Authority:         authority,
					Payer:             authority,
				},
				code: errors.INVALID_ROYALTY_CONFIG.Code,
			},
			{
				name: "address already in use",
				req: CreateCollectionRequest{
					Address:   takenAddress,
					Authority: authority,
					Payer:     authority,
				},
				code: errors.STORAGE_CONFLICT.Code,
			},
			{
				name: "missing address",
				req:  CreateCollectionRequest{Authority: authority, Payer: authority},
				code: errors.INVALID_REQUEST.Code,
			},
			{
				name: "missing authority",
				req:  CreateCollectionRequest{Address: newIdentity(t), Payer: authority},
				code: errors.INVALID_REQUEST.Code,
			},
			{
				name: "missing payer",
				req:  CreateCollectionRequest{Address: newIdentity(t), Authority: authority},
				code: errors.INVALID_REQUEST.Code,
			},
		}

		for _, f := range fixtures {
			t.Run(f.name, func(t *testing.T) {
				collection, err := svc.CreateCollection(ctx, f.req)
				requireErrorCode(t, err, f.code)
				require.Nil(t, collection)
			})
		}

		got, err := svc.GetCollection(ctx, takenAddress)
		require.NoError(t, err)
		require.Equal(t, "Taken", got.Name)
		require.Len(t, events.savedEvents(), 1)
	})
}

func TestMintAsset(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		f := newTestFixture(t, true)
		owner := newIdentity(t)

		asset := f.mint(t, owner, false)
		require.Equal(t, "Min NFT", asset.Name)
		require.Equal(t, owner, asset.Owner)
		require.Equal(t, f.collection.Address, asset.Collection)
		require.Empty(t, asset.Plugins)
		require.False(t, asset.IsFrozen())

		frozenAsset := f.mint(t, owner, true)
		require.Len(t, frozenAsset.Plugins, 1)
		freezeDelegate := frozenAsset.Plugins.FreezeDelegate()
		require.NotNil(t, freezeDelegate)
		require.False(t, freezeDelegate.Frozen)
		plugin, ok := frozenAsset.Plugins.Get(domain.PluginTypeFreezeDelegate)
		require.True(t, ok)
		require.Equal(t, domain.OwnerAuthority(), plugin.Authority)
		require.Equal(
			t, owner,
			domain.ResolvePluginAuthority(*frozenAsset, f.collection, domain.PluginTypeFreezeDelegate),
		)

		got, err := f.svc.GetAsset(ctx, frozenAsset.Address)
		require.NoError(t, err)
		require.Equal(t, *frozenAsset, *got)

		saved := f.events.savedEvents()
		require.Len(t, saved, 3)
		minted, ok := saved[2].(domain.AssetMinted)
		require.True(t, ok)
		require.Equal(t, frozenAsset.Address.String(), minted.GetId())
		require.Equal(t, owner, minted.Owner)
	})

	t.Run("invalid", func(t *testing.T) {
		f := newTestFixture(t, true)
		owner := newIdentity(t)
		minted := f.mint(t, owner, false)

		fixtures := []struct {
			name string
			req  MintAssetRequest
			code uint16
		}{
			{
				name: "collection not found",
				req: MintAssetRequest{
					Address:    newIdentity(t),
					Collection: newIdentity(t),
					Authority:  f.authority,
					Owner:      owner,
					Payer:      f.payer,
				},
				code: errors.COLLECTION_NOT_FOUND.Code,
			},
			{
				name: "signer is not the update authority",
				req: MintAssetRequest{
					Address:    newIdentity(t),
					Collection: f.collection.Address,
					Authority:  owner,
					Owner:      owner,
					Payer:      f.payer,
				},
				code: errors.UNAUTHORIZED.Code,
			},
			{
				name: "address already in use",
				req: MintAssetRequest{
					Address:    minted.Address,
					Collection: f.collection.Address,
					Authority:  f.authority,
					Owner:      owner,
					Payer:      f.payer,
				},
				code: errors.STORAGE_CONFLICT.Code,
			},
			{
				name: "missing owner",
				req: MintAssetRequest{
					Address:    newIdentity(t),
					Collection: f.collection.Address,
					Authority:  f.authority,
					Payer:      f.payer,
				},
				code: errors.INVALID_REQUEST.Code,
			},
		}

		for _, fixture := range fixtures {
			t.Run(fixture.name, func(t *testing.T) {
				asset, err := f.svc.MintAsset(ctx, fixture.req)
				requireErrorCode(t, err, fixture.code)
				require.Nil(t, asset)
			})
		}

		assets, err := f.svc.ListAssets(ctx, domain.AssetFilter{Collection: f.collection.Address})
		require.NoError(t, err)
		require.Len(t, assets, 1)
	})
}

func TestUpdateAsset(t *testing.T) {
	ctx := context.Background()

	t.Run("new name only", func(t *testing.T) {
		f := newTestFixture(t, true)
		owner := newIdentity(t)
		asset := f.mint(t, owner, false)

		updated, err := f.svc.UpdateAsset(ctx, UpdateAssetRequest{
			Asset:      asset.Address,
			Collection: f.collection.Address,
			Patch:      domain.AssetPatch{Name: domain.SetTo("New Name Only")},
			Authority:  owner,
			Payer:      f.payer,
		})
		require.NoError(t, err)
		require.Equal(t, "New Name Only", updated.Name)
		require.Equal(t, asset.Uri, updated.Uri)
		require.Equal(t, owner, updated.Owner)

		got, err := f.svc.GetAsset(ctx, asset.Address)
		require.NoError(t, err)
		require.Equal(t, "New Name Only", got.Name)
		require.Equal(t, asset.Uri, got.Uri)

		saved := f.events.savedEvents()
		event, ok := saved[len(saved)-1].(domain.AssetUpdated)
		require.True(t, ok)
		require.Equal(t, "New Name Only", event.Name)
		require.Equal(t, owner, event.Signer)
	})

	t.Run("clear uri", func(t *testing.T) {
		f := newTestFixture(t, true)
		owner := newIdentity(t)
		asset := f.mint(t, owner, false)

		updated, err := f.svc.UpdateAsset(ctx, UpdateAssetRequest{
			Asset:      asset.Address,
			Collection: f.collection.Address,
			Patch:      domain.AssetPatch{Uri: domain.SetTo("")},
			Authority:  owner,
			Payer:      f.payer,
		})
		require.NoError(t, err)
		require.Equal(t, asset.Name, updated.Name)
		require.Empty(t, updated.Uri)
	})

	t.Run("empty patch", func(t *testing.T) {
		f := newTestFixture(t, true)
		owner := newIdentity(t)
		asset := f.mint(t, owner, false)
		numOfEvents := len(f.events.savedEvents())

		for i := 0; i < 2; i++ {
			updated, err := f.svc.UpdateAsset(ctx, UpdateAssetRequest{
				Asset:      asset.Address,
				Collection: f.collection.Address,
				Authority:  owner,
				Payer:      f.payer,
			})
			require.NoError(t, err)
			require.Equal(t, *asset, *updated)
		}

		got, err := f.svc.GetAsset(ctx, asset.Address)
		require.NoError(t, err)
		require.Equal(t, *asset, *got)
		require.Len(t, f.events.savedEvents(), numOfEvents)
	})

	t.Run("update authority override", func(t *testing.T) {
		fixtures := []struct {
			name     string
			override bool
			code     uint16
		}{
			{name: "enabled", override: true},
			{name: "disabled", override: false, code: errors.UNAUTHORIZED.Code},
		}

		for _, fixture := range fixtures {
			t.Run(fixture.name, func(t *testing.T) {
				f := newTestFixture(t, fixture.override)
				asset := f.mint(t, newIdentity(t), false)

				updated, err := f.svc.UpdateAsset(ctx, UpdateAssetRequest{
					Asset:      asset.Address,
					Collection: f.collection.Address,
					Patch:      domain.AssetPatch{Uri: domain.SetTo("https://fixed.com")},
					Authority:  f.authority,
					Payer:      f.payer,
				})
				if fixture.code == 0 {
					require.NoError(t, err)
					require.Equal(t, "https://fixed.com", updated.Uri)
					return
				}
				requireErrorCode(t, err, fixture.code)
				got, err := f.svc.GetAsset(ctx, asset.Address)
				require.NoError(t, err)
				require.Equal(t, asset.Uri, got.Uri)
			})
		}
	})

	t.Run("invalid", func(t *testing.T) {
		f := newTestFixture(t, true)
		owner := newIdentity(t)
		asset := f.mint(t, owner, false)
		patch := domain.AssetPatch{Name: domain.SetTo("Changed")}

		// Exists but does not own the asset.
		otherAuthority := newIdentity(t)
		otherCollection, err := f.svc.CreateCollection(ctx, CreateCollectionRequest{
			Address:   newIdentity(t),
			Authority: otherAuthority,
			Payer:     otherAuthority,
		})
		require.NoError(t, err)

		fixtures := []struct {
			name string
			req  UpdateAssetRequest
			code uint16
		}{
			{
				name: "signer is neither owner nor update authority",
				req: UpdateAssetRequest{
					Asset:      asset.Address,
					Collection: f.collection.Address,
					Patch:      patch,
					Authority:  newIdentity(t),
					Payer:      f.payer,
				},
				code: errors.UNAUTHORIZED.Code,
			},
			{
				name: "unauthorized empty patch",
				req: UpdateAssetRequest{
					Asset:      asset.Address,
					Collection: f.collection.Address,
					Authority:  newIdentity(t),
					Payer:      f.payer,
				},
				code: errors.UNAUTHORIZED.Code,
			},
			{
				name: "asset not found",
				req: UpdateAssetRequest{
					Asset:      newIdentity(t),
					Collection: f.collection.Address,
					Patch:      patch,
					Authority:  owner,
					Payer:      f.payer,
				},
				code: errors.ASSET_NOT_FOUND.Code,
			},
			{
				name: "asset and collection not found",
				req: UpdateAssetRequest{
					Asset:      newIdentity(t),
					Collection: newIdentity(t),
					Patch:      patch,
					Authority:  owner,
					Payer:      f.payer,
				},
				code: errors.ASSET_NOT_FOUND.Code,
			},
			{
				name: "collection not found",
				req: UpdateAssetRequest{
					Asset:      asset.Address,
					Collection: newIdentity(t),
					Patch:      patch,
					Authority:  owner,
					Payer:      f.payer,
				},
				code: errors.ASSET_COLLECTION_MISMATCH.Code,
			},
			{
				name: "asset belongs to another collection",
				req: UpdateAssetRequest{
					Asset:      asset.Address,
					Collection: otherCollection.Address,
					Patch:      patch,
					Authority:  owner,
					Payer:      f.payer,
				},
				code: errors.ASSET_COLLECTION_MISMATCH.Code,
			},
		}

		for _, fixture := range fixtures {
			t.Run(fixture.name, func(t *testing.T) {
				updated, err := f.svc.UpdateAsset(ctx, fixture.req)
				requireErrorCode(t, err, fixture.code)
				require.Nil(t, updated)
			})
		}

		got, err := f.svc.GetAsset(ctx, asset.Address)
		require.NoError(t, err)
		require.Equal(t, *asset, *got)
	})
}

func TestTransferAsset(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		f := newTestFixture(t, true)
		owner := newIdentity(t)
		newOwner := newIdentity(t)
		asset := f.mint(t, owner, true)

		transferred, err := f.svc.TransferAsset(ctx, TransferAssetRequest{
			Asset:      asset.Address,
			Collection: f.collection.Address,
			Authority:  owner,
			NewOwner:   newOwner,
			Payer:      f.payer,
		})
		require.NoError(t, err)
		require.Equal(t, newOwner, transferred.Owner)
		require.Equal(t, f.collection.Address, transferred.Collection)
		require.Equal(t, asset.Name, transferred.Name)

		assets, err := f.svc.ListAssets(ctx, domain.AssetFilter{Owner: newOwner})
		require.NoError(t, err)
		require.Len(t, assets, 1)
		assets, err = f.svc.ListAssets(ctx, domain.AssetFilter{Owner: owner})
		require.NoError(t, err)
		require.Empty(t, assets)

		saved := f.events.savedEvents()
		event, ok := saved[len(saved)-1].(domain.AssetTransferred)
		require.True(t, ok)
		require.Equal(t, owner, event.From)
		require.Equal(t, newOwner, event.To)

		// The previous owner lost transfer rights.
		_, err = f.svc.TransferAsset(ctx, TransferAssetRequest{
			Asset:      asset.Address,
			Collection: f.collection.Address,
			Authority:  owner,
			NewOwner:   owner,
			Payer:      f.payer,
		})
		requireErrorCode(t, err, errors.UNAUTHORIZED.Code)
	})

	t.Run("signer is not the owner", func(t *testing.T) {
		f := newTestFixture(t, true)
		owner := newIdentity(t)
		asset := f.mint(t, owner, false)

		for _, signer := range []domain.Identity{newIdentity(t), f.authority, f.payer} {
			transferred, err := f.svc.TransferAsset(ctx, TransferAssetRequest{
				Asset:      asset.Address,
				Collection: f.collection.Address,
				Authority:  signer,
				NewOwner:   signer,
				Payer:      f.payer,
			})
			requireErrorCode(t, err, errors.UNAUTHORIZED.Code)
			require.Nil(t, transferred)

			got, err := f.svc.GetAsset(ctx, asset.Address)
			require.NoError(t, err)
			require.Equal(t, owner, got.Owner)
		}
	})

	t.Run("frozen", func(t *testing.T) {
		f := newTestFixture(t, true)
		owner := newIdentity(t)
		asset := f.mint(t, owner, true)

		_, err := f.svc.UpdateFreezeDelegate(ctx, UpdateFreezeDelegateRequest{
			Asset:      asset.Address,
			Collection: f.collection.Address,
			Frozen:     true,
			Authority:  owner,
			Payer:      f.payer,
		})
		require.NoError(t, err)

		for _, signer := range []domain.Identity{owner, newIdentity(t)} {
			transferred, err := f.svc.TransferAsset(ctx, TransferAssetRequest{
				Asset:      asset.Address,
				Collection: f.collection.Address,
				Authority:  signer,
				NewOwner:   newIdentity(t),
				Payer:      f.payer,
			})
			requireErrorCode(t, err, errors.ASSET_FROZEN.Code)
			require.Nil(t, transferred)
		}

		got, err := f.svc.GetAsset(ctx, asset.Address)
		require.NoError(t, err)
		require.Equal(t, owner, got.Owner)
		require.True(t, got.IsFrozen())
	})

	t.Run("invalid", func(t *testing.T) {
		f := newTestFixture(t, true)
		owner := newIdentity(t)
		asset := f.mint(t, owner, false)

		fixtures := []struct {
			name string
			req  TransferAssetRequest
			code uint16
		}{
			{
				name: "asset not found",
				req: TransferAssetRequest{
					Asset:      newIdentity(t),
					Collection: f.collection.Address,
					Authority:  owner,
					NewOwner:   newIdentity(t),
					Payer:      f.payer,
				},
				code: errors.ASSET_NOT_FOUND.Code,
			},
			{
				name: "asset belongs to another collection",
				req: TransferAssetRequest{
					Asset:      asset.Address,
					Collection: newIdentity(t),
					Authority:  owner,
					NewOwner:   newIdentity(t),
					Payer:      f.payer,
				},
				code: errors.ASSET_COLLECTION_MISMATCH.Code,
			},
			{
				name: "missing new owner",
				req: TransferAssetRequest{
					Asset:      asset.Address,
					Collection: f.collection.Address,
					Authority:  owner,
					Payer:      f.payer,
				},
				code: errors.INVALID_REQUEST.Code,
			},
		}

		for _, fixture := range fixtures {
			t.Run(fixture.name, func(t *testing.T) {
				transferred, err := f.svc.TransferAsset(ctx, fixture.req)
				requireErrorCode(t, err, fixture.code)
				require.Nil(t, transferred)
			})
		}
	})
}

func TestUpdateFreezeDelegate(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		f := newTestFixture(t, true)
		owner := newIdentity(t)
		newOwner := newIdentity(t)
		asset := f.mint(t, owner, true)

		frozen, err := f.svc.UpdateFreezeDelegate(ctx, UpdateFreezeDelegateRequest{
			Asset:      asset.Address,
			Collection: f.collection.Address,
			Frozen:     true,
			Authority:  owner,
			Payer:      f.payer,
		})
		require.NoError(t, err)
		require.True(t, frozen.IsFrozen())

		saved := f.events.savedEvents()
		event, ok := saved[len(saved)-1].(domain.AssetFreezeUpdated)
		require.True(t, ok)
		require.True(t, event.Frozen)

		thawed, err := f.svc.UpdateFreezeDelegate(ctx, UpdateFreezeDelegateRequest{
			Asset:      asset.Address,
			Collection: f.collection.Address,
			Frozen:     false,
			Authority:  owner,
			Payer:      f.payer,
		})
		require.NoError(t, err)
		require.False(t, thawed.IsFrozen())

		_, err = f.svc.TransferAsset(ctx, TransferAssetRequest{
			Asset:      asset.Address,
			Collection: f.collection.Address,
			Authority:  owner,
			NewOwner:   newOwner,
			Payer:      f.payer,
		})
		require.NoError(t, err)

		// The freeze authority follows the owner.
		_, err = f.svc.UpdateFreezeDelegate(ctx, UpdateFreezeDelegateRequest{
			Asset:      asset.Address,
			Collection: f.collection.Address,
			Frozen:     true,
			Authority:  owner,
			Payer:      f.payer,
		})
		requireErrorCode(t, err, errors.UNAUTHORIZED.Code)

		frozen, err = f.svc.UpdateFreezeDelegate(ctx, UpdateFreezeDelegateRequest{
			Asset:      asset.Address,
			Collection: f.collection.Address,
			Frozen:     true,
			Authority:  newOwner,
			Payer:      f.payer,
		})
		require.NoError(t, err)
		require.True(t, frozen.IsFrozen())
	})

	t.Run("invalid", func(t *testing.T) {
		f := newTestFixture(t, true)
		owner := newIdentity(t)
		plain := f.mint(t, owner, false)
		freezable := f.mint(t, owner, true)

		fixtures := []struct {
			name string
			req  UpdateFreezeDelegateRequest
			code uint16
		}{
			{
				name: "asset has no freeze delegate",
				req: UpdateFreezeDelegateRequest{
					Asset:      plain.Address,
					Collection: f.collection.Address,
					Frozen:     true,
					Authority:  owner,
					Payer:      f.payer,
				},
				code: errors.PLUGIN_NOT_FOUND.Code,
			},
			{
				name: "signer is not the plugin authority",
				req: UpdateFreezeDelegateRequest{
					Asset:      freezable.Address,
					Collection: f.collection.Address,
					Frozen:     true,
					Authority:  f.authority,
					Payer:      f.payer,
				},
				code: errors.UNAUTHORIZED.Code,
			},
			{
				name: "asset not found",
				req: UpdateFreezeDelegateRequest{
					Asset:      newIdentity(t),
					Collection: f.collection.Address,
					Frozen:     true,
					Authority:  owner,
					Payer:      f.payer,
				},
				code: errors.ASSET_NOT_FOUND.Code,
			},
			{
				name: "asset and collection not found",
				req: UpdateFreezeDelegateRequest{
					Asset:      newIdentity(t),
					Collection: newIdentity(t),
					Frozen:     true,
					Authority:  owner,
					Payer:      f.payer,
				},
				code: errors.ASSET_NOT_FOUND.Code,
			},
			{
				name: "collection not found",
				req: UpdateFreezeDelegateRequest{
					Asset:      freezable.Address,
					Collection: newIdentity(t),
					Frozen:     true,
					Authority:  owner,
					Payer:      f.payer,
				},
				code: errors.ASSET_COLLECTION_MISMATCH.Code,
			},
		}

		for _, fixture := range fixtures {
			t.Run(fixture.name, func(t *testing.T) {
				asset, err := f.svc.UpdateFreezeDelegate(ctx, fixture.req)
				requireErrorCode(t, err, fixture.code)
				require.Nil(t, asset)
			})
		}

		got, err := f.svc.GetAsset(ctx, freezable.Address)
		require.NoError(t, err)
		require.False(t, got.IsFrozen())
	})
}

func TestGetters(t *testing.T) {
	ctx := context.Background()
	f := newTestFixture(t, true)
	owner := newIdentity(t)
	assets := []*domain.Asset{f.mint(t, owner, false), f.mint(t, newIdentity(t), true)}

	t.Run("get asset", func(t *testing.T) {
		asset, err := f.svc.GetAsset(ctx, newIdentity(t))
		requireErrorCode(t, err, errors.ASSET_NOT_FOUND.Code)
		require.Nil(t, asset)
	})

	t.Run("get collection", func(t *testing.T) {
		collection, err := f.svc.GetCollection(ctx, newIdentity(t))
		requireErrorCode(t, err, errors.COLLECTION_NOT_FOUND.Code)
		require.Nil(t, collection)
	})

	t.Run("list assets", func(t *testing.T) {
		got, err := f.svc.ListAssets(ctx, domain.AssetFilter{})
		require.NoError(t, err)
		require.Len(t, got, len(assets))

		got, err = f.svc.ListAssets(ctx, domain.AssetFilter{
			Collection: f.collection.Address, Owner: owner,
		})
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.Equal(t, *assets[0], got[0])

		got, err = f.svc.ListAssets(ctx, domain.AssetFilter{Collection: newIdentity(t)})
		require.NoError(t, err)
		require.Empty(t, got)
	})
}
