package db_test

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/arkade-os/assetreg/internal/core/domain"
	"github.com/arkade-os/assetreg/internal/core/ports"
	"github.com/arkade-os/assetreg/internal/infrastructure/db"
	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

const (
	pgUrlEnv    = "ASSETREG_TEST_PG_URL"
	redisUrlEnv = "ASSETREG_TEST_REDIS_URL"
)

func TestService(t *testing.T) {
	dbDir := t.TempDir()
	tests := []struct {
		name   string
		config db.ServiceConfig
	}{
		{
			name: "repo_manager_with_inmemory_badger_stores",
			config: db.ServiceConfig{
				EventStoreType:  "inmemory",
				DataStoreType:   "badger",
				DataStoreConfig: []interface{}{"", nil},
			},
		},
		{
			name: "repo_manager_with_badger_stores",
			config: db.ServiceConfig{
				EventStoreType:  "inmemory",
				DataStoreType:   "badger",
				DataStoreConfig: []interface{}{t.TempDir(), nil, time.Minute},
			},
		},
		{
			name: "repo_manager_with_sqlite_stores",
			config: db.ServiceConfig{
				EventStoreType:  "inmemory",
				DataStoreType:   "sqlite",
				DataStoreConfig: []interface{}{dbDir},
			},
		},
	}
	if pgUrl := os.Getenv(pgUrlEnv); pgUrl != "" {
		tests = append(tests, struct {
			name   string
			config db.ServiceConfig
		}{
			name: "repo_manager_with_postgres_stores",
			config: db.ServiceConfig{
				EventStoreType:   "postgres",
				DataStoreType:    "postgres",
				EventStoreConfig: []interface{}{pgUrl, true},
				DataStoreConfig:  []interface{}{pgUrl, true},
			},
		})
	}
	if redisUrl := os.Getenv(redisUrlEnv); redisUrl != "" {
		tests = append(tests, struct {
			name   string
			config db.ServiceConfig
		}{
			name: "repo_manager_with_redis_stores",
			config: db.ServiceConfig{
				EventStoreType:  "inmemory",
				DataStoreType:   "redis",
				DataStoreConfig: []interface{}{redisUrl, 5},
			},
		})
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := db.NewService(tt.config)
			require.NoError(t, err)
			require.NotNil(t, svc)

			testEventRepository(t, svc)
			testCollectionRepository(t, svc)
			testAssetRepository(t, svc)

			svc.Close()
		})
	}
}

func TestServiceInvalidConfig(t *testing.T) {
	fixtures := []struct {
		name   string
		config db.ServiceConfig
	}{
		{
			name: "unknown event store",
			config: db.ServiceConfig{
				EventStoreType:  "kafka",
				DataStoreType:   "badger",
				DataStoreConfig: []interface{}{"", nil},
			},
		},
		{
			name: "unknown data store",
			config: db.ServiceConfig{
				EventStoreType: "inmemory",
				DataStoreType:  "mongo",
			},
		},
		{
			name: "invalid badger config",
			config: db.ServiceConfig{
				EventStoreType:  "inmemory",
				DataStoreType:   "badger",
				DataStoreConfig: []interface{}{42, nil},
			},
		},
		{
			name: "invalid sqlite config",
			config: db.ServiceConfig{
				EventStoreType: "inmemory",
				DataStoreType:  "sqlite",
			},
		},
		{
			name: "invalid redis url",
			config: db.ServiceConfig{
				EventStoreType:  "inmemory",
				DataStoreType:   "redis",
				DataStoreConfig: []interface{}{"not a url", 5},
			},
		},
	}
	for _, f := range fixtures {
		t.Run(f.name, func(t *testing.T) {
			svc, err := db.NewService(f.config)
			require.Error(t, err)
			require.Nil(t, svc)
		})
	}
}

func TestServiceCloseRedis(t *testing.T) {
	// Clients connect lazily, no server is needed to open and close the stores.
	svc, err := db.NewService(db.ServiceConfig{
		EventStoreType:  "inmemory",
		DataStoreType:   "redis",
		DataStoreConfig: []interface{}{"redis://localhost:6379/0", 5},
	})
	require.NoError(t, err)

	hook := logtest.NewGlobal()
	defer hook.Reset()

	svc.Close()

	for _, entry := range hook.AllEntries() {
		require.Greater(t, entry.Level, log.WarnLevel, entry.Message)
	}
}

func testEventRepository(t *testing.T, svc ports.RepoManager) {
	t.Run("test_event_repository", func(t *testing.T) {
		ctx := context.Background()
		repo := svc.Events()

		collection := randomCollection(t)
		asset := randomAsset(t, collection.Address)
		minted := domain.NewAssetMinted(asset)
		asset.TransferTo(randomIdentity(t))
		transferred := domain.NewAssetTransferred(asset, minted.Owner)

		received := make(chan []domain.Event, 2)
		repo.RegisterEventsHandler(domain.AssetTopic, func(events []domain.Event) {
			received <- events
		})
		defer repo.ClearRegisteredHandlers(domain.AssetTopic)

		id := asset.Address.String()
		err := repo.Save(ctx, domain.AssetTopic, id, []domain.Event{minted})
		require.NoError(t, err)
		events := waitForEvents(t, received)
		require.Len(t, events, 1)
		require.Equal(t, domain.EventTypeAssetMinted, events[0].GetType())
		require.Equal(t, minted, events[0])

		err = repo.Save(ctx, domain.AssetTopic, id, []domain.Event{transferred})
		require.NoError(t, err)
		events = waitForEvents(t, received)
		require.Len(t, events, 2)
		require.Equal(t, domain.EventTypeAssetMinted, events[0].GetType())
		require.Equal(t, domain.EventTypeAssetTransferred, events[1].GetType())
		require.Equal(t, transferred, events[1])

		// Handlers of other topics are not notified.
		err = repo.Save(
			ctx, domain.CollectionTopic, collection.Address.String(),
			[]domain.Event{domain.NewCollectionCreated(collection)},
		)
		require.NoError(t, err)
		select {
		case events := <-received:
			t.Fatalf("unexpected events %v", events)
		case <-time.After(100 * time.Millisecond):
		}
	})
}

func testCollectionRepository(t *testing.T, svc ports.RepoManager) {
	t.Run("test_collection_repository", func(t *testing.T) {
		ctx := context.Background()
		repo := svc.Collections()

		collection := randomCollection(t)

		got, err := repo.GetCollection(ctx, collection.Address)
		require.NoError(t, err)
		require.Nil(t, got)

		err = repo.AddCollection(ctx, collection)
		require.NoError(t, err)

		got, err = repo.GetCollection(ctx, collection.Address)
		require.NoError(t, err)
		require.NotNil(t, got)
		require.Equal(t, collection, *got)
		require.Equal(t, uint16(500), got.Royalties().BasisPoints)

		duplicate := collection
		duplicate.Name = "Duplicate"
		err = repo.AddCollection(ctx, duplicate)
		require.ErrorIs(t, err, domain.ErrRecordExists)

		got, err = repo.GetCollection(ctx, collection.Address)
		require.NoError(t, err)
		require.Equal(t, collection.Name, got.Name)
	})
}

func testAssetRepository(t *testing.T, svc ports.RepoManager) {
	t.Run("test_asset_repository", func(t *testing.T) {
		ctx := context.Background()
		repo := svc.Assets()

		collection := randomCollection(t)
		otherCollection := randomCollection(t)
		require.NoError(t, svc.Collections().AddCollection(ctx, collection))
		require.NoError(t, svc.Collections().AddCollection(ctx, otherCollection))

		asset := randomAsset(t, collection.Address)
		otherAsset := randomAsset(t, collection.Address)
		otherAsset.Owner = asset.Owner
		foreignAsset := randomAsset(t, otherCollection.Address)

		got, err := repo.GetAsset(ctx, asset.Address)
		require.NoError(t, err)
		require.Nil(t, got)

		for _, a := range []domain.Asset{asset, otherAsset, foreignAsset} {
			require.NoError(t, repo.AddAsset(ctx, a))
		}

		got, err = repo.GetAsset(ctx, asset.Address)
		require.NoError(t, err)
		require.NotNil(t, got)
		require.Equal(t, asset, *got)

		duplicate := asset
		duplicate.Owner = randomIdentity(t)
		err = repo.AddAsset(ctx, duplicate)
		require.ErrorIs(t, err, domain.ErrRecordExists)

		t.Run("list", func(t *testing.T) {
			assets, err := repo.ListAssets(ctx, domain.AssetFilter{Collection: collection.Address})
			require.NoError(t, err)
			require.ElementsMatch(t, []domain.Asset{asset, otherAsset}, assets)
			require.True(t, assets[0].Address < assets[1].Address)

			assets, err = repo.ListAssets(ctx, domain.AssetFilter{Owner: asset.Owner})
			require.NoError(t, err)
			require.ElementsMatch(t, []domain.Asset{asset, otherAsset}, assets)

			assets, err = repo.ListAssets(ctx, domain.AssetFilter{
				Collection: otherCollection.Address, Owner: foreignAsset.Owner,
			})
			require.NoError(t, err)
			require.Equal(t, []domain.Asset{foreignAsset}, assets)

			assets, err = repo.ListAssets(ctx, domain.AssetFilter{
				Collection: otherCollection.Address, Owner: asset.Owner,
			})
			require.NoError(t, err)
			require.Empty(t, assets)

			assets, err = repo.ListAssets(ctx, domain.AssetFilter{})
			require.NoError(t, err)
			require.Subset(t, assets, []domain.Asset{asset, otherAsset, foreignAsset})
		})

		t.Run("update", func(t *testing.T) {
			newOwner := randomIdentity(t)
			updated, err := repo.UpdateAsset(ctx, asset.Address, func(a *domain.Asset) error {
				a.TransferTo(newOwner)
				a.ApplyPatch(domain.AssetPatch{Name: domain.SetTo("Renamed")})
				return nil
			})
			require.NoError(t, err)
			require.NotNil(t, updated)
			require.Equal(t, newOwner, updated.Owner)
			require.Equal(t, "Renamed", updated.Name)
			require.Equal(t, asset.Uri, updated.Uri)

			got, err := repo.GetAsset(ctx, asset.Address)
			require.NoError(t, err)
			require.Equal(t, *updated, *got)

			// The owner index follows the transfer.
			assets, err := repo.ListAssets(ctx, domain.AssetFilter{Owner: newOwner})
			require.NoError(t, err)
			require.Equal(t, []domain.Asset{*updated}, assets)
			assets, err = repo.ListAssets(ctx, domain.AssetFilter{Owner: asset.Owner})
			require.NoError(t, err)
			require.Equal(t, []domain.Asset{otherAsset}, assets)
			asset = *updated
		})

		t.Run("update aborted", func(t *testing.T) {
			errAbort := errors.New("abort")
			updated, err := repo.UpdateAsset(ctx, asset.Address, func(a *domain.Asset) error {
				a.TransferTo(randomIdentity(t))
				return errAbort
			})
			require.ErrorIs(t, err, errAbort)
			require.Nil(t, updated)

			got, err := repo.GetAsset(ctx, asset.Address)
			require.NoError(t, err)
			require.Equal(t, asset, *got)
		})

		t.Run("update missing", func(t *testing.T) {
			called := false
			updated, err := repo.UpdateAsset(ctx, randomIdentity(t), func(a *domain.Asset) error {
				called = true
				return nil
			})
			require.ErrorIs(t, err, domain.ErrRecordNotFound)
			require.Nil(t, updated)
			require.False(t, called)
		})

		t.Run("update plugins", func(t *testing.T) {
			updated, err := repo.UpdateAsset(ctx, foreignAsset.Address, func(a *domain.Asset) error {
				require.True(t, a.SetFrozen(true))
				return nil
			})
			require.NoError(t, err)
			require.True(t, updated.IsFrozen())

			got, err := repo.GetAsset(ctx, foreignAsset.Address)
			require.NoError(t, err)
			require.True(t, got.IsFrozen())
		})
	})
}

func waitForEvents(t *testing.T, ch <-chan []domain.Event) []domain.Event {
	t.Helper()
	select {
	case events := <-ch:
		return events
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for events")
		return nil
	}
}

func randomIdentity(t *testing.T) domain.Identity {
	t.Helper()
	buf := make([]byte, domain.IdentitySize)
	_, err := rand.Read(buf)
	require.NoError(t, err)
	id, err := domain.IdentityFromBytes(buf)
	require.NoError(t, err)
	return id
}

func randomCollection(t *testing.T) domain.Collection {
	authority := randomIdentity(t)
	address := randomIdentity(t)
	return domain.Collection{
		Address:         address,
		Name:            fmt.Sprintf("Collection %s", address[:6]),
		Uri:             "https://example.com/collection.json",
		UpdateAuthority: authority,
		Plugins: domain.EncodePlugins(domain.RoyaltiesSpec{
			BasisPoints: 500,
			Creators:    []domain.Creator{{Address: authority, Percentage: 100}},
		}),
		CreatedAt: time.Now().Unix(),
	}
}

func randomAsset(t *testing.T, collection domain.Identity) domain.Asset {
	now := time.Now().Unix()
	address := randomIdentity(t)
	return domain.Asset{
		Address:    address,
		Collection: collection,
		Owner:      randomIdentity(t),
		Name:       fmt.Sprintf("Asset %s", address[:6]),
		Uri:        "https://example.com/asset.json",
		Plugins:    domain.EncodePlugins(domain.FreezeDelegateSpec{}),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
