package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/arkade-os/assetreg/internal/core/domain"
	"github.com/arkade-os/assetreg/internal/core/ports"
	badgerdb "github.com/arkade-os/assetreg/internal/infrastructure/db/badger"
	pgdb "github.com/arkade-os/assetreg/internal/infrastructure/db/postgres"
	redisdb "github.com/arkade-os/assetreg/internal/infrastructure/db/redis"
	sqlitedb "github.com/arkade-os/assetreg/internal/infrastructure/db/sqlite"
	watermilldb "github.com/arkade-os/assetreg/internal/infrastructure/db/watermill"
	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/redis/go-redis/v9"
)

//go:embed sqlite/migration/*
var migrations embed.FS

//go:embed postgres/migration/*
var pgMigration embed.FS

var (
	eventStoreTypes = map[string]func(...interface{}) (domain.EventRepository, error){
		"inmemory": watermilldb.NewInMemoryEventRepository,
		"postgres": watermilldb.NewPostgresEventRepository,
	}
	collectionStoreTypes = map[string]func(...interface{}) (domain.CollectionRepository, error){
		"badger":   badgerdb.NewCollectionRepository,
		"sqlite":   sqlitedb.NewCollectionRepository,
		"postgres": pgdb.NewCollectionRepository,
		"redis":    redisdb.NewCollectionRepository,
	}
	assetStoreTypes = map[string]func(...interface{}) (domain.AssetRepository, error){
		"badger":   badgerdb.NewAssetRepository,
		"sqlite":   sqlitedb.NewAssetRepository,
		"postgres": pgdb.NewAssetRepository,
		"redis":    redisdb.NewAssetRepository,
	}
)

const (
	sqliteDbFile = "sqlite.db"
)

type ServiceConfig struct {
	EventStoreType string
	DataStoreType  string

	// EventStoreConfig is empty for inmemory, [dsn, autoCreate] for postgres.
	EventStoreConfig []interface{}
	// DataStoreConfig is [baseDir, badger.Logger, gcInterval] for badger,
	// [baseDir] for sqlite, [dsn, autoCreate] for postgres and
	// [redisUrl, numOfRetries] for redis.
	DataStoreConfig []interface{}
}

type service struct {
	eventStore      domain.EventRepository
	collectionStore domain.CollectionRepository
	assetStore      domain.AssetRepository
}

func NewService(config ServiceConfig) (ports.RepoManager, error) {
	eventStoreFactory, ok := eventStoreTypes[config.EventStoreType]
	if !ok {
		return nil, fmt.Errorf("event store type not supported")
	}
	collectionStoreFactory, ok := collectionStoreTypes[config.DataStoreType]
	if !ok {
		return nil, fmt.Errorf("collection store type not supported")
	}
	assetStoreFactory, ok := assetStoreTypes[config.DataStoreType]
	if !ok {
		return nil, fmt.Errorf("asset store type not supported")
	}

	var eventStore domain.EventRepository
	var collectionStore domain.CollectionRepository
	var assetStore domain.AssetRepository
	var err error

	switch config.EventStoreType {
	case "inmemory":
		eventStore, err = eventStoreFactory(config.EventStoreConfig...)
		if err != nil {
			return nil, fmt.Errorf("failed to open event store: %s", err)
		}
	case "postgres":
		db, err := openPostgres(config.EventStoreConfig)
		if err != nil {
			return nil, err
		}

		eventStore, err = eventStoreFactory(db)
		if err != nil {
			return nil, fmt.Errorf("failed to open event store: %s", err)
		}
	default:
		return nil, fmt.Errorf("unknown event store db type")
	}

	var dataStoreConfig, assetStoreConfig []interface{}
	switch config.DataStoreType {
	case "badger":
		dataStoreConfig = config.DataStoreConfig

	case "postgres":
		db, err := openPostgres(config.DataStoreConfig)
		if err != nil {
			eventStore.Close()
			return nil, err
		}

		if err := migratePostgres(db); err != nil {
			eventStore.Close()
			return nil, err
		}
		dataStoreConfig = []interface{}{db}

	case "sqlite":
		if len(config.DataStoreConfig) != 1 {
			eventStore.Close()
			return nil, fmt.Errorf("invalid data store config")
		}

		baseDir, ok := config.DataStoreConfig[0].(string)
		if !ok {
			eventStore.Close()
			return nil, fmt.Errorf("invalid base directory")
		}

		dbFile := filepath.Join(baseDir, sqliteDbFile)
		db, err := sqlitedb.OpenDb(dbFile)
		if err != nil {
			eventStore.Close()
			return nil, fmt.Errorf("failed to open db: %s", err)
		}

		if err := migrateSqlite(db); err != nil {
			eventStore.Close()
			return nil, err
		}
		dataStoreConfig = []interface{}{db}

	case "redis":
		if len(config.DataStoreConfig) != 2 {
			eventStore.Close()
			return nil, fmt.Errorf("invalid data store config for redis")
		}

		redisUrl, ok := config.DataStoreConfig[0].(string)
		if !ok {
			eventStore.Close()
			return nil, fmt.Errorf("invalid redis url")
		}
		redisOpts, err := redis.ParseURL(redisUrl)
		if err != nil {
			eventStore.Close()
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		// Every repository owns and closes its own client.
		dataStoreConfig = []interface{}{redis.NewClient(redisOpts), config.DataStoreConfig[1]}
		assetStoreConfig = []interface{}{redis.NewClient(redisOpts), config.DataStoreConfig[1]}
	}
	if assetStoreConfig == nil {
		assetStoreConfig = dataStoreConfig
	}

	collectionStore, err = collectionStoreFactory(dataStoreConfig...)
	if err != nil {
		eventStore.Close()
		return nil, fmt.Errorf("failed to open collection store: %s", err)
	}
	assetStore, err = assetStoreFactory(assetStoreConfig...)
	if err != nil {
		eventStore.Close()
		collectionStore.Close()
		return nil, fmt.Errorf("failed to open asset store: %s", err)
	}

	return &service{
		eventStore:      eventStore,
		collectionStore: collectionStore,
		assetStore:      assetStore,
	}, nil
}

func (s *service) Events() domain.EventRepository {
	return s.eventStore
}

func (s *service) Collections() domain.CollectionRepository {
	return s.collectionStore
}

func (s *service) Assets() domain.AssetRepository {
	return s.assetStore
}

func (s *service) Close() {
	s.eventStore.Close()
	s.collectionStore.Close()
	s.assetStore.Close()
}

func openPostgres(config []interface{}) (*sql.DB, error) {
	if len(config) != 2 {
		return nil, fmt.Errorf("invalid data store config for postgres")
	}

	dsn, ok := config[0].(string)
	if !ok {
		return nil, fmt.Errorf("invalid DSN for postgres")
	}

	autoCreate, ok := config[1].(bool)
	if !ok {
		return nil, fmt.Errorf("invalid autocreate flag for postgres")
	}

	db, err := pgdb.OpenDb(dsn, autoCreate)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres db: %s", err)
	}
	return db, nil
}

func migratePostgres(db *sql.DB) error {
	pgDriver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("failed to init postgres migration driver: %s", err)
	}

	source, err := iofs.New(pgMigration, "postgres/migration")
	if err != nil {
		return fmt.Errorf("failed to embed postgres migrations: %s", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", pgDriver)
	if err != nil {
		return fmt.Errorf("failed to create postgres migration instance: %s", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run postgres migrations: %s", err)
	}
	return nil
}

func migrateSqlite(db *sql.DB) error {
	driver, err := sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
	if err != nil {
		return fmt.Errorf("failed to init driver: %s", err)
	}

	source, err := iofs.New(migrations, "sqlite/migration")
	if err != nil {
		return fmt.Errorf("failed to embed migrations: %s", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "assetregdb", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %s", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %s", err)
	}
	return nil
}
