package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/arkade-os/assetreg/internal/core/application"
	"github.com/arkade-os/assetreg/internal/core/ports"
	"github.com/arkade-os/assetreg/internal/infrastructure/db"
	"github.com/btcsuite/btcd/btcutil"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var (
	supportedEventDbs = supportedType{
		"inmemory": {},
		"postgres": {},
	}
	supportedDbs = supportedType{
		"badger":   {},
		"sqlite":   {},
		"postgres": {},
		"redis":    {},
	}
)

type Config struct {
	Datadir  string
	LogLevel int

	DbType                  string
	EventDbType             string
	DbDir                   string
	DbUrl                   string
	EventDbUrl              string
	RedisUrl                string
	RedisTxNumOfRetries     int
	BadgerGCInterval        int64
	UpdateAuthorityOverride bool

	OtelCollectorEndpoint string
	OtelPushInterval      int64

	repo ports.RepoManager
	svc  application.Service
}

func (c *Config) String() string {
	clone := *c
	clone.DbUrl = redactUrl(clone.DbUrl)
	clone.EventDbUrl = redactUrl(clone.EventDbUrl)
	clone.RedisUrl = redactUrl(clone.RedisUrl)
	json, err := json.MarshalIndent(clone, "", "  ")
	if err != nil {
		return fmt.Sprintf("error while marshalling config JSON: %s", err)
	}
	return string(json)
}

var (
	defaultDatadir                 = btcutil.AppDataDir("assetreg", false)
	defaultDbType                  = "badger"
	defaultEventDbType             = "inmemory"
	defaultRedisTxNumOfRetries     = 10
	defaultLogLevel                = 4
	defaultOtelPushInterval        = 10  // seconds
	defaultBadgerGCInterval        = 300 // seconds
	defaultUpdateAuthorityOverride = true
)

// env returns a list of strings prefixed with `ASSETREG_`.
// This is used as a syntax sugar for defining env vars.
func env(values ...string) []string {
	envs := make([]string, len(values))

	for i, value := range values {
		envs[i] = fmt.Sprintf("ASSETREG_%s", value)
	}

	return envs
}

var (
	Datadir = &cli.StringFlag{
		Usage: "Directory to store data",
		Name:  "datadir", EnvVars: env("DATADIR"),
		Value: defaultDatadir,
	}

	LogLevel = &cli.IntFlag{
		Usage: "Logging level (0-6, where 6 is trace)",
		Name:  "log-level", EnvVars: env("LOG_LEVEL"),
		Value: defaultLogLevel,
	}

	DbType = &cli.StringFlag{
		Usage: "Database type (badger, sqlite, postgres, redis)",
		Name:  "db-type", EnvVars: env("DB_TYPE"),
		Value: defaultDbType,
	}

	DbUrl = &cli.StringFlag{
		Usage: "Postgres connection url if ASSETREG_DB_TYPE is set to postgres",
		Name:  "pg-db-url", EnvVars: env("PG_DB_URL"),
	}

	EventDbType = &cli.StringFlag{
		Usage: "Event database type (inmemory, postgres)",
		Name:  "event-db-type", EnvVars: env("EVENT_DB_TYPE"),
		Value: defaultEventDbType,
	}

	EventDbUrl = &cli.StringFlag{
		Usage: "Postgres connection url if ASSETREG_EVENT_DB_TYPE is set to postgres",
		Name:  "pg-event-db-url", EnvVars: env("PG_EVENT_DB_URL"),
	}

	RedisUrl = &cli.StringFlag{
		Usage: "Redis connection url if ASSETREG_DB_TYPE is set to redis",
		Name:  "redis-url", EnvVars: env("REDIS_URL"),
	}

	RedisTxNumOfRetries = &cli.IntFlag{
		Usage: "Maximum number of retries for Redis write operations in case of conflicts",
		Name:  "redis-num-of-retries", EnvVars: env("REDIS_NUM_OF_RETRIES"),
		Value: defaultRedisTxNumOfRetries,
	}

	BadgerGCInterval = &cli.Int64Flag{
		Usage: "Interval (in seconds) between badger value log garbage collections, 0 to disable",
		Name:  "badger-gc-interval", EnvVars: env("BADGER_GC_INTERVAL"),
		Value: int64(defaultBadgerGCInterval),
	}

	UpdateAuthorityOverride = &cli.BoolFlag{
		Usage: "Allow the collection update authority to update the metadata of any of its assets",
		Name:  "update-authority-override", EnvVars: env("UPDATE_AUTHORITY_OVERRIDE"),
		Value: defaultUpdateAuthorityOverride,
	}

	OtelCollectorEndpoint = &cli.StringFlag{
		Usage: "OpenTelemetry collector endpoint",
		Name:  "otel-collector-endpoint", EnvVars: env("OTEL_COLLECTOR_ENDPOINT"),
	}

	OtelPushInterval = &cli.Int64Flag{
		Usage: "OpenTelemetry push interval (in seconds)",
		Name:  "otel-push-interval", EnvVars: env("OTEL_PUSH_INTERVAL"),
		Value: int64(defaultOtelPushInterval),
	}
)

var Flags = []cli.Flag{
	Datadir,
	LogLevel,
	DbType,
	DbUrl,
	EventDbType,
	EventDbUrl,
	RedisUrl,
	RedisTxNumOfRetries,
	BadgerGCInterval,
	UpdateAuthorityOverride,
	OtelCollectorEndpoint,
	OtelPushInterval,
}

func LoadConfig(c *cli.Context) (*Config, error) {
	if err := initDatadir(c); err != nil {
		return nil, fmt.Errorf("failed to create datadir: %s", err)
	}

	dbPath := filepath.Join(c.String(Datadir.Name), "db")
	if err := makeDirectoryIfNotExists(dbPath); err != nil {
		return nil, fmt.Errorf("failed to create db dir: %s", err)
	}

	var eventDbUrl string
	if c.String(EventDbType.Name) == "postgres" {
		eventDbUrl = c.String(EventDbUrl.Name)
		if eventDbUrl == "" {
			return nil, fmt.Errorf("event db type set to 'postgres' but event db url is missing")
		}
	}

	var dbUrl string
	if c.String(DbType.Name) == "postgres" {
		dbUrl = c.String(DbUrl.Name)
		if dbUrl == "" {
			return nil, fmt.Errorf("db type set to 'postgres' but db url is missing")
		}
	}

	var redisUrl string
	if c.String(DbType.Name) == "redis" {
		redisUrl = c.String(RedisUrl.Name)
		if redisUrl == "" {
			return nil, fmt.Errorf("db type set to 'redis' but redis url is missing")
		}
	}

	return &Config{
		Datadir:                 c.String(Datadir.Name),
		LogLevel:                c.Int(LogLevel.Name),
		DbType:                  c.String(DbType.Name),
		EventDbType:             c.String(EventDbType.Name),
		DbDir:                   dbPath,
		DbUrl:                   dbUrl,
		EventDbUrl:              eventDbUrl,
		RedisUrl:                redisUrl,
		RedisTxNumOfRetries:     c.Int(RedisTxNumOfRetries.Name),
		BadgerGCInterval:        c.Int64(BadgerGCInterval.Name),
		UpdateAuthorityOverride: c.Bool(UpdateAuthorityOverride.Name),
		OtelCollectorEndpoint:   c.String(OtelCollectorEndpoint.Name),
		OtelPushInterval:        c.Int64(OtelPushInterval.Name),
	}, nil
}

func initDatadir(c *cli.Context) error {
	datadir := c.String(Datadir.Name)
	return makeDirectoryIfNotExists(datadir)
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0o755)
	}
	return nil
}

func (c *Config) Validate() error {
	if !supportedEventDbs.supports(c.EventDbType) {
		return fmt.Errorf(
			"event db type not supported, please select one of: %s",
			supportedEventDbs,
		)
	}
	if !supportedDbs.supports(c.DbType) {
		return fmt.Errorf("db type not supported, please select one of: %s", supportedDbs)
	}
	if c.LogLevel < int(log.PanicLevel) || c.LogLevel > int(log.TraceLevel) {
		return fmt.Errorf("log level must be in range [0, 6]")
	}
	if c.EventDbType == "postgres" && c.EventDbUrl == "" {
		return fmt.Errorf("missing event db url")
	}
	switch c.DbType {
	case "badger", "sqlite":
		if c.DbDir == "" {
			return fmt.Errorf("missing db dir")
		}
	case "postgres":
		if c.DbUrl == "" {
			return fmt.Errorf("missing db url")
		}
	case "redis":
		if c.RedisUrl == "" {
			return fmt.Errorf("missing redis url")
		}
		if c.RedisTxNumOfRetries <= 0 {
			return fmt.Errorf("redis num of retries must be greater than 0")
		}
	}
	if c.BadgerGCInterval < 0 {
		return fmt.Errorf("badger gc interval must not be negative")
	}
	if c.OtelCollectorEndpoint != "" && c.OtelPushInterval <= 0 {
		return fmt.Errorf("otel push interval must be greater than 0")
	}
	return nil
}

func (c *Config) AppService() (application.Service, error) {
	if c.svc == nil {
		if err := c.appService(); err != nil {
			return nil, err
		}
	}
	return c.svc, nil
}

// Close releases the storage opened by the services, if any.
func (c *Config) Close() {
	if c.repo != nil {
		c.repo.Close()
		c.repo = nil
		c.svc = nil
	}
}

func (c *Config) repoManager() error {
	var eventStoreConfig []interface{}
	var dataStoreConfig []interface{}
	logger := log.StandardLogger()

	switch c.EventDbType {
	case "inmemory":
	case "postgres":
		eventStoreConfig = []interface{}{c.EventDbUrl, true}
	default:
		return fmt.Errorf("unknown event db type")
	}

	switch c.DbType {
	case "badger":
		gcInterval := time.Duration(c.BadgerGCInterval) * time.Second
		dataStoreConfig = []interface{}{c.DbDir, logger, gcInterval}
	case "sqlite":
		dataStoreConfig = []interface{}{c.DbDir}
	case "postgres":
		dataStoreConfig = []interface{}{c.DbUrl, true}
	case "redis":
		dataStoreConfig = []interface{}{c.RedisUrl, c.RedisTxNumOfRetries}
	default:
		return fmt.Errorf("unknown db type")
	}

	svc, err := db.NewService(db.ServiceConfig{
		EventStoreType:   c.EventDbType,
		DataStoreType:    c.DbType,
		EventStoreConfig: eventStoreConfig,
		DataStoreConfig:  dataStoreConfig,
	})
	if err != nil {
		return err
	}

	c.repo = svc
	return nil
}

func (c *Config) appService() error {
	if c.repo == nil {
		if err := c.repoManager(); err != nil {
			return err
		}
	}

	svc, err := application.NewService(c.repo, c.UpdateAuthorityOverride)
	if err != nil {
		return err
	}

	c.svc = svc
	return nil
}

// redactUrl hides the password of a connection url.
func redactUrl(rawUrl string) string {
	u, err := url.Parse(rawUrl)
	if err != nil {
		return ""
	}
	return u.Redacted()
}

type supportedType map[string]struct{}

func (t supportedType) String() string {
	types := make([]string, 0, len(t))
	for tt := range t {
		types = append(types, tt)
	}
	return strings.Join(types, " | ")
}

func (t supportedType) supports(typeStr string) bool {
	_, ok := t[typeStr]
	return ok
}
