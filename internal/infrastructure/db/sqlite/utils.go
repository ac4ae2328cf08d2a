package sqlitedb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/arkade-os/assetreg/internal/core/domain"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

const (
	driverName = "sqlite"
	maxRetries = 5
)

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// OpenDb opens the sqlite db file with foreign keys enforced. A single
// connection serializes every write.
func OpenDb(dbPath string) (*sql.DB, error) {
	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		// nolint:all
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}
	return db, nil
}

func execTx(ctx context.Context, db *sql.DB, txBody func(*sql.Tx) error) error {
	var lastErr error
	for range maxRetries {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}

		if err := txBody(tx); err != nil {
			//nolint:all
			tx.Rollback()

			if isConflictError(err) {
				lastErr = err
				time.Sleep(100 * time.Millisecond)
				continue
			}
			return err
		}

		if err := tx.Commit(); err != nil {
			if isConflictError(err) {
				lastErr = err
				time.Sleep(100 * time.Millisecond)
				continue
			}
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil
	}

	return lastErr
}

func isConflictError(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_BUSY, sqlite3lib.SQLITE_LOCKED:
			return true
		}
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "database is locked") ||
		strings.Contains(errMsg, "database table is locked")
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

func encodePlugins(plugins domain.PluginSet) (string, error) {
	buf, err := json.Marshal(plugins)
	if err != nil {
		return "", fmt.Errorf("failed to encode plugins: %w", err)
	}
	return string(buf), nil
}

func decodePlugins(buf string) (domain.PluginSet, error) {
	var plugins domain.PluginSet
	if err := json.Unmarshal([]byte(buf), &plugins); err != nil {
		return nil, fmt.Errorf("failed to decode plugins: %w", err)
	}
	return plugins, nil
}
