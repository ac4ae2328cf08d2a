package watermilldb

import (
	"database/sql"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	watermillsql "github.com/ThreeDotsLabs/watermill-sql/v3/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/arkade-os/assetreg/internal/core/domain"
	log "github.com/sirupsen/logrus"
)

// NewInMemoryEventRepository publishes on a watermill go channel and keeps
// the record history in memory.
func NewInMemoryEventRepository(config ...interface{}) (domain.EventRepository, error) {
	if len(config) > 0 {
		return nil, fmt.Errorf("invalid config: expected no arguments, got %d", len(config))
	}
	publisher := gochannel.NewGoChannel(gochannel.Config{}, NewLogrusAdapter())
	return NewWatermillEventRepository(publisher, nil), nil
}

// NewPostgresEventRepository expects [*sql.DB] and stores every topic in its
// own watermill table.
func NewPostgresEventRepository(config ...interface{}) (domain.EventRepository, error) {
	if len(config) != 1 {
		return nil, fmt.Errorf("invalid config: expected 1 argument, got %d", len(config))
	}
	db, ok := config[0].(*sql.DB)
	if !ok {
		return nil, fmt.Errorf(
			"cannot open event repository: expected *sql.DB but got %T", config[0],
		)
	}

	publisher, err := watermillsql.NewPublisher(
		db,
		watermillsql.PublisherConfig{
			SchemaAdapter:        watermillsql.DefaultPostgreSQLSchema{},
			AutoInitializeSchema: true,
		},
		NewLogrusAdapter(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create event publisher: %w", err)
	}

	return NewWatermillEventRepository(publisher, db), nil
}

type logrusAdapter struct {
	fields watermill.LogFields
}

// NewLogrusAdapter routes watermill logs to logrus. Watermill info logs are
// demoted to debug.
func NewLogrusAdapter() watermill.LoggerAdapter {
	return &logrusAdapter{}
}

func (l *logrusAdapter) Error(msg string, err error, fields watermill.LogFields) {
	l.entry(fields).WithError(err).Error(msg)
}

func (l *logrusAdapter) Info(msg string, fields watermill.LogFields) {
	l.entry(fields).Debug(msg)
}

func (l *logrusAdapter) Debug(msg string, fields watermill.LogFields) {
	l.entry(fields).Debug(msg)
}

func (l *logrusAdapter) Trace(msg string, fields watermill.LogFields) {
	l.entry(fields).Trace(msg)
}

func (l *logrusAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &logrusAdapter{fields: l.fields.Add(fields)}
}

func (l *logrusAdapter) entry(fields watermill.LogFields) *log.Entry {
	all := l.fields.Add(fields)
	return log.WithFields(log.Fields(all))
}
