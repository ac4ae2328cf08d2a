package watermilldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/arkade-os/assetreg/internal/core/domain"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type subscriber struct {
	topic   string
	handler func(events []domain.Event)
}

type eventRepository struct {
	publisher message.Publisher
	db        *sql.DB

	// history keeps the events of each record when there is no db to read
	// them back from. Keyed by topic and record id.
	history     map[string][]domain.Event
	historyLock *sync.RWMutex

	subscribers    map[string][]subscriber // topic -> subscribers
	subscriberLock *sync.Mutex
}

// NewWatermillEventRepository publishes events with the given publisher.
// When db is not nil it must hold the watermill postgres tables, the record
// history is read back from there; otherwise it is kept in memory.
func NewWatermillEventRepository(publisher message.Publisher, db *sql.DB) domain.EventRepository {
	return &eventRepository{
		publisher:      publisher,
		db:             db,
		history:        make(map[string][]domain.Event),
		historyLock:    &sync.RWMutex{},
		subscribers:    make(map[string][]subscriber),
		subscriberLock: &sync.Mutex{},
	}
}

func (e *eventRepository) ClearRegisteredHandlers(topics ...string) {
	e.subscriberLock.Lock()
	defer e.subscriberLock.Unlock()

	if len(topics) == 0 {
		e.subscribers = make(map[string][]subscriber)
		return
	}

	for _, topic := range topics {
		delete(e.subscribers, topic)
	}
}

func (e *eventRepository) Close() {
	//nolint:errcheck
	e.publisher.Close()
}

func (e *eventRepository) RegisterEventsHandler(
	topic string, handler func(events []domain.Event),
) {
	e.subscriberLock.Lock()
	defer e.subscriberLock.Unlock()

	e.subscribers[topic] = append(e.subscribers[topic], subscriber{
		topic:   topic,
		handler: handler,
	})
}

func (e *eventRepository) Save(
	ctx context.Context, topic string, id string, events []domain.Event,
) error {
	if len(events) == 0 {
		return nil
	}
	if err := e.publish(topic, events); err != nil {
		return err
	}
	if e.db == nil {
		e.historyLock.Lock()
		key := historyKey(topic, id)
		e.history[key] = append(e.history[key], events...)
		e.historyLock.Unlock()
	}

	if err := e.dispatch(ctx, topic, id); err != nil {
		log.WithError(err).Error("failed to dispatch saved events")
	}

	return nil
}

func (e *eventRepository) dispatch(ctx context.Context, topic string, id string) error {
	events, err := e.getAllEvents(ctx, topic, id)
	if err != nil {
		return err
	}

	if len(events) == 0 {
		return nil
	}

	e.subscriberLock.Lock()
	defer e.subscriberLock.Unlock()
	for _, subscriber := range e.subscribers[topic] {
		go subscriber.handler(events)
	}
	return nil
}

// getAllEvents returns the whole event history of the record, oldest first.
// Watermill postgres tables are named watermill_<topic> and the record is
// matched on the Id field of the JSON payload.
func (e *eventRepository) getAllEvents(
	ctx context.Context, topic, id string,
) ([]domain.Event, error) {
	if e.db == nil {
		e.historyLock.RLock()
		defer e.historyLock.RUnlock()
		return append([]domain.Event(nil), e.history[historyKey(topic, id)]...), nil
	}

	query := fmt.Sprintf(
		`SELECT payload FROM watermill_%s WHERE payload->>'Id' = $1 ORDER BY "offset" ASC;`,
		topic,
	)

	rows, err := e.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to query messages for topic %s with id %s: %w",
			topic, id, err,
		)
	}
	// nolint
	defer rows.Close()

	records := make([][]byte, 0)
	for rows.Next() {
		var record []byte
		if err := rows.Scan(&record); err != nil {
			return nil, fmt.Errorf("failed to scan message payload: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf(
			"error iterating messages for topic %s with id %s: %w", topic, id, err,
		)
	}

	events := make([]domain.Event, 0, len(records))
	for _, record := range records {
		event, err := deserializeEvent(record)
		if err != nil {
			log.WithError(err).Warnf("failed to deserialize event: %s", string(record))
			continue
		}
		events = append(events, event)
	}

	return events, nil
}

func (e *eventRepository) publish(topic string, events []domain.Event) error {
	watermillMessages := toWatermillMessages(events)
	return e.publisher.Publish(topic, watermillMessages...)
}

func historyKey(topic, id string) string {
	return topic + ":" + id
}

func toWatermillMessages(events []domain.Event) []*message.Message {
	watermillMessages := make([]*message.Message, 0, len(events))
	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			log.WithError(err).Warnf("failed to serialize %s event", event.GetType())
			continue
		}

		watermillMessages = append(
			watermillMessages,
			message.NewMessage(uuid.New().String(), payload),
		)
	}

	return watermillMessages
}

func deserializeEvent(buf []byte) (domain.Event, error) {
	var eventType struct {
		Type domain.EventType
	}

	if err := json.Unmarshal(buf, &eventType); err != nil {
		return nil, err
	}

	switch eventType.Type {
	case domain.EventTypeCollectionCreated:
		var event = domain.CollectionCreated{}
		if err := json.Unmarshal(buf, &event); err == nil {
			return event, nil
		}
	case domain.EventTypeAssetMinted:
		var event = domain.AssetMinted{}
		if err := json.Unmarshal(buf, &event); err == nil {
			return event, nil
		}
	case domain.EventTypeAssetUpdated:
		var event = domain.AssetUpdated{}
		if err := json.Unmarshal(buf, &event); err == nil {
			return event, nil
		}
	case domain.EventTypeAssetTransferred:
		var event = domain.AssetTransferred{}
		if err := json.Unmarshal(buf, &event); err == nil {
			return event, nil
		}
	case domain.EventTypeAssetFreezeUpdated:
		var event = domain.AssetFreezeUpdated{}
		if err := json.Unmarshal(buf, &event); err == nil {
			return event, nil
		}
	}

	return nil, fmt.Errorf("unknown event")
}
