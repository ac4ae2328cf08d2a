package domain

import "context"

const (
	CollectionTopic = "collection"
	AssetTopic      = "asset"
)

type EventType int

const (
	EventTypeUndefined EventType = iota
	EventTypeCollectionCreated
	EventTypeAssetMinted
	EventTypeAssetUpdated
	EventTypeAssetTransferred
	EventTypeAssetFreezeUpdated
)

func (t EventType) String() string {
	switch t {
	case EventTypeCollectionCreated:
		return "CollectionCreated"
	case EventTypeAssetMinted:
		return "AssetMinted"
	case EventTypeAssetUpdated:
		return "AssetUpdated"
	case EventTypeAssetTransferred:
		return "AssetTransferred"
	case EventTypeAssetFreezeUpdated:
		return "AssetFreezeUpdated"
	default:
		return "Undefined"
	}
}

type Event interface {
	GetTopic() string
	GetType() EventType
	GetId() string
}

// RecordEvent is embedded by every event. Id is the address of the record the
// event refers to.
type RecordEvent struct {
	Id        string
	Type      EventType
	Timestamp int64
}

func (e RecordEvent) GetType() EventType {
	return e.Type
}

func (e RecordEvent) GetId() string {
	return e.Id
}

type CollectionCreated struct {
	RecordEvent
	Name            string
	Uri             string
	UpdateAuthority Identity
	Plugins         PluginSet
}

func (e CollectionCreated) GetTopic() string { return CollectionTopic }

type AssetMinted struct {
	RecordEvent
	Collection Identity
	Owner      Identity
	Name       string
	Uri        string
	Plugins    PluginSet
}

func (e AssetMinted) GetTopic() string { return AssetTopic }

type AssetUpdated struct {
	RecordEvent
	Collection Identity
	Name       string
	Uri        string
	Signer     Identity
}

func (e AssetUpdated) GetTopic() string { return AssetTopic }

type AssetTransferred struct {
	RecordEvent
	Collection Identity
	From       Identity
	To         Identity
}

func (e AssetTransferred) GetTopic() string { return AssetTopic }

type AssetFreezeUpdated struct {
	RecordEvent
	Collection Identity
	Frozen     bool
	Signer     Identity
}

func (e AssetFreezeUpdated) GetTopic() string { return AssetTopic }

type EventRepository interface {
	// Save publishes the events of the record identified by id and notifies
	// the handlers registered for the topic with the record's event history.
	Save(ctx context.Context, topic, id string, events []Event) error
	RegisterEventsHandler(topic string, handler func(events []Event))
	ClearRegisteredHandlers(topics ...string)
	Close()
}

func NewCollectionCreated(collection Collection) CollectionCreated {
	return CollectionCreated{
		RecordEvent: RecordEvent{
			Id:        collection.Address.String(),
			Type:      EventTypeCollectionCreated,
			Timestamp: collection.CreatedAt,
		},
		Name:            collection.Name,
		Uri:             collection.Uri,
		UpdateAuthority: collection.UpdateAuthority,
		Plugins:         collection.Plugins,
	}
}

func NewAssetMinted(asset Asset) AssetMinted {
	return AssetMinted{
		RecordEvent: RecordEvent{
			Id:        asset.Address.String(),
			Type:      EventTypeAssetMinted,
			Timestamp: asset.CreatedAt,
		},
		Collection: asset.Collection,
		Owner:      asset.Owner,
		Name:       asset.Name,
		Uri:        asset.Uri,
		Plugins:    asset.Plugins,
	}
}

func NewAssetUpdated(asset Asset, signer Identity) AssetUpdated {
	return AssetUpdated{
		RecordEvent: RecordEvent{
			Id:        asset.Address.String(),
			Type:      EventTypeAssetUpdated,
			Timestamp: asset.UpdatedAt,
		},
		Collection: asset.Collection,
		Name:       asset.Name,
		Uri:        asset.Uri,
		Signer:     signer,
	}
}

func NewAssetTransferred(asset Asset, from Identity) AssetTransferred {
	return AssetTransferred{
		RecordEvent: RecordEvent{
			Id:        asset.Address.String(),
			Type:      EventTypeAssetTransferred,
			Timestamp: asset.UpdatedAt,
		},
		Collection: asset.Collection,
		From:       from,
		To:         asset.Owner,
	}
}

func NewAssetFreezeUpdated(asset Asset, signer Identity) AssetFreezeUpdated {
	return AssetFreezeUpdated{
		RecordEvent: RecordEvent{
			Id:        asset.Address.String(),
			Type:      EventTypeAssetFreezeUpdated,
			Timestamp: asset.UpdatedAt,
		},
		Collection: asset.Collection,
		Frozen:     asset.IsFrozen(),
		Signer:     signer,
	}
}
