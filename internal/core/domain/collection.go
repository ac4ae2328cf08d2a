package domain

import "context"

type Collection struct {
	Address         Identity
	Name            string
	Uri             string
	UpdateAuthority Identity
	Plugins         PluginSet
	CreatedAt       int64
}

// Royalties returns the collection royalty configuration, nil if none.
func (c Collection) Royalties() *Royalties {
	return c.Plugins.Royalties()
}

type CollectionRepository interface {
	// AddCollection fails with ErrRecordExists if the address is taken.
	AddCollection(ctx context.Context, collection Collection) error
	// GetCollection returns nil, nil if no collection exists at the address.
	GetCollection(ctx context.Context, address Identity) (*Collection, error)
	Close()
}
