package ports

import "github.com/arkade-os/assetreg/internal/core/domain"

type RepoManager interface {
	Events() domain.EventRepository
	Collections() domain.CollectionRepository
	Assets() domain.AssetRepository
	Close()
}
