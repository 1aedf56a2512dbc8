package services

import (
	"fmt"

	"sia-service/internal/core/domain"
)

// CollectionService resolves configured data collections by name. The
// collection set is immutable after startup, so lookups are lock-free.
type CollectionService struct {
	byName  map[string]*domain.Collection
	ordered []*domain.Collection
}

func NewCollectionService(collections []*domain.Collection) (*CollectionService, error) {
	if len(collections) == 0 {
		return nil, domain.ErrNoCollections
	}
	byName := make(map[string]*domain.Collection, len(collections))
	for _, c := range collections {
		if _, dup := byName[c.Name]; dup {
			return nil, fmt.Errorf("duplicate data collection name %q", c.Name)
		}
		byName[c.Name] = c
	}
	return &CollectionService{byName: byName, ordered: collections}, nil
}

// Get returns the collection exposed at the given URL path segment.
func (s *CollectionService) Get(name string) (*domain.Collection, error) {
	c, ok := s.byName[name]
	if !ok {
		return nil, fmt.Errorf("collection %q: %w", name, domain.ErrCollectionNotFound)
	}
	return c, nil
}

// Default returns the collection marked as default, falling back to the
// first configured one.
func (s *CollectionService) Default() (*domain.Collection, error) {
	for _, c := range s.ordered {
		if c.Default {
			return c, nil
		}
	}
	if len(s.ordered) > 0 {
		return s.ordered[0], nil
	}
	return nil, domain.ErrNoDefaultCollection
}

// All returns every configured collection in configuration order.
func (s *CollectionService) All() []*domain.Collection {
	return s.ordered
}
