// Package store persists dictionary items.
package store

import (
	"context"
	"sort"
	"sync"

	"phraseguard/internal/dictionary/models"
	id "phraseguard/pkg/domain"
	"phraseguard/pkg/platform/sentinel"
)

// InMemory keeps items in a map. Callers always receive fresh aggregates, so
// in-flight mutations are never visible to other readers.
type InMemory struct {
	mu    sync.RWMutex
	items map[id.DictionaryItemID]*models.Item
}

func NewInMemory() *InMemory {
	return &InMemory{items: make(map[id.DictionaryItemID]*models.Item)}
}

func clone(it *models.Item) *models.Item {
	return models.Rehydrate(models.RehydrateParams{
		NewItemParams: models.NewItemParams{
			ID:             it.ID(),
			OrganizationID: it.OrganizationID(),
			Phrase:         it.Phrase(),
			Category:       it.Category(),
			Notes:          it.Notes(),
		},
		Vector:    it.Vector(),
		CreatedAt: it.CreatedAt(),
		UpdatedAt: it.UpdatedAt(),
	})
}

func (s *InMemory) Save(_ context.Context, it *models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[it.ID()] = clone(it)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, itemID id.DictionaryItemID) (*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[itemID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(it), nil
}

// ListByOrganization returns the organization's items oldest first.
func (s *InMemory) ListByOrganization(_ context.Context, orgID id.OrganizationID) ([]*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Item
	for _, it := range s.items {
		if it.OrganizationID() == orgID {
			out = append(out, clone(it))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt().Equal(out[j].CreatedAt()) {
			return out[i].ID().String() < out[j].ID().String()
		}
		return out[i].CreatedAt().Before(out[j].CreatedAt())
	})
	return out, nil
}

// SaveVector stores the item's vector when the stored phrase and category still
// match it. A concurrent content edit yields sentinel.ErrConflict.
func (s *InMemory) SaveVector(_ context.Context, it *models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.items[it.ID()]
	if !ok {
		return sentinel.ErrNotFound
	}
	if stored.Phrase() != it.Phrase() || stored.Category() != it.Category() {
		return sentinel.ErrConflict
	}
	s.items[it.ID()] = models.Rehydrate(models.RehydrateParams{
		NewItemParams: models.NewItemParams{
			ID:             stored.ID(),
			OrganizationID: stored.OrganizationID(),
			Phrase:         stored.Phrase(),
			Category:       stored.Category(),
			Notes:          stored.Notes(),
		},
		Vector:    it.Vector(),
		CreatedAt: stored.CreatedAt(),
		UpdatedAt: it.UpdatedAt(),
	})
	return nil
}
