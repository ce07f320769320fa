// Package store persists checks and their violations.
package store

import (
	"context"
	"sync"

	"phraseguard/internal/check/models"
	"phraseguard/internal/queue"
	id "phraseguard/pkg/domain"
	"phraseguard/pkg/platform/sentinel"
)

// InMemory keeps checks in a map. Reads return detached aggregates.
type InMemory struct {
	mu     sync.RWMutex
	checks map[id.CheckID]models.RehydrateParams
}

func NewInMemory() *InMemory {
	return &InMemory{checks: make(map[id.CheckID]models.RehydrateParams)}
}

func snapshot(c *models.Check) models.RehydrateParams {
	return models.RehydrateParams{
		NewCheckParams: models.NewCheckParams{
			ID:             c.ID(),
			UserID:         c.UserID(),
			OrganizationID: c.OrganizationID(),
			InputText:      c.InputText(),
			ExtractedText:  c.ExtractedText(),
			InputType:      c.InputType(),
			ImageRef:       c.ImageRef(),
		},
		Status:         c.Status(),
		Violations:     c.Violations(),
		ViolationCount: c.ViolationCount(),
		RewrittenText:  c.RewrittenText(),
		ErrorMessage:   c.ErrorMessage(),
		CreatedAt:      c.CreatedAt(),
		CompletedAt:    c.CompletedAt(),
	}
}

// Save replaces the stored check, violations included. A check already stored
// in a terminal state is never overwritten; Save reports sentinel.ErrConflict.
func (s *InMemory) Save(_ context.Context, c *models.Check) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.checks[c.ID()]; ok && existing.Status.IsTerminal() {
		return sentinel.ErrConflict
	}
	s.checks[c.ID()] = snapshot(c)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, checkID id.CheckID) (*models.Check, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.checks[checkID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return models.Rehydrate(p), nil
}

// UpdateCheckStatus applies a terminal failure written by the queue. Checks
// that already reached a terminal state are left alone.
func (s *InMemory) UpdateCheckStatus(_ context.Context, checkID id.CheckID, update queue.StatusUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.checks[checkID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if p.Status.IsTerminal() {
		return nil
	}
	completedAt := update.CompletedAt
	p.Status = update.Status
	p.ErrorMessage = update.ErrorMessage
	p.CompletedAt = &completedAt
	s.checks[checkID] = p
	return nil
}
