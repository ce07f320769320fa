// Package job persists embedding job progress.
package job

import (
	"context"
	"sync"

	"phraseguard/internal/embedding/models"
	id "phraseguard/pkg/domain"
	"phraseguard/pkg/platform/sentinel"
)

// InMemory keeps jobs in a map. Used when Redis is not configured and in tests.
type InMemory struct {
	mu   sync.RWMutex
	jobs map[id.EmbeddingJobID]*models.Job
}

func NewInMemory() *InMemory {
	return &InMemory{jobs: make(map[id.EmbeddingJobID]*models.Job)}
}

func (s *InMemory) Save(_ context.Context, job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, jobID id.EmbeddingJobID) (*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[jobID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return j.Clone(), nil
}

// FindPendingByOrganization returns the organization's job still waiting for
// the worker.
func (s *InMemory) FindPendingByOrganization(_ context.Context, orgID id.OrganizationID) (*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, j := range s.jobs {
		if j.OrganizationID == orgID && j.Status == models.JobStatusPending {
			return j.Clone(), nil
		}
	}
	return nil, sentinel.ErrNotFound
}
