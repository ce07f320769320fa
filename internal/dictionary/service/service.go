// Package service orchestrates dictionary edits and keeps vectors fresh.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"phraseguard/internal/dictionary/models"
	embmodels "phraseguard/internal/embedding/models"
	"phraseguard/internal/events"
	id "phraseguard/pkg/domain"
	dErrors "phraseguard/pkg/domain-errors"
	"phraseguard/pkg/platform/sentinel"
)

type Store interface {
	Save(ctx context.Context, item *models.Item) error
	FindByID(ctx context.Context, itemID id.DictionaryItemID) (*models.Item, error)
	ListByOrganization(ctx context.Context, orgID id.OrganizationID) ([]*models.Item, error)
}

// EmbeddingScheduler queues vector generation for an organization.
type EmbeddingScheduler interface {
	EnqueueOrganization(ctx context.Context, orgID id.OrganizationID) (id.EmbeddingJobID, error)
	Job(ctx context.Context, jobID id.EmbeddingJobID) (*embmodels.Job, error)
}

// Service owns dictionary writes. Without a scheduler, items are stored
// without vectors and similarity matching never sees them.
type Service struct {
	store     Store
	scheduler EmbeddingScheduler
	publisher events.Publisher
	clock     clockwork.Clock
	logger    *slog.Logger
}

type Option func(*Service)

func WithScheduler(s EmbeddingScheduler) Option {
	return func(svc *Service) {
		svc.scheduler = s
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(svc *Service) {
		svc.publisher = p
	}
}

func WithClock(c clockwork.Clock) Option {
	return func(svc *Service) {
		svc.clock = c
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(svc *Service) {
		svc.logger = logger
	}
}

func New(store Store, opts ...Option) *Service {
	svc := &Service{store: store}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.publisher == nil {
		svc.publisher = events.Nop{}
	}
	if svc.clock == nil {
		svc.clock = clockwork.NewRealClock()
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc
}

type CreateItemCommand struct {
	OrganizationID id.OrganizationID
	Phrase         string
	Category       string
	Notes          string
}

type UpdateItemCommand struct {
	Phrase   *string
	Category *string
}

// Create stores a new phrase and schedules its vector.
func (s *Service) Create(ctx context.Context, cmd CreateItemCommand) (*models.Item, error) {
	cat, err := models.ParseCategory(cmd.Category)
	if err != nil {
		return nil, err
	}
	it, err := models.NewItem(models.NewItemParams{
		ID:             id.DictionaryItemID(uuid.New()),
		OrganizationID: cmd.OrganizationID,
		Phrase:         cmd.Phrase,
		Category:       cat,
		Notes:          cmd.Notes,
	}, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, it); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save dictionary item")
	}
	s.publisher.Publish(ctx, it.PullEvents()...)
	s.scheduleEmbeddings(ctx, it.OrganizationID())
	return it, nil
}

// Update changes phrase and/or category. A real change drops the stored
// vector and schedules a new one.
func (s *Service) Update(ctx context.Context, itemID id.DictionaryItemID, cmd UpdateItemCommand) (*models.Item, error) {
	it, err := s.store.FindByID(ctx, itemID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "dictionary item not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load dictionary item")
	}

	var cat *models.Category
	if cmd.Category != nil {
		parsed, err := models.ParseCategory(*cmd.Category)
		if err != nil {
			return nil, err
		}
		cat = &parsed
	}
	changed, err := it.UpdateContent(cmd.Phrase, cat, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if !changed {
		return it, nil
	}
	if err := s.store.Save(ctx, it); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save dictionary item")
	}
	s.publisher.Publish(ctx, it.PullEvents()...)
	s.scheduleEmbeddings(ctx, it.OrganizationID())
	return it, nil
}

func (s *Service) List(ctx context.Context, orgID id.OrganizationID) ([]*models.Item, error) {
	if orgID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "organization ID is required")
	}
	items, err := s.store.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list dictionary")
	}
	return items, nil
}

// RegenerateEmbeddings queues vector generation for every phrase of orgID
// still lacking one.
func (s *Service) RegenerateEmbeddings(ctx context.Context, orgID id.OrganizationID) (id.EmbeddingJobID, error) {
	if s.scheduler == nil {
		return id.EmbeddingJobID{}, dErrors.New(dErrors.CodeUnavailable, "embedding is not configured")
	}
	return s.scheduler.EnqueueOrganization(ctx, orgID)
}

func (s *Service) EmbeddingJob(ctx context.Context, jobID id.EmbeddingJobID) (*embmodels.Job, error) {
	if s.scheduler == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "embedding is not configured")
	}
	return s.scheduler.Job(ctx, jobID)
}

// scheduleEmbeddings is best effort; the item stays usable for exact and
// partial matching without a vector.
func (s *Service) scheduleEmbeddings(ctx context.Context, orgID id.OrganizationID) {
	if s.scheduler == nil {
		return
	}
	jobID, err := s.scheduler.EnqueueOrganization(ctx, orgID)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to schedule embedding job",
			"org_id", orgID,
			"error", err,
		)
		return
	}
	s.logger.DebugContext(ctx, "embedding job scheduled", "org_id", orgID, "job_id", jobID)
}
