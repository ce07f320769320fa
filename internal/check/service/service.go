// Package service accepts checks, hands them to the queue and runs the
// detection pipeline when the queue dispatches them.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"phraseguard/internal/check/metrics"
	"phraseguard/internal/check/models"
	"phraseguard/internal/events"
	"phraseguard/internal/queue"
	id "phraseguard/pkg/domain"
	dErrors "phraseguard/pkg/domain-errors"
	"phraseguard/pkg/platform/sentinel"
	"phraseguard/pkg/requestcontext"
)

// Store persists checks together with their violations.
type Store interface {
	Save(ctx context.Context, c *models.Check) error
	FindByID(ctx context.Context, checkID id.CheckID) (*models.Check, error)
}

// Enqueuer hands accepted checks to the processing queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, req queue.EnqueueRequest) error
}

type Service struct {
	store     Store
	enqueuer  Enqueuer
	publisher events.Publisher
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(*Service)

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func WithClock(c clockwork.Clock) Option {
	return func(s *Service) {
		s.clock = c
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(store Store, enqueuer Enqueuer, opts ...Option) *Service {
	s := &Service{store: store, enqueuer: enqueuer}
	for _, opt := range opts {
		opt(s)
	}
	if s.publisher == nil {
		s.publisher = events.Nop{}
	}
	if s.clock == nil {
		s.clock = clockwork.NewRealClock()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

type SubmitCommand struct {
	UserID         id.UserID
	OrganizationID id.OrganizationID
	Text           string
	ExtractedText  string
	InputType      string
	ImageRef       string
	Priority       string
}

// Submit stores a pending check and queues it. A check the queue refuses is
// recorded as failed so it never lingers as pending.
func (s *Service) Submit(ctx context.Context, cmd SubmitCommand) (*models.Check, error) {
	inputType, err := id.ParseInputType(cmd.InputType)
	if err != nil {
		return nil, err
	}
	priority, err := id.ParsePriority(cmd.Priority)
	if err != nil {
		return nil, err
	}
	now := s.now(ctx)
	c, err := models.NewCheck(models.NewCheckParams{
		ID:             id.CheckID(uuid.New()),
		UserID:         cmd.UserID,
		OrganizationID: cmd.OrganizationID,
		InputText:      cmd.Text,
		ExtractedText:  cmd.ExtractedText,
		InputType:      inputType,
		ImageRef:       cmd.ImageRef,
	}, now)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, c); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save check")
	}
	s.publisher.Publish(ctx, c.PullEvents()...)

	err = s.enqueuer.Enqueue(ctx, queue.EnqueueRequest{
		ID:             c.ID(),
		Text:           c.TextForMatching(),
		OrganizationID: c.OrganizationID(),
		Priority:       priority,
		InputType:      c.InputType(),
		ImageRef:       c.ImageRef(),
	})
	if err != nil {
		s.abandon(ctx, c, err)
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to queue check")
		}
		return nil, err
	}

	s.metrics.IncSubmitted()
	s.logger.InfoContext(ctx, "check submitted",
		"check_id", c.ID(),
		"org_id", c.OrganizationID(),
		"priority", priority,
	)
	return c, nil
}

func (s *Service) abandon(ctx context.Context, c *models.Check, cause error) {
	now := s.clock.Now()
	if err := c.StartProcessing(now); err != nil {
		return
	}
	if err := c.Fail(fmt.Sprintf("failed to queue check: %v", cause), now); err != nil {
		return
	}
	if err := s.store.Save(ctx, c); err != nil {
		s.logger.ErrorContext(ctx, "failed to record unqueued check",
			"check_id", c.ID(),
			"error", err,
		)
		return
	}
	s.publisher.Publish(ctx, c.PullEvents()...)
	s.metrics.IncFinished(string(models.StatusFailed))
}

func (s *Service) Get(ctx context.Context, checkID id.CheckID) (*models.Check, error) {
	c, err := s.store.FindByID(ctx, checkID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "check not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load check")
	}
	return c, nil
}

// Cancel stops a pending or processing check. Processing already under way is
// not interrupted; its result is discarded. Cancelling a cancelled check
// returns it unchanged.
func (s *Service) Cancel(ctx context.Context, checkID id.CheckID) (*models.Check, error) {
	c, err := s.Get(ctx, checkID)
	if err != nil {
		return nil, err
	}
	if c.Status() == models.StatusCancelled {
		return c, nil
	}
	if err := c.Cancel(s.now(ctx)); err != nil {
		return nil, err
	}
	err = s.store.Save(ctx, c)
	if errors.Is(err, sentinel.ErrConflict) {
		return nil, dErrors.Wrap(err, dErrors.CodeConflict, "check already finished")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save check")
	}
	s.publisher.Publish(ctx, c.PullEvents()...)
	s.metrics.IncFinished(string(models.StatusCancelled))
	s.logger.InfoContext(ctx, "check cancelled", "check_id", c.ID())
	return c, nil
}

// now prefers the time pinned for the current request.
func (s *Service) now(ctx context.Context) time.Time {
	if t, ok := requestcontext.Time(ctx); ok {
		return t
	}
	return s.clock.Now()
}
