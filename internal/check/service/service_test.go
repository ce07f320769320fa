package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"phraseguard/internal/check/models"
	"phraseguard/internal/check/service/mocks"
	"phraseguard/internal/events"
	"phraseguard/internal/queue"
	id "phraseguard/pkg/domain"
	dErrors "phraseguard/pkg/domain-errors"
	"phraseguard/pkg/platform/sentinel"
	"phraseguard/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,Enqueuer
type capture struct {
	events []events.Event
}

func (c *capture) Publish(_ context.Context, evs ...events.Event) {
	c.events = append(c.events, evs...)
}

func (c *capture) names() []events.Name {
	out := make([]events.Name, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e.EventName())
	}
	return out
}

type ServiceSuite struct {
	suite.Suite
	store     *mocks.MockStore
	enqueuer  *mocks.MockEnqueuer
	published *capture
	clock     *clockwork.FakeClock
	svc       *Service
	cmd       SubmitCommand
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.store = mocks.NewMockStore(ctrl)
	s.enqueuer = mocks.NewMockEnqueuer(ctrl)
	s.published = &capture{}
	s.clock = clockwork.NewFakeClockAt(time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC))
	s.svc = New(s.store, s.enqueuer,
		WithPublisher(s.published),
		WithClock(s.clock),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	s.cmd = SubmitCommand{
		UserID:         id.UserID(uuid.New()),
		OrganizationID: id.OrganizationID(uuid.New()),
		Text:           "この薬で病気が必ず治る。",
	}
}

func (s *ServiceSuite) TestSubmitSavesAndEnqueues() {
	s.store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
	s.enqueuer.EXPECT().Enqueue(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req queue.EnqueueRequest) error {
			s.Equal(s.cmd.Text, req.Text)
			s.Equal(s.cmd.OrganizationID, req.OrganizationID)
			s.Equal(id.PriorityNormal, req.Priority)
			s.Equal(id.InputTypeText, req.InputType)
			return nil
		})

	c, err := s.svc.Submit(context.Background(), s.cmd)

	s.Require().NoError(err)
	s.Equal(models.StatusPending, c.Status())
	s.Equal([]events.Name{events.NameCheckCreated}, s.published.names())
}

func (s *ServiceSuite) TestSubmitUsesRequestTime() {
	pinned := time.Date(2026, 4, 1, 11, 59, 58, 0, time.UTC)
	s.store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
	s.enqueuer.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(nil)

	c, err := s.svc.Submit(requestcontext.WithTime(context.Background(), pinned), s.cmd)

	s.Require().NoError(err)
	s.Equal(pinned, c.CreatedAt())
}

func (s *ServiceSuite) TestSubmitQueuesExtractedText() {
	s.cmd.InputType = "image"
	s.cmd.ImageRef = "s3://uploads/banner.png"
	s.cmd.ExtractedText = "飲むだけで痩せる"
	s.store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
	s.enqueuer.EXPECT().Enqueue(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req queue.EnqueueRequest) error {
			s.Equal("飲むだけで痩せる", req.Text)
			s.Equal(id.InputTypeImage, req.InputType)
			s.Equal("s3://uploads/banner.png", req.ImageRef)
			return nil
		})

	_, err := s.svc.Submit(context.Background(), s.cmd)
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestSubmitRejectsInvalidInput() {
	s.Run("empty text", func() {
		cmd := s.cmd
		cmd.Text = "  "
		_, err := s.svc.Submit(context.Background(), cmd)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
	s.Run("unknown priority", func() {
		cmd := s.cmd
		cmd.Priority = "urgent"
		_, err := s.svc.Submit(context.Background(), cmd)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
	s.Run("unknown input type", func() {
		cmd := s.cmd
		cmd.InputType = "video"
		_, err := s.svc.Submit(context.Background(), cmd)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *ServiceSuite) TestSubmitStoreFailure() {
	s.store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errors.New("connection refused"))

	_, err := s.svc.Submit(context.Background(), s.cmd)

	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.Empty(s.published.events)
}

func (s *ServiceSuite) TestSubmitRecordsFailureWhenQueueRefuses() {
	var statuses []models.Status
	s.store.EXPECT().Save(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, c *models.Check) error {
			statuses = append(statuses, c.Status())
			return nil
		}).Times(2)
	s.enqueuer.EXPECT().Enqueue(gomock.Any(), gomock.Any()).
		Return(dErrors.New(dErrors.CodeUnavailable, "queue is shutting down"))

	_, err := s.svc.Submit(context.Background(), s.cmd)

	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	s.Equal([]models.Status{models.StatusPending, models.StatusFailed}, statuses)
	s.Equal([]events.Name{
		events.NameCheckCreated,
		events.NameCheckProcessingStarted,
		events.NameCheckFailed,
	}, s.published.names())
}

func (s *ServiceSuite) pendingCheck() *models.Check {
	c, err := models.NewCheck(models.NewCheckParams{
		ID:             id.CheckID(uuid.New()),
		UserID:         s.cmd.UserID,
		OrganizationID: s.cmd.OrganizationID,
		InputText:      s.cmd.Text,
	}, s.clock.Now())
	s.Require().NoError(err)
	c.PullEvents()
	return c
}

func (s *ServiceSuite) TestGet() {
	c := s.pendingCheck()
	s.store.EXPECT().FindByID(gomock.Any(), c.ID()).Return(c, nil)
	got, err := s.svc.Get(context.Background(), c.ID())
	s.Require().NoError(err)
	s.Equal(c.ID(), got.ID())

	s.store.EXPECT().FindByID(gomock.Any(), gomock.Any()).Return(nil, sentinel.ErrNotFound)
	_, err = s.svc.Get(context.Background(), id.CheckID(uuid.New()))
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestCancelPending() {
	c := s.pendingCheck()
	s.store.EXPECT().FindByID(gomock.Any(), c.ID()).Return(c, nil)
	s.store.EXPECT().Save(gomock.Any(), c).Return(nil)

	got, err := s.svc.Cancel(context.Background(), c.ID())

	s.Require().NoError(err)
	s.Equal(models.StatusCancelled, got.Status())
	s.Equal([]events.Name{events.NameCheckCancelled}, s.published.names())
}

func (s *ServiceSuite) TestCancelFinishedCheckConflicts() {
	c := s.pendingCheck()
	s.Require().NoError(c.StartProcessing(s.clock.Now()))
	s.Require().NoError(c.Complete(s.clock.Now()))
	c.PullEvents()
	s.store.EXPECT().FindByID(gomock.Any(), c.ID()).Return(c, nil)

	_, err := s.svc.Cancel(context.Background(), c.ID())

	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	s.Empty(s.published.events)
}

func (s *ServiceSuite) TestCancelAlreadyCancelledIsNoop() {
	c := s.pendingCheck()
	s.Require().NoError(c.Cancel(s.clock.Now()))
	c.PullEvents()
	s.store.EXPECT().FindByID(gomock.Any(), c.ID()).Return(c, nil)

	got, err := s.svc.Cancel(context.Background(), c.ID())

	s.Require().NoError(err)
	s.Equal(models.StatusCancelled, got.Status())
	s.Empty(s.published.events)
}

func (s *ServiceSuite) TestCancelLosesToConcurrentCompletion() {
	c := s.pendingCheck()
	s.Require().NoError(c.StartProcessing(s.clock.Now()))
	c.PullEvents()
	s.store.EXPECT().FindByID(gomock.Any(), c.ID()).Return(c, nil)
	s.store.EXPECT().Save(gomock.Any(), c).Return(sentinel.ErrConflict)

	_, err := s.svc.Cancel(context.Background(), c.ID())

	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.Empty(s.published.events)
}
