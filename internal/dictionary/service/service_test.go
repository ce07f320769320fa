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

	"phraseguard/internal/dictionary/models"
	"phraseguard/internal/dictionary/service/mocks"
	embmodels "phraseguard/internal/embedding/models"
	"phraseguard/internal/events"
	id "phraseguard/pkg/domain"
	dErrors "phraseguard/pkg/domain-errors"
	"phraseguard/pkg/platform/sentinel"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,EmbeddingScheduler
type capture struct {
	events []events.Event
}

func (c *capture) Publish(_ context.Context, evs ...events.Event) {
	c.events = append(c.events, evs...)
}

type ServiceSuite struct {
	suite.Suite
	store     *mocks.MockStore
	scheduler *mocks.MockEmbeddingScheduler
	published *capture
	clock     *clockwork.FakeClock
	svc       *Service
	orgID     id.OrganizationID
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.store = mocks.NewMockStore(ctrl)
	s.scheduler = mocks.NewMockEmbeddingScheduler(ctrl)
	s.published = &capture{}
	s.clock = clockwork.NewFakeClockAt(time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC))
	s.orgID = id.OrganizationID(uuid.New())
	s.svc = New(s.store,
		WithScheduler(s.scheduler),
		WithPublisher(s.published),
		WithClock(s.clock),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func (s *ServiceSuite) storedItem(phrase string) *models.Item {
	it, err := models.NewItem(models.NewItemParams{
		ID:             id.DictionaryItemID(uuid.New()),
		OrganizationID: s.orgID,
		Phrase:         phrase,
		Category:       models.CategoryNG,
	}, s.clock.Now())
	s.Require().NoError(err)
	it.PullEvents()
	return it
}

func (s *ServiceSuite) TestCreateSavesPublishesAndSchedules() {
	s.store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
	s.scheduler.EXPECT().EnqueueOrganization(gomock.Any(), s.orgID).Return(id.EmbeddingJobID(uuid.New()), nil)

	it, err := s.svc.Create(context.Background(), CreateItemCommand{
		OrganizationID: s.orgID,
		Phrase:         "  治る ",
		Category:       "ng",
	})
	s.Require().NoError(err)
	s.Equal("治る", it.Phrase())
	s.Equal(models.CategoryNG, it.Category())
	s.Require().Len(s.published.events, 1)
	s.Equal(events.NameDictionaryItemCreated, s.published.events[0].EventName())
}

func (s *ServiceSuite) TestCreateRejectsUnknownCategory() {
	_, err := s.svc.Create(context.Background(), CreateItemCommand{
		OrganizationID: s.orgID,
		Phrase:         "治る",
		Category:       "MAYBE",
	})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ServiceSuite) TestCreateSchedulingFailureIsNotFatal() {
	s.store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
	s.scheduler.EXPECT().EnqueueOrganization(gomock.Any(), s.orgID).
		Return(id.EmbeddingJobID{}, dErrors.New(dErrors.CodeUnavailable, "embedding backlog is full"))

	_, err := s.svc.Create(context.Background(), CreateItemCommand{
		OrganizationID: s.orgID,
		Phrase:         "治る",
		Category:       "NG",
	})
	s.NoError(err)
}

func (s *ServiceSuite) TestCreateStoreFailure() {
	s.store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errors.New("connection reset"))

	_, err := s.svc.Create(context.Background(), CreateItemCommand{
		OrganizationID: s.orgID,
		Phrase:         "治る",
		Category:       "NG",
	})
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.Empty(s.published.events)
}

func (s *ServiceSuite) TestUpdateInvalidatesVectorAndReschedules() {
	it := s.storedItem("治る")
	s.Require().NoError(it.StartVectorGeneration(s.clock.Now()))
	vec := make([]float32, 512)
	vec[0] = 1
	s.Require().NoError(it.SetVector(vec, s.clock.Now()))
	it.PullEvents()

	s.store.EXPECT().FindByID(gomock.Any(), it.ID()).Return(it, nil)
	s.store.EXPECT().Save(gomock.Any(), it).Return(nil)
	s.scheduler.EXPECT().EnqueueOrganization(gomock.Any(), s.orgID).Return(id.EmbeddingJobID(uuid.New()), nil)

	phrase := "完治"
	got, err := s.svc.Update(context.Background(), it.ID(), UpdateItemCommand{Phrase: &phrase})
	s.Require().NoError(err)
	s.Equal("完治", got.Phrase())
	s.False(got.HasVector())
	s.Require().Len(s.published.events, 1)
	updated, ok := s.published.events[0].(events.DictionaryItemUpdated)
	s.Require().True(ok)
	s.True(updated.VectorInvalidated)
}

func (s *ServiceSuite) TestUpdateWithoutChangeIsNoop() {
	it := s.storedItem("治る")
	s.store.EXPECT().FindByID(gomock.Any(), it.ID()).Return(it, nil)

	phrase := "治る"
	category := "NG"
	_, err := s.svc.Update(context.Background(), it.ID(), UpdateItemCommand{Phrase: &phrase, Category: &category})
	s.Require().NoError(err)
	s.Empty(s.published.events)
}

func (s *ServiceSuite) TestUpdateMissingItem() {
	itemID := id.DictionaryItemID(uuid.New())
	s.store.EXPECT().FindByID(gomock.Any(), itemID).Return(nil, sentinel.ErrNotFound)

	_, err := s.svc.Update(context.Background(), itemID, UpdateItemCommand{})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestListRequiresOrganization() {
	_, err := s.svc.List(context.Background(), id.OrganizationID{})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestEmbeddingJob() {
	jobID := id.EmbeddingJobID(uuid.New())
	job := embmodels.NewJob(jobID, s.orgID, s.clock.Now())
	s.scheduler.EXPECT().Job(gomock.Any(), jobID).Return(job, nil)

	got, err := s.svc.EmbeddingJob(context.Background(), jobID)
	s.Require().NoError(err)
	s.Equal(embmodels.JobStatusPending, got.Status)
}

func (s *ServiceSuite) TestWithoutSchedulerEmbeddingIsUnavailable() {
	svc := New(s.store)
	_, err := svc.RegenerateEmbeddings(context.Background(), s.orgID)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}
