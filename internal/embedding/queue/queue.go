// Package queue regenerates dictionary embeddings, one organization at a time.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	dictmodels "phraseguard/internal/dictionary/models"
	"phraseguard/internal/embedding/metrics"
	"phraseguard/internal/embedding/models"
	"phraseguard/internal/events"
	id "phraseguard/pkg/domain"
	dErrors "phraseguard/pkg/domain-errors"
	"phraseguard/pkg/platform/sentinel"
)

const (
	defaultConcurrency = 2
	defaultBacklog     = 64
)

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// DictionaryStore is the dictionary persistence the queue needs.
type DictionaryStore interface {
	ListByOrganization(ctx context.Context, orgID id.OrganizationID) ([]*dictmodels.Item, error)
	// SaveVector persists the item's vector only if its phrase and category
	// are unchanged in storage; otherwise it returns sentinel.ErrConflict.
	SaveVector(ctx context.Context, item *dictmodels.Item) error
}

// JobStore persists job progress.
type JobStore interface {
	Save(ctx context.Context, job *models.Job) error
	FindByID(ctx context.Context, jobID id.EmbeddingJobID) (*models.Job, error)
	FindPendingByOrganization(ctx context.Context, orgID id.OrganizationID) (*models.Job, error)
}

// Queue accepts organization-scoped embedding jobs and runs them on a single
// worker (Run). Within a job, phrases are embedded with small fan-out.
type Queue struct {
	dictionary  DictionaryStore
	embedder    Embedder
	jobs        JobStore
	publisher   events.Publisher
	clock       clockwork.Clock
	logger      *slog.Logger
	metrics     *metrics.Metrics
	tracer      trace.Tracer
	concurrency int

	enqueueMu sync.Mutex
	inbox     chan id.EmbeddingJobID
}

type Option func(*Queue)

func WithConcurrency(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.concurrency = n
		}
	}
}

// WithBacklog sets how many jobs may wait for the worker.
func WithBacklog(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.inbox = make(chan id.EmbeddingJobID, n)
		}
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(q *Queue) {
		q.publisher = p
	}
}

func WithClock(c clockwork.Clock) Option {
	return func(q *Queue) {
		q.clock = c
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(q *Queue) {
		q.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(q *Queue) {
		q.metrics = m
	}
}

func New(dictionary DictionaryStore, embedder Embedder, jobs JobStore, opts ...Option) *Queue {
	q := &Queue{
		dictionary:  dictionary,
		embedder:    embedder,
		jobs:        jobs,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.inbox == nil {
		q.inbox = make(chan id.EmbeddingJobID, defaultBacklog)
	}
	if q.publisher == nil {
		q.publisher = events.Nop{}
	}
	if q.clock == nil {
		q.clock = clockwork.NewRealClock()
	}
	if q.logger == nil {
		q.logger = slog.Default()
	}
	q.tracer = otel.Tracer("phraseguard/embedding")
	return q
}

// EnqueueOrganization schedules vector generation for every phrase of orgID
// lacking a vector. A job still waiting for the worker is reused.
func (q *Queue) EnqueueOrganization(ctx context.Context, orgID id.OrganizationID) (id.EmbeddingJobID, error) {
	if orgID.IsNil() {
		return id.EmbeddingJobID{}, dErrors.New(dErrors.CodeValidation, "organization ID is required")
	}

	q.enqueueMu.Lock()
	defer q.enqueueMu.Unlock()

	existing, err := q.jobs.FindPendingByOrganization(ctx, orgID)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return id.EmbeddingJobID{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up embedding jobs")
	}

	job := models.NewJob(id.EmbeddingJobID(uuid.New()), orgID, q.clock.Now())
	if err := q.jobs.Save(ctx, job); err != nil {
		return id.EmbeddingJobID{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create embedding job")
	}

	select {
	case q.inbox <- job.ID:
		return job.ID, nil
	default:
		job.Finish("embedding backlog is full", q.clock.Now())
		if err := q.jobs.Save(ctx, job); err != nil {
			q.logger.ErrorContext(ctx, "failed to mark rejected embedding job",
				"job_id", job.ID,
				"error", err,
			)
		}
		return id.EmbeddingJobID{}, dErrors.New(dErrors.CodeUnavailable, "embedding backlog is full")
	}
}

// Job returns the job's progress.
func (q *Queue) Job(ctx context.Context, jobID id.EmbeddingJobID) (*models.Job, error) {
	j, err := q.jobs.FindByID(ctx, jobID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "embedding job not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load embedding job")
	}
	return j, nil
}

// Run processes jobs until ctx is cancelled.
func (q *Queue) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case jobID := <-q.inbox:
			q.process(ctx, jobID)
		}
	}
}

func (q *Queue) process(ctx context.Context, jobID id.EmbeddingJobID) {
	job, err := q.jobs.FindByID(ctx, jobID)
	if err != nil {
		q.logger.ErrorContext(ctx, "embedding job vanished before processing",
			"job_id", jobID,
			"error", err,
		)
		return
	}

	ctx, span := q.tracer.Start(ctx, "embedding.job", trace.WithAttributes(
		attribute.String("job_id", job.ID.String()),
		attribute.String("org_id", job.OrganizationID.String()),
	))
	defer span.End()

	items, err := q.dictionary.ListByOrganization(ctx, job.OrganizationID)
	if err != nil {
		q.finish(ctx, job, fmt.Sprintf("failed to list dictionary: %v", err))
		return
	}
	var todo []*dictmodels.Item
	for _, it := range items {
		if !it.HasVector() {
			todo = append(todo, it)
		}
	}

	job.Start(len(todo), q.clock.Now())
	q.save(ctx, job)
	span.SetAttributes(attribute.Int("phrases", len(todo)))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(q.concurrency)
	for _, it := range todo {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			ok := q.embedOne(gctx, job.ID, it)
			// Saving under mu keeps stored progress monotonic.
			mu.Lock()
			defer mu.Unlock()
			job.Advance(ok, q.clock.Now())
			q.save(ctx, job)
			return nil
		})
	}
	_ = g.Wait()

	reason := ""
	if ctx.Err() != nil {
		reason = "embedding job interrupted"
	}
	q.finish(ctx, job, reason)
}

// embedOne drives one item through the vector lifecycle. Failures are
// logged and reported as false; they never abort the job.
func (q *Queue) embedOne(ctx context.Context, jobID id.EmbeddingJobID, it *dictmodels.Item) bool {
	logFail := func(msg string, err error) {
		q.metrics.IncFailed()
		q.logger.WarnContext(ctx, msg,
			"job_id", jobID,
			"item_id", it.ID(),
			"org_id", it.OrganizationID(),
			"error", err,
		)
	}

	if err := it.StartVectorGeneration(q.clock.Now()); err != nil {
		logFail("vector generation could not start", err)
		return false
	}

	start := q.clock.Now()
	values, err := q.embedder.Embed(ctx, it.Phrase())
	q.metrics.ObserveEmbedLatency(q.clock.Since(start))
	if err == nil {
		err = it.SetVector(values, q.clock.Now())
	}
	if err != nil {
		_ = it.FailVectorGeneration(err.Error(), q.clock.Now())
		q.publisher.Publish(ctx, it.PullEvents()...)
		logFail("embedding failed", err)
		return false
	}

	if err := q.dictionary.SaveVector(ctx, it); err != nil {
		it.PullEvents()
		if errors.Is(err, sentinel.ErrConflict) {
			logFail("phrase changed while embedding, vector discarded", err)
		} else {
			logFail("failed to store vector", err)
		}
		return false
	}
	q.publisher.Publish(ctx, it.PullEvents()...)
	q.metrics.IncEmbedded()
	return true
}

func (q *Queue) finish(ctx context.Context, job *models.Job, reason string) {
	job.Finish(reason, q.clock.Now())
	// Record the terminal state even if the worker is shutting down.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	q.save(saveCtx, job)
	q.metrics.IncJobFinished(string(job.Status))
	q.logger.InfoContext(ctx, "embedding job finished",
		"job_id", job.ID,
		"org_id", job.OrganizationID,
		"status", job.Status,
		"total", job.Total,
		"succeeded", job.Succeeded,
		"failed", job.Failed,
	)
}

func (q *Queue) save(ctx context.Context, job *models.Job) {
	if err := q.jobs.Save(ctx, job); err != nil {
		q.logger.ErrorContext(ctx, "failed to save embedding job progress",
			"job_id", job.ID,
			"error", err,
		)
	}
}
