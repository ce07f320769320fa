// Package queue runs check processing with bounded concurrency, priority
// ordering and retry with exponential backoff.
//
// The queue is in-memory only. Work that is pending or in flight when the
// process exits is lost; callers that need recovery must re-enqueue from
// storage.
package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	checkmodels "phraseguard/internal/check/models"
	"phraseguard/internal/queue/metrics"
	id "phraseguard/pkg/domain"
	dErrors "phraseguard/pkg/domain-errors"
)

const defaultJobTimeout = 2 * time.Minute

// Status is a point-in-time snapshot for monitoring.
type Status struct {
	Pending          int  `json:"pending_count"`
	InFlight         int  `json:"in_flight_count"`
	MaxConcurrent    int  `json:"max_concurrent"`
	ScheduledRetries int  `json:"scheduled_retries"`
	Running          bool `json:"running"`
}

// Manager owns the pending queue and the in-flight set. Both, together with
// the running flag and scheduled retries, are guarded by mu.
//
// Dispatch happens synchronously under mu whenever capacity or work changes:
// on enqueue, when an attempt finishes, and when a retry is reinserted. At
// most maxConcurrent attempts run at once.
type Manager struct {
	mu         sync.Mutex
	pending    []Job
	inFlight   map[id.CheckID]Job
	retries    map[id.CheckID]clockwork.Timer
	running    bool
	closed     bool
	generation uint64

	maxConcurrent int
	jobTimeout    time.Duration
	processor     Processor
	recorder      StatusRecorder
	clock         clockwork.Clock
	logger        *slog.Logger
	metrics       *metrics.Metrics
	tracer        trace.Tracer

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

type Option func(*Manager)

// WithMaxConcurrent overrides the worker budget. Non-positive values are ignored.
func WithMaxConcurrent(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxConcurrent = n
		}
	}
}

func WithJobTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.jobTimeout = d
		}
	}
}

func WithClock(clock clockwork.Clock) Option {
	return func(m *Manager) {
		m.clock = clock
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) {
		m.metrics = mt
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(m *Manager) {
		m.tracer = t
	}
}

func NewManager(processor Processor, recorder StatusRecorder, opts ...Option) *Manager {
	m := &Manager{
		inFlight:      make(map[id.CheckID]Job),
		retries:       make(map[id.CheckID]clockwork.Timer),
		maxConcurrent: DefaultMaxConcurrent,
		jobTimeout:    defaultJobTimeout,
		processor:     processor,
		recorder:      recorder,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.clock == nil {
		m.clock = clockwork.NewRealClock()
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	if m.tracer == nil {
		m.tracer = otel.Tracer("phraseguard/queue")
	}
	m.baseCtx, m.cancel = context.WithCancel(context.Background())
	return m
}

// Enqueue accepts a check for processing. High priority jobs go to the
// front of the pending queue, everything else to the back.
func (m *Manager) Enqueue(ctx context.Context, req EnqueueRequest) error {
	if req.ID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "check ID is required")
	}
	if req.Priority == "" {
		req.Priority = id.PriorityNormal
	}
	if !req.Priority.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "invalid priority")
	}
	if req.InputType == "" {
		req.InputType = id.InputTypeText
	}

	job := Job{
		ID:             req.ID,
		Text:           req.Text,
		OrganizationID: req.OrganizationID,
		Priority:       req.Priority,
		InputType:      req.InputType,
		ImageRef:       req.ImageRef,
		CreatedAt:      m.clock.Now(),
		MaxRetries:     DefaultMaxRetries,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return dErrors.New(dErrors.CodeUnavailable, "queue is shutting down")
	}
	if m.queuedLocked(job.ID) {
		return dErrors.New(dErrors.CodeConflict, "check is already queued")
	}
	if job.Priority == id.PriorityHigh {
		m.pending = append([]Job{job}, m.pending...)
	} else {
		m.pending = append(m.pending, job)
	}
	m.logger.DebugContext(ctx, "check enqueued",
		"check_id", job.ID,
		"priority", job.Priority,
		"pending", len(m.pending),
	)
	m.dispatchLocked()
	return nil
}

func (m *Manager) queuedLocked(checkID id.CheckID) bool {
	if _, ok := m.inFlight[checkID]; ok {
		return true
	}
	if _, ok := m.retries[checkID]; ok {
		return true
	}
	for _, j := range m.pending {
		if j.ID == checkID {
			return true
		}
	}
	return false
}

// dispatchLocked starts pending jobs from the front while capacity remains.
// Caller holds mu.
func (m *Manager) dispatchLocked() {
	for !m.closed && len(m.pending) > 0 && len(m.inFlight) < m.maxConcurrent {
		job := m.pending[0]
		m.pending = m.pending[1:]
		m.inFlight[job.ID] = job
		m.wg.Add(1)
		m.metrics.IncDispatched()
		go m.run(m.generation, job)
	}
	m.running = len(m.pending) > 0 || len(m.inFlight) > 0
	m.metrics.SetDepth(len(m.pending), len(m.inFlight))
}

func (m *Manager) run(gen uint64, job Job) {
	defer m.wg.Done()

	ctx, cancel := context.WithTimeout(m.baseCtx, m.jobTimeout)
	defer cancel()
	ctx, span := m.tracer.Start(ctx, "queue.process", trace.WithAttributes(
		attribute.String("check_id", job.ID.String()),
		attribute.String("priority", string(job.Priority)),
		attribute.Int("retry_count", job.RetryCount),
	))

	start := m.clock.Now()
	err := m.safeProcess(ctx, job)
	elapsed := m.clock.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		m.metrics.ObserveProcess("error", elapsed)
	} else {
		m.metrics.ObserveProcess("success", elapsed)
	}
	span.End()

	terminal := false
	m.mu.Lock()
	if gen == m.generation {
		delete(m.inFlight, job.ID)
		if err != nil {
			terminal = m.handleFailureLocked(ctx, job, err)
		}
		m.dispatchLocked()
	}
	m.mu.Unlock()

	if terminal {
		m.recordFailure(job, err)
	}
}

func (m *Manager) safeProcess(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("processor panic: %v", r)
		}
	}()
	return m.processor.Process(ctx, job)
}

// handleFailureLocked schedules a retry or reports that the job is done for
// good. Caller holds mu.
func (m *Manager) handleFailureLocked(ctx context.Context, job Job, err error) bool {
	if IsPermanent(err) || job.RetryCount >= job.MaxRetries || m.closed {
		return true
	}
	job.RetryCount++
	delay := Backoff(job.RetryCount)
	gen := m.generation
	m.retries[job.ID] = m.clock.AfterFunc(delay, func() {
		m.reinsert(gen, job)
	})
	m.metrics.IncRetries()
	m.logger.WarnContext(ctx, "check processing failed, retry scheduled",
		"check_id", job.ID,
		"retry_count", job.RetryCount,
		"delay", delay,
		"error", err,
	)
	return false
}

// reinsert puts a retried job back at the front. The final retry is always
// served as high priority.
func (m *Manager) reinsert(gen uint64, job Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generation || m.closed {
		return
	}
	delete(m.retries, job.ID)
	if job.RetryCount >= DefaultMaxRetries {
		job.Priority = id.PriorityHigh
	}
	m.pending = append([]Job{job}, m.pending...)
	m.dispatchLocked()
}

func (m *Manager) recordFailure(job Job, cause error) {
	reason := "exhausted"
	if IsPermanent(cause) {
		reason = "permanent"
	}
	m.metrics.IncPermanentFailure(reason)

	update := StatusUpdate{
		Status:       checkmodels.StatusFailed,
		ErrorMessage: fmt.Sprintf("processing failed after %d retries: %v", job.RetryCount, cause),
		CompletedAt:  m.clock.Now(),
	}
	// The job context may already be expired; the terminal write gets its own.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := m.recorder.UpdateCheckStatus(ctx, job.ID, update); err != nil {
		m.logger.ErrorContext(ctx, "failed to record terminal check failure",
			"check_id", job.ID,
			"retry_count", job.RetryCount,
			"error", err,
		)
		return
	}
	m.logger.ErrorContext(ctx, "check failed permanently",
		"check_id", job.ID,
		"retry_count", job.RetryCount,
		"reason", reason,
		"error", cause,
	)
}

// Status returns a snapshot of queue depth.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Status{
		Pending:          len(m.pending),
		InFlight:         len(m.inFlight),
		MaxConcurrent:    m.maxConcurrent,
		ScheduledRetries: len(m.retries),
		Running:          m.running,
	}
}

// InFlightJobs returns the jobs currently being processed, in no particular order.
func (m *Manager) InFlightJobs() []Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Job, 0, len(m.inFlight))
	for _, j := range m.inFlight {
		out = append(out, j)
	}
	return out
}

// Clear drops pending jobs, forgets in-flight ones and cancels scheduled
// retries. Attempts already running finish, but their outcome is ignored.
// Intended for tests and operator resets.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.retries {
		t.Stop()
	}
	m.pending = nil
	m.inFlight = make(map[id.CheckID]Job)
	m.retries = make(map[id.CheckID]clockwork.Timer)
	m.running = false
	m.generation++
	m.metrics.SetDepth(0, 0)
}

// Shutdown stops accepting work, cancels scheduled retries and waits for
// running attempts until ctx is done, then cancels them.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	for _, t := range m.retries {
		t.Stop()
	}
	m.retries = make(map[id.CheckID]clockwork.Timer)
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		m.cancel()
		return nil
	case <-ctx.Done():
		m.cancel()
		<-done
		return ctx.Err()
	}
}
