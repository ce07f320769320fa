package queue

import (
	"context"
	"errors"
	"time"

	checkmodels "phraseguard/internal/check/models"
	id "phraseguard/pkg/domain"
)

const (
	// DefaultMaxRetries is the retry budget after the first attempt.
	DefaultMaxRetries = 2
	// DefaultMaxConcurrent bounds simultaneous processing attempts.
	DefaultMaxConcurrent = 3

	baseBackoff = time.Second
	maxBackoff  = 30 * time.Second
)

// Job is one queued check. ID doubles as the check ID.
type Job struct {
	ID             id.CheckID
	Text           string
	OrganizationID id.OrganizationID
	Priority       id.Priority
	InputType      id.InputType
	ImageRef       string
	CreatedAt      time.Time
	RetryCount     int
	MaxRetries     int
}

// EnqueueRequest is what callers hand to Enqueue.
type EnqueueRequest struct {
	ID             id.CheckID
	Text           string
	OrganizationID id.OrganizationID
	Priority       id.Priority
	InputType      id.InputType
	ImageRef       string
}

// Processor runs one attempt for a job. A returned error triggers a retry
// unless it is wrapped with Permanent.
type Processor interface {
	Process(ctx context.Context, job Job) error
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, job Job) error

func (f ProcessorFunc) Process(ctx context.Context, job Job) error {
	return f(ctx, job)
}

// StatusUpdate is the terminal write issued when the queue gives up on a job.
type StatusUpdate struct {
	Status       checkmodels.Status
	ErrorMessage string
	CompletedAt  time.Time
}

// StatusRecorder persists terminal failures.
type StatusRecorder interface {
	UpdateCheckStatus(ctx context.Context, checkID id.CheckID, update StatusUpdate) error
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was wrapped with Permanent.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

// Backoff returns min(2^retryCount seconds, 30 seconds).
func Backoff(retryCount int) time.Duration {
	if retryCount <= 0 {
		return baseBackoff
	}
	if retryCount >= 5 {
		return maxBackoff
	}
	d := baseBackoff << uint(retryCount)
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}
