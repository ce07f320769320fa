package models

import (
	"time"

	id "phraseguard/pkg/domain"
)

// JobStatus is the lifecycle of an embedding job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job tracks vector regeneration for one organization's dictionary.
// Processed counts phrases attempted; Succeeded + Failed == Processed.
type Job struct {
	ID             id.EmbeddingJobID `json:"id"`
	OrganizationID id.OrganizationID `json:"organization_id"`
	Status         JobStatus         `json:"status"`
	Total          int               `json:"total"`
	Processed      int               `json:"processed"`
	Succeeded      int               `json:"succeeded"`
	Failed         int               `json:"failed"`
	Error          string            `json:"error,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
	CompletedAt    *time.Time        `json:"completed_at,omitempty"`
}

func NewJob(jobID id.EmbeddingJobID, orgID id.OrganizationID, now time.Time) *Job {
	return &Job{
		ID:             jobID,
		OrganizationID: orgID,
		Status:         JobStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Start moves the job to running with the number of phrases to embed.
func (j *Job) Start(total int, now time.Time) {
	j.Status = JobStatusRunning
	j.Total = total
	j.UpdatedAt = now
}

// Advance records the outcome of one phrase.
func (j *Job) Advance(ok bool, now time.Time) {
	j.Processed++
	if ok {
		j.Succeeded++
	} else {
		j.Failed++
	}
	j.UpdatedAt = now
}

// Finish sets the terminal status: completed when every phrase was
// attempted, failed otherwise.
func (j *Job) Finish(reason string, now time.Time) {
	if reason == "" && j.Processed == j.Total {
		j.Status = JobStatusCompleted
	} else {
		j.Status = JobStatusFailed
		j.Error = reason
		if j.Error == "" {
			j.Error = "job ended before every phrase was processed"
		}
	}
	j.UpdatedAt = now
	j.CompletedAt = &now
}

// Clone returns a deep copy so stores never share mutable state with callers.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	cp := *j
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}
