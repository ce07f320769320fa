package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "phraseguard/pkg/domain"
)

func TestJobLifecycle(t *testing.T) {
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	t.Run("completes when every phrase is processed", func(t *testing.T) {
		j := NewJob(id.EmbeddingJobID(uuid.New()), id.OrganizationID(uuid.New()), now)
		assert.Equal(t, JobStatusPending, j.Status)

		j.Start(3, now)
		j.Advance(true, now)
		j.Advance(false, now)
		j.Advance(true, now)
		j.Finish("", now)

		assert.Equal(t, JobStatusCompleted, j.Status)
		assert.Equal(t, 3, j.Processed)
		assert.Equal(t, 2, j.Succeeded)
		assert.Equal(t, 1, j.Failed)
		require.NotNil(t, j.CompletedAt)
		assert.True(t, j.Status.IsTerminal())
	})

	t.Run("fails when interrupted", func(t *testing.T) {
		j := NewJob(id.EmbeddingJobID(uuid.New()), id.OrganizationID(uuid.New()), now)
		j.Start(3, now)
		j.Advance(true, now)
		j.Finish("", now)
		assert.Equal(t, JobStatusFailed, j.Status)
		assert.NotEmpty(t, j.Error)
	})

	t.Run("clone is independent", func(t *testing.T) {
		j := NewJob(id.EmbeddingJobID(uuid.New()), id.OrganizationID(uuid.New()), now)
		j.Finish("listing failed", now)
		cp := j.Clone()
		*cp.CompletedAt = now.Add(time.Hour)
		cp.Processed = 9
		assert.Equal(t, now, *j.CompletedAt)
		assert.Zero(t, j.Processed)
	})
}
