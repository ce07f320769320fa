package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"phraseguard/internal/embedding/models"
	id "phraseguard/pkg/domain"
	"phraseguard/pkg/platform/sentinel"
)

const (
	jobKeyPrefix     = "phraseguard:embedding:job:"
	pendingKeyPrefix = "phraseguard:embedding:pending:"

	defaultJobTTL = 24 * time.Hour
)

// Redis stores jobs as JSON with a TTL, plus a per-organization pointer to
// the pending job so enqueues can be coalesced across replicas' reads.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

type RedisOption func(*Redis)

// WithTTL sets how long finished jobs stay queryable.
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

func NewRedis(client *redis.Client, opts ...RedisOption) *Redis {
	r := &Redis{client: client, ttl: defaultJobTTL}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func jobKey(jobID id.EmbeddingJobID) string {
	return jobKeyPrefix + jobID.String()
}

func pendingKey(orgID id.OrganizationID) string {
	return pendingKeyPrefix + orgID.String()
}

// Save writes the job and maintains the pending pointer in one pipeline.
func (s *Redis) Save(ctx context.Context, job *models.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal embedding job: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, jobKey(job.ID), data, s.ttl)
	if job.Status == models.JobStatusPending {
		pipe.Set(ctx, pendingKey(job.OrganizationID), job.ID.String(), s.ttl)
	} else {
		// Only clear the pointer if it still refers to this job.
		pipe.Eval(ctx, clearPendingScript, []string{pendingKey(job.OrganizationID)}, job.ID.String())
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save embedding job: %w", err)
	}
	return nil
}

const clearPendingScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then return redis.call("DEL", KEYS[1]) end return 0`

func (s *Redis) FindByID(ctx context.Context, jobID id.EmbeddingJobID) (*models.Job, error) {
	data, err := s.client.Get(ctx, jobKey(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get embedding job: %w", err)
	}
	var j models.Job
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("decode embedding job: %w", err)
	}
	return &j, nil
}

func (s *Redis) FindPendingByOrganization(ctx context.Context, orgID id.OrganizationID) (*models.Job, error) {
	raw, err := s.client.Get(ctx, pendingKey(orgID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get pending embedding job: %w", err)
	}
	jobID, err := id.ParseEmbeddingJobID(raw)
	if err != nil {
		return nil, fmt.Errorf("corrupt pending pointer for %s: %w", orgID, err)
	}
	j, err := s.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if j.Status != models.JobStatusPending {
		return nil, sentinel.ErrNotFound
	}
	return j, nil
}
