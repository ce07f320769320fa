package bucket

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"

	"phraseguard/internal/ratelimit/models"
)

// Redis keeps each window as a sorted set scored by request time, so every
// server process shares the same budget.
type Redis struct {
	client *redis.Client
	clock  clockwork.Clock
}

func NewRedis(client *redis.Client, clock clockwork.Clock) *Redis {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Redis{client: client, clock: clock}
}

// Allow trims expired entries, counts the rest and records the request when
// there is room. The member is removed again when the budget turns out to be
// spent, so rejected calls do not extend the window.
func (s *Redis) Allow(ctx context.Context, key string, limit models.Limit) (models.Result, error) {
	now := s.clock.Now()
	cutoff := now.Add(-limit.Window)
	member := strconv.FormatInt(now.UnixNano(), 10) + "-" + uuid.NewString()

	var (
		card   *redis.IntCmd
		oldest *redis.ZSliceCmd
	)
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(cutoff.UnixNano(), 10))
		p.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixNano()), Member: member})
		card = p.ZCard(ctx, key)
		oldest = p.ZRangeWithScores(ctx, key, 0, 0)
		p.PExpire(ctx, key, limit.Window)
		return nil
	})
	if err != nil {
		return models.Result{}, fmt.Errorf("rate limit %s: %w", key, err)
	}

	resetAt := now.Add(limit.Window)
	if zs := oldest.Val(); len(zs) > 0 {
		resetAt = time.Unix(0, int64(zs[0].Score)).Add(limit.Window)
	}
	count := int(card.Val())
	if count > limit.Requests {
		if err := s.client.ZRem(ctx, key, member).Err(); err != nil {
			return models.Result{}, fmt.Errorf("rate limit %s: %w", key, err)
		}
		return models.Result{Allowed: false, Limit: limit.Requests, ResetAt: resetAt}, nil
	}
	return models.Result{
		Allowed:   true,
		Limit:     limit.Requests,
		Remaining: limit.Requests - count,
		ResetAt:   resetAt,
	}, nil
}

func (s *Redis) Reset(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}
