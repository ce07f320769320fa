//go:build integration

package bucket_test

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/suite"

	"phraseguard/internal/ratelimit/models"
	"phraseguard/internal/ratelimit/store/bucket"
	"phraseguard/pkg/testutil/containers"
)

type RedisSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	clock *clockwork.FakeClock
	store *bucket.Redis
}

func TestRedisSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisSuite))
}

func (s *RedisSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
}

func (s *RedisSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
	s.clock = clockwork.NewFakeClockAt(time.Now())
	s.store = bucket.NewRedis(s.redis.Client, s.clock)
}

func (s *RedisSuite) TestBudgetSharedAcrossStores() {
	ctx := context.Background()
	limit := models.Limit{Requests: 2, Window: time.Minute}
	other := bucket.NewRedis(s.redis.Client, s.clock)

	res, err := s.store.Allow(ctx, "k:shared", limit)
	s.Require().NoError(err)
	s.True(res.Allowed)
	s.Equal(1, res.Remaining)

	s.clock.Advance(time.Millisecond)
	res, err = other.Allow(ctx, "k:shared", limit)
	s.Require().NoError(err)
	s.True(res.Allowed)
	s.Equal(0, res.Remaining)

	s.clock.Advance(time.Millisecond)
	res, err = s.store.Allow(ctx, "k:shared", limit)
	s.Require().NoError(err)
	s.False(res.Allowed)

	n, err := s.redis.Client.ZCard(ctx, "k:shared").Result()
	s.Require().NoError(err)
	s.EqualValues(2, n)
}

func (s *RedisSuite) TestWindowExpiry() {
	ctx := context.Background()
	limit := models.Limit{Requests: 1, Window: time.Minute}

	_, err := s.store.Allow(ctx, "k:expire", limit)
	s.Require().NoError(err)
	s.clock.Advance(61 * time.Second)

	res, err := s.store.Allow(ctx, "k:expire", limit)
	s.Require().NoError(err)
	s.True(res.Allowed)
}

func (s *RedisSuite) TestReset() {
	ctx := context.Background()
	limit := models.Limit{Requests: 1, Window: time.Minute}

	_, err := s.store.Allow(ctx, "k:reset", limit)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Reset(ctx, "k:reset"))

	res, err := s.store.Allow(ctx, "k:reset", limit)
	s.Require().NoError(err)
	s.True(res.Allowed)
}
