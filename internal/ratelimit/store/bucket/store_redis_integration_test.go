//go:build integration

package bucket

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"ballotbox/pkg/testutil/containers"
)

type RedisBucketStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *RedisBucketStore
	ctx   context.Context
}

func TestRedisBucketStoreSuite(t *testing.T) {
	suite.Run(t, new(RedisBucketStoreSuite))
}

func (s *RedisBucketStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = NewRedisBucketStore(s.redis.Client)
	s.ctx = context.Background()
}

func (s *RedisBucketStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
}

func (s *RedisBucketStoreSuite) TestAllowUpToLimit() {
	for i := range 3 {
		result, err := s.store.Allow(s.ctx, "census:redis", 3, time.Minute)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(3-(i+1), result.Remaining)
	}

	result, err := s.store.Allow(s.ctx, "census:redis", 3, time.Minute)
	s.Require().NoError(err)
	s.False(result.Allowed)
	s.GreaterOrEqual(result.RetryAfter, 1)
}

func (s *RedisBucketStoreSuite) TestReset() {
	_, err := s.store.Allow(s.ctx, "census:redis-reset", 1, time.Minute)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Reset(s.ctx, "census:redis-reset"))

	result, err := s.store.Allow(s.ctx, "census:redis-reset", 1, time.Minute)
	s.Require().NoError(err)
	s.True(result.Allowed)
}
