//go:build integration

package census_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"ballotbox/internal/census"
	"ballotbox/internal/census/mocks"
	id "ballotbox/pkg/domain"
	"ballotbox/pkg/testutil/containers"
)

type RedisCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	ctx   context.Context
	req   census.Request
}

func TestRedisCacheSuite(t *testing.T) {
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.ctx = context.Background()
	s.req = census.Request{DocumentType: id.DocumentTypeDNI, DocumentNumber: "00012345678Z", YearOfBirth: 1980}
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
}

func (s *RedisCacheSuite) TestMatchIsServedFromCache() {
	ctrl := gomock.NewController(s.T())
	next := mocks.NewMockGateway(ctrl)
	next.EXPECT().Verify(gomock.Any(), s.req).Return(census.Match("12345678Z", "01")).Times(1)

	cache := census.NewRedisCache(next, s.redis.Client, time.Minute)

	first := cache.Verify(s.ctx, s.req)
	second := cache.Verify(s.ctx, s.req)

	s.Equal(census.Match("12345678Z", "01"), first)
	s.Equal(first, second)

	ttl, err := s.redis.TTL(s.ctx, census.CacheKey(s.req))
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
}

func (s *RedisCacheSuite) TestNegativeAnswersAreNotCached() {
	ctrl := gomock.NewController(s.T())
	next := mocks.NewMockGateway(ctrl)
	gomock.InOrder(
		next.EXPECT().Verify(gomock.Any(), s.req).Return(census.Unavailable("timeout")),
		next.EXPECT().Verify(gomock.Any(), s.req).Return(census.NoMatch()),
		next.EXPECT().Verify(gomock.Any(), s.req).Return(census.Match("12345678Z", "")),
	)

	cache := census.NewRedisCache(next, s.redis.Client, time.Minute)

	s.Equal(census.OutcomeUnavailable, cache.Verify(s.ctx, s.req).Outcome)
	s.Equal(census.OutcomeNoMatch, cache.Verify(s.ctx, s.req).Outcome)
	s.True(cache.Verify(s.ctx, s.req).IsMatch())
}
