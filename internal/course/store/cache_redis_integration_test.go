//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"catapult/pkg/testutil/containers"
)

type RedisCacheSuite struct {
	suite.Suite
	redis   *containers.RedisContainer
	backend *countingBackend
	cache   *RedisCache
}

func TestRedisCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
	s.backend = &countingBackend{InMemoryStore: NewInMemoryStore()}
	s.cache = NewRedisCache(s.backend, s.redis.Client, WithTTL(time.Minute))
}

func (s *RedisCacheSuite) TestReadThrough() {
	ctx := context.Background()
	course := sampleCourse()
	s.Require().NoError(s.cache.Create(ctx, course))

	first, err := s.cache.FindByID(ctx, 1, course.ID)
	s.Require().NoError(err)
	second, err := s.cache.FindByID(ctx, 1, course.ID)
	s.Require().NoError(err)

	s.Equal(int32(1), s.backend.reads.Load())
	s.Equal(first, second)
	s.Equal("remote-3", second.RemoteID)

	ttl, err := s.redis.Client.TTL(ctx, courseKey(1, course.ID)).Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
}

func (s *RedisCacheSuite) TestDeleteEvicts() {
	ctx := context.Background()
	course := sampleCourse()
	s.Require().NoError(s.cache.Create(ctx, course))
	_, err := s.cache.FindByID(ctx, 1, course.ID)
	s.Require().NoError(err)

	s.Require().NoError(s.cache.DeleteConfirmed(ctx, 1, course.ID, confirmAll))

	exists, err := s.redis.Client.Exists(ctx, courseKey(1, course.ID)).Result()
	s.Require().NoError(err)
	s.Zero(exists)
}
