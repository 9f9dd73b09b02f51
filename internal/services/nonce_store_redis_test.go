//go:build integration

package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/javajoker/licensechain/internal/config"
	"github.com/javajoker/licensechain/internal/database"
	"github.com/javajoker/licensechain/internal/testutil/containers"
	"github.com/javajoker/licensechain/internal/utils"
)

type RedisNonceStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *RedisNonceStore
}

func (s *RedisNonceStoreSuite) SetupSuite() {
	if testing.Short() {
		s.T().Skip("skipping redis integration tests in short mode")
	}
	s.redis = containers.NewRedisContainer(s.T())
	s.store = NewRedisNonceStore(s.redis.Client)
}

func (s *RedisNonceStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisNonceStoreSuite) TestTakeIsSingleUse() {
	ctx := context.Background()
	s.Require().NoError(s.store.Put(ctx, applicantAddr, "challenge", time.Minute))

	got, err := s.store.Take(ctx, "0x8617e340b3d01fa5f11f306f4090fd50e238070d")
	s.Require().NoError(err)
	s.Equal("challenge", got)

	_, err = s.store.Take(ctx, applicantAddr)
	s.ErrorIs(err, ErrNonceNotFound)
}

func (s *RedisNonceStoreSuite) TestPutReplaces() {
	ctx := context.Background()
	s.Require().NoError(s.store.Put(ctx, applicantAddr, "first", time.Minute))
	s.Require().NoError(s.store.Put(ctx, applicantAddr, "second", time.Minute))

	got, err := s.store.Take(ctx, applicantAddr)
	s.Require().NoError(err)
	s.Equal("second", got)
}

func (s *RedisNonceStoreSuite) TestExpiryIsLeftToRedis() {
	ctx := context.Background()
	s.Require().NoError(s.store.Put(ctx, applicantAddr, "challenge", 100*time.Millisecond))

	ttl, err := s.redis.Client.PTTL(ctx, nonceKeyPrefix+utils.NormalizeAddress(applicantAddr)).Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
	s.LessOrEqual(ttl, 100*time.Millisecond)

	time.Sleep(300 * time.Millisecond)
	_, err = s.store.Take(ctx, applicantAddr)
	s.ErrorIs(err, ErrNonceNotFound)
}

func (s *RedisNonceStoreSuite) TestNewRedisFromURL() {
	client, err := database.NewRedis(context.Background(), config.RedisConfig{URL: s.redis.URL, PoolSize: 2})
	s.Require().NoError(err)
	defer client.Close()
	s.Equal(2, client.Options().PoolSize)

	client, err = database.NewRedis(context.Background(), config.RedisConfig{})
	s.NoError(err)
	s.Nil(client)
}

func TestRedisNonceStoreSuite(t *testing.T) {
	suite.Run(t, new(RedisNonceStoreSuite))
}
