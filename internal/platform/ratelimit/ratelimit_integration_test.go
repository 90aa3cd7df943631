//go:build integration

package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"bronn/internal/platform/config"
	"bronn/internal/platform/metrics"
	"bronn/internal/platform/middleware"
	platformredis "bronn/internal/platform/redis"
	"bronn/pkg/testutil/containers"
)

type RateLimitSuite struct {
	suite.Suite
	ctx   context.Context
	rc    *containers.RedisContainer
	redis *platformredis.Client
}

func TestRateLimitSuite(t *testing.T) {
	suite.Run(t, new(RateLimitSuite))
}

func (s *RateLimitSuite) SetupSuite() {
	s.ctx = context.Background()
	s.rc = containers.NewRedisContainer(s.T())

	client, err := platformredis.New(config.RedisConfig{
		URL:          s.rc.Addr,
		PoolSize:     4,
		MinIdleConns: 1,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	require.NoError(s.T(), err)
	s.redis = client
}

func (s *RateLimitSuite) TearDownSuite() {
	if s.redis != nil {
		_ = s.redis.Close()
	}
	if s.rc != nil {
		_ = s.rc.Container.Terminate(s.ctx)
	}
}

func (s *RateLimitSuite) SetupTest() {
	require.NoError(s.T(), s.rc.FlushAll(s.ctx))
}

func (s *RateLimitSuite) newLimiter(requests int) *Limiter {
	return New(s.redis, metrics.NewForTesting(), nil, discardLogger(),
		WithLimits(map[EndpointClass]Limit{
			ClassNativeAuth: {Requests: requests, Window: time.Minute},
		}))
}

func (s *RateLimitSuite) TestWindowExhaustion() {
	l := s.newLimiter(3)

	for i := 0; i < 3; i++ {
		result, err := l.Check(s.ctx, "203.0.113.9", ClassNativeAuth)
		require.NoError(s.T(), err)
		assert.True(s.T(), result.Allowed, "request %d within limit", i+1)
		assert.Equal(s.T(), 3-(i+1), result.Remaining)
	}

	result, err := l.Check(s.ctx, "203.0.113.9", ClassNativeAuth)
	require.NoError(s.T(), err)
	assert.False(s.T(), result.Allowed)
	assert.Zero(s.T(), result.Remaining)
}

func (s *RateLimitSuite) TestLimitsArePerIP() {
	l := s.newLimiter(1)

	first, err := l.Check(s.ctx, "203.0.113.1", ClassNativeAuth)
	require.NoError(s.T(), err)
	assert.True(s.T(), first.Allowed)

	second, err := l.Check(s.ctx, "203.0.113.2", ClassNativeAuth)
	require.NoError(s.T(), err)
	assert.True(s.T(), second.Allowed, "a different client has its own window")
}

func (s *RateLimitSuite) TestMiddlewareRejectsWith429() {
	l := s.newLimiter(1)
	h := middleware.CaptureMetadata(l.Middleware(ClassNativeAuth)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})))

	req := httptest.NewRequest("POST", "/", nil)
	req.RemoteAddr = "203.0.113.9:1234"

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(s.T(), http.StatusOK, w.Code)
	assert.Equal(s.T(), "1", w.Header().Get("X-RateLimit-Limit"))

	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(s.T(), http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(s.T(), w.Header().Get("Retry-After"))
}
