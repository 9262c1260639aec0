package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/goldbook/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

type mockBucket struct {
	mock.Mock
}

func (m *mockBucket) Allow(ctx context.Context, key string, rate float64, burst int) (*RateLimitResult, error) {
	args := m.Called(ctx, key, rate, burst)
	res, _ := args.Get(0).(*RateLimitResult)
	return res, args.Error(1)
}

func TestNewWriteLimiterDisabled(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	limiter, err := NewWriteLimiter(lc, config.Config{}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, limiter)
	assert.False(t, limiter.Enabled())

	res, err := limiter.Allow(context.Background(), "user:1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestNewWriteLimiterRejectsBadConfig(t *testing.T) {
	lc := fxtest.NewLifecycle(t)

	_, err := NewWriteLimiter(lc, config.Config{RateLimit: config.RateLimitConfig{Enabled: true}}, zap.NewNop())
	assert.Error(t, err)

	_, err = NewWriteLimiter(lc, config.Config{RateLimit: config.RateLimitConfig{
		Enabled:   true,
		RedisAddr: "localhost:6379",
		WriteRate: 0,
	}}, zap.NewNop())
	assert.Error(t, err)
}

func TestWriteLimiterKeysByClient(t *testing.T) {
	bucket := &mockBucket{}
	bucket.On("Allow", mock.Anything, "goldbook:write:user:7", 5.0, 10).
		Return(&RateLimitResult{Allowed: true, Limit: 10, Remaining: 9}, nil).Once()
	bucket.On("Allow", mock.Anything, "goldbook:write:anonymous", 5.0, 10).
		Return(&RateLimitResult{Allowed: false, Limit: 10}, nil).Once()

	limiter := NewWriteLimiterWithBucket(bucket, 5, 10)
	require.True(t, limiter.Enabled())

	res, err := limiter.Allow(context.Background(), " user:7 ")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 9, res.Remaining)

	res, err = limiter.Allow(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	bucket.AssertExpectations(t)
}

func TestTokenBucketArgumentChecks(t *testing.T) {
	var bucket *TokenBucket
	res, err := bucket.Allow(context.Background(), "k", 1, 1)
	assert.Error(t, err)
	assert.False(t, res.Allowed)
	assert.Nil(t, NewTokenBucket(nil))
}

func TestParseBucketReply(t *testing.T) {
	res, err := parseBucketReply([]interface{}{int64(1), int64(4), int64(1_700_000_000_000)}, 2, 5)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 4, res.Remaining)
	assert.Equal(t, 5, res.Limit)
	assert.Zero(t, res.RetryAfter)

	res, err = parseBucketReply([]interface{}{int64(0), int64(0), int64(1_700_000_000_000)}, 2, 5)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 500*time.Millisecond, res.RetryAfter)

	_, err = parseBucketReply([]interface{}{int64(1)}, 2, 5)
	assert.Error(t, err)
}

func TestDefaultBucketTTL(t *testing.T) {
	assert.Equal(t, time.Second, defaultBucketTTL(0, 10))
	assert.Equal(t, 4*time.Second, defaultBucketTTL(10, 20))
	assert.Equal(t, time.Second, defaultBucketTTL(1000, 1))
}

func TestCastHelpers(t *testing.T) {
	assert.Equal(t, int64(3), castToInt(3))
	assert.Equal(t, int64(2), castToInt(2.9))
	assert.Equal(t, int64(0), castToInt("x"))
	assert.Equal(t, 1.5, castToFloat("1.5"))
	assert.Equal(t, 0.0, castToFloat("bad"))
	assert.Equal(t, 7.0, castToFloat(int64(7)))
}
