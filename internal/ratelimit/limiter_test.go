package ratelimit

import (
	"fmt"
	"testing"
	"time"

	"github.com/ridewise/riskmeter/internal/monitoring"
	"github.com/stretchr/testify/assert"
)

func newTestLimiter(config Config) *RateLimiter {
	return NewRateLimiter(config, monitoring.NewMetrics())
}

func TestRateLimiterBlocksAfterBurst(t *testing.T) {
	config := Config{
		IPLimitPerMin:    5,
		BatchLimitPerMin: 2,
		BurstMultiplier:  1,
	}
	limiter := newTestLimiter(config)

	key := "test:user:123"

	// Burst floor is 5 tokens; a minute-scale refill contributes nothing
	// inside this loop.
	for i := 0; i < 5; i++ {
		result := limiter.allow(key, 5, time.Minute)
		assert.True(t, result.Allowed, "request %d should be allowed", i+1)
		assert.Equal(t, 5, result.Limit)
	}

	result := limiter.allow(key, 5, time.Minute)
	assert.False(t, result.Allowed, "6th request should be blocked")
	assert.Greater(t, result.RetryAfter, time.Duration(0))
}

func TestRateLimiterBurstCapacity(t *testing.T) {
	config := Config{
		IPLimitPerMin:    10,
		BatchLimitPerMin: 2,
		BurstMultiplier:  2,
	}
	limiter := newTestLimiter(config)

	allowedCount := 0
	for i := 0; i < 30; i++ {
		result := limiter.allow("test:burst:user", 10, time.Minute)
		if result.Allowed {
			allowedCount++
		}
	}

	// Burst multiplier of 2 gives ~20 tokens up front.
	assert.GreaterOrEqual(t, allowedCount, 10, "should allow at least limit amount")
	assert.LessOrEqual(t, allowedCount, 22, "should not exceed burst plus small margin")
}

func TestRateLimiterIndependentKeys(t *testing.T) {
	config := Config{
		IPLimitPerMin:    5,
		BatchLimitPerMin: 2,
		BurstMultiplier:  1,
	}
	limiter := newTestLimiter(config)

	keys := []string{"ip:10.0.0.1", "ip:10.0.0.2", "ip:10.0.0.3"}

	for _, key := range keys {
		for i := 0; i < 5; i++ {
			result := limiter.allow(key, 5, time.Minute)
			assert.True(t, result.Allowed, "key %s request %d should be allowed", key, i+1)
		}
		result := limiter.allow(key, 5, time.Minute)
		assert.False(t, result.Allowed, "key %s over-limit request should be blocked", key)
	}
}

func TestRateLimiterAllowIPHeadersData(t *testing.T) {
	limiter := newTestLimiter(DefaultConfig())

	result := limiter.AllowIP("192.168.1.1")
	assert.True(t, result.Allowed)
	assert.Equal(t, DefaultConfig().IPLimitPerMin, result.Limit)
	assert.False(t, result.ResetAt.IsZero())
}

func TestRateLimiterStats(t *testing.T) {
	limiter := newTestLimiter(DefaultConfig())

	for i := 0; i < 3; i++ {
		limiter.AllowIP(fmt.Sprintf("10.1.1.%d", i))
	}

	stats := limiter.GetStats()
	assert.Equal(t, 3, stats["active_limiters"])
	assert.Equal(t, DefaultConfig().IPLimitPerMin, stats["ip_limit_per_min"])
}

func TestRateLimiterConcurrency(t *testing.T) {
	limiter := newTestLimiter(DefaultConfig())

	done := make(chan bool, 50)
	for i := 0; i < 50; i++ {
		go func() {
			for j := 0; j < 10; j++ {
				result := limiter.allow("test:concurrent", 1000, time.Second)
				assert.NotNil(t, result)
			}
			done <- true
		}()
	}

	for i := 0; i < 50; i++ {
		<-done
	}
}
