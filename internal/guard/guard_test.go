package guard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterWindow(t *testing.T) {
	limiter := NewRateLimiter(3, time.Minute)
	base := time.Date(2026, 2, 22, 12, 0, 0, 0, time.UTC)

	assert.True(t, limiter.Allow(1, base))
	assert.True(t, limiter.Allow(1, base.Add(10*time.Second)))
	assert.True(t, limiter.Allow(1, base.Add(20*time.Second)))
	assert.False(t, limiter.Allow(1, base.Add(30*time.Second)))

	// Rejection leaves the window untouched, so the slot still frees up
	// exactly when the oldest entry expires.
	assert.False(t, limiter.Allow(1, base.Add(59*time.Second)))
	assert.True(t, limiter.Allow(1, base.Add(61*time.Second)))
}

func TestRateLimiterPerChat(t *testing.T) {
	limiter := NewRateLimiter(1, time.Minute)
	now := time.Date(2026, 2, 22, 12, 0, 0, 0, time.UTC)

	assert.True(t, limiter.Allow(1, now))
	assert.False(t, limiter.Allow(1, now))
	assert.True(t, limiter.Allow(2, now), "chats have independent windows")
}

func TestCostGuardCanSpend(t *testing.T) {
	g := NewCostGuard(1.0, 0.5, 0.5)
	now := time.Date(2026, 2, 22, 12, 0, 0, 0, time.UTC)

	assert.True(t, g.CanSpend(0.5, now))

	// 1000 input + 600 output tokens at 0.5 per 1k = 0.8 USD.
	snapshot := g.RegisterTokens(1000, 600, now)
	assert.Equal(t, "2026-02", snapshot.MonthKey)
	assert.Equal(t, 1600, snapshot.TotalTokens)
	assert.InDelta(t, 0.8, snapshot.TotalUSD, 1e-9)

	assert.True(t, g.CanSpend(0.2, now))
	assert.False(t, g.CanSpend(0.21, now))

	// A new month starts from a clean snapshot.
	march := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, g.CanSpend(1.0, march))
}

func TestCostGuardAlertThresholds(t *testing.T) {
	g := NewCostGuard(1.0, 1.0, 1.0)
	now := time.Date(2026, 2, 22, 12, 0, 0, 0, time.UTC)

	assert.Empty(t, g.NewAlertThresholds(now))

	g.RegisterTokens(500, 0, now) // 0.5 USD
	assert.Equal(t, []int{50}, g.NewAlertThresholds(now))
	assert.Empty(t, g.NewAlertThresholds(now), "each threshold fires once per month")

	g.RegisterTokens(500, 0, now) // 1.0 USD total
	assert.Equal(t, []int{80, 100}, g.NewAlertThresholds(now))
	assert.Empty(t, g.NewAlertThresholds(now))

	// The same thresholds rearm in a new month.
	march := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	g.RegisterTokens(1000, 0, march)
	assert.Equal(t, []int{50, 80, 100}, g.NewAlertThresholds(march))
}

func TestCircuitBreaker(t *testing.T) {
	b := NewCircuitBreaker(3, time.Minute)
	now := time.Date(2026, 2, 22, 12, 0, 0, 0, time.UTC)

	require.False(t, b.IsOpen(now))

	b.RegisterFailure(now)
	b.RegisterFailure(now)
	assert.False(t, b.IsOpen(now), "below threshold stays closed")

	b.RegisterFailure(now)
	assert.True(t, b.IsOpen(now))
	assert.True(t, b.IsOpen(now.Add(59*time.Second)))
	assert.False(t, b.IsOpen(now.Add(time.Minute)), "cooldown expires")

	b.RegisterFailure(now)
	assert.True(t, b.IsOpen(now), "already at threshold, one more failure reopens")

	b.RegisterSuccess()
	assert.False(t, b.IsOpen(now))
	b.RegisterFailure(now)
	b.RegisterFailure(now)
	assert.False(t, b.IsOpen(now), "success reset the failure count")
}
