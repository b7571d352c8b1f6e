package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestKeyedRateLimiter_Allow(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	krl := newLimiter(1, 2, time.Minute, clock.Now)

	assert.True(t, krl.Allow("1.2.3.4"))
	assert.True(t, krl.Allow("1.2.3.4"))
	assert.False(t, krl.Allow("1.2.3.4"), "burst exhausted")

	assert.True(t, krl.Allow("5.6.7.8"), "keys are independent")

	clock.Advance(time.Second)
	assert.True(t, krl.Allow("1.2.3.4"), "one token refilled")
	assert.False(t, krl.Allow("1.2.3.4"))
}

func TestKeyedRateLimiter_SweepEvictsIdleKeys(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	krl := newLimiter(1, 1, time.Minute, clock.Now)

	krl.Allow("old")
	clock.Advance(2 * time.Minute)
	krl.Allow("fresh")

	krl.sweep()
	assert.Equal(t, 1, krl.Len())

	assert.True(t, krl.Allow("old"), "evicted key starts with a full bucket")
}

func TestKeyedRateLimiter_Stop(t *testing.T) {
	krl := New(10, 10)
	krl.Stop()
	krl.Stop()
}
