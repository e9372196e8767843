package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func (l *ipLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func TestIPLimiterEvictsIdleClients(t *testing.T) {
	clock := time.Date(2024, time.March, 1, 8, 0, 0, 0, time.UTC)
	l := newIPLimiter(rate.Limit(1), 1)
	l.now = func() time.Time { return clock }

	first := l.get("10.0.0.1")
	l.get("10.0.0.2")
	assert.Equal(t, 2, l.size())
	assert.Same(t, first, l.get("10.0.0.1"), "a known client keeps its bucket")

	clock = clock.Add(limiterIdleTTL - time.Minute)
	assert.Same(t, first, l.get("10.0.0.1"))
	l.get("10.0.0.3")
	assert.Equal(t, 3, l.size(), "nothing is idle past the ttl yet")

	clock = clock.Add(2 * time.Minute)
	l.get("10.0.0.3")
	assert.Equal(t, 2, l.size(), "10.0.0.2 idled out")

	clock = clock.Add(limiterIdleTTL + time.Minute)
	assert.NotSame(t, first, l.get("10.0.0.1"), "an evicted client starts with a fresh bucket")
	assert.Equal(t, 1, l.size())
}

func TestIPLimiterSweepIsThrottled(t *testing.T) {
	clock := time.Date(2024, time.March, 1, 8, 0, 0, 0, time.UTC)
	l := newIPLimiter(rate.Limit(1), 1)
	l.ttl = time.Second
	l.now = func() time.Time { return clock }

	l.get("a")
	clock = clock.Add(2 * time.Second)
	l.get("b")
	assert.Equal(t, 2, l.size(), "no sweep within the sweep interval")

	clock = clock.Add(limiterSweepInterval)
	l.get("b")
	assert.Equal(t, 1, l.size())
}
