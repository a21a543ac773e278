package keyspace

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestNodeLimiters(t *testing.T) {
	assert.Nil(t, newNodeLimiters(0, 10))
	assert.Nil(t, newNodeLimiters(0, 10).get("10.0.0.1:7000"), "nil limiters never throttle")

	l := newNodeLimiters(50, 0)
	require.NotNil(t, l)

	a := l.get("10.0.0.1:7000")
	require.NotNil(t, a)
	assert.Same(t, a, l.get("10.0.0.1:7000"))
	assert.NotSame(t, a, l.get("10.0.0.2:7000"))
	assert.Equal(t, rate.Limit(50), a.Limit())
	assert.Equal(t, 1, a.Burst())
}

func TestWalk_RateLimited(t *testing.T) {
	trips := 0
	endless := ScannerFunc(func(context.Context, uint64, string, int64) ([]string, uint64, error) {
		trips++
		return []string{"k"}, 1, nil
	})

	// 一个令牌，之后每秒一个：第二轮必然等不到截止时间
	limiter := rate.NewLimiter(rate.Limit(1), 1)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, stats, err := ScanCount(ctx, endless, nil, ScanOptions{Limiter: limiter})
	require.Error(t, err)
	assert.Equal(t, 1, trips)
	assert.Equal(t, 1, stats.RoundTrips)
}

func TestWalk_RateLimitPacesRoundTrips(t *testing.T) {
	var seen []uint64
	s := scriptedScanner(t, map[uint64]page{
		0: {keys: []string{"a"}, next: 1},
		1: {keys: []string{"b"}, next: 2},
		2: {keys: []string{"c"}, next: 0},
	}, &seen)

	limiter := rate.NewLimiter(rate.Every(10*time.Millisecond), 1)
	start := time.Now()

	keys, stats, err := ScanKeys(context.Background(), s, nil, ScanOptions{Limiter: limiter})
	require.NoError(t, err)

	assert.Equal(t, 3, stats.RoundTrips)
	assert.Equal(t, 3, keys.Len())
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
}

func TestStandalone_ScanRateLimitConfig(t *testing.T) {
	mr, _, m := newTestStandalone(t, &Config{ScanCount: 1, ScanRateLimit: 1000, ScanBurst: 5})
	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, mr.Set(k, "v"))
	}

	n, err := m.DBSize(context.Background(), []byte("*"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	opts := m.scanOptions(mr.Addr())
	require.NotNil(t, opts.Limiter)
	assert.Equal(t, 5, opts.Limiter.Burst())
}
