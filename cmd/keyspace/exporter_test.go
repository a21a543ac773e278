package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/xdooria-keyspace/pkg/database/redis"
	"github.com/lk2023060901/xdooria-keyspace/pkg/keyspace"
	"github.com/lk2023060901/xdooria-keyspace/pkg/logger"
	"github.com/lk2023060901/xdooria-keyspace/pkg/prometheus"
)

// fakeManager 只实现 DBSize，其余方法不会被 exporter 调用
type fakeManager struct {
	keyspace.Manager
	dbSize func(pattern string) (int64, error)
	calls  atomic.Int64
}

func (f *fakeManager) DBSize(_ context.Context, pattern []byte) (int64, error) {
	f.calls.Add(1)
	return f.dbSize(string(pattern))
}

func newTestMetrics(t *testing.T, addr string) *prometheus.Client {
	t.Helper()

	cfg := &prometheus.Config{Namespace: "test"}
	if addr != "" {
		cfg.HTTPServer = prometheus.HTTPServerConfig{Enabled: true, Addr: addr}
	}
	client, err := prometheus.New(cfg, logger.NewNoop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestExporter_CollectStandalone(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	m, err := keyspace.New(nil, redis.NewStandaloneClient(rdb), logger.NewNoop())
	require.NoError(t, err)

	for _, k := range []string{"user:1", "user:2", "order:1"} {
		require.NoError(t, mr.Set(k, "v"))
	}

	cfg := &ExporterConfig{Interval: time.Minute, Patterns: []string{"*", "user:*", "none:*"}}
	e, err := newExporter(cfg, m, newTestMetrics(t, ""), logger.NewNoop())
	require.NoError(t, err)

	e.collect(context.Background())

	assert.Equal(t, 3.0, testutil.ToFloat64(e.keys.WithLabelValues("*")))
	assert.Equal(t, 2.0, testutil.ToFloat64(e.keys.WithLabelValues("user:*")))
	assert.Equal(t, 0.0, testutil.ToFloat64(e.keys.WithLabelValues("none:*")))
}

func TestExporter_CollectFailures(t *testing.T) {
	partial := &keyspace.PartialScanError{
		Nodes: []keyspace.NodeError{{Addr: "10.0.0.2:7000", Err: errors.New("connection refused")}},
		Total: 3,
	}
	allFailed := &keyspace.PartialScanError{
		Nodes: []keyspace.NodeError{{Addr: "10.0.0.1:7000", Err: errors.New("connection refused")}},
		Total: 1,
	}

	results := map[string]struct {
		n   int64
		err error
	}{
		"ok":      {n: 5},
		"partial": {n: 4, err: partial},
		"down":    {err: errors.New("dial tcp: connection refused")},
		"all":     {err: allFailed},
	}
	fm := &fakeManager{dbSize: func(p string) (int64, error) { return results[p].n, results[p].err }}

	cfg := &ExporterConfig{Interval: time.Minute, Patterns: []string{"ok", "partial", "down", "all"}}
	e, err := newExporter(cfg, fm, newTestMetrics(t, ""), logger.NewNoop())
	require.NoError(t, err)

	// 失败的模式保留上一次的值
	e.keys.WithLabelValues("down").Set(9)
	e.keys.WithLabelValues("all").Set(7)

	e.collect(context.Background())

	assert.Equal(t, 5.0, testutil.ToFloat64(e.keys.WithLabelValues("ok")))
	assert.Equal(t, 4.0, testutil.ToFloat64(e.keys.WithLabelValues("partial")))
	assert.Equal(t, 9.0, testutil.ToFloat64(e.keys.WithLabelValues("down")))
	assert.Equal(t, 7.0, testutil.ToFloat64(e.keys.WithLabelValues("all")))

	assert.Equal(t, 0.0, testutil.ToFloat64(e.failures.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.failures.WithLabelValues("partial")))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.failures.WithLabelValues("down")))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.failures.WithLabelValues("all")))
}

func TestExporter_CollectStopsOnCancel(t *testing.T) {
	fm := &fakeManager{dbSize: func(string) (int64, error) { return 1, nil }}
	cfg := &ExporterConfig{Interval: time.Minute, Patterns: []string{"a", "b"}}
	e, err := newExporter(cfg, fm, newTestMetrics(t, ""), logger.NewNoop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e.collect(ctx)
	assert.Zero(t, fm.calls.Load())
}

func TestExporter_StartStop(t *testing.T) {
	fm := &fakeManager{dbSize: func(string) (int64, error) { return 1, nil }}
	metrics := newTestMetrics(t, "127.0.0.1:0")

	cfg := &ExporterConfig{Interval: 5 * time.Millisecond, Timeout: time.Second, Patterns: []string{"*"}}
	e, err := newExporter(cfg, fm, metrics, logger.NewNoop())
	require.NoError(t, err)

	require.NoError(t, e.Stop(), "stop before start is a no-op")
	require.NoError(t, e.Start())
	assert.Error(t, e.Start())
	assert.NotEmpty(t, metrics.Addr())

	require.Eventually(t, func() bool { return fm.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	require.NoError(t, e.Stop())

	calls := fm.calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, calls, fm.calls.Load(), "no collection after Stop")
}

func TestExporter_DuplicateRegistration(t *testing.T) {
	metrics := newTestMetrics(t, "")
	cfg := &ExporterConfig{Interval: time.Minute}

	_, err := newExporter(cfg, &fakeManager{}, metrics, logger.NewNoop())
	require.NoError(t, err)

	_, err = newExporter(cfg, &fakeManager{}, metrics, logger.NewNoop())
	assert.ErrorIs(t, err, prometheus.ErrMetricExists)
}

func TestExporter_SetPatterns(t *testing.T) {
	fm := &fakeManager{dbSize: func(string) (int64, error) { return 1, nil }}
	cfg := &ExporterConfig{Interval: time.Minute, Patterns: []string{"user:*", "order:*"}}
	e, err := newExporter(cfg, fm, newTestMetrics(t, ""), logger.NewNoop())
	require.NoError(t, err)

	e.collect(context.Background())
	assert.Equal(t, 2, testutil.CollectAndCount(e.keys))

	e.setPatterns([]string{"order:*", "item:*"})
	assert.Equal(t, []string{"order:*", "item:*"}, e.currentPatterns())
	assert.Equal(t, 1, testutil.CollectAndCount(e.keys), "removed pattern drops its series")

	e.setPatterns(nil)
	assert.Equal(t, []string{"*"}, e.currentPatterns())
}

func TestExporter_WatchPatterns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keyspace.yaml")
	require.NoError(t, os.WriteFile(path, []byte("exporter:\n  patterns: [\"user:*\"]\n"), 0o644))

	fm := &fakeManager{dbSize: func(string) (int64, error) { return 1, nil }}
	cfg := &ExporterConfig{Interval: time.Minute, Patterns: []string{"user:*"}}
	e, err := newExporter(cfg, fm, newTestMetrics(t, ""), logger.NewNoop())
	require.NoError(t, err)
	require.NoError(t, e.watchPatterns(path))

	tmp := path + ".tmp"
	require.NoError(t, os.WriteFile(tmp, []byte("exporter:\n  patterns: [\"order:*\", \"item:*\"]\n"), 0o644))
	require.NoError(t, os.Rename(tmp, path))

	require.Eventually(t, func() bool {
		return len(e.currentPatterns()) == 2
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"order:*", "item:*"}, e.currentPatterns())
}

func TestExporter_WatchPatternsMissingFile(t *testing.T) {
	e, err := newExporter(&ExporterConfig{Interval: time.Minute}, &fakeManager{}, newTestMetrics(t, ""), logger.NewNoop())
	require.NoError(t, err)
	assert.Error(t, e.watchPatterns(filepath.Join(t.TempDir(), "missing.yaml")))
}
