package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/xdooria-keyspace/pkg/app"
	"github.com/lk2023060901/xdooria-keyspace/pkg/database/redis"
)

type result struct {
	stdout string
	stderr string
	code   int
}

// isolate 不读取工作目录或环境中的配置文件
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv(app.EnvConfigPath, "")
	t.Chdir(t.TempDir())
}

func runArgs(ctx context.Context, args ...string) result {
	var stdout, stderr bytes.Buffer
	code := run(ctx, args, &stdout, &stderr)
	return result{stdout: stdout.String(), stderr: stderr.String(), code: code}
}

// runAgainst 以单机模式连接 mr 执行命令
func runAgainst(t *testing.T, mr *miniredis.Miniredis, args ...string) result {
	t.Helper()
	return runAgainstAddr(t, mr.Host(), mr.Port(), args...)
}

// runAgainstAddr 地址需要在 miniredis 关闭前取出
func runAgainstAddr(t *testing.T, host, port string, args ...string) result {
	t.Helper()
	base := []string{
		"--log.level", "error",
		"--redis.standalone.host", host,
		"--redis.standalone.port", port,
	}
	return runArgs(context.Background(), append(base, args...)...)
}

func TestRun_Usage(t *testing.T) {
	isolate(t)

	tests := []struct {
		name string
		args []string
		code int
	}{
		{name: "no command", args: nil, code: 2},
		{name: "unknown command", args: []string{"flush"}, code: 2},
		{name: "get without key", args: []string{"get"}, code: 2},
		{name: "set without value", args: []string{"set", "k"}, code: 2},
		{name: "keys with two patterns", args: []string{"keys", "a*", "b*"}, code: 2},
		{name: "unknown flag", args: []string{"--nope", "get", "k"}, code: 2},
		{name: "help", args: []string{"-h"}, code: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runArgs(context.Background(), tt.args...)
			assert.Equal(t, tt.code, res.code, res.stderr)
			assert.Empty(t, res.stdout)
		})
	}
}

func TestRun_Version(t *testing.T) {
	isolate(t)

	res := runArgs(context.Background(), "version")
	require.Equal(t, 0, res.code)
	assert.Equal(t, app.GetInfo().String()+"\n", res.stdout)
}

func TestRun_SetGetDel(t *testing.T) {
	isolate(t)
	mr := miniredis.RunT(t)

	res := runAgainst(t, mr, "set", "greeting", "hello world")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "OK\n", res.stdout)
	assert.Zero(t, mr.TTL("greeting"))

	res = runAgainst(t, mr, "get", "greeting")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "hello world\n", res.stdout)

	res = runAgainst(t, mr, "del", "greeting")
	require.Equal(t, 0, res.code, res.stderr)
	assert.False(t, mr.Exists("greeting"))

	res = runAgainst(t, mr, "get", "greeting")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "(nil)\n", res.stdout)
}

func TestRun_SetExpire(t *testing.T) {
	isolate(t)
	mr := miniredis.RunT(t)

	res := runAgainst(t, mr, "set", "session", "token", "--expire", "30")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, 30*time.Second, mr.TTL("session"))

	res = runAgainst(t, mr, "set", "-e", "0", "forever", "x")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Zero(t, mr.TTL("forever"))
}

func TestRun_KeysAndDBSize(t *testing.T) {
	isolate(t)
	mr := miniredis.RunT(t)
	for _, k := range []string{"user:2", "user:1", "order:1"} {
		require.NoError(t, mr.Set(k, "v"))
	}

	res := runAgainst(t, mr, "--keyspace.scan_count", "1", "keys", "user:*")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "user:1\nuser:2\n", res.stdout)

	res = runAgainst(t, mr, "keys")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "order:1\nuser:1\nuser:2\n", res.stdout)

	res = runAgainst(t, mr, "dbsize")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "3\n", res.stdout)

	res = runAgainst(t, mr, "dbsize", "missing:*")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "0\n", res.stdout)
}

func TestRun_Stats(t *testing.T) {
	isolate(t)
	mr := miniredis.RunT(t)

	res := runAgainst(t, mr, "stats")
	require.Equal(t, 0, res.code, res.stderr)

	var report struct {
		Mode string `json:"mode"`
		Pool struct {
			TotalConns uint32 `json:"total_conns"`
			InUse      uint32 `json:"in_use"`
		} `json:"pool"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &report))
	assert.Equal(t, string(redis.ModeStandalone), report.Mode)
	assert.NotZero(t, report.Pool.TotalConns)
	assert.Zero(t, report.Pool.InUse)
}

func TestRun_ConfigFile(t *testing.T) {
	isolate(t)
	mr := miniredis.RunT(t)

	path := filepath.Join(t.TempDir(), "keyspace.yaml")
	content := fmt.Sprintf(`
log:
  level: error
redis:
  standalone:
    host: %s
    port: %s
keyspace:
  scan_count: 2
`, mr.Host(), mr.Port())
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	res := runArgs(context.Background(), "-c", path, "set", "from-file", "1")
	require.Equal(t, 0, res.code, res.stderr)
	assert.True(t, mr.Exists("from-file"))

	t.Setenv(app.EnvConfigPath, path)
	res = runArgs(context.Background(), "get", "from-file")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "1\n", res.stdout)
}

func TestRun_ConfigErrors(t *testing.T) {
	isolate(t)

	res := runArgs(context.Background(), "-c", filepath.Join(t.TempDir(), "missing.yaml"), "get", "k")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "config: file not found")

	res = runArgs(context.Background(),
		"--redis.standalone.host", "127.0.0.1",
		"--redis.cluster.addrs", redis.DefaultClusterSeeds,
		"get", "k")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "keyspace:")

	res = runArgs(context.Background(), "--keyspace.scan_concurrency=-1", "dbsize")
	assert.Equal(t, 1, res.code)

	res = runArgs(context.Background(), "--sentry.enabled", "dbsize")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "sentry: invalid DSN")
}

func TestRun_ServerDown(t *testing.T) {
	isolate(t)
	mr := miniredis.RunT(t)
	host, port := mr.Host(), mr.Port()
	mr.Close()

	res := runAgainstAddr(t, host, port, "get", "k")
	assert.Equal(t, 1, res.code)
	assert.Empty(t, res.stdout)
	assert.Contains(t, res.stderr, "keyspace: get")
}

func TestRun_ExporterStopsWithContext(t *testing.T) {
	isolate(t)
	mr := miniredis.RunT(t)
	require.NoError(t, mr.Set("k", "v"))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	var stdout, stderr bytes.Buffer
	code := run(ctx, []string{
		"--log.level", "error",
		"--redis.standalone.host", mr.Host(),
		"--redis.standalone.port", mr.Port(),
		"--prometheus.http_server.addr", "127.0.0.1:0",
		"--web.enabled", "--web.addr", "127.0.0.1:0",
		"exporter", "--interval", "10ms", "--pattern", "k*", "--pattern", "*",
	}, &stdout, &stderr)

	assert.Equal(t, 0, code, stderr.String())
	assert.Empty(t, stdout.String())
}

func TestLoadConfig_Defaults(t *testing.T) {
	isolate(t)

	var f cmdFlags
	fs := newFlagSet(&bytes.Buffer{}, &f)
	require.NoError(t, fs.Parse([]string{"--pattern", "a:*", "--interval", "2s"}))

	cfg, err := loadConfig(fs, &f)
	require.NoError(t, err)

	require.NotNil(t, cfg.Redis.Standalone)
	assert.Equal(t, "127.0.0.1:6379", cfg.Redis.Standalone.Addr())
	assert.Nil(t, cfg.Redis.Cluster)
	assert.Equal(t, int64(100), cfg.Keyspace.ScanCount)
	assert.Equal(t, []string{"a:*"}, cfg.Exporter.Patterns)
	assert.Equal(t, 2*time.Second, cfg.Exporter.Interval)
	assert.Equal(t, 2*time.Second, cfg.Exporter.Timeout)
	assert.Equal(t, "stderr", string(cfg.Log.Console))
}

func TestLoadConfig_Cluster(t *testing.T) {
	isolate(t)

	var f cmdFlags
	fs := newFlagSet(&bytes.Buffer{}, &f)
	require.NoError(t, fs.Parse([]string{"--redis.cluster.addrs", "10.0.0.1:7000, 10.0.0.2:7000"}))

	cfg, err := loadConfig(fs, &f)
	require.NoError(t, err)

	assert.Nil(t, cfg.Redis.Standalone)
	require.NotNil(t, cfg.Redis.Cluster)
	assert.Equal(t, []string{"10.0.0.1:7000", "10.0.0.2:7000"}, cfg.Redis.Cluster.SeedAddrs())
	assert.Equal(t, redis.ModeCluster, cfg.Redis.Mode())
}
