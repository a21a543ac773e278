package keyspace

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/xdooria-keyspace/pkg/database/redis"
	"github.com/lk2023060901/xdooria-keyspace/pkg/logger"
)

// fakeTopology 固定的主节点列表
type fakeTopology struct {
	nodes []*goredis.Client
	err   error
}

func (f *fakeTopology) ForEachMaster(ctx context.Context, fn func(ctx context.Context, client *goredis.Client) error) error {
	if f.err != nil {
		return f.err
	}
	for _, node := range f.nodes {
		if err := fn(ctx, node); err != nil {
			return err
		}
	}
	return nil
}

// testCluster 三个独立的 miniredis 模拟集群的三个主节点
type testCluster struct {
	servers []*miniredis.Miniredis
	clients []*goredis.Client
}

func newTestCluster(t *testing.T, keysPerNode ...[]string) *testCluster {
	t.Helper()

	c := &testCluster{}
	for _, keys := range keysPerNode {
		mr, rdb := newTestNode(t)
		for _, k := range keys {
			require.NoError(t, mr.Set(k, "v"))
		}
		c.servers = append(c.servers, mr)
		c.clients = append(c.clients, rdb)
	}
	return c
}

func (c *testCluster) manager(t *testing.T, cfg *Config) *ClusterManager {
	t.Helper()

	m, err := newClusterManager(cfg, c.clients[0], &fakeTopology{nodes: c.clients}, logger.NewNoop())
	require.NoError(t, err)
	return m
}

func (c *testCluster) assertPoolsIdle(t *testing.T) {
	t.Helper()
	for _, rdb := range c.clients {
		assertPoolIdle(t, rdb)
	}
}

func TestCluster_AggregatesAcrossMasters(t *testing.T) {
	c := newTestCluster(t, []string{"a1", "a2"}, []string{"b1"}, nil)
	ctx := context.Background()

	for _, concurrency := range []int{0, 1, 2} {
		m := c.manager(t, &Config{ScanConcurrency: concurrency})

		keys, err := m.Keys(ctx, []byte("*"))
		require.NoError(t, err)
		assert.Equal(t, []string{"a1", "a2", "b1"}, keys.Strings())

		size, err := m.DBSize(ctx, []byte("*"))
		require.NoError(t, err)
		assert.Equal(t, int64(3), size)
	}

	c.assertPoolsIdle(t)
}

func TestCluster_PatternFiltersEveryNode(t *testing.T) {
	c := newTestCluster(t,
		[]string{"session:1", "cache:1"},
		[]string{"session:2"},
		[]string{"cache:2"},
	)
	m := c.manager(t, nil)
	ctx := context.Background()

	keys, err := m.Keys(ctx, []byte("session:*"))
	require.NoError(t, err)
	assert.Equal(t, []string{"session:1", "session:2"}, keys.Strings())

	size, err := m.DBSize(ctx, []byte("cache:*"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), size)
}

func TestCluster_EmptyCluster(t *testing.T) {
	c := newTestCluster(t, nil, nil, nil)
	m := c.manager(t, nil)

	keys, err := m.Keys(context.Background(), []byte("*"))
	require.NoError(t, err)
	assert.Zero(t, keys.Len())

	size, err := m.DBSize(context.Background(), []byte("*"))
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestCluster_NoMasters(t *testing.T) {
	_, rdb := newTestNode(t)
	m, err := newClusterManager(nil, rdb, &fakeTopology{}, logger.NewNoop())
	require.NoError(t, err)

	_, err = m.Keys(context.Background(), []byte("*"))
	assert.ErrorIs(t, err, ErrNoNodes)
}

func TestCluster_TopologyError(t *testing.T) {
	_, rdb := newTestNode(t)
	boom := errors.New("CLUSTERDOWN")
	m, err := newClusterManager(nil, rdb, &fakeTopology{err: boom}, logger.NewNoop())
	require.NoError(t, err)

	_, err = m.DBSize(context.Background(), []byte("*"))
	assert.ErrorIs(t, err, boom)
}

func TestCluster_NodeFailureFailsWholeOperation(t *testing.T) {
	c := newTestCluster(t, []string{"a1"}, []string{"b1"}, []string{"c1"})
	c.servers[1].Close()
	m := c.manager(t, nil)

	keys, err := m.Keys(context.Background(), []byte("*"))
	assert.Error(t, err)
	assert.Nil(t, keys)

	size, err := m.DBSize(context.Background(), []byte("*"))
	assert.Error(t, err)
	assert.Zero(t, size)

	var partial *PartialScanError
	assert.False(t, errors.As(err, &partial))

	c.assertPoolsIdle(t)
}

func TestCluster_TolerateNodeFailures(t *testing.T) {
	c := newTestCluster(t, []string{"a1", "a2"}, []string{"b1"}, []string{"c1"})
	down := c.servers[1].Addr()
	c.servers[1].Close()
	m := c.manager(t, &Config{TolerateNodeFailures: true})
	ctx := context.Background()

	keys, err := m.Keys(ctx, []byte("*"))
	var partial *PartialScanError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, []string{down}, partial.Addrs())
	assert.Equal(t, 3, partial.Total)
	assert.False(t, partial.AllFailed())
	assert.Equal(t, []string{"a1", "a2", "c1"}, keys.Strings())

	size, err := m.DBSize(ctx, []byte("*"))
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, int64(3), size)

	c.assertPoolsIdle(t)
}

func TestCluster_TolerateNodeFailures_AllDown(t *testing.T) {
	c := newTestCluster(t, []string{"a1"}, []string{"b1"})
	for _, mr := range c.servers {
		mr.Close()
	}
	m := c.manager(t, &Config{TolerateNodeFailures: true})

	keys, err := m.Keys(context.Background(), []byte("*"))
	require.Error(t, err)
	assert.Nil(t, keys)

	var partial *PartialScanError
	require.ErrorAs(t, err, &partial)
	assert.True(t, partial.AllFailed())
}

func TestCluster_PointOperations(t *testing.T) {
	c := newTestCluster(t, nil)
	m := c.manager(t, nil)
	ctx := context.Background()
	mr := c.servers[0]

	_, err := m.Set(ctx, []byte("k"), []byte("v"), 20)
	require.NoError(t, err)
	assert.Equal(t, int64(20), int64(mr.TTL("k").Seconds()))

	_, err = m.Set(ctx, []byte("p"), []byte("v"), -5)
	require.NoError(t, err)
	assert.Zero(t, mr.TTL("p"))

	got, err := m.Get(ctx, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	got, err = m.Get(ctx, []byte("missing"))
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, m.Del(ctx, []byte("k")))
	assert.False(t, mr.Exists("k"))

	before := mr.CommandCount()
	got, err = m.Set(ctx, nil, []byte("v"), 0)
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, m.Del(ctx, []byte{}))
	assert.Equal(t, before, mr.CommandCount())
}

// TestClusterManager_RealClusterClient 通过 go-redis 集群客户端访问 miniredis（单节点持有全部槽位）
func TestClusterManager_RealClusterClient(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := redis.NewClient(&redis.Config{
		Cluster: &redis.ClusterConfig{Addrs: []string{mr.Addr()}},
	})
	require.NoError(t, err)
	defer client.Close()

	_, err = NewClusterManager(nil, nil, logger.NewNoop())
	assert.ErrorIs(t, err, ErrNilClient)

	m, err := New(&Config{ScanCount: 2}, client, logger.NewNoop())
	require.NoError(t, err)
	ctx := context.Background()

	for _, k := range []string{"s:1", "s:2", "s:3", "t:1"} {
		_, err := m.Set(ctx, []byte(k), []byte("v"), 0)
		require.NoError(t, err)
	}

	keys, err := m.Keys(ctx, []byte("s:*"))
	require.NoError(t, err)
	assert.Equal(t, []string{"s:1", "s:2", "s:3"}, keys.Strings())

	size, err := m.DBSize(ctx, []byte("*"))
	require.NoError(t, err)
	assert.Equal(t, int64(4), size)

	got, err := m.Get(ctx, []byte("t:1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestPartialScanError(t *testing.T) {
	boom := errors.New("i/o timeout")
	err := &PartialScanError{
		Nodes: []NodeError{{Addr: "10.0.0.2:7001", Err: boom}},
		Total: 3,
	}

	assert.Equal(t, "keyspace: 1 of 3 cluster nodes skipped: 10.0.0.2:7001: i/o timeout", err.Error())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"10.0.0.2:7001"}, err.Addrs())
	assert.False(t, err.AllFailed())
}

func TestIsPartial(t *testing.T) {
	partial := &PartialScanError{
		Nodes: []NodeError{{Addr: "10.0.0.2:7001", Err: errors.New("i/o timeout")}},
		Total: 3,
	}
	allFailed := &PartialScanError{
		Nodes: []NodeError{{Addr: "10.0.0.1:7000", Err: errors.New("i/o timeout")}},
		Total: 1,
	}

	assert.True(t, isPartial(partial))
	assert.True(t, isPartial(fmt.Errorf("keyspace: keys: %w", partial)), "wrapped partial result keeps its keys")
	assert.False(t, isPartial(allFailed))
	assert.False(t, isPartial(errors.New("connection refused")))
	assert.False(t, isPartial(nil))
}
