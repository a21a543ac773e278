package keyspace

import (
	"context"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/lk2023060901/xdooria-keyspace/pkg/database/redis"
	"github.com/lk2023060901/xdooria-keyspace/pkg/logger"
)

var _ Manager = (*ClusterManager)(nil)

// Topology 枚举当前持有槽位的主节点
// *redis.ClusterClient 满足该接口
type Topology interface {
	ForEachMaster(ctx context.Context, fn func(ctx context.Context, client *goredis.Client) error) error
}

// ClusterManager 集群模式的键空间管理器
//
// 单键操作交给集群客户端按槽位路由（自动处理 MOVED/ASK 重定向）；
// Keys 和 DBSize 对每个主节点直连执行完整的游标遍历后再合并。
type ClusterManager struct {
	base
	router   goredis.Cmdable
	topology Topology
}

// NewClusterManager 创建集群模式管理器
// client 由调用方构造并负责关闭，管理器不会自行创建或缓存客户端
func NewClusterManager(cfg *Config, client *goredis.ClusterClient, l logger.Logger, opts ...Option) (*ClusterManager, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	return newClusterManager(cfg, client, client, l, opts...)
}

func newClusterManager(cfg *Config, router goredis.Cmdable, topology Topology, l logger.Logger, opts ...Option) (*ClusterManager, error) {
	b, err := newBase(cfg, redis.ModeCluster, l, opts)
	if err != nil {
		return nil, err
	}

	return &ClusterManager{base: b, router: router, topology: topology}, nil
}

// Get 读取键的值
func (m *ClusterManager) Get(ctx context.Context, key []byte) (value []byte, err error) {
	if len(key) == 0 {
		return nil, nil
	}

	ctx, finish := m.start(ctx, opGet)
	defer func() { finish(err) }()

	value, err = m.router.Get(ctx, string(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		m.logger.ErrorContext(ctx, "GET failed", "key", string(key), "error", err)
		return nil, errors.Wrap(err, "keyspace: get")
	}
	return value, nil
}

// Set 写入键值，过期时间与值在同一条 SET 命令中设置
func (m *ClusterManager) Set(ctx context.Context, key, value []byte, expireSeconds int64) (_ []byte, err error) {
	if len(key) == 0 {
		return nil, nil
	}

	ctx, finish := m.start(ctx, opSet, attribute.Int64("redis.expire_seconds", expireSeconds))
	defer func() { finish(err) }()

	if err = m.router.Set(ctx, string(key), value, expiration(expireSeconds)).Err(); err != nil {
		m.logger.ErrorContext(ctx, "SET failed", "key", string(key), "error", err)
		return nil, errors.Wrap(err, "keyspace: set")
	}
	return value, nil
}

// Del 删除键
func (m *ClusterManager) Del(ctx context.Context, key []byte) (err error) {
	if len(key) == 0 {
		return nil
	}

	ctx, finish := m.start(ctx, opDel)
	defer func() { finish(err) }()

	if err = m.router.Del(ctx, string(key)).Err(); err != nil {
		m.logger.ErrorContext(ctx, "DEL failed", "key", string(key), "error", err)
		return errors.Wrap(err, "keyspace: del")
	}
	return nil
}

// Keys 返回所有主节点上匹配键的并集
func (m *ClusterManager) Keys(ctx context.Context, pattern []byte) (keys KeySet, err error) {
	ctx, finish := m.start(ctx, opKeys, attribute.String("redis.pattern", string(pattern)))
	defer func() { finish(err) }()

	var mu sync.Mutex
	result := make(KeySet)

	stats, err := m.forEachNode(ctx, opKeys, func(ctx context.Context, s Scanner, opts ScanOptions) (WalkStats, error) {
		nodeKeys, stats, err := ScanKeys(ctx, s, pattern, opts)
		if err != nil || nodeKeys.Len() == 0 {
			return stats, err
		}
		mu.Lock()
		result.Merge(nodeKeys)
		mu.Unlock()
		return stats, nil
	})
	m.metrics.observeWalk(m.mode, stats)

	if err = m.settle(ctx, opKeys, pattern, stats, err); err != nil {
		if !isPartial(err) {
			return nil, err
		}
		return result, err
	}

	m.logger.DebugContext(ctx, "cluster key scan finished",
		"pattern", string(pattern), "round_trips", stats.RoundTrips, "keys", result.Len())
	return result, nil
}

// DBSize 返回所有主节点条目数之和
func (m *ClusterManager) DBSize(ctx context.Context, pattern []byte) (size int64, err error) {
	ctx, finish := m.start(ctx, opDBSize, attribute.String("redis.pattern", string(pattern)))
	defer func() { finish(err) }()

	var mu sync.Mutex
	var total int64

	stats, err := m.forEachNode(ctx, opDBSize, func(ctx context.Context, s Scanner, opts ScanOptions) (WalkStats, error) {
		n, stats, err := ScanCount(ctx, s, pattern, opts)
		if err != nil {
			return stats, err
		}
		mu.Lock()
		total += n
		mu.Unlock()
		return stats, nil
	})
	m.metrics.observeWalk(m.mode, stats)

	if err = m.settle(ctx, opDBSize, pattern, stats, err); err != nil {
		if !isPartial(err) {
			return 0, err
		}
		return total, err
	}

	m.logger.DebugContext(ctx, "cluster size scan finished",
		"pattern", string(pattern), "round_trips", stats.RoundTrips, "entries", total)
	return total, nil
}

// settle 统一处理聚合遍历的错误：记录日志，所有节点都失败时降级为普通错误
func (m *ClusterManager) settle(ctx context.Context, op string, pattern []byte, stats WalkStats, err error) error {
	if err == nil {
		return nil
	}

	var partial *PartialScanError
	if errors.As(err, &partial) {
		if partial.AllFailed() {
			m.logger.ErrorContext(ctx, "cluster scan failed on every node",
				"op", op, "pattern", string(pattern), "nodes", partial.Addrs())
			return errors.Wrapf(err, "keyspace: %s", op)
		}
		m.logger.WarnContext(ctx, "cluster scan returned partial result",
			"op", op, "pattern", string(pattern), "skipped", partial.Addrs(), "round_trips", stats.RoundTrips)
		return partial
	}

	m.logger.ErrorContext(ctx, "cluster scan failed",
		"op", op, "pattern", string(pattern), "round_trips", stats.RoundTrips, "error", err)
	return errors.Wrapf(err, "keyspace: %s", op)
}

// isPartial 是否为可以携带部分结果返回的错误
func isPartial(err error) bool {
	var partial *PartialScanError
	return errors.As(err, &partial) && !partial.AllFailed()
}

// masters 收集当前主节点，按地址排序
func (m *ClusterManager) masters(ctx context.Context) ([]*goredis.Client, error) {
	var mu sync.Mutex
	var nodes []*goredis.Client

	err := m.topology.ForEachMaster(ctx, func(_ context.Context, node *goredis.Client) error {
		mu.Lock()
		nodes = append(nodes, node)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "load cluster masters")
	}
	if len(nodes) == 0 {
		return nil, ErrNoNodes
	}

	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].Options().Addr < nodes[j].Options().Addr
	})
	return nodes, nil
}

// nodeScanFunc 在单个节点上执行完整遍历
type nodeScanFunc func(ctx context.Context, s Scanner, opts ScanOptions) (WalkStats, error)

// forEachNode 对每个主节点借出一个连接并执行 fn
// 并发度由 ScanConcurrency 控制；默认任一节点失败即取消其余遍历，
// 开启 TolerateNodeFailures 时收集失败节点并返回 *PartialScanError
func (m *ClusterManager) forEachNode(ctx context.Context, op string, fn nodeScanFunc) (WalkStats, error) {
	var total WalkStats

	nodes, err := m.masters(ctx)
	if err != nil {
		return total, err
	}

	var (
		mu       sync.Mutex
		failures []NodeError
	)

	g, gctx := errgroup.WithContext(ctx)
	if m.cfg.ScanConcurrency > 0 {
		g.SetLimit(m.cfg.ScanConcurrency)
	}

	for _, node := range nodes {
		g.Go(func() error {
			addr := node.Options().Addr
			nctx, span := m.tracer.Start(gctx, "keyspace."+op+".node",
				trace.WithAttributes(attribute.String("redis.node", addr)))
			defer span.End()

			cn := node.Conn()
			defer cn.Close()

			stats, err := fn(nctx, cmdScanner{cn}, m.scanOptions(addr))
			span.SetAttributes(attribute.Int("redis.scan.round_trips", stats.RoundTrips))

			mu.Lock()
			total.add(stats)
			mu.Unlock()

			if err == nil {
				return nil
			}

			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())

			if !m.cfg.TolerateNodeFailures {
				return errors.Wrapf(err, "node %s", addr)
			}

			m.logger.WarnContext(nctx, "skipping failed cluster node", "node", addr, "error", err)
			mu.Lock()
			failures = append(failures, NodeError{Addr: addr, Err: err})
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return total, err
	}
	if len(failures) > 0 {
		sort.Slice(failures, func(i, j int) bool { return failures[i].Addr < failures[j].Addr })
		return total, &PartialScanError{Nodes: failures, Total: len(nodes)}
	}
	return total, nil
}
