package redis

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
)

// Client Redis 客户端，按配置持有单机或集群两种底层客户端之一
// 构造一次后在进程内共享，底层连接池本身是并发安全的
type Client struct {
	standalone *redis.Client
	cluster    *redis.ClusterClient
	cfg        *Config
	closed     atomic.Bool
}

// NewClient 创建 Redis 客户端
// 集群模式下拓扑在首次命令时由 go-redis 加载，并在 MOVED 时自动刷新
func NewClient(cfg *Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := &Client{cfg: cfg}

	switch cfg.Mode() {
	case ModeCluster:
		client.cluster = redis.NewClusterClient(client.clusterOptions())
	default:
		client.standalone = redis.NewClient(client.standaloneOptions())
	}

	return client, nil
}

// NewStandaloneClient 用已有的 go-redis 客户端包装（测试或外部装配使用）
func NewStandaloneClient(rdb *redis.Client) *Client {
	return &Client{
		standalone: rdb,
		cfg:        &Config{Standalone: &NodeConfig{}},
	}
}

// NewClusterClient 用已有的 go-redis 集群客户端包装
func NewClusterClient(rdb *redis.ClusterClient) *Client {
	return &Client{
		cluster: rdb,
		cfg:     &Config{Cluster: &ClusterConfig{}},
	}
}

// standaloneOptions 构建单机模式选项
func (c *Client) standaloneOptions() *redis.Options {
	node := c.cfg.Standalone
	pool := c.cfg.Pool

	return &redis.Options{
		Addr:            node.Addr(),
		Username:        node.Username,
		Password:        node.Password,
		DB:              node.DB,
		MaxRetries:      pool.MaxRetries,
		PoolSize:        pool.PoolSize,
		MinIdleConns:    pool.MinIdleConns,
		MaxIdleConns:    pool.MaxIdleConns,
		MaxActiveConns:  pool.MaxActiveConns,
		ConnMaxLifetime: pool.ConnMaxLifetime,
		ConnMaxIdleTime: pool.ConnMaxIdleTime,
		DialTimeout:     orDefault(pool.DialTimeout, DefaultDialTimeout),
		ReadTimeout:     orDefault(pool.ReadTimeout, DefaultReadTimeout),
		WriteTimeout:    pool.WriteTimeout,
		PoolTimeout:     pool.PoolTimeout,
	}
}

// clusterOptions 构建集群模式选项
func (c *Client) clusterOptions() *redis.ClusterOptions {
	cluster := c.cfg.Cluster
	pool := c.cfg.Pool

	return &redis.ClusterOptions{
		Addrs:           cluster.SeedAddrs(),
		Username:        cluster.Username,
		Password:        cluster.Password,
		MaxRedirects:    cluster.GetMaxRedirects(),
		RouteByLatency:  cluster.RouteByLatency,
		MaxRetries:      pool.MaxRetries,
		PoolSize:        pool.PoolSize,
		MinIdleConns:    pool.MinIdleConns,
		MaxIdleConns:    pool.MaxIdleConns,
		MaxActiveConns:  pool.MaxActiveConns,
		ConnMaxLifetime: pool.ConnMaxLifetime,
		ConnMaxIdleTime: pool.ConnMaxIdleTime,
		DialTimeout:     orDefault(pool.DialTimeout, DefaultDialTimeout),
		ReadTimeout:     orDefault(pool.ReadTimeout, DefaultReadTimeout),
		WriteTimeout:    pool.WriteTimeout,
		PoolTimeout:     pool.PoolTimeout,
	}
}

// Mode 返回部署模式
func (c *Client) Mode() Mode {
	if c.cluster != nil {
		return ModeCluster
	}
	return ModeStandalone
}

// Standalone 返回单机客户端（集群模式下为 nil）
func (c *Client) Standalone() *redis.Client {
	return c.standalone
}

// Cluster 返回集群客户端（单机模式下为 nil）
func (c *Client) Cluster() *redis.ClusterClient {
	return c.cluster
}

// Universal 以 UniversalClient 形式返回当前底层客户端
func (c *Client) Universal() redis.UniversalClient {
	if c.cluster != nil {
		return c.cluster
	}
	return c.standalone
}

// Config 获取配置
func (c *Client) Config() *Config {
	return c.cfg
}

// Ping 测试连接（集群模式下 Ping 所有主节点）
func (c *Client) Ping(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClientClosed
	}

	if c.cluster != nil {
		err := c.cluster.ForEachMaster(ctx, func(ctx context.Context, node *redis.Client) error {
			if err := node.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("node %s ping failed: %w", node.Options().Addr, err)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("cluster ping failed: %w", err)
		}
		return nil
	}

	if err := c.standalone.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

// PoolStats 获取连接池统计信息（集群模式为所有节点之和）
func (c *Client) PoolStats() PoolStats {
	var stats *redis.PoolStats
	if c.cluster != nil {
		stats = c.cluster.PoolStats()
	} else {
		stats = c.standalone.PoolStats()
	}

	return PoolStats{
		Hits:       stats.Hits,
		Misses:     stats.Misses,
		Timeouts:   stats.Timeouts,
		TotalConns: stats.TotalConns,
		IdleConns:  stats.IdleConns,
		StaleConns: stats.StaleConns,
	}
}

// Close 关闭客户端，重复调用返回 ErrClientClosed
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClientClosed
	}

	if c.cluster != nil {
		if err := c.cluster.Close(); err != nil {
			return fmt.Errorf("failed to close cluster client: %w", err)
		}
		return nil
	}

	if err := c.standalone.Close(); err != nil {
		return fmt.Errorf("failed to close client: %w", err)
	}
	return nil
}

func orDefault[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
