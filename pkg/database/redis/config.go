package redis

import (
	"fmt"
	"strings"
	"time"
)

// 默认值（与会话缓存场景的历史配置保持一致）
const (
	DefaultHost         = "127.0.0.1"
	DefaultPort         = 6379
	DefaultClusterSeeds = "127.0.0.1:7000,127.0.0.1:7001,127.0.0.1:7002"
	DefaultMaxRedirects = 3
	DefaultDialTimeout  = 2 * time.Second
	DefaultReadTimeout  = 2 * time.Second
)

// Mode 部署模式
type Mode string

const (
	ModeStandalone Mode = "standalone"
	ModeCluster    Mode = "cluster"
)

// Config Redis 配置（Standalone/Cluster 两种模式，必须且只能配置一种）
type Config struct {
	// Standalone 单机模式配置
	Standalone *NodeConfig `json:"standalone,omitempty" yaml:"standalone,omitempty" mapstructure:"standalone"`

	// Cluster 集群模式配置
	Cluster *ClusterConfig `json:"cluster,omitempty" yaml:"cluster,omitempty" mapstructure:"cluster"`

	// Pool 连接池配置（两种模式共享，集群模式下作用于每个节点的连接池）
	Pool PoolConfig `json:"pool" yaml:"pool" mapstructure:"pool"`
}

// NodeConfig 单节点配置
type NodeConfig struct {
	Host     string `json:"host" yaml:"host" mapstructure:"host"`             // 主机地址
	Port     int    `json:"port" yaml:"port" mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Username string `json:"username" yaml:"username" mapstructure:"username"` // ACL 用户名
	Password string `json:"password" yaml:"password" mapstructure:"password"` // 密码
	DB       int    `json:"db" yaml:"db" mapstructure:"db" validate:"gte=0"`  // 数据库索引
}

// Addr 返回 host:port
func (n *NodeConfig) Addr() string {
	host := n.Host
	if host == "" {
		host = DefaultHost
	}
	port := n.Port
	if port == 0 {
		port = DefaultPort
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// ClusterConfig 集群配置
// 集群模式没有可选的数据库索引，节点拓扑由客户端根据 CLUSTER 元数据自动发现
type ClusterConfig struct {
	// Addrs 种子节点地址列表 (格式: "host:port")，配置文件中也可写成逗号分隔的字符串
	Addrs    []string `json:"addrs" yaml:"addrs" mapstructure:"addrs"`
	Username string   `json:"username" yaml:"username" mapstructure:"username"`
	Password string   `json:"password" yaml:"password" mapstructure:"password"`

	// MaxRedirects MOVED/ASK 重定向的最大重试次数
	MaxRedirects int `json:"max_redirects" yaml:"max_redirects" mapstructure:"max_redirects" validate:"gte=0"`

	// RouteByLatency 只读命令路由到延迟最低的节点
	RouteByLatency bool `json:"route_by_latency" yaml:"route_by_latency" mapstructure:"route_by_latency"`
}

// PoolConfig 连接池配置
type PoolConfig struct {
	// PoolSize 每个节点的连接池大小（0 使用 go-redis 默认值）
	PoolSize int `json:"pool_size" yaml:"pool_size" mapstructure:"pool_size" validate:"gte=0"`

	// MinIdleConns 最小空闲连接数
	MinIdleConns int `json:"min_idle_conns" yaml:"min_idle_conns" mapstructure:"min_idle_conns" validate:"gte=0"`

	// MaxIdleConns 最大空闲连接数
	MaxIdleConns int `json:"max_idle_conns" yaml:"max_idle_conns" mapstructure:"max_idle_conns" validate:"gte=0"`

	// MaxActiveConns 最大活跃连接数（0 表示不限制）
	MaxActiveConns int `json:"max_active_conns" yaml:"max_active_conns" mapstructure:"max_active_conns" validate:"gte=0"`

	// ConnMaxLifetime 连接最大生命周期
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`

	// ConnMaxIdleTime 连接最大空闲时间
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time" yaml:"conn_max_idle_time" mapstructure:"conn_max_idle_time"`

	// DialTimeout 建连超时（不是键的过期时间）
	DialTimeout time.Duration `json:"dial_timeout" yaml:"dial_timeout" mapstructure:"dial_timeout"`

	// ReadTimeout 读超时
	ReadTimeout time.Duration `json:"read_timeout" yaml:"read_timeout" mapstructure:"read_timeout"`

	// WriteTimeout 写超时
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout" mapstructure:"write_timeout"`

	// PoolTimeout 从连接池获取连接的超时时间
	PoolTimeout time.Duration `json:"pool_timeout" yaml:"pool_timeout" mapstructure:"pool_timeout"`

	// MaxRetries 单条命令的网络错误重试次数（-1 关闭重试）
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// DefaultPoolConfig 默认连接池配置
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		DialTimeout: DefaultDialTimeout,
		ReadTimeout: DefaultReadTimeout,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c == nil {
		return ErrNilConfig
	}

	modeCount := 0
	if c.Standalone != nil {
		modeCount++
	}
	if c.Cluster != nil {
		modeCount++
	}
	if modeCount != 1 {
		return ErrInvalidConfig
	}

	if c.Cluster != nil {
		if len(c.Cluster.SeedAddrs()) == 0 {
			return ErrNoClusterAddrs
		}
		for _, addr := range c.Cluster.SeedAddrs() {
			if !strings.Contains(addr, ":") {
				return fmt.Errorf("%w: %q", ErrInvalidAddr, addr)
			}
		}
	}

	if c.Standalone != nil && c.Standalone.DB < 0 {
		return ErrInvalidDB
	}

	return nil
}

// Mode 返回配置的部署模式
func (c *Config) Mode() Mode {
	if c.Cluster != nil {
		return ModeCluster
	}
	return ModeStandalone
}

// IsStandalone 是否为单机模式
func (c *Config) IsStandalone() bool {
	return c.Standalone != nil
}

// IsCluster 是否为集群模式
func (c *Config) IsCluster() bool {
	return c.Cluster != nil
}

// SeedAddrs 返回去掉空白后的种子地址
// 兼容 "h1:p1,h2:p2" 写在同一个元素里的旧格式
func (c *ClusterConfig) SeedAddrs() []string {
	addrs := make([]string, 0, len(c.Addrs))
	for _, item := range c.Addrs {
		for _, addr := range strings.Split(item, ",") {
			addr = strings.TrimSpace(addr)
			if addr != "" {
				addrs = append(addrs, addr)
			}
		}
	}
	return addrs
}

// GetMaxRedirects 获取最大重定向次数（默认为 3）
func (c *ClusterConfig) GetMaxRedirects() int {
	if c.MaxRedirects == 0 {
		return DefaultMaxRedirects
	}
	return c.MaxRedirects
}
