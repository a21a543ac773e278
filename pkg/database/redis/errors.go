package redis

import "errors"

var (
	// ErrNilConfig 配置为空
	ErrNilConfig = errors.New("redis config is nil")

	// ErrInvalidConfig 配置无效（Standalone/Cluster 必须且只能配置一种）
	ErrInvalidConfig = errors.New("invalid redis config: must specify exactly one of standalone or cluster mode")

	// ErrNoClusterAddrs 集群模式没有种子节点
	ErrNoClusterAddrs = errors.New("invalid redis config: cluster mode requires at least one seed address")

	// ErrInvalidAddr 地址格式错误（需要 host:port）
	ErrInvalidAddr = errors.New("invalid redis address")

	// ErrInvalidDB 数据库索引不能为负数
	ErrInvalidDB = errors.New("invalid redis config: db must not be negative")

	// ErrClientClosed 客户端已关闭
	ErrClientClosed = errors.New("redis: client closed")
)
