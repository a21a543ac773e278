package keyspace

import (
	"context"
	"sort"

	"github.com/lk2023060901/xdooria-keyspace/pkg/database/redis"
	"github.com/lk2023060901/xdooria-keyspace/pkg/logger"
)

// Manager 键空间管理器，单机与集群模式下语义一致
//
// 键和值都是任意字节序列。空键（nil 或长度为 0）不会发往服务端：
// Get、Set 返回 (nil, nil)，Del 直接返回 nil。
type Manager interface {
	// Get 读取键的值，键不存在时返回 (nil, nil)
	Get(ctx context.Context, key []byte) ([]byte, error)

	// Set 写入键值并返回写入的值
	// expireSeconds > 0 时键在该秒数后过期，0 或负数表示永不过期
	Set(ctx context.Context, key, value []byte, expireSeconds int64) ([]byte, error)

	// Del 删除键，键不存在不是错误
	Del(ctx context.Context, key []byte) error

	// Keys 返回匹配 glob 模式的所有键（集群模式为各主节点结果的并集）
	Keys(ctx context.Context, pattern []byte) (KeySet, error)

	// DBSize 返回 SCAN 遍历中见到的匹配条目数（集群模式为各主节点之和）
	// SCAN 可能重复返回同一个键，因此结果是近似值
	DBSize(ctx context.Context, pattern []byte) (int64, error)
}

// New 根据客户端的部署模式创建对应的管理器
func New(cfg *Config, client *redis.Client, l logger.Logger, opts ...Option) (Manager, error) {
	if client == nil {
		return nil, ErrNilClient
	}

	if client.Mode() == redis.ModeCluster {
		m, err := NewClusterManager(cfg, client.Cluster(), l, opts...)
		if err != nil {
			return nil, err
		}
		return m, nil
	}

	m, err := NewStandaloneManager(cfg, client.Standalone(), l, opts...)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// KeySet 无序、去重的键集合
type KeySet map[string]struct{}

// NewKeySet 用给定的键创建集合
func NewKeySet(keys ...string) KeySet {
	s := make(KeySet, len(keys))
	s.Add(keys...)
	return s
}

// Add 加入键
func (s KeySet) Add(keys ...string) {
	for _, k := range keys {
		s[k] = struct{}{}
	}
}

// Merge 并入另一个集合
func (s KeySet) Merge(other KeySet) {
	for k := range other {
		s[k] = struct{}{}
	}
}

// Contains 是否包含键
func (s KeySet) Contains(key []byte) bool {
	_, ok := s[string(key)]
	return ok
}

// Len 集合大小
func (s KeySet) Len() int {
	return len(s)
}

// Strings 返回排序后的键
func (s KeySet) Strings() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Bytes 返回排序后的键（字节形式）
func (s KeySet) Bytes() [][]byte {
	strs := s.Strings()
	keys := make([][]byte, len(strs))
	for i, k := range strs {
		keys[i] = []byte(k)
	}
	return keys
}
