package keyspace

import (
	"context"

	"github.com/cockroachdb/errors"
	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"

	"github.com/lk2023060901/xdooria-keyspace/pkg/database/redis"
	"github.com/lk2023060901/xdooria-keyspace/pkg/logger"
)

var _ Manager = (*StandaloneManager)(nil)

// StandaloneManager 单机模式的键空间管理器
// 每个操作在一个从连接池借出的连接上完成，返回前归还
type StandaloneManager struct {
	base
	client *goredis.Client
}

// NewStandaloneManager 创建单机模式管理器
func NewStandaloneManager(cfg *Config, client *goredis.Client, l logger.Logger, opts ...Option) (*StandaloneManager, error) {
	if client == nil {
		return nil, ErrNilClient
	}

	b, err := newBase(cfg, redis.ModeStandalone, l, opts)
	if err != nil {
		return nil, err
	}

	return &StandaloneManager{base: b, client: client}, nil
}

// withConn 借出一个连接执行 fn，任何返回路径上都会归还
func (m *StandaloneManager) withConn(fn func(cn *goredis.Conn) error) error {
	cn := m.client.Conn()
	defer cn.Close()
	return fn(cn)
}

// Get 读取键的值
func (m *StandaloneManager) Get(ctx context.Context, key []byte) (value []byte, err error) {
	if len(key) == 0 {
		return nil, nil
	}

	ctx, finish := m.start(ctx, opGet)
	defer func() { finish(err) }()

	err = m.withConn(func(cn *goredis.Conn) error {
		v, gerr := cn.Get(ctx, string(key)).Bytes()
		value = v
		return gerr
	})
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
func (m *StandaloneManager) Set(ctx context.Context, key, value []byte, expireSeconds int64) (_ []byte, err error) {
	if len(key) == 0 {
		return nil, nil
	}

	ctx, finish := m.start(ctx, opSet, attribute.Int64("redis.expire_seconds", expireSeconds))
	defer func() { finish(err) }()

	err = m.withConn(func(cn *goredis.Conn) error {
		return cn.Set(ctx, string(key), value, expiration(expireSeconds)).Err()
	})
	if err != nil {
		m.logger.ErrorContext(ctx, "SET failed", "key", string(key), "error", err)
		return nil, errors.Wrap(err, "keyspace: set")
	}
	return value, nil
}

// Del 删除键
func (m *StandaloneManager) Del(ctx context.Context, key []byte) (err error) {
	if len(key) == 0 {
		return nil
	}

	ctx, finish := m.start(ctx, opDel)
	defer func() { finish(err) }()

	err = m.withConn(func(cn *goredis.Conn) error {
		return cn.Del(ctx, string(key)).Err()
	})
	if err != nil {
		m.logger.ErrorContext(ctx, "DEL failed", "key", string(key), "error", err)
		return errors.Wrap(err, "keyspace: del")
	}
	return nil
}

// Keys 在同一个连接上完成整个游标遍历
func (m *StandaloneManager) Keys(ctx context.Context, pattern []byte) (keys KeySet, err error) {
	ctx, finish := m.start(ctx, opKeys, attribute.String("redis.pattern", string(pattern)))
	defer func() { finish(err) }()

	var stats WalkStats
	err = m.withConn(func(cn *goredis.Conn) error {
		var werr error
		keys, stats, werr = ScanKeys(ctx, cmdScanner{cn}, pattern, m.scanOptions(m.client.Options().Addr))
		return werr
	})
	m.metrics.observeWalk(m.mode, stats)
	if err != nil {
		m.logger.ErrorContext(ctx, "key scan failed",
			"pattern", string(pattern), "round_trips", stats.RoundTrips, "error", err)
		return nil, errors.Wrap(err, "keyspace: keys")
	}

	m.logger.DebugContext(ctx, "key scan finished",
		"pattern", string(pattern), "round_trips", stats.RoundTrips, "keys", keys.Len())
	return keys, nil
}

// DBSize 统计遍历中见到的匹配条目数
func (m *StandaloneManager) DBSize(ctx context.Context, pattern []byte) (size int64, err error) {
	ctx, finish := m.start(ctx, opDBSize, attribute.String("redis.pattern", string(pattern)))
	defer func() { finish(err) }()

	var stats WalkStats
	err = m.withConn(func(cn *goredis.Conn) error {
		var werr error
		size, stats, werr = ScanCount(ctx, cmdScanner{cn}, pattern, m.scanOptions(m.client.Options().Addr))
		return werr
	})
	m.metrics.observeWalk(m.mode, stats)
	if err != nil {
		m.logger.ErrorContext(ctx, "size scan failed",
			"pattern", string(pattern), "round_trips", stats.RoundTrips, "error", err)
		return 0, errors.Wrap(err, "keyspace: dbsize")
	}

	m.logger.DebugContext(ctx, "size scan finished",
		"pattern", string(pattern), "round_trips", stats.RoundTrips, "entries", size)
	return size, nil
}
