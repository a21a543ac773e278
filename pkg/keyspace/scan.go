package keyspace

import (
	"context"

	"github.com/cockroachdb/errors"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// StartCursor SCAN 的起始游标，服务端再次返回它表示遍历结束
const StartCursor uint64 = 0

// Scanner 执行一轮 SCAN
type Scanner interface {
	ScanPage(ctx context.Context, cursor uint64, match string, count int64) (keys []string, next uint64, err error)
}

// ScannerFunc 函数形式的 Scanner
type ScannerFunc func(ctx context.Context, cursor uint64, match string, count int64) ([]string, uint64, error)

// ScanPage 调用 f
func (f ScannerFunc) ScanPage(ctx context.Context, cursor uint64, match string, count int64) ([]string, uint64, error) {
	return f(ctx, cursor, match, count)
}

// cmdScanner 在 go-redis 连接上执行 SCAN
type cmdScanner struct {
	cmd goredis.Cmdable
}

func (s cmdScanner) ScanPage(ctx context.Context, cursor uint64, match string, count int64) ([]string, uint64, error) {
	return s.cmd.Scan(ctx, cursor, match, count).Result()
}

// ScanOptions 单次游标遍历参数
type ScanOptions struct {
	Count         int64         // COUNT 提示值，0 表示不发送
	MaxIterations int           // 最大轮次，0 表示不限制
	Limiter       *rate.Limiter // 每轮之前等待令牌，nil 表示不限速
}

// WalkStats 一次游标遍历的统计
type WalkStats struct {
	RoundTrips int   // SCAN 往返次数
	Entries    int64 // 服务端返回的原始条目数（含重复）
}

func (s *WalkStats) add(o WalkStats) {
	s.RoundTrips += o.RoundTrips
	s.Entries += o.Entries
}

// walk 从 StartCursor 开始遍历，直到服务端返回 StartCursor
// 每一轮的结果交给 visit，出错时返回已完成部分的统计
func walk(ctx context.Context, s Scanner, pattern []byte, opts ScanOptions, visit func(keys []string)) (WalkStats, error) {
	var stats WalkStats
	match := string(pattern)
	cursor := StartCursor

	for {
		if opts.MaxIterations > 0 && stats.RoundTrips >= opts.MaxIterations {
			return stats, errors.Wrapf(ErrScanLimitExceeded,
				"cursor %d still open after %d round trips", cursor, stats.RoundTrips)
		}
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if opts.Limiter != nil {
			if err := opts.Limiter.Wait(ctx); err != nil {
				return stats, errors.Wrapf(err, "wait scan rate limit at cursor %d", cursor)
			}
		}

		keys, next, err := s.ScanPage(ctx, cursor, match, opts.Count)
		if err != nil {
			return stats, errors.Wrapf(err, "scan cursor %d", cursor)
		}
		stats.RoundTrips++
		stats.Entries += int64(len(keys))
		if visit != nil {
			visit(keys)
		}

		cursor = next
		if cursor == StartCursor {
			return stats, nil
		}
	}
}

// ScanKeys 完整遍历一次，返回匹配键的集合
func ScanKeys(ctx context.Context, s Scanner, pattern []byte, opts ScanOptions) (KeySet, WalkStats, error) {
	keys := make(KeySet)
	stats, err := walk(ctx, s, pattern, opts, func(batch []string) {
		keys.Add(batch...)
	})
	if err != nil {
		return nil, stats, err
	}
	return keys, stats, nil
}

// ScanCount 完整遍历一次，返回原始条目数
func ScanCount(ctx context.Context, s Scanner, pattern []byte, opts ScanOptions) (int64, WalkStats, error) {
	stats, err := walk(ctx, s, pattern, opts, nil)
	if err != nil {
		return 0, stats, err
	}
	return stats.Entries, stats, nil
}
