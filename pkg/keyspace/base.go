package keyspace

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/lk2023060901/xdooria-keyspace/pkg/config"
	"github.com/lk2023060901/xdooria-keyspace/pkg/database/redis"
	"github.com/lk2023060901/xdooria-keyspace/pkg/logger"
)

const tracerName = "github.com/lk2023060901/xdooria-keyspace/pkg/keyspace"

// 操作名，用于 span 名和指标标签
const (
	opGet    = "get"
	opSet    = "set"
	opDel    = "del"
	opKeys   = "keys"
	opDBSize = "dbsize"
)

// base 两种管理器共用的配置、日志、指标和追踪
type base struct {
	cfg     *Config
	mode    redis.Mode
	logger  logger.Logger
	metrics *Metrics
	tracer  trace.Tracer

	limiters *nodeLimiters
}

func newBase(cfg *Config, mode redis.Mode, l logger.Logger, opts []Option) (base, error) {
	merged, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return base{}, errors.Wrap(err, "merge keyspace config")
	}
	if err := config.NewValidator().Validate(merged); err != nil {
		return base{}, errors.Wrap(err, "invalid keyspace config")
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	tp := o.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if l == nil {
		l = logger.NewNoop()
	}

	return base{
		cfg:     merged,
		mode:    mode,
		logger:  l.Named("keyspace").WithFields("mode", string(mode)),
		metrics: o.metrics,
		tracer:  tp.Tracer(tracerName),

		limiters: newNodeLimiters(merged.ScanRateLimit, merged.ScanBurst),
	}, nil
}

// Mode 返回部署模式
func (b *base) Mode() redis.Mode {
	return b.mode
}

// Config 返回合并默认值之后的配置
func (b *base) Config() *Config {
	return b.cfg
}

// scanOptions 返回 node 上一次遍历的参数
func (b *base) scanOptions(node string) ScanOptions {
	opts := b.cfg.scanOptions()
	opts.Limiter = b.limiters.get(node)
	return opts
}

// start 开始一个操作：创建 span 并计时，返回的 finish 必须调用一次
func (b *base) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	attrs = append(attrs,
		attribute.String("db.system", "redis"),
		attribute.String("redis.mode", string(b.mode)),
	)
	ctx, span := b.tracer.Start(ctx, "keyspace."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
	begin := time.Now()

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		b.metrics.observeOp(op, b.mode, err, time.Since(begin))
	}
}

// expiration 将秒数转换为 SET 的 EX 参数，非正数表示不过期
func expiration(seconds int64) time.Duration {
	if seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return 0
}
