package keyspace

import (
	"go.opentelemetry.io/otel/trace"
)

// Option 管理器选项
type Option func(*options)

type options struct {
	metrics        *Metrics
	tracerProvider trace.TracerProvider
}

// WithMetrics 记录操作指标
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithTracerProvider 使用指定的 TracerProvider 创建 span（默认使用全局 Provider）
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracerProvider = tp
	}
}
