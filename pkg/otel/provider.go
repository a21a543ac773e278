package otel

import (
	"context"
	"io"
	"os"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/lk2023060901/xdooria-keyspace/pkg/config"
)

// TracerProvider 追踪提供者
type TracerProvider struct {
	config   *Config
	provider *sdktrace.TracerProvider
	closed   atomic.Bool
}

// Option TracerProvider 选项
type Option func(*providerOptions)

type providerOptions struct {
	writer    io.Writer
	processor sdktrace.SpanProcessor
}

// WithWriter stdout 导出器的输出目标（默认 stderr）
func WithWriter(w io.Writer) Option {
	return func(o *providerOptions) {
		o.writer = w
	}
}

// WithSpanProcessor 额外注册一个同步 SpanProcessor
func WithSpanProcessor(sp sdktrace.SpanProcessor) Option {
	return func(o *providerOptions) {
		o.processor = sp
	}
}

// New 创建追踪提供者，未启用或使用 noop 导出器时 Provider 返回全局 Provider
func New(cfg *Config, opts ...Option) (*TracerProvider, error) {
	merged, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, err
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}

	o := &providerOptions{writer: os.Stderr}
	for _, opt := range opts {
		opt(o)
	}

	tp := &TracerProvider{config: merged}
	if !merged.Enabled {
		return tp, nil
	}

	exporter, err := newExporter(context.Background(), merged, o.writer)
	if err != nil {
		return nil, err
	}
	if exporter == nil && o.processor == nil {
		return tp, nil
	}

	attrs := []attribute.KeyValue{semconv.ServiceName(merged.ServiceName)}
	for k, v := range merged.Attributes {
		attrs = append(attrs, attribute.String(k, v))
	}

	sdkOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewWithAttributes(semconv.SchemaURL, attrs...)),
		sdktrace.WithSampler(newSampler(merged.Sampler)),
	}
	if exporter != nil {
		sdkOpts = append(sdkOpts, sdktrace.WithBatcher(exporter,
			sdktrace.WithBatchTimeout(merged.BatchExport.BatchTimeout),
			sdktrace.WithExportTimeout(merged.BatchExport.ExportTimeout),
			sdktrace.WithMaxExportBatchSize(merged.BatchExport.BatchSize),
			sdktrace.WithMaxQueueSize(merged.BatchExport.MaxQueueSize),
		))
	}
	if o.processor != nil {
		sdkOpts = append(sdkOpts, sdktrace.WithSpanProcessor(o.processor))
	}

	tp.provider = sdktrace.NewTracerProvider(sdkOpts...)
	return tp, nil
}

func newSampler(cfg SamplerConfig) sdktrace.Sampler {
	switch cfg.Type {
	case SamplerTypeAlways:
		return sdktrace.AlwaysSample()
	case SamplerTypeNever:
		return sdktrace.NeverSample()
	case SamplerTypeRatio:
		return sdktrace.TraceIDRatioBased(cfg.Ratio)
	default:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
}

// Provider 返回 trace.TracerProvider
func (p *TracerProvider) Provider() trace.TracerProvider {
	if p.provider == nil {
		return otel.GetTracerProvider()
	}
	return p.provider
}

// Tracer 获取指定名称的 Tracer
func (p *TracerProvider) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	return p.Provider().Tracer(name, opts...)
}

// SetGlobal 设置为全局 Provider，同时安装 W3C TraceContext/Baggage 传播器
func (p *TracerProvider) SetGlobal() {
	if p.provider == nil {
		return
	}
	otel.SetTracerProvider(p.provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
}

// Shutdown 刷新并关闭
func (p *TracerProvider) Shutdown(ctx context.Context) error {
	if p.closed.Swap(true) {
		return ErrProviderClosed
	}
	if p.provider == nil {
		return nil
	}
	return p.provider.Shutdown(ctx)
}

// Close 使用 ShutdownTimeout 关闭
func (p *TracerProvider) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), p.config.ShutdownTimeout)
	defer cancel()
	return p.Shutdown(ctx)
}

// ForceFlush 强制导出缓冲中的 span
func (p *TracerProvider) ForceFlush(ctx context.Context) error {
	if p.provider == nil {
		return nil
	}
	return p.provider.ForceFlush(ctx)
}

// IsEnabled 是否真正在记录 span
func (p *TracerProvider) IsEnabled() bool {
	return p.provider != nil
}

// Config 获取配置
func (p *TracerProvider) Config() *Config {
	return p.config
}
