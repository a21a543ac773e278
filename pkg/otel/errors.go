package otel

import "errors"

var (
	// ErrInvalidServiceName 启用追踪时服务名不能为空
	ErrInvalidServiceName = errors.New("otel: service name is required when tracing is enabled")

	// ErrInvalidSamplerRatio ratio 采样器的比率需在 [0, 1]
	ErrInvalidSamplerRatio = errors.New("otel: sampler ratio must be between 0 and 1")

	// ErrMissingEndpoint OTLP 导出器没有端点
	ErrMissingEndpoint = errors.New("otel: otlp exporter requires an endpoint")

	// ErrUnsupportedExporter 未知的导出器类型
	ErrUnsupportedExporter = errors.New("otel: unsupported exporter type")

	// ErrExporterFailed 导出器创建失败
	ErrExporterFailed = errors.New("otel: create exporter")

	// ErrProviderClosed Provider 已关闭
	ErrProviderClosed = errors.New("otel: provider closed")
)
