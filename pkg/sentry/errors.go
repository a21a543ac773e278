package sentry

import "errors"

var (
	// ErrNilConfig 配置为空
	ErrNilConfig = errors.New("sentry: nil config")

	// ErrInvalidDSN 启用上报时 DSN 为空或无法解析
	ErrInvalidDSN = errors.New("sentry: invalid DSN")

	// ErrInvalidSampleRate 采样率需在 [0, 1]
	ErrInvalidSampleRate = errors.New("sentry: sample rate must be between 0 and 1")

	// ErrInvalidBreadcrumbs 面包屑上限不能为负数
	ErrInvalidBreadcrumbs = errors.New("sentry: max breadcrumbs must not be negative")

	// ErrClientClosed 上报客户端已关闭
	ErrClientClosed = errors.New("sentry: client closed")
)
