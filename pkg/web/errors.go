package web

import "errors"

var (
	// ErrNilConfig 配置为空
	ErrNilConfig = errors.New("web: nil config")

	// ErrInvalidAddr 启用时必须配置监听地址
	ErrInvalidAddr = errors.New("web: listen address is required")

	// ErrInvalidOrigin CORS 来源格式错误
	ErrInvalidOrigin = errors.New("web: cors origin must be \"*\" or start with http:// or https://")

	// ErrServerStarted 重复启动
	ErrServerStarted = errors.New("web: server already started")
)
