package app

import (
	"github.com/google/wire"

	"github.com/lk2023060901/xdooria-keyspace/pkg/logger"
)

// Components 由 Wire 收集的服务与清理组件
type Components struct {
	Servers []Server
	Closers []Closer
}

// ProviderSet 导出给 Wire 使用
var ProviderSet = wire.NewSet(
	ProvideBaseApp,
)

// ProvideBaseApp 用注入的日志器创建 BaseApp
func ProvideBaseApp(l logger.Logger) *BaseApp {
	return NewBaseApp(WithLogger(l))
}

// Mount 把组件挂到 BaseApp 上
func (a *BaseApp) Mount(comps Components) *BaseApp {
	a.AppendServer(comps.Servers...)
	a.AppendCloser(comps.Closers...)
	return a
}

// CloserFunc 函数形式的 Closer
type CloserFunc func() error

func (f CloserFunc) Close() error {
	return f()
}
