package keyspace

import (
	"github.com/google/wire"
	"go.opentelemetry.io/otel/trace"

	"github.com/lk2023060901/xdooria-keyspace/pkg/database/redis"
	"github.com/lk2023060901/xdooria-keyspace/pkg/logger"
)

// ProviderSet 键空间管理器的 Wire 提供者集合
var ProviderSet = wire.NewSet(
	ProvideManager,
	NewMetrics,
)

// ProvideManager 创建带指标和追踪的管理器
func ProvideManager(cfg *Config, client *redis.Client, l logger.Logger, metrics *Metrics, tp trace.TracerProvider) (Manager, error) {
	return New(cfg, client, l, WithMetrics(metrics), WithTracerProvider(tp))
}
