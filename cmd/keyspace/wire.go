//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/lk2023060901/xdooria-keyspace/pkg/app"
	"github.com/lk2023060901/xdooria-keyspace/pkg/keyspace"
	"github.com/lk2023060901/xdooria-keyspace/pkg/logger"
)

func initCLI(cfg *Config, l logger.Logger) (*cli, func(), error) {
	panic(wire.Build(
		// 1. Redis 客户端
		provideRedisConfig,
		provideRedisClient,

		// 2. 指标与追踪
		providePrometheusConfig,
		providePrometheusClient,
		provideOtelConfig,
		provideTracerProvider,
		provideTraceProvider,

		// 3. 键空间管理器
		provideKeyspaceConfig,
		keyspace.ProviderSet,

		// 4. exporter、HTTP 接口与运行骨架
		provideExporterConfig,
		newExporter,
		provideWebConfig,
		newAPIServer,
		app.ProviderSet,

		newCLI,
	))
}
