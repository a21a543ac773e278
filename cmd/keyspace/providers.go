package main

import (
	"go.opentelemetry.io/otel/trace"

	"github.com/lk2023060901/xdooria-keyspace/pkg/app"
	"github.com/lk2023060901/xdooria-keyspace/pkg/database/redis"
	"github.com/lk2023060901/xdooria-keyspace/pkg/keyspace"
	"github.com/lk2023060901/xdooria-keyspace/pkg/logger"
	"github.com/lk2023060901/xdooria-keyspace/pkg/otel"
	"github.com/lk2023060901/xdooria-keyspace/pkg/prometheus"
)

// cli 子命令共享的依赖
type cli struct {
	cfg      *Config
	logger   logger.Logger
	client   *redis.Client
	manager  keyspace.Manager
	exporter *exporter
	api      *apiServer
	app      *app.BaseApp
}

// newCLI exporter 子命令运行时先启动采集循环，再启动 HTTP 接口
func newCLI(cfg *Config, l logger.Logger, client *redis.Client, m keyspace.Manager,
	e *exporter, api *apiServer, base *app.BaseApp) *cli {
	base.Mount(app.Components{Servers: []app.Server{e, api}})
	return &cli{
		cfg:      cfg,
		logger:   l,
		client:   client,
		manager:  m,
		exporter: e,
		api:      api,
		app:      base,
	}
}

func provideRedisClient(cfg *redis.Config) (*redis.Client, func(), error) {
	client, err := redis.NewClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	return client, func() { _ = client.Close() }, nil
}

func providePrometheusClient(cfg *prometheus.Config, l logger.Logger) (*prometheus.Client, func(), error) {
	client, err := prometheus.New(cfg, l)
	if err != nil {
		return nil, nil, err
	}
	return client, func() { _ = client.Close() }, nil
}

func provideTracerProvider(cfg *otel.Config) (*otel.TracerProvider, func(), error) {
	tp, err := otel.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	tp.SetGlobal()
	return tp, func() { _ = tp.Close() }, nil
}

func provideTraceProvider(tp *otel.TracerProvider) trace.TracerProvider {
	return tp.Provider()
}
