package main

import (
	"time"

	"github.com/lk2023060901/xdooria-keyspace/pkg/app"
	"github.com/lk2023060901/xdooria-keyspace/pkg/config"
	"github.com/lk2023060901/xdooria-keyspace/pkg/database/redis"
	"github.com/lk2023060901/xdooria-keyspace/pkg/keyspace"
	"github.com/lk2023060901/xdooria-keyspace/pkg/logger"
	"github.com/lk2023060901/xdooria-keyspace/pkg/otel"
	"github.com/lk2023060901/xdooria-keyspace/pkg/prometheus"
	"github.com/lk2023060901/xdooria-keyspace/pkg/sentry"
	"github.com/lk2023060901/xdooria-keyspace/pkg/web"
)

// ExporterConfig exporter 子命令配置
type ExporterConfig struct {
	// Interval 两次采集之间的间隔
	Interval time.Duration `mapstructure:"interval" validate:"gte=0"`

	// Timeout 单个模式一次 DBSize 的超时（0 表示与 Interval 相同）
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`

	// Patterns 需要统计的 glob 模式
	Patterns []string `mapstructure:"patterns"`
}

// Config 命令行工具的完整配置
type Config struct {
	Log        logger.Config     `mapstructure:"log"`
	Redis      redis.Config      `mapstructure:"redis"`
	Keyspace   keyspace.Config   `mapstructure:"keyspace"`
	Prometheus prometheus.Config `mapstructure:"prometheus"`
	Otel       otel.Config       `mapstructure:"otel"`
	Sentry     sentry.Config     `mapstructure:"sentry"`
	Web        web.Config        `mapstructure:"web"`
	Exporter   ExporterConfig    `mapstructure:"exporter"`

	// configFile 实际加载的配置文件（没有时为空）
	configFile string
}

// defaultConfig 文件、环境变量、命令行都没有给出的字段取这里的值
func defaultConfig() Config {
	return Config{
		Log:        *logger.DefaultConfig(),
		Redis:      redis.Config{Pool: redis.DefaultPoolConfig()},
		Keyspace:   *keyspace.DefaultConfig(),
		Prometheus: *prometheus.DefaultConfig(),
		Otel:       *otel.DefaultConfig(),
		Sentry:     *sentry.DefaultConfig(),
		Web:        *web.DefaultConfig(),
		Exporter: ExporterConfig{
			Interval: 15 * time.Second,
			Patterns: []string{"*"},
		},
	}
}

// normalize 补全解码后仍然缺失的部分并校验
func (c *Config) normalize() error {
	// 两种模式都没配置时连本机 6379
	if c.Redis.Standalone == nil && c.Redis.Cluster == nil {
		c.Redis.Standalone = &redis.NodeConfig{}
	}
	if c.Exporter.Timeout == 0 {
		c.Exporter.Timeout = c.Exporter.Interval
	}
	if len(c.Exporter.Patterns) == 0 {
		c.Exporter.Patterns = []string{"*"}
	}
	if c.Sentry.Release == "" {
		c.Sentry.Release = app.GetInfo().Release()
	}

	if err := c.Redis.Validate(); err != nil {
		return err
	}
	if err := c.Sentry.Validate(); err != nil {
		return err
	}
	if err := c.Web.Validate(); err != nil {
		return err
	}
	return config.NewValidator().Validate(c)
}

func provideRedisConfig(cfg *Config) *redis.Config {
	return &cfg.Redis
}

func provideKeyspaceConfig(cfg *Config) *keyspace.Config {
	return &cfg.Keyspace
}

func providePrometheusConfig(cfg *Config) *prometheus.Config {
	return &cfg.Prometheus
}

func provideOtelConfig(cfg *Config) *otel.Config {
	return &cfg.Otel
}

func provideExporterConfig(cfg *Config) *ExporterConfig {
	return &cfg.Exporter
}

func provideWebConfig(cfg *Config) *web.Config {
	return &cfg.Web
}
