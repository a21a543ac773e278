package prometheus

import "time"

// Config Prometheus 配置
type Config struct {
	// Namespace 指标名前缀
	Namespace string `json:"namespace" yaml:"namespace" mapstructure:"namespace"`

	// Subsystem 子系统（可选）
	Subsystem string `json:"subsystem" yaml:"subsystem" mapstructure:"subsystem"`

	// HTTPServer 指标暴露端点
	HTTPServer HTTPServerConfig `json:"http_server" yaml:"http_server" mapstructure:"http_server"`

	// EnableGoCollector 注册 Go 运行时采集器
	EnableGoCollector bool `json:"enable_go_collector" yaml:"enable_go_collector" mapstructure:"enable_go_collector"`

	// EnableProcessCollector 注册进程采集器
	EnableProcessCollector bool `json:"enable_process_collector" yaml:"enable_process_collector" mapstructure:"enable_process_collector"`
}

// HTTPServerConfig HTTP 服务器配置
type HTTPServerConfig struct {
	Enabled bool          `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Addr    string        `json:"addr" yaml:"addr" mapstructure:"addr"`          // 监听地址，":0" 表示随机端口
	Path    string        `json:"path" yaml:"path" mapstructure:"path"`          // 指标路径
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"` // 读写超时
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Namespace: "xdooria",
		HTTPServer: HTTPServerConfig{
			Enabled: true,
			Addr:    ":9121",
			Path:    "/metrics",
			Timeout: 10 * time.Second,
		},
		EnableGoCollector:      true,
		EnableProcessCollector: true,
	}
}

// Validate 验证配置并补全 HTTP 默认值
func (c *Config) Validate() error {
	if c.Namespace == "" {
		return ErrInvalidConfig
	}

	if c.HTTPServer.Enabled {
		if c.HTTPServer.Addr == "" {
			return ErrInvalidConfig
		}
		if c.HTTPServer.Path == "" {
			c.HTTPServer.Path = "/metrics"
		}
		if c.HTTPServer.Timeout == 0 {
			c.HTTPServer.Timeout = 10 * time.Second
		}
	}

	return nil
}
