package web

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Config HTTP 服务配置
type Config struct {
	// Enabled 关闭时 exporter 只暴露 prometheus 端点
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// Addr 监听地址，":0" 表示随机端口
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// Mode gin 运行模式：debug, release, test
	Mode string `json:"mode" yaml:"mode" mapstructure:"mode" validate:"omitempty,oneof=debug release test"`

	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`

	CORS CORSConfig `json:"cors" yaml:"cors" mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// AllowOrigins 允许的来源，"*" 表示全部；其余必须以 http:// 或 https:// 开头
	AllowOrigins []string `json:"allow_origins" yaml:"allow_origins" mapstructure:"allow_origins"`

	MaxAge time.Duration `json:"max_age" yaml:"max_age" mapstructure:"max_age"`
}

// DefaultConfig 默认配置（未启用）
func DefaultConfig() *Config {
	return &Config{
		Addr:            ":8080",
		Mode:            gin.ReleaseMode,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		ShutdownTimeout: 5 * time.Second,
		CORS: CORSConfig{
			AllowOrigins: []string{"*"},
			MaxAge:       12 * time.Hour,
		},
	}
}

// Validate 验证配置，未启用时不检查
func (c *Config) Validate() error {
	if c == nil {
		return ErrNilConfig
	}
	if !c.Enabled {
		return nil
	}
	if c.Addr == "" {
		return ErrInvalidAddr
	}
	if c.CORS.Enabled {
		for _, origin := range c.CORS.AllowOrigins {
			if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
				return ErrInvalidOrigin
			}
		}
	}
	return nil
}

// allowAllOrigins 来源列表为空或包含 "*"
func (c *CORSConfig) allowAllOrigins() bool {
	if len(c.AllowOrigins) == 0 {
		return true
	}
	for _, origin := range c.AllowOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}
