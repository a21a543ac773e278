package web

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/lk2023060901/xdooria-keyspace/pkg/config"
	"github.com/lk2023060901/xdooria-keyspace/pkg/logger"
)

// Server 基于 gin 的 HTTP 服务，实现 app.Server
type Server struct {
	engine *gin.Engine
	config *Config
	logger logger.Logger

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// NewServer 创建 HTTP 服务并挂载基础中间件，路由通过 Router 注册
func NewServer(cfg *Config, l logger.Logger, tp trace.TracerProvider) (*Server, error) {
	merged, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, err
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	if l == nil {
		l = logger.NewNoop()
	}
	l = l.Named("web")

	gin.SetMode(merged.Mode)
	engine := gin.New()
	engine.Use(Tracing(tp), Logger(l), Recovery(l))
	if merged.CORS.Enabled {
		engine.Use(CORS(&merged.CORS))
	}

	return &Server{
		engine: engine,
		config: merged,
		logger: l,
	}, nil
}

// Router 返回 gin 引擎，用于注册路由
func (s *Server) Router() *gin.Engine {
	return s.engine
}

// Handler 以 http.Handler 形式返回（测试用 httptest 直接调用）
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Config 获取合并默认值后的配置
func (s *Server) Config() *Config {
	return s.config
}

// Start 同步绑定端口，后台处理请求；未启用时不做任何事
func (s *Server) Start() error {
	if !s.config.Enabled {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return ErrServerStarted
	}

	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}

	s.listener = ln
	s.server = &http.Server{
		Handler:        s.engine,
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	go func(srv *http.Server) {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server stopped", "addr", ln.Addr().String(), "error", err)
		}
	}(s.server)

	s.logger.Info("http server listening", "addr", ln.Addr().String())
	return nil
}

// Stop 优雅关闭，等待进行中的请求结束（最长 ShutdownTimeout）
func (s *Server) Stop() error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}

// Addr 返回实际监听地址，未启动时为空
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}
