package app

import (
	"context"
	"errors"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/lk2023060901/xdooria-keyspace/pkg/logger"
)

var (
	ErrAppAlreadyRunning = errors.New("application is already running")
)

// Server 随应用启动、停止的后台服务（如指标端点、周期采集器）
type Server interface {
	Start() error
	Stop() error
}

// Closer 资源清理接口（如 Redis 客户端、TracerProvider）
type Closer interface {
	Close() error
}

// BaseApp 长驻进程的运行骨架：启动服务、等待信号、按序清理
type BaseApp struct {
	opts    Options
	logger  logger.Logger
	servers []Server
	closers []Closer

	mu      sync.Mutex
	started atomic.Bool
	closed  atomic.Bool
}

// NewBaseApp 创建 BaseApp
func NewBaseApp(opts ...Option) *BaseApp {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &BaseApp{
		opts:   o,
		logger: o.Logger.Named(o.Name).WithFields("instance_id", o.ID),
	}
}

// ID 实例 ID
func (a *BaseApp) ID() string {
	return a.opts.ID
}

// Logger 应用日志器
func (a *BaseApp) Logger() logger.Logger {
	return a.logger
}

// AppendServer 添加服务，按添加顺序启动
func (a *BaseApp) AppendServer(srv ...Server) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.servers = append(a.servers, srv...)
}

// AppendCloser 添加清理组件，关闭时逆序执行
func (a *BaseApp) AppendCloser(closer ...Closer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closers = append(a.closers, closer...)
}

// Run 启动所有服务并阻塞，直到收到 SIGINT/SIGTERM 或 ctx 结束，然后执行 Shutdown
func (a *BaseApp) Run(ctx context.Context) error {
	if !a.started.CompareAndSwap(false, true) {
		return ErrAppAlreadyRunning
	}

	info := GetInfo()
	a.logger.Info("application starting",
		"version", info.Version,
		"commit", info.GitCommit,
		"build_date", info.BuildDate,
		"go_version", info.GoVersion,
	)

	a.mu.Lock()
	servers := append([]Server(nil), a.servers...)
	a.mu.Unlock()

	for i, srv := range servers {
		if err := srv.Start(); err != nil {
			a.logger.Error("failed to start server", "error", err)
			// 只停止已经启动的服务
			a.mu.Lock()
			a.servers = servers[:i]
			a.mu.Unlock()
			_ = a.Shutdown()
			return err
		}
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	a.logger.Info("shutting down", "cause", context.Cause(ctx))

	return a.Shutdown()
}

// Shutdown 停止所有服务（超过 StopTimeout 不再等待），再逆序关闭清理组件
// 重复调用直接返回 nil
func (a *BaseApp) Shutdown() error {
	if !a.closed.CompareAndSwap(false, true) {
		return nil
	}

	a.mu.Lock()
	servers := append([]Server(nil), a.servers...)
	closers := append([]Closer(nil), a.closers...)
	a.mu.Unlock()

	var (
		wg   sync.WaitGroup
		errs = make([]error, len(servers))
	)
	for i, srv := range servers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Stop(); err != nil {
				a.logger.Error("failed to stop server", "error", err)
				errs[i] = err
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(a.opts.StopTimeout)
	defer timer.Stop()

	var timedOut bool
	select {
	case <-done:
		a.logger.Info("all servers stopped")
	case <-timer.C:
		timedOut = true
		a.logger.Warn("shutdown timeout, skip waiting for servers", "timeout", a.opts.StopTimeout)
	}

	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			a.logger.Error("failed to close component", "error", err)
		}
	}

	a.logger.Info("application exited")
	_ = a.logger.Sync()

	if timedOut {
		return nil
	}
	return errors.Join(errs...)
}
