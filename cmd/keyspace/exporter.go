package main

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lk2023060901/xdooria-keyspace/pkg/app"
	"github.com/lk2023060901/xdooria-keyspace/pkg/config"
	"github.com/lk2023060901/xdooria-keyspace/pkg/keyspace"
	"github.com/lk2023060901/xdooria-keyspace/pkg/logger"
	"github.com/lk2023060901/xdooria-keyspace/pkg/prometheus"
)

// exporter 周期性统计各模式的键数量并以 gauge 暴露
type exporter struct {
	cfg     *ExporterConfig
	manager keyspace.Manager
	metrics *prometheus.Client
	logger  logger.Logger

	keys     *prometheus.GaugeVec
	failures *prometheus.CounterVec

	// patterns 可以在运行中被配置文件热更新
	patMu    sync.RWMutex
	patterns []string

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func newExporter(cfg *ExporterConfig, m keyspace.Manager, metrics *prometheus.Client, l logger.Logger) (*exporter, error) {
	keys, err := metrics.NewGauge("keyspace_keys",
		"Key entries matching the pattern, summed over all masters in cluster mode.",
		[]string{"pattern"})
	if err != nil {
		return nil, err
	}

	failures, err := metrics.NewCounter("keyspace_collect_failures_total",
		"Collections that failed or skipped cluster nodes.",
		[]string{"pattern"})
	if err != nil {
		return nil, err
	}

	return &exporter{
		cfg:      cfg,
		manager:  m,
		metrics:  metrics,
		logger:   l.Named("exporter"),
		keys:     keys,
		failures: failures,
		patterns: append([]string(nil), cfg.Patterns...),
	}, nil
}

// Start 打开指标端点，立即采集一次后按间隔循环
func (e *exporter) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cancel != nil {
		return errors.New("exporter already started")
	}
	if err := e.metrics.Start(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.done = make(chan struct{})

	go e.loop(ctx)

	e.logger.Info("exporter started",
		"interval", e.cfg.Interval,
		"patterns", e.currentPatterns(),
		"metrics_addr", e.metrics.Addr(),
	)
	return nil
}

// Stop 停止采集循环并等待进行中的采集结束
func (e *exporter) Stop() error {
	e.mu.Lock()
	cancel, done := e.cancel, e.done
	e.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}

func (e *exporter) loop(ctx context.Context) {
	defer close(e.done)

	ticker := time.NewTicker(e.cfg.Interval)
	defer ticker.Stop()

	for {
		e.collect(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// collect 依次统计每个模式
// 部分节点失败时仍然发布已统计到的数量，全部失败时保留上一次的值
func (e *exporter) collect(ctx context.Context) {
	for _, pattern := range e.currentPatterns() {
		if ctx.Err() != nil {
			return
		}

		n, err := e.dbSize(ctx, pattern)
		if err != nil {
			e.failures.WithLabelValues(pattern).Inc()

			var partial *keyspace.PartialScanError
			if !errors.As(err, &partial) || partial.AllFailed() {
				e.logger.Warn("collect failed", "pattern", pattern, "error", err)
				continue
			}
			e.logger.Warn("collect skipped nodes", "pattern", pattern, "nodes", partial.Addrs())
		}

		e.keys.WithLabelValues(pattern).Set(float64(n))
	}
}

func (e *exporter) dbSize(ctx context.Context, pattern string) (int64, error) {
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}
	return e.manager.DBSize(ctx, []byte(pattern))
}

func (e *exporter) currentPatterns() []string {
	e.patMu.RLock()
	defer e.patMu.RUnlock()
	return e.patterns
}

// setPatterns 替换采集的模式，移除的模式同时删掉对应的 gauge 序列
func (e *exporter) setPatterns(patterns []string) {
	if len(patterns) == 0 {
		patterns = []string{"*"}
	}
	patterns = append([]string(nil), patterns...)

	e.patMu.Lock()
	old := e.patterns
	e.patterns = patterns
	e.patMu.Unlock()

	keep := make(map[string]struct{}, len(patterns))
	for _, p := range patterns {
		keep[p] = struct{}{}
	}
	for _, p := range old {
		if _, ok := keep[p]; !ok {
			e.keys.DeleteLabelValues(p)
		}
	}

	e.logger.Info("exporter patterns updated", "patterns", patterns)
}

// watchPatterns 监听配置文件，exporter.patterns 变化后下一轮采集生效
// 间隔和超时只在启动时读取
func (e *exporter) watchPatterns(path string) error {
	mgr := config.NewManager(config.WithEnvPrefix(app.EnvPrefix))
	if err := mgr.LoadFile(path); err != nil {
		return err
	}

	w, err := config.NewWatcher[ExporterConfig](mgr, "exporter", func(err error) {
		e.logger.Warn("ignoring invalid exporter config", "path", path, "error", err)
	})
	if err != nil {
		return err
	}
	w.OnChange(func(cfg *ExporterConfig) { e.setPatterns(cfg.Patterns) })
	return nil
}
