package sentry

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/lk2023060901/xdooria-keyspace/pkg/config"
)

// Client 错误上报客户端，持有独立的 Hub，不修改 sentry 全局状态
type Client struct {
	hub    *sentry.Hub // 未启用时为 nil
	config *Config
	closed atomic.Bool

	stats struct {
		captured atomic.Uint64
		dropped  atomic.Uint64
	}
}

// Stats 上报统计
type Stats struct {
	Captured uint64 // 交给传输层的事件数
	Dropped  uint64 // 被采样或 BeforeSend 丢弃的事件数
}

// Option 调整 SDK 选项
type Option func(*sentry.ClientOptions)

// WithBeforeSend 事件发送前的回调，返回 nil 丢弃事件
func WithBeforeSend(fn func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event) Option {
	return func(o *sentry.ClientOptions) {
		o.BeforeSend = fn
	}
}

// New 创建客户端，cfg 中未填写的字段取 DefaultConfig
func New(cfg *Config, opts ...Option) (*Client, error) {
	merged, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, err
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}

	c := &Client{config: merged}
	if !merged.Enabled {
		return c, nil
	}

	clientOpts := merged.toClientOptions()
	for _, opt := range opts {
		opt(&clientOpts)
	}

	client, err := sentry.NewClient(clientOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDSN, err)
	}

	c.hub = sentry.NewHub(client, sentry.NewScope())
	c.hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTags(merged.Tags)
	})
	return c, nil
}

// Enabled 是否会真正上报
func (c *Client) Enabled() bool {
	return c != nil && c.hub != nil && !c.closed.Load()
}

// CaptureError 上报错误，tags 只作用于这一个事件
func (c *Client) CaptureError(err error, tags map[string]string) *sentry.EventID {
	if err == nil || !c.Enabled() {
		return nil
	}

	var id *sentry.EventID
	c.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		id = c.hub.CaptureException(err)
	})
	return c.count(id)
}

// CaptureEvent 上报构造好的事件
func (c *Client) CaptureEvent(event *sentry.Event) *sentry.EventID {
	if event == nil || !c.Enabled() {
		return nil
	}
	return c.count(c.hub.CaptureEvent(event))
}

func (c *Client) count(id *sentry.EventID) *sentry.EventID {
	if id != nil && *id != "" {
		c.stats.captured.Add(1)
		return id
	}
	c.stats.dropped.Add(1)
	return nil
}

// Recover 上报 panic 后继续向上抛出，用于 defer
func (c *Client) Recover() {
	r := recover()
	if r == nil {
		return
	}
	if c.Enabled() {
		c.count(c.hub.Recover(r))
		c.hub.Flush(c.config.ShutdownTimeout)
	}
	panic(r)
}

// Flush 等待已上报的事件发送完成
func (c *Client) Flush(timeout time.Duration) bool {
	if c.hub == nil {
		return true
	}
	return c.hub.Flush(timeout)
}

// Close 发送剩余事件后关闭，重复调用返回 ErrClientClosed
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return ErrClientClosed
	}
	if c.hub != nil {
		c.hub.Flush(c.config.ShutdownTimeout)
	}
	return nil
}

// Stats 获取统计信息
func (c *Client) Stats() Stats {
	return Stats{
		Captured: c.stats.captured.Load(),
		Dropped:  c.stats.dropped.Load(),
	}
}
