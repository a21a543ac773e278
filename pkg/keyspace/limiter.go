package keyspace

import (
	"sync"

	"golang.org/x/time/rate"
)

// nodeLimiters 按节点地址限制 SCAN 往返速率
// nil 表示不限速
type nodeLimiters struct {
	limit rate.Limit
	burst int
	nodes sync.Map // addr -> *rate.Limiter
}

func newNodeLimiters(perSecond float64, burst int) *nodeLimiters {
	if perSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &nodeLimiters{limit: rate.Limit(perSecond), burst: burst}
}

// get 返回 addr 的限速器，首次访问时创建
func (l *nodeLimiters) get(addr string) *rate.Limiter {
	if l == nil {
		return nil
	}
	if v, ok := l.nodes.Load(addr); ok {
		return v.(*rate.Limiter)
	}
	v, _ := l.nodes.LoadOrStore(addr, rate.NewLimiter(l.limit, l.burst))
	return v.(*rate.Limiter)
}
