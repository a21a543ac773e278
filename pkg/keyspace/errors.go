package keyspace

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

var (
	// ErrNilClient 未提供 Redis 客户端
	ErrNilClient = errors.New("keyspace: redis client is nil")

	// ErrScanLimitExceeded 游标遍历超过了配置的轮次上限
	ErrScanLimitExceeded = errors.New("keyspace: scan iteration limit exceeded")

	// ErrNoNodes 集群拓扑中没有可用的主节点
	ErrNoNodes = errors.New("keyspace: cluster topology has no master nodes")
)

// NodeError 单个集群节点上的遍历失败
type NodeError struct {
	Addr string
	Err  error
}

func (e NodeError) Error() string {
	return fmt.Sprintf("%s: %v", e.Addr, e.Err)
}

func (e NodeError) Unwrap() error {
	return e.Err
}

// PartialScanError 开启 TolerateNodeFailures 后，部分节点失败时返回
// 与之同时返回的结果只包含成功节点的数据
type PartialScanError struct {
	Nodes []NodeError // 被跳过的节点
	Total int         // 参与遍历的节点总数
}

func (e *PartialScanError) Error() string {
	parts := make([]string, 0, len(e.Nodes))
	for _, n := range e.Nodes {
		parts = append(parts, n.Error())
	}
	return fmt.Sprintf("keyspace: %d of %d cluster nodes skipped: %s",
		len(e.Nodes), e.Total, strings.Join(parts, "; "))
}

// Unwrap 返回每个节点的原始错误
func (e *PartialScanError) Unwrap() []error {
	errs := make([]error, 0, len(e.Nodes))
	for _, n := range e.Nodes {
		errs = append(errs, n)
	}
	return errs
}

// Addrs 返回被跳过的节点地址
func (e *PartialScanError) Addrs() []string {
	addrs := make([]string, 0, len(e.Nodes))
	for _, n := range e.Nodes {
		addrs = append(addrs, n.Addr)
	}
	return addrs
}

// AllFailed 是否所有节点都失败
func (e *PartialScanError) AllFailed() bool {
	return len(e.Nodes) >= e.Total
}
