package keyspace

// DefaultScanCount SCAN 每轮的 COUNT 提示值
const DefaultScanCount = 100

// Config 键空间管理器配置
type Config struct {
	// ScanCount 每轮 SCAN 的 COUNT 提示值，只影响每轮返回量，不影响结果
	ScanCount int64 `json:"scan_count" yaml:"scan_count" mapstructure:"scan_count" validate:"gte=0"`

	// MaxScanIterations 单次游标遍历允许的最大轮次（0 表示不限制）
	// 只用来防御永不返回 0 游标的异常服务端
	MaxScanIterations int `json:"max_scan_iterations" yaml:"max_scan_iterations" mapstructure:"max_scan_iterations" validate:"gte=0"`

	// ScanConcurrency 集群模式下同时遍历的节点数（0 表示每个节点一个协程，1 表示顺序遍历）
	ScanConcurrency int `json:"scan_concurrency" yaml:"scan_concurrency" mapstructure:"scan_concurrency" validate:"gte=0"`

	// ScanRateLimit 每个节点每秒最多发出的 SCAN 次数（0 表示不限速）
	ScanRateLimit float64 `json:"scan_rate_limit" yaml:"scan_rate_limit" mapstructure:"scan_rate_limit" validate:"gte=0"`

	// ScanBurst 限速时允许的突发次数（0 按 1 处理）
	ScanBurst int `json:"scan_burst" yaml:"scan_burst" mapstructure:"scan_burst" validate:"gte=0"`

	// TolerateNodeFailures 集群模式下跳过失败节点，返回部分结果和 *PartialScanError
	TolerateNodeFailures bool `json:"tolerate_node_failures" yaml:"tolerate_node_failures" mapstructure:"tolerate_node_failures"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		ScanCount: DefaultScanCount,
	}
}

// scanOptions 转换为单次遍历参数
func (c *Config) scanOptions() ScanOptions {
	return ScanOptions{
		Count:         c.ScanCount,
		MaxIterations: c.MaxScanIterations,
	}
}
