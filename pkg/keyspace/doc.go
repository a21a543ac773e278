// Package keyspace 提供与部署拓扑无关的 Redis 键空间管理器，
// 作为会话/缓存数据的可插拔后端存储。
//
// Manager 在单机（Standalone）与集群（Cluster）两种模式下提供同一组操作：
// Get、Set、Del、Keys、DBSize。Keys 与 DBSize 基于 SCAN 游标协议增量遍历，
// 不会像 KEYS 命令那样阻塞服务端。
//
// 游标协议：从起始游标 0 开始反复发送 SCAN，直到服务端再次返回 0 为止。
// 这是唯一的终止条件，默认没有轮次上限；如需防御异常服务端，可以通过
// Config.MaxScanIterations 注入上限，超出时返回 ErrScanLimitExceeded。
// SCAN 是"至少一次"语义：Keys 的结果是集合因此天然去重，DBSize 统计
// 扫描到的原始条目数，可能包含重复。
//
// 集群模式下不存在覆盖整个键空间的单个节点，因此对每个主节点各自独立
// 执行一次完整的游标遍历（直连节点，不经过重定向），再合并结果：Keys 取并集，
// DBSize 求和。各节点的遍历互不依赖，默认并发执行。
//
// 每个操作都从连接池借出一个连接，并保证在任何返回路径上归还。
package keyspace
