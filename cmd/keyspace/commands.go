package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/lk2023060901/xdooria-keyspace/pkg/database/redis"
)

// command 子命令
type command struct {
	usage   string
	minArgs int
	maxArgs int
	run     func(ctx context.Context, c *cli, args []string, f *cmdFlags, out io.Writer) error
}

var commands = map[string]command{
	"get":      {usage: "get <key>", minArgs: 1, maxArgs: 1, run: runGet},
	"set":      {usage: "set <key> <value> [--expire seconds]", minArgs: 2, maxArgs: 2, run: runSet},
	"del":      {usage: "del <key>", minArgs: 1, maxArgs: 1, run: runDel},
	"keys":     {usage: "keys [pattern]", maxArgs: 1, run: runKeys},
	"dbsize":   {usage: "dbsize [pattern]", maxArgs: 1, run: runDBSize},
	"stats":    {usage: "stats", run: runStats},
	"exporter": {usage: "exporter [--interval d] [--pattern p]...", run: runExporter},
}

func patternArg(args []string) []byte {
	if len(args) == 0 {
		return []byte("*")
	}
	return []byte(args[0])
}

func runGet(ctx context.Context, c *cli, args []string, _ *cmdFlags, out io.Writer) error {
	value, err := c.manager.Get(ctx, []byte(args[0]))
	if err != nil {
		return err
	}
	if value == nil {
		_, err = fmt.Fprintln(out, "(nil)")
		return err
	}
	_, err = fmt.Fprintf(out, "%s\n", value)
	return err
}

func runSet(ctx context.Context, c *cli, args []string, f *cmdFlags, out io.Writer) error {
	if _, err := c.manager.Set(ctx, []byte(args[0]), []byte(args[1]), f.expire); err != nil {
		return err
	}
	_, err := fmt.Fprintln(out, "OK")
	return err
}

func runDel(ctx context.Context, c *cli, args []string, _ *cmdFlags, out io.Writer) error {
	if err := c.manager.Del(ctx, []byte(args[0])); err != nil {
		return err
	}
	_, err := fmt.Fprintln(out, "OK")
	return err
}

// runKeys 集群部分失败时仍然输出已收集到的键，错误照常返回（退出码 1）
func runKeys(ctx context.Context, c *cli, args []string, _ *cmdFlags, out io.Writer) error {
	keys, err := c.manager.Keys(ctx, patternArg(args))
	for _, k := range keys.Strings() {
		if _, werr := fmt.Fprintln(out, k); werr != nil {
			return werr
		}
	}
	return err
}

func runDBSize(ctx context.Context, c *cli, args []string, _ *cmdFlags, out io.Writer) error {
	n, err := c.manager.DBSize(ctx, patternArg(args))
	if err != nil && skippedNodes(err) == nil {
		return err
	}
	if _, werr := fmt.Fprintln(out, n); werr != nil {
		return werr
	}
	return err
}

// statsReport stats 子命令和 /api/v1/stats 的输出
type statsReport struct {
	Mode redis.Mode `json:"mode"`
	Pool struct {
		redis.PoolStats
		InUse uint32 `json:"in_use"`
	} `json:"pool"`
}

// collectStats 先 Ping 确认可达，再读取连接池计数
func collectStats(ctx context.Context, client *redis.Client) (statsReport, error) {
	var report statsReport
	if err := client.Ping(ctx); err != nil {
		return report, err
	}

	report.Mode = client.Mode()
	report.Pool.PoolStats = client.PoolStats()
	report.Pool.InUse = report.Pool.PoolStats.InUse()
	return report, nil
}

func runStats(ctx context.Context, c *cli, _ []string, _ *cmdFlags, out io.Writer) error {
	report, err := collectStats(ctx, c.client)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// runExporter 命令行没有指定 --pattern 时，配置文件里的模式可以热更新
func runExporter(ctx context.Context, c *cli, _ []string, f *cmdFlags, _ io.Writer) error {
	if c.cfg.configFile != "" && len(f.patterns) == 0 {
		if err := c.exporter.watchPatterns(c.cfg.configFile); err != nil {
			c.logger.Warn("config watch disabled", "path", c.cfg.configFile, "error", err)
		}
	}
	return c.app.Run(ctx)
}
