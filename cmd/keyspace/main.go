package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap/zapcore"

	"github.com/lk2023060901/xdooria-keyspace/pkg/app"
	"github.com/lk2023060901/xdooria-keyspace/pkg/database/redis"
	"github.com/lk2023060901/xdooria-keyspace/pkg/logger"
	"github.com/lk2023060901/xdooria-keyspace/pkg/sentry"
)

const usageHeader = `Usage: keyspace [flags] <command> [args]

Commands:
  get <key>              print the value of key, "(nil)" when absent
  set <key> <value>      store value, --expire sets a TTL in seconds
  del <key>              delete key
  keys [pattern]         list keys matching pattern (default "*")
  dbsize [pattern]       count key entries matching pattern (default "*")
  stats                  print deployment mode and connection pool counters
  exporter               serve keyspace_keys gauges until SIGINT/SIGTERM;
                         --web.enabled adds /healthz and /api/v1/{keys,dbsize,stats}
  version                print build information

Flags:
`

// cmdFlags 子命令参数（不对应配置键）
type cmdFlags struct {
	expire   int64
	interval time.Duration
	patterns []string
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func newFlagSet(stderr io.Writer, f *cmdFlags) *pflag.FlagSet {
	fs := pflag.NewFlagSet("keyspace", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SortFlags = false
	fs.Usage = func() {
		fmt.Fprint(stderr, usageHeader)
		fs.PrintDefaults()
	}

	app.RegisterConfigFlag(fs)

	// 带点号的参数直接覆盖同名配置键
	fs.String("log.level", "", "log level: debug, info, warn, error")
	fs.String("redis.standalone.host", "", "standalone server host (default "+redis.DefaultHost+")")
	fs.Int("redis.standalone.port", 0, "standalone server port")
	fs.Int("redis.standalone.db", 0, "standalone database index")
	fs.String("redis.cluster.addrs", "", "comma-separated cluster seed nodes, e.g. "+redis.DefaultClusterSeeds)
	fs.Int64("keyspace.scan_count", 0, "COUNT hint for each SCAN round trip")
	fs.Int("keyspace.max_scan_iterations", 0, "abort a cursor walk after this many round trips (0 = unlimited)")
	fs.Int("keyspace.scan_concurrency", 0, "cluster nodes walked at once (0 = all)")
	fs.Float64("keyspace.scan_rate_limit", 0, "max SCAN round trips per second per node (0 = unlimited)")
	fs.Bool("keyspace.tolerate_node_failures", false, "return partial cluster results when some nodes fail")
	fs.String("prometheus.http_server.addr", "", "metrics listen address for exporter")
	fs.Bool("web.enabled", false, "exporter: serve the read-only HTTP API")
	fs.String("web.addr", "", "exporter: HTTP API listen address")
	fs.Bool("otel.enabled", false, "export traces")
	fs.String("otel.exporter_type", "", "trace exporter: otlp-http, otlp-grpc, stdout, noop")
	fs.String("sentry.dsn", "", "report error logs to this Sentry DSN (needs sentry.enabled)")
	fs.Bool("sentry.enabled", false, "report error logs to Sentry")

	fs.Int64VarP(&f.expire, "expire", "e", 0, "set: expire the key after this many seconds (<= 0 = never)")
	fs.DurationVar(&f.interval, "interval", 0, "exporter: collection interval (default from config, 15s)")
	fs.StringSliceVar(&f.patterns, "pattern", nil, "exporter: pattern to count, repeatable (default \"*\")")

	return fs
}

// run 执行一次命令行调用并返回退出码：0 成功，1 运行失败，2 用法错误
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var f cmdFlags
	fs := newFlagSet(stderr, &f)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	name := fs.Arg(0)
	if name == "" {
		fs.Usage()
		return 2
	}
	if name == "version" {
		fmt.Fprintln(stdout, app.GetInfo())
		return 0
	}

	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "keyspace: unknown command %q\n", name)
		fs.Usage()
		return 2
	}
	cmdArgs := fs.Args()[1:]
	if len(cmdArgs) < cmd.minArgs || len(cmdArgs) > cmd.maxArgs {
		fmt.Fprintf(stderr, "usage: keyspace %s\n", cmd.usage)
		return 2
	}

	cfg, err := loadConfig(fs, &f)
	if err != nil {
		fmt.Fprintf(stderr, "keyspace: %v\n", err)
		return 1
	}

	reporter, err := sentry.New(&cfg.Sentry)
	if err != nil {
		fmt.Fprintf(stderr, "keyspace: %v\n", err)
		return 1
	}
	defer func() { _ = reporter.Close() }()
	defer reporter.Recover()

	// 错误级别的日志同时上报 Sentry（未启用时是空操作）
	l, err := logger.New(&cfg.Log,
		logger.WithWriter(stderr),
		logger.WithContextExtractor(logger.TraceContextExtractor),
		logger.WithHooks(sentry.LogHook(reporter, zapcore.ErrorLevel)),
	)
	if err != nil {
		fmt.Fprintf(stderr, "keyspace: %v\n", err)
		return 1
	}
	defer func() { _ = l.Sync() }()
	logger.SetDefault(l)
	defer logger.SetDefault(nil)

	c, cleanup, err := initCLI(cfg, l)
	if err != nil {
		l.Error("failed to initialize", "error", err)
		fmt.Fprintf(stderr, "keyspace: %v\n", err)
		return 1
	}
	defer cleanup()

	if err := cmd.run(ctx, c, cmdArgs, &f, stdout); err != nil {
		fmt.Fprintf(stderr, "keyspace: %v\n", err)
		return 1
	}
	return 0
}

// loadConfig 合并默认值、配置文件、环境变量和命令行参数
func loadConfig(fs *pflag.FlagSet, f *cmdFlags) (*Config, error) {
	cfg := defaultConfig()
	path, err := app.LoadConfig(fs, &cfg)
	if err != nil {
		return nil, err
	}
	cfg.configFile = path

	if fs.Changed("interval") {
		cfg.Exporter.Interval = f.interval
	}
	if fs.Changed("pattern") {
		cfg.Exporter.Patterns = f.patterns
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
