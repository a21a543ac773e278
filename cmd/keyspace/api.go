package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/lk2023060901/xdooria-keyspace/pkg/database/redis"
	"github.com/lk2023060901/xdooria-keyspace/pkg/keyspace"
	"github.com/lk2023060901/xdooria-keyspace/pkg/logger"
	"github.com/lk2023060901/xdooria-keyspace/pkg/prometheus"
	"github.com/lk2023060901/xdooria-keyspace/pkg/web"
)

// apiServer exporter 附带的只读 HTTP 接口
//
//	GET /healthz
//	GET /metrics
//	GET /api/v1/keys?pattern=user:*&limit=100
//	GET /api/v1/dbsize?pattern=user:*
//	GET /api/v1/stats
type apiServer struct {
	*web.Server
	client  *redis.Client
	manager keyspace.Manager
	cfg     *ExporterConfig
}

type keysResult struct {
	Pattern string   `json:"pattern"`
	Count   int      `json:"count"`
	Keys    []string `json:"keys"`
	Skipped []string `json:"skipped_nodes,omitempty"`
}

type dbSizeResult struct {
	Pattern string   `json:"pattern"`
	Count   int64    `json:"count"`
	Skipped []string `json:"skipped_nodes,omitempty"`
}

func newAPIServer(cfg *web.Config, exp *ExporterConfig, client *redis.Client, m keyspace.Manager,
	metrics *prometheus.Client, l logger.Logger, tp trace.TracerProvider) (*apiServer, error) {
	srv, err := web.NewServer(cfg, l, tp)
	if err != nil {
		return nil, err
	}

	a := &apiServer{Server: srv, client: client, manager: m, cfg: exp}

	r := srv.Router()
	r.GET("/healthz", a.healthz)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := r.Group("/api/v1")
	v1.GET("/keys", a.keys)
	v1.GET("/dbsize", a.dbSize)
	v1.GET("/stats", a.stats)

	return a, nil
}

// requestContext 单次请求沿用 exporter 的超时
func (a *apiServer) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if a.cfg.Timeout > 0 {
		return context.WithTimeout(c.Request.Context(), a.cfg.Timeout)
	}
	return context.WithCancel(c.Request.Context())
}

func (a *apiServer) healthz(c *gin.Context) {
	ctx, cancel := a.requestContext(c)
	defer cancel()

	if err := a.client.Ping(ctx); err != nil {
		web.Error(c, http.StatusServiceUnavailable, web.CodeUnavailable, err)
		return
	}
	web.Success(c, gin.H{"status": "ok", "mode": a.client.Mode()})
}

func (a *apiServer) keys(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		web.Error(c, http.StatusBadRequest, web.CodeInvalidArgument,
			fmt.Errorf("invalid limit %q", c.Query("limit")))
		return
	}

	ctx, cancel := a.requestContext(c)
	defer cancel()

	pattern := c.DefaultQuery("pattern", "*")
	keys, err := a.manager.Keys(ctx, []byte(pattern))

	// count 为完整数量，limit 只截断返回的列表
	res := keysResult{Pattern: pattern, Keys: keys.Strings(), Skipped: skippedNodes(err)}
	res.Count = len(res.Keys)
	if limit > 0 && len(res.Keys) > limit {
		res.Keys = res.Keys[:limit]
	}
	reply(c, res, err)
}

func (a *apiServer) dbSize(c *gin.Context) {
	ctx, cancel := a.requestContext(c)
	defer cancel()

	pattern := c.DefaultQuery("pattern", "*")
	n, err := a.manager.DBSize(ctx, []byte(pattern))
	reply(c, dbSizeResult{Pattern: pattern, Count: n, Skipped: skippedNodes(err)}, err)
}

func (a *apiServer) stats(c *gin.Context) {
	ctx, cancel := a.requestContext(c)
	defer cancel()

	report, err := collectStats(ctx, a.client)
	if err != nil {
		web.Error(c, http.StatusServiceUnavailable, web.CodeUnavailable, err)
		return
	}
	web.Success(c, report)
}

// reply 部分节点失败时返回 200 + CodePartialResult，其余错误返回 503
func reply(c *gin.Context, data any, err error) {
	switch {
	case err == nil:
		web.Success(c, data)
	case skippedNodes(err) != nil:
		web.Partial(c, data, err.Error())
	default:
		web.Error(c, http.StatusServiceUnavailable, web.CodeUnavailable, err)
	}
}

// skippedNodes 可容忍的部分失败时返回被跳过的节点
func skippedNodes(err error) []string {
	var partial *keyspace.PartialScanError
	if errors.As(err, &partial) && !partial.AllFailed() {
		return partial.Addrs()
	}
	return nil
}
