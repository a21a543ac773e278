package keyspace

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/xdooria-keyspace/pkg/database/redis"
	"github.com/lk2023060901/xdooria-keyspace/pkg/prometheus"
)

// 指标结果标签
const (
	resultOK      = "ok"
	resultError   = "error"
	resultPartial = "partial"
)

// Metrics 键空间操作指标
// nil *Metrics 的所有方法都是空操作
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	roundTrips *prometheus.CounterVec
	scanned    *prometheus.CounterVec
}

// NewMetrics 在 client 上注册键空间指标
func NewMetrics(client *prometheus.Client) (*Metrics, error) {
	operations, err := client.NewCounter("keyspace_operations_total",
		"Key space operations by operation, deployment mode and result.",
		[]string{"op", "mode", "result"})
	if err != nil {
		return nil, errors.Wrap(err, "register keyspace_operations_total")
	}

	duration, err := client.NewHistogram("keyspace_operation_duration_seconds",
		"Key space operation latency.",
		[]string{"op", "mode"}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "register keyspace_operation_duration_seconds")
	}

	roundTrips, err := client.NewCounter("keyspace_scan_round_trips_total",
		"SCAN round trips issued while walking the key space.",
		[]string{"mode"})
	if err != nil {
		return nil, errors.Wrap(err, "register keyspace_scan_round_trips_total")
	}

	scanned, err := client.NewCounter("keyspace_scanned_keys_total",
		"Raw key entries returned by SCAN, duplicates included.",
		[]string{"mode"})
	if err != nil {
		return nil, errors.Wrap(err, "register keyspace_scanned_keys_total")
	}

	return &Metrics{
		operations: operations,
		duration:   duration,
		roundTrips: roundTrips,
		scanned:    scanned,
	}, nil
}

func (m *Metrics) observeOp(op string, mode redis.Mode, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, string(mode), resultLabel(err)).Inc()
	m.duration.WithLabelValues(op, string(mode)).Observe(elapsed.Seconds())
}

func (m *Metrics) observeWalk(mode redis.Mode, stats WalkStats) {
	if m == nil {
		return
	}
	m.roundTrips.WithLabelValues(string(mode)).Add(float64(stats.RoundTrips))
	m.scanned.WithLabelValues(string(mode)).Add(float64(stats.Entries))
}

func resultLabel(err error) string {
	if err == nil {
		return resultOK
	}
	var partial *PartialScanError
	if errors.As(err, &partial) && !partial.AllFailed() {
		return resultPartial
	}
	return resultError
}
