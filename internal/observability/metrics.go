package observability

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/taskmaster-backend/internal/platform/logger"
)

const defaultScrapeInterval = 15 * time.Second

// Metrics is the process-wide metric set. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	apiRequests  *CounterVec
	apiLatency   *HistogramVec
	apiInflight  *Gauge
	events       *CounterVec
	blobOps      *CounterVec
	blobLatency  *HistogramVec
	sweepResults *CounterVec
	dbStats      *GaugeVec
	redisUp      *Gauge
	redisPing    *Gauge
}

func NewMetrics() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("tm_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"tm_api_request_duration_seconds",
			"API request latency in seconds by method/route.",
			[]string{"method", "route"},
			[]float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		),
		apiInflight: NewGauge("tm_api_inflight_requests", "In-flight API requests."),
		events:      NewCounterVec("tm_events_published_total", "Change events handed to the event bus by type/result.", []string{"event", "result"}),
		blobOps:     NewCounterVec("tm_blob_operations_total", "Blob store operations by operation/result.", []string{"operation", "result"}),
		blobLatency: NewHistogramVec(
			"tm_blob_operation_duration_seconds",
			"Blob store latency in seconds by operation.",
			[]string{"operation"},
			[]float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 5, 30},
		),
		sweepResults: NewCounterVec("tm_orphan_sweep_blobs_total", "Orphaned blobs handled by the sweeper by result.", []string{"result"}),
		dbStats:      NewGaugeVec("tm_db_pool", "database/sql pool statistics.", []string{"stat"}),
		redisUp:      NewGauge("tm_redis_up", "1 when the event bus Redis answers PING."),
		redisPing:    NewGauge("tm_redis_ping_seconds", "Latency of the last Redis PING."),
	}
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	writers := []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.events,
		m.blobOps, m.blobLatency,
		m.sweepResults,
		m.dbStats, m.redisUp, m.redisPing,
	}
	for _, mw := range writers {
		if err := mw.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unmatched"
	}
	m.apiRequests.Inc(method, route, strconv.Itoa(status))
	m.apiLatency.Observe(dur.Seconds(), method, route)
}

func (m *Metrics) APIInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) APIInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveEventPublish(eventType string, err error) {
	if m == nil {
		return
	}
	m.events.Inc(eventType, result(err))
}

func (m *Metrics) ObserveBlobOperation(operation string, err error, dur time.Duration) {
	if m == nil {
		return
	}
	m.blobOps.Inc(operation, result(err))
	m.blobLatency.Observe(dur.Seconds(), operation)
}

func (m *Metrics) ObserveSweep(deleted, failed int) {
	if m == nil {
		return
	}
	m.sweepResults.Add(float64(deleted), "deleted")
	m.sweepResults.Add(float64(failed), "failed")
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (m *Metrics) StartPostgresCollector(ctx context.Context, log *logger.Logger, db *gorm.DB, interval time.Duration) {
	if m == nil || db == nil {
		return
	}
	if interval <= 0 {
		interval = defaultScrapeInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.dbStats.Set(float64(stats.OpenConnections), "open_connections")
				m.dbStats.Set(float64(stats.InUse), "in_use")
				m.dbStats.Set(float64(stats.Idle), "idle")
				m.dbStats.Set(float64(stats.WaitCount), "wait_count")
				m.dbStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
				m.dbStats.Set(float64(stats.MaxOpenConnections), "max_open_connections")
			}
		}
	}()
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, opts *redis.Options, interval time.Duration) {
	if m == nil || opts == nil || strings.TrimSpace(opts.Addr) == "" {
		return
	}
	if interval <= 0 {
		interval = defaultScrapeInterval
	}
	rdb := redis.NewClient(opts)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = rdb.Close()
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}
