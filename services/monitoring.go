package services

import (
	"runtime"
	"strconv"
	"sync"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/lac-hong-legacy/devscope/dto"
	"github.com/lac-hong-legacy/devscope/model"
)

const (
	MONITORING_SVC = "monitoring_svc"
	SERVICE_NAME   = "devscope"
)

// HTTP Metrics
var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"endpoint", "method", "status"},
	)

	httpRequestsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_requests_active",
			Help: "Number of active concurrent HTTP requests",
		},
		[]string{"method"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint", "method", "status"},
	)

	httpResponseSizeBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response payload size in bytes",
			Buckets: []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000, 1000000},
		},
		[]string{"endpoint", "method"},
	)
)

// Pipeline Metrics
var (
	submissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "submissions_total",
			Help: "Gateway decisions by job type, limiter class and outcome",
		},
		[]string{"type", "class", "outcome", "reason"},
	)

	pollTicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poll_ticks_total",
			Help: "Upstream poll ticks by result",
		},
		[]string{"result"},
	)

	pollTasksActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "poll_tasks_active",
			Help: "Number of running server-side polling tasks",
		},
	)

	jobsFinishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_finished_total",
			Help: "Analysis jobs that stopped polling, by terminal reason",
		},
		[]string{"outcome"},
	)
)

// System Metrics
var (
	heapAllocBytes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "heap_alloc_bytes",
			Help: "Heap memory allocated in bytes",
		},
	)

	heapSysBytes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "heap_sys_bytes",
			Help: "Heap memory obtained from system in bytes",
		},
	)

	gcTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gc_total",
			Help: "Total number of garbage collections",
		},
	)
)

// MonitoringService owns the metrics registry. Metrics are served by the
// HTTP service under /metrics.
type MonitoringService struct {
	appContext.DefaultService

	register *prometheus.Registry

	closeOnce   sync.Once
	closed      chan struct{}
	lastGCCount uint32
}

func NewMonitoringService() *MonitoringService {
	svc := &MonitoringService{}
	svc.init()
	return svc
}

func (svc MonitoringService) Id() string {
	return MONITORING_SVC
}

func (svc *MonitoringService) Configure(ctx *appContext.Context) error {
	svc.init()
	return svc.DefaultService.Configure(ctx)
}

func (svc *MonitoringService) init() {
	if svc.register != nil {
		return
	}
	svc.closed = make(chan struct{})

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	reg.MustRegister(
		httpRequestsTotal,
		httpRequestsActive,
		httpRequestDurationSeconds,
		httpResponseSizeBytes,
		submissionsTotal,
		pollTicksTotal,
		pollTasksActive,
		jobsFinishedTotal,
		heapAllocBytes,
		heapSysBytes,
		gcTotal,
	)
	svc.register = reg
}

func (svc *MonitoringService) Start() error {
	go svc.updateMemoryMetrics()
	log.Info().Msg("Metrics registry initialized")
	return nil
}

func (svc *MonitoringService) Shutdown() {
	svc.closeOnce.Do(func() {
		if svc.closed != nil {
			close(svc.closed)
		}
	})
}

func (svc *MonitoringService) Registry() *prometheus.Registry {
	return svc.register
}

// Handler serves the registry in the Prometheus exposition format.
func (svc *MonitoringService) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(svc.register, promhttp.HandlerOpts{}))
}

func (svc *MonitoringService) updateMemoryMetrics() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)

			heapAllocBytes.Set(float64(m.Alloc))
			heapSysBytes.Set(float64(m.Sys))

			if m.NumGC > svc.lastGCCount {
				gcTotal.Add(float64(m.NumGC - svc.lastGCCount))
				svc.lastGCCount = m.NumGC
			}

		case <-svc.closed:
			log.Info().Msg("Memory metrics updater stopped")
			return
		}
	}
}

// RecordSubmission counts one gateway decision.
func (svc *MonitoringService) RecordSubmission(jobType dto.JobType, class model.LimiterClass, outcome string, reason dto.RejectionReason) {
	submissionsTotal.WithLabelValues(string(jobType), string(class), outcome, string(reason)).Inc()
}

func (svc *MonitoringService) RecordPollTick(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	pollTicksTotal.WithLabelValues(result).Inc()
}

func (svc *MonitoringService) PollTaskStarted() {
	pollTasksActive.Inc()
}

func (svc *MonitoringService) PollTaskStopped(outcome string) {
	pollTasksActive.Dec()
	jobsFinishedTotal.WithLabelValues(outcome).Inc()
}

// RecordRequest records HTTP request metrics
func (svc *MonitoringService) RecordRequest(method, endpoint, status string, duration time.Duration, responseSize int) {
	httpRequestsTotal.WithLabelValues(endpoint, method, status).Inc()
	httpRequestDurationSeconds.WithLabelValues(endpoint, method, status).Observe(duration.Seconds())
	httpResponseSizeBytes.WithLabelValues(endpoint, method).Observe(float64(responseSize))
}

// MonitoringMiddleware creates a Fiber middleware for monitoring HTTP requests
func MonitoringMiddleware(monitoringSvc *MonitoringService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() == "/metrics" {
			return c.Next()
		}

		start := time.Now()
		method := c.Method()

		httpRequestsActive.WithLabelValues(method).Inc()
		defer httpRequestsActive.WithLabelValues(method).Dec()

		err := c.Next()

		// route pattern, not the raw path
		endpoint := c.Route().Path
		status := strconv.Itoa(c.Response().StatusCode())
		monitoringSvc.RecordRequest(method, endpoint, status, time.Since(start), len(c.Response().Body()))

		return err
	}
}
