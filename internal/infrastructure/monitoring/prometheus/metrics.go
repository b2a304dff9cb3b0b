package prometheus

import (
	"fmt"
	"time"
)

// AppMetrics holds all application metrics.
type AppMetrics struct {
	// HTTP Layer
	HTTPRequestsTotal     CounterVec
	HTTPRequestDuration   HistogramVec
	HTTPRequestSize       HistogramVec
	HTTPResponseSize      HistogramVec
	HTTPActiveRequests    GaugeVec

	// Ingestion Layer
	IngestionRecordsTotal    CounterVec
	IngestionDuration        HistogramVec
	IngestionBatchFlushTotal CounterVec
	IngestionQueueDepth      GaugeVec
	IngestionFlushRetries    CounterVec

	// Walk Layer
	WalkStepsTotal         CounterVec
	WalkDuration           HistogramVec
	WalkTerminationsTotal  CounterVec
	WalkEnergyRemaining    HistogramVec

	// Search (A*) Layer
	SearchRequestsTotal   CounterVec
	SearchDuration        HistogramVec
	SearchNodesExpanded   HistogramVec
	SearchFoundTotal      CounterVec

	// Composition Discovery Layer
	CompositionDiscoveredTotal CounterVec
	CompositionNPMI            HistogramVec
	AtomSeedCoverage           GaugeVec

	// Graph Layer
	GraphNodesTotal       GaugeVec
	GraphEdgesTotal       GaugeVec
	GraphQueryDuration    HistogramVec
	GraphBuildDuration    HistogramVec

	// Infrastructure Layer
	DBConnectionPoolSize  GaugeVec
	DBConnectionPoolActive GaugeVec
	DBQueryDuration       HistogramVec
	CacheHitsTotal        CounterVec
	CacheMissesTotal      CounterVec
	MessageQueueDepth     GaugeVec
	MessageProcessDuration HistogramVec

	// System Health
	ServiceUptime         GaugeVec
	HealthCheckStatus     GaugeVec
	ErrorsTotal           CounterVec
}

// Default Buckets
var (
	DefaultHTTPDurationBuckets     = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultAnalysisDurationBuckets = []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800, 3600}
	DefaultSizeBuckets             = []float64{100, 1000, 10000, 100000, 1000000, 10000000}
	DefaultDBDurationBuckets       = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5}
)

// NewAppMetrics registers all metrics and returns AppMetrics struct.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	// HTTP
	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPRequestSize = collector.RegisterHistogram("http_request_size_bytes", "HTTP request size", DefaultSizeBuckets, "method", "path")
	m.HTTPResponseSize = collector.RegisterHistogram("http_response_size_bytes", "HTTP response size", DefaultSizeBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "Active HTTP requests", "method", "path")

	// Ingestion
	m.IngestionRecordsTotal = collector.RegisterCounter("ingestion_records_total", "Ingested source records", "source", "status")
	m.IngestionDuration = collector.RegisterHistogram("ingestion_duration_seconds", "Per-record ingestion duration", DefaultHTTPDurationBuckets, "source")
	m.IngestionBatchFlushTotal = collector.RegisterCounter("ingestion_batch_flush_total", "Flusher batch commits", "status")
	m.IngestionQueueDepth = collector.RegisterGauge("ingestion_queue_depth", "AsyncFlusher queue depth", "worker")
	m.IngestionFlushRetries = collector.RegisterCounter("ingestion_flush_retries_total", "Flusher retry attempts", "reason")

	// Walk
	m.WalkStepsTotal = collector.RegisterCounter("walk_steps_total", "WalkEngine steps taken", "outcome")
	m.WalkDuration = collector.RegisterHistogram("walk_duration_seconds", "Walk trajectory wall-clock duration", DefaultHTTPDurationBuckets, "reason")
	m.WalkTerminationsTotal = collector.RegisterCounter("walk_terminations_total", "Walk trajectory terminations", "reason")
	m.WalkEnergyRemaining = collector.RegisterHistogram("walk_energy_remaining", "Residual energy at walk termination", []float64{0, .05, .1, .25, .5, .75, 1}, "reason")

	// Search (A*)
	m.SearchRequestsTotal = collector.RegisterCounter("search_requests_total", "A* search requests", "status")
	m.SearchDuration = collector.RegisterHistogram("search_duration_seconds", "A* search wall-clock duration", DefaultHTTPDurationBuckets, "found")
	m.SearchNodesExpanded = collector.RegisterHistogram("search_nodes_expanded", "Nodes expanded per A* search", []float64{1, 10, 50, 100, 500, 1000, 5000, 10000}, "found")
	m.SearchFoundTotal = collector.RegisterCounter("search_found_total", "A* searches that reached a goal", "found")

	// Composition discovery
	m.CompositionDiscoveredTotal = collector.RegisterCounter("composition_discovered_total", "Compositions discovered by the n-gram extractor", "length")
	m.CompositionNPMI = collector.RegisterHistogram("composition_npmi", "NPMI of discovered compositions", []float64{-1, -.5, 0, .25, .5, .75, 1}, "length")
	m.AtomSeedCoverage = collector.RegisterGauge("atom_seed_coverage_ratio", "Fraction of Unicode codepoints with a seeded atom", "plane")

	// Graph
	m.GraphNodesTotal = collector.RegisterGauge("graph_nodes_total", "Graph nodes total", "node_type")
	m.GraphEdgesTotal = collector.RegisterGauge("graph_edges_total", "Graph edges total", "edge_type")
	m.GraphQueryDuration = collector.RegisterHistogram("graph_query_duration_seconds", "Graph query duration", DefaultDBDurationBuckets, "query_type")
	m.GraphBuildDuration = collector.RegisterHistogram("graph_build_duration_seconds", "Graph build duration", DefaultAnalysisDurationBuckets, "operation")

	// Infrastructure
	m.DBConnectionPoolSize = collector.RegisterGauge("db_pool_size", "Database connection pool size", "db")
	m.DBConnectionPoolActive = collector.RegisterGauge("db_pool_active", "Database active connections", "db")
	m.DBQueryDuration = collector.RegisterHistogram("db_query_duration_seconds", "Database query duration", DefaultDBDurationBuckets, "db", "operation")
	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Cache misses", "cache")
	m.MessageQueueDepth = collector.RegisterGauge("mq_depth", "Message queue depth", "queue")
	m.MessageProcessDuration = collector.RegisterHistogram("mq_process_duration_seconds", "Message processing duration", DefaultHTTPDurationBuckets, "queue", "message_type")

	// System Health
	m.ServiceUptime = collector.RegisterGauge("service_uptime_seconds", "Service uptime", "service")
	m.HealthCheckStatus = collector.RegisterGauge("health_check_status", "Health check status (1=up, 0=down)", "component")
	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Total errors", "component", "error_type", "severity")

	return m
}

// RegisterAppMetrics is an alias for NewAppMetrics.
func RegisterAppMetrics(collector MetricsCollector) *AppMetrics {
	return NewAppMetrics(collector)
}

// Helpers

func RecordHTTPRequest(metrics *AppMetrics, method, path string, statusCode int, duration time.Duration, reqSize, respSize int64) {
	status := fmt.Sprintf("%d", statusCode)
	metrics.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	metrics.HTTPRequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	metrics.HTTPResponseSize.WithLabelValues(method, path).Observe(float64(respSize))
}

func RecordIngestion(metrics *AppMetrics, source string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	metrics.IngestionRecordsTotal.WithLabelValues(source, status).Inc()
	metrics.IngestionDuration.WithLabelValues(source).Observe(duration.Seconds())
}

func RecordWalkTermination(metrics *AppMetrics, reason string, steps int, energyRemaining float64, duration time.Duration) {
	metrics.WalkStepsTotal.WithLabelValues(reason).Add(float64(steps))
	metrics.WalkTerminationsTotal.WithLabelValues(reason).Inc()
	metrics.WalkEnergyRemaining.WithLabelValues(reason).Observe(energyRemaining)
	metrics.WalkDuration.WithLabelValues(reason).Observe(duration.Seconds())
}

func RecordSearch(metrics *AppMetrics, found bool, nodesExpanded int, duration time.Duration) {
	foundLabel := "false"
	if found {
		foundLabel = "true"
	}
	status := "found"
	if !found {
		status = "exhausted"
	}
	metrics.SearchRequestsTotal.WithLabelValues(status).Inc()
	metrics.SearchFoundTotal.WithLabelValues(foundLabel).Inc()
	metrics.SearchNodesExpanded.WithLabelValues(foundLabel).Observe(float64(nodesExpanded))
	metrics.SearchDuration.WithLabelValues(foundLabel).Observe(duration.Seconds())
}

func RecordCompositionDiscovered(metrics *AppMetrics, length int, npmi float64) {
	lengthLabel := fmt.Sprintf("%d", length)
	metrics.CompositionDiscoveredTotal.WithLabelValues(lengthLabel).Inc()
	metrics.CompositionNPMI.WithLabelValues(lengthLabel).Observe(npmi)
}

func RecordDBQuery(metrics *AppMetrics, db, operation string, duration time.Duration, err error) {
	metrics.DBQueryDuration.WithLabelValues(db, operation).Observe(duration.Seconds())
	if err != nil {
		metrics.ErrorsTotal.WithLabelValues(db, "query_error", "error").Inc()
	}
}

func RecordCacheAccess(metrics *AppMetrics, cache string, hit bool) {
	if hit {
		metrics.CacheHitsTotal.WithLabelValues(cache).Inc()
	} else {
		metrics.CacheMissesTotal.WithLabelValues(cache).Inc()
	}
}

func RecordError(metrics *AppMetrics, component, errorType, severity string) {
	metrics.ErrorsTotal.WithLabelValues(component, errorType, severity).Inc()
}
