package prometheus

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAppMetrics(t *testing.T) (*AppMetrics, MetricsCollector) {
	c := newTestCollector(t)
	m := NewAppMetrics(c)
	return m, c
}

func getMetricOutput(t *testing.T, collector MetricsCollector) string {
	return scrapeMetrics(t, collector)
}

func TestNewAppMetrics_AllMetricsRegistered(t *testing.T) {
	m, _ := newTestAppMetrics(t)
	require.NotNil(t, m)

	assert.NotNil(t, m.HTTPRequestsTotal)
	assert.NotNil(t, m.HTTPRequestDuration)
	assert.NotNil(t, m.IngestionRecordsTotal)
	assert.NotNil(t, m.IngestionBatchFlushTotal)
	assert.NotNil(t, m.WalkStepsTotal)
	assert.NotNil(t, m.WalkTerminationsTotal)
	assert.NotNil(t, m.SearchRequestsTotal)
	assert.NotNil(t, m.SearchFoundTotal)
	assert.NotNil(t, m.CompositionDiscoveredTotal)
	assert.NotNil(t, m.GraphNodesTotal)
}

func TestRecordHTTPRequest_AllMetricsUpdated(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordHTTPRequest(m, "GET", "/v1/atoms/97", 200, 100*time.Millisecond, 1024, 2048)

	output := getMetricOutput(t, c)
	assert.Contains(t, output, `test_unit_http_requests_total{method="GET",path="/v1/atoms/97",status_code="200"} 1`)
	assert.Contains(t, output, `test_unit_http_request_size_bytes_sum{method="GET",path="/v1/atoms/97"} 1024`)
	assert.Contains(t, output, `test_unit_http_response_size_bytes_sum{method="GET",path="/v1/atoms/97"} 2048`)
	assert.Contains(t, output, `test_unit_http_request_duration_seconds_count{method="GET",path="/v1/atoms/97"} 1`)
}

func TestRecordIngestion_Success(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordIngestion(m, "tatoeba", true, 50*time.Millisecond)

	output := getMetricOutput(t, c)
	assert.Contains(t, output, `test_unit_ingestion_records_total{source="tatoeba",status="success"} 1`)
}

func TestRecordIngestion_Failure(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordIngestion(m, "wiktionary", false, 10*time.Millisecond)

	output := getMetricOutput(t, c)
	assert.Contains(t, output, `test_unit_ingestion_records_total{source="wiktionary",status="failure"} 1`)
}

func TestRecordWalkTermination(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordWalkTermination(m, "goal_reached", 42, 0.3, 2*time.Second)

	output := getMetricOutput(t, c)
	assert.Contains(t, output, `test_unit_walk_terminations_total{reason="goal_reached"} 1`)
	assert.Contains(t, output, `test_unit_walk_steps_total{reason="goal_reached"} 42`)
}

func TestRecordSearch_Found(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordSearch(m, true, 128, 5*time.Millisecond)

	output := getMetricOutput(t, c)
	assert.Contains(t, output, `test_unit_search_found_total{found="true"} 1`)
	assert.Contains(t, output, `test_unit_search_requests_total{status="found"} 1`)
}

func TestRecordSearch_Exhausted(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordSearch(m, false, 9999, 200*time.Millisecond)

	output := getMetricOutput(t, c)
	assert.Contains(t, output, `test_unit_search_found_total{found="false"} 1`)
	assert.Contains(t, output, `test_unit_search_requests_total{status="exhausted"} 1`)
}

func TestRecordCompositionDiscovered(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordCompositionDiscovered(m, 3, 0.62)

	output := getMetricOutput(t, c)
	assert.Contains(t, output, `test_unit_composition_discovered_total{length="3"} 1`)
}

func TestRecordDBQuery_Success(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordDBQuery(m, "postgres", "select", 10*time.Millisecond, nil)

	output := getMetricOutput(t, c)
	assert.Contains(t, output, `test_unit_db_query_duration_seconds_count{db="postgres",operation="select"} 1`)
}

func TestRecordDBQuery_Error(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordDBQuery(m, "postgres", "insert", 5*time.Millisecond, errors.New("db error"))

	output := getMetricOutput(t, c)
	assert.Contains(t, output, `test_unit_db_query_duration_seconds_count{db="postgres",operation="insert"} 1`)
	assert.Contains(t, output, `test_unit_errors_total{component="postgres",error_type="query_error",severity="error"} 1`)
}

func TestRecordCacheAccess_Hit(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordCacheAccess(m, "redis", true)

	output := getMetricOutput(t, c)
	assert.Contains(t, output, `test_unit_cache_hits_total{cache="redis"} 1`)
}

func TestRecordCacheAccess_Miss(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordCacheAccess(m, "local", false)

	output := getMetricOutput(t, c)
	assert.Contains(t, output, `test_unit_cache_misses_total{cache="local"} 1`)
}

func TestMetricNaming_FollowsConvention(t *testing.T) {
	_, c := newTestAppMetrics(t)
	output := getMetricOutput(t, c)
	assert.NotEmpty(t, strings.TrimSpace(output))
}

func TestDefaultBuckets(t *testing.T) {
	assert.NotNil(t, DefaultHTTPDurationBuckets)
	assert.NotNil(t, DefaultAnalysisDurationBuckets)
	assert.NotNil(t, DefaultDBDurationBuckets)
}

func TestConcurrentMetricRecording(t *testing.T) {
	m, _ := newTestAppMetrics(t)

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				RecordHTTPRequest(m, "GET", "/path", 200, time.Millisecond, 10, 10)
			}
			done <- true
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}
