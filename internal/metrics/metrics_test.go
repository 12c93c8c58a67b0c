package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestGetReturnsSameSingletonInstance(t *testing.T) {
	require.Same(t, Get(), Get())
}

func TestRecordHTTPRequestBucketsStatusByClass(t *testing.T) {
	m := Get()
	before := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("/submit", "POST", "2xx"))

	m.RecordHTTPRequest("/submit", "POST", 201, 10*time.Millisecond, 128)

	after := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("/submit", "POST", "2xx"))
	require.Equal(t, before+1, after)
}

func TestRecordExecutionIncrementsByLanguageAndStatus(t *testing.T) {
	m := Get()
	before := testutil.ToFloat64(m.ExecutionsTotal.WithLabelValues("python-3.12", "COMPLETED"))

	m.RecordExecution("python-3.12", "COMPLETED", 250*time.Millisecond)

	after := testutil.ToFloat64(m.ExecutionsTotal.WithLabelValues("python-3.12", "COMPLETED"))
	require.Equal(t, before+1, after)
}

func TestSetQueueDepthOverwritesPreviousValue(t *testing.T) {
	m := Get()

	m.SetQueueDepth("job_queue", 3)
	require.Equal(t, float64(3), testutil.ToFloat64(m.QueueDepth.WithLabelValues("job_queue")))

	m.SetQueueDepth("job_queue", 0)
	require.Equal(t, float64(0), testutil.ToFloat64(m.QueueDepth.WithLabelValues("job_queue")))
}

func TestRecordDBQueryOnlyCountsErrorsOnFailure(t *testing.T) {
	m := Get()
	before := testutil.ToFloat64(m.DBErrorsTotal.WithLabelValues("select", "query_error"))

	m.RecordDBQuery("select", "submissions", 5*time.Millisecond, nil)
	require.Equal(t, before, testutil.ToFloat64(m.DBErrorsTotal.WithLabelValues("select", "query_error")))

	m.RecordDBQuery("select", "submissions", 5*time.Millisecond, require.AnError)
	require.Equal(t, before+1, testutil.ToFloat64(m.DBErrorsTotal.WithLabelValues("select", "query_error")))
}

func TestRecordBuildFinalizationSanitizesLabels(t *testing.T) {
	before := testutil.ToFloat64(buildFinalizationsTotal.WithLabelValues("failed", "exit_nonzero"))

	RecordBuildFinalization("Failed", "Exit-Nonzero")

	after := testutil.ToFloat64(buildFinalizationsTotal.WithLabelValues("failed", "exit_nonzero"))
	require.Equal(t, before+1, after)
}

func TestRecordExecutionStallFallsBackOnBlankLanguage(t *testing.T) {
	before := testutil.ToFloat64(executionStallsTotal.WithLabelValues("unknown"))

	RecordExecutionStall("   ")

	after := testutil.ToFloat64(executionStallsTotal.WithLabelValues("unknown"))
	require.Equal(t, before+1, after)
}
