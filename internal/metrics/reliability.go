package metrics

import (
	"regexp"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reliabilityLabelSanitizer = regexp.MustCompile(`[^a-z0-9_]+`)

	buildFinalizationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "yantra",
			Subsystem: "reliability",
			Name:      "build_finalizations_total",
			Help:      "Total number of runtime image build finalizations by terminal status and reason",
		},
		[]string{"status", "reason"},
	)

	executionStallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "yantra",
			Subsystem: "reliability",
			Name:      "execution_stalls_total",
			Help:      "Total number of submissions force-finalized after their timeout elapsed without a worker response",
		},
		[]string{"language"},
	)
)

// RecordBuildFinalization records the terminal outcome of one image build,
// tagged with the reason the build took that path (e.g. "exit_nonzero",
// "timeout", "docker_error").
func RecordBuildFinalization(status, reason string) {
	buildFinalizationsTotal.WithLabelValues(
		sanitizeReliabilityLabel(status, "unknown"),
		sanitizeReliabilityLabel(reason, "unknown"),
	).Inc()
}

// RecordExecutionStall records a submission that never reached a terminal
// state within its configured timeout and had to be force-finalized.
func RecordExecutionStall(language string) {
	executionStallsTotal.WithLabelValues(
		sanitizeReliabilityLabel(language, "unknown"),
	).Inc()
}

func sanitizeReliabilityLabel(raw, fallback string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return fallback
	}
	s = reliabilityLabelSanitizer.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return fallback
	}
	if len(s) > 63 {
		s = s[:63]
	}
	return s
}
