// Package metrics provides Prometheus instrumentation for the moderation
// service: counters for pipeline outcomes and enforcement actions, and a
// histogram for end-to-end message processing latency.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// MessagesChecked counts classification attempts that actually ran.
	MessagesChecked = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storozh_messages_checked_total",
		Help: "Total number of messages run through the classifier chain",
	})

	// MessagesDeleted counts deletion decisions, labeled by rejection
	// category: "forbidden_chars", "link", or "profanity".
	MessagesDeleted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storozh_messages_deleted_total",
		Help: "Total number of message deletion decisions",
	}, []string{"category"})

	// UsersBanned counts ban decisions, including ones the transport
	// refused.
	UsersBanned = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storozh_users_banned_total",
		Help: "Total number of ban decisions",
	})

	// TranscriptionFailures counts voice messages that could not be
	// transcribed and therefore went unmoderated.
	TranscriptionFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storozh_transcription_failures_total",
		Help: "Total number of failed voice transcription attempts",
	})

	// PrivilegeLookupFailures counts degraded privilege checks that fell
	// through to in-scope moderation.
	PrivilegeLookupFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storozh_privilege_lookup_failures_total",
		Help: "Total number of failed chat member privilege lookups",
	})

	// ProcessingDuration records full pipeline latency per message,
	// including transcription and enforcement round trips.
	ProcessingDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "storozh_processing_duration_seconds",
		Help:    "End-to-end message processing latency in seconds",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	})
)

func init() {
	prometheus.MustRegister(
		MessagesChecked,
		MessagesDeleted,
		UsersBanned,
		TranscriptionFailures,
		PrivilegeLookupFailures,
		ProcessingDuration,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
