package metrics

import (
	"regexp"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// LoginsTotal counts login attempts by result (success, invalid, error).
	LoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messagely_logins_total",
			Help: "Total number of login attempts by result",
		},
		[]string{"result"},
	)

	// MessagesSentTotal counts messages created.
	MessagesSentTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "messagely_messages_sent_total",
			Help: "Total number of messages sent",
		},
	)

	// MessagesReadTotal counts messages marked read.
	MessagesReadTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "messagely_messages_read_total",
			Help: "Total number of messages marked read",
		},
	)
)

var (
	numericPathSegment = regexp.MustCompile(`/[0-9]+(/|$)`)
	initOnce           sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestDuration, RequestTotal, LoginsTotal, MessagesSentTotal, MessagesReadTotal)
	})
}

// NormalizePath reduces cardinality by replacing numeric path segments with {id}.
// E.g. /messages/123 -> /messages/{id}, /messages/45/read -> /messages/{id}/read.
func NormalizePath(path string) string {
	return numericPathSegment.ReplaceAllString(path, "/{id}$1")
}

// RecordRequest records duration and count for an HTTP request.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// IncLogin increments the login counter for result (success, invalid, error).
func IncLogin(result string) {
	LoginsTotal.WithLabelValues(result).Inc()
}

func IncMessagesSent() {
	MessagesSentTotal.Inc()
}

func IncMessagesRead() {
	MessagesReadTotal.Inc()
}
