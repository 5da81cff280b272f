package client

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// requestMetrics is nil when no registerer was configured; its methods are
// nil-safe.
type requestMetrics struct {
	requests        *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	transportErrors *prometheus.CounterVec
}

// newRequestMetrics registers the client's collectors with reg. Collectors
// already registered by another client on the same registry are shared.
func newRequestMetrics(reg prometheus.Registerer) (*requestMetrics, error) {
	if reg == nil {
		return nil, nil
	}

	requests, err := register(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "export_client_requests_total",
			Help: "Requests sent to the export API, by operation, method and HTTP status",
		},
		[]string{"operation", "method", "status"},
	))
	if err != nil {
		return nil, err
	}

	duration, err := register(reg, prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "export_client_request_duration_seconds",
			Help:    "Duration of requests sent to the export API",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "method"},
	))
	if err != nil {
		return nil, err
	}

	transportErrors, err := register(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "export_client_transport_errors_total",
			Help: "Requests that failed below HTTP, by operation and error code",
		},
		[]string{"operation", "code"},
	))
	if err != nil {
		return nil, err
	}

	return &requestMetrics{
		requests:        requests,
		duration:        duration,
		transportErrors: transportErrors,
	}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		var zero C
		return zero, err
	}

	return c, nil
}

func (m *requestMetrics) observe(operation string, method Method, res Result, elapsed time.Duration) {
	if m == nil {
		return
	}

	m.requests.WithLabelValues(operation, string(method), strconv.Itoa(res.StatusCode)).Inc()
	m.duration.WithLabelValues(operation, string(method)).Observe(elapsed.Seconds())

	if res.ErrorCode != CodeOK {
		m.transportErrors.WithLabelValues(operation, strconv.Itoa(int(res.ErrorCode))).Inc()
	}
}
