// Package metrics exposes Prometheus collectors for the triage pipeline.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "telehealth_triage"

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

var (
	findingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "findings_synthesized_total",
			Help:      "Findings syntheses partitioned by the strategy that produced the result.",
		},
		[]string{"source"},
	)

	artifactFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consensus_artifact_failures_total",
			Help:      "Consensus artifacts that could not be parsed and were skipped.",
		},
	)

	queueBuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_builds_total",
			Help:      "Specialist queue builds partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	queueBuildSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "queue_build_seconds",
			Help:      "Specialist queue build latency in seconds.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	queueSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "queue_size",
			Help:      "Number of cases returned per specialist queue build.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250},
		},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests partitioned by route, method and status code.",
		},
		[]string{"route", "method", "code"},
	)

	httpRequestSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
)

// Register attaches the triage collectors to reg. Collectors that are
// already registered are skipped.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		findingsTotal,
		artifactFailuresTotal,
		queueBuildsTotal,
		queueBuildSeconds,
		queueSize,
		httpRequestsTotal,
		httpRequestSeconds,
	}
	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveFindings counts one synthesis answered by source. An empty source
// means the patient had no analysis session.
func ObserveFindings(source string) {
	if source == "" {
		source = "none"
	}
	findingsTotal.WithLabelValues(source).Inc()
}

// ObserveArtifactFailure counts a consensus artifact that failed to parse.
func ObserveArtifactFailure() {
	artifactFailuresTotal.Inc()
}

// ObserveQueueBuild records a queue build duration, outcome and size.
func ObserveQueueBuild(duration time.Duration, outcome string, size int) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	queueBuildsTotal.WithLabelValues(label).Inc()
	if duration < 0 {
		duration = 0
	}
	queueBuildSeconds.Observe(duration.Seconds())
	if label == OutcomeSuccess {
		queueSize.Observe(float64(size))
	}
}

// Middleware records request counts and latency keyed by the matched route
// template, so path parameters do not explode label cardinality.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			var he *echo.HTTPError
			switch {
			case errors.As(err, &he):
				status = he.Code
			case err != nil:
				// echo's error handler answers 500 for plain errors.
				status = http.StatusInternalServerError
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			httpRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
			httpRequestSeconds.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
