// Package metrics provides Prometheus metrics for the coaching marketplace API.
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns the service's Prometheus collectors.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         *prometheus.Registry

	// Session workflow
	sessionTransitions *prometheus.CounterVec
	bookings           *prometheus.CounterVec
	ratingsSubmitted   *prometheus.CounterVec
	coachAverageRating prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Realtime
	wsConnections prometheus.Gauge
	wsDropped     prometheus.Counter
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "coachmarket",
		subsystem:        "api",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
	}

	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.sessionTransitions = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "session_transitions_total",
			Help:      "Session status change requests by requested status and outcome",
		},
		[]string{"status", "outcome"},
	)

	m.bookings = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "session_bookings_total",
			Help:      "Session booking requests by outcome",
		},
		[]string{"outcome"},
	)

	m.ratingsSubmitted = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "ratings_submitted_total",
			Help:      "Committed session ratings by value",
		},
		[]string{"value"},
	)

	m.coachAverageRating = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "coach_average_rating",
		Help:      "Coach average rating observed after each rating write",
		Buckets:   []float64{1, 1.5, 2, 2.5, 3, 3.5, 4, 4.5, 5},
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code",
		},
		[]string{"route", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"route", "method"},
	)

	m.wsConnections = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ws_connections",
		Help:      "Open session event feed connections",
	})

	m.wsDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ws_events_dropped_total",
		Help:      "Session events dropped because the hub or a client buffer was full",
	})
}

func (m *Manager) RecordTransition(status string, outcome string) {
	if !m.enabled {
		return
	}
	m.sessionTransitions.WithLabelValues(status, outcome).Inc()
}

func (m *Manager) RecordBooking(outcome string) {
	if !m.enabled {
		return
	}
	m.bookings.WithLabelValues(outcome).Inc()
}

func (m *Manager) RecordRating(value int, coachAverage float64) {
	if !m.enabled {
		return
	}
	m.ratingsSubmitted.WithLabelValues(strconv.Itoa(value)).Inc()
	m.coachAverageRating.Observe(coachAverage)
}

func (m *Manager) ConnectionOpened() {
	if m.enabled {
		m.wsConnections.Inc()
	}
}

func (m *Manager) ConnectionClosed() {
	if m.enabled {
		m.wsConnections.Dec()
	}
}

func (m *Manager) EventDropped() {
	if m.enabled {
		m.wsDropped.Inc()
	}
}

// Middleware records request counts and latency per matched route.
func (m *Manager) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !m.enabled {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fiberErr, ok := err.(*fiber.Error); ok {
				status = fiberErr.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		route := c.Route().Path
		method := c.Method()
		m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
		m.httpRequestDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Manager) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}
