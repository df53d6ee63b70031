package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/bnema/donation-portal/internal/application"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "donation_portal"

// Metrics owns a private registry so tests can build several servers.
type Metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	donations       *prometheus.CounterVec
	donatedAmount   prometheus.Counter
	pulls           *prometheus.CounterVec
	publicTotal     prometheus.Gauge
	lifetimeTotal   prometheus.Gauge
	donationCount   prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		donations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "donations_total",
			Help:      "Donation attempts by result.",
		}, []string{"result"}),
		donatedAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "donated_amount_total",
			Help:      "Sum of accepted donation amounts since process start.",
		}),
		pulls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "pulls_total",
			Help:      "Pull attempts by result.",
		}, []string{"result"}),
		publicTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "public_total",
			Help:      "Current public donation bucket.",
		}),
		lifetimeTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "lifetime_total",
			Help:      "Sum of every accepted donation.",
		}),
		donationCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "donation_count",
			Help:      "Number of recorded donations.",
		}),
	}

	m.registry.MustRegister(
		m.requests,
		m.requestDuration,
		m.donations,
		m.donatedAmount,
		m.pulls,
		m.publicTotal,
		m.lifetimeTotal,
		m.donationCount,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}

func (m *Metrics) observeRequest(method, route string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) observeDonation(result string, amount int64) {
	m.donations.WithLabelValues(result).Inc()
	if result == resultAccepted {
		m.donatedAmount.Add(float64(amount))
	}
}

func (m *Metrics) observePull(result string) {
	m.pulls.WithLabelValues(result).Inc()
}

func (m *Metrics) observeLedger(summary application.Summary) {
	m.publicTotal.Set(float64(summary.PublicTotal))
	m.lifetimeTotal.Set(float64(summary.LifetimeTotal))
	m.donationCount.Set(float64(summary.DonationCount))
}
