package metrics

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the service's Prometheus instruments. All recording
// methods are safe to call on a nil *Collector.
type Collector struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InFlightGauge   prometheus.Gauge

	DoctorsRegisteredTotal prometheus.Counter
	LoginAttemptsTotal     *prometheus.CounterVec
	PatientsCreatedTotal   prometheus.Counter
	PatientsDeletedTotal   prometheus.Counter

	StoreQueryDuration *prometheus.HistogramVec
}

// NewCollector registers the instruments with reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewCollector(serviceName string, reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	namespace := strings.NewReplacer("-", "_", ".", "_").Replace(serviceName)

	return &Collector{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, path, and status code.",
		}, []string{"method", "path", "status"}),

		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency distribution.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "path", "status"}),

		InFlightGauge: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),

		DoctorsRegisteredTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "doctors_registered_total",
			Help:      "Total number of doctor accounts registered.",
		}),

		LoginAttemptsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "login_attempts_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),

		PatientsCreatedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "clinical",
			Name:      "patients_created_total",
			Help:      "Total number of patient records created.",
		}),

		PatientsDeletedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "clinical",
			Name:      "patients_deleted_total",
			Help:      "Total number of patient records deleted.",
		}),

		StoreQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "query_duration_seconds",
			Help:      "Store operation latency distribution.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		}, []string{"operation", "collection"}),
	}
}

func (c *Collector) DoctorRegistered() {
	if c == nil {
		return
	}
	c.DoctorsRegisteredTotal.Inc()
}

func (c *Collector) LoginAttempt(success bool) {
	if c == nil {
		return
	}
	result := "failure"
	if success {
		result = "success"
	}
	c.LoginAttemptsTotal.WithLabelValues(result).Inc()
}

func (c *Collector) PatientCreated() {
	if c == nil {
		return
	}
	c.PatientsCreatedTotal.Inc()
}

func (c *Collector) PatientDeleted() {
	if c == nil {
		return
	}
	c.PatientsDeletedTotal.Inc()
}

// ObserveStore records the latency of a store call that began at start.
// Use as: defer m.ObserveStore("find", "patients", time.Now())
func (c *Collector) ObserveStore(operation, collection string, start time.Time) {
	if c == nil {
		return
	}
	c.StoreQueryDuration.WithLabelValues(operation, collection).Observe(time.Since(start).Seconds())
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
