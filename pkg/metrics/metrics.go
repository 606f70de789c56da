package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 指标管理器
//
// Every collector is registered on the Metrics' own registry so several
// instances (one per test server) can coexist. All record methods are safe on
// a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP请求指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// 业务指标
	smsMessagesTotal   *prometheus.CounterVec
	smsStatusTotal     *prometheus.CounterVec
	sosTriggersTotal   *prometheus.CounterVec
	locationUpdates    *prometheus.CounterVec
	assistantResponses *prometheus.CounterVec
	alertsExpired      prometheus.Counter
	rateLimited        *prometheus.CounterVec
}

// NewMetrics 创建指标管理器
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		smsMessagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sms_messages_total",
				Help: "SMS send attempts by result",
			},
			[]string{"result"},
		),

		smsStatusTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sms_status_callbacks_total",
				Help: "Delivery status callbacks reported by the SMS provider",
			},
			[]string{"status"},
		),

		sosTriggersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sos_triggers_total",
				Help: "SOS triggers by outcome",
			},
			[]string{"outcome"},
		),

		locationUpdates: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sos_location_updates_total",
				Help: "Location updates by outcome",
			},
			[]string{"outcome"},
		),

		assistantResponses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assistant_responses_total",
				Help: "Assistant answers by source",
			},
			[]string{"source"},
		),

		alertsExpired: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "alerts_expired_total",
				Help: "Active alerts moved to expired by the sweeper",
			},
		),

		rateLimited: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rate_limited_requests_total",
				Help: "Requests rejected by the rate limiter",
			},
			[]string{"path"},
		),
	}
}

// Registerer exposes the registry for collectors owned by other packages.
func (m *Metrics) Registerer() prometheus.Registerer {
	return m.registry
}

func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest 记录HTTP请求指标
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordSMS counts one send attempt; result is "delivered", "failed" or "unconfigured".
func (m *Metrics) RecordSMS(result string) {
	if m == nil {
		return
	}
	m.smsMessagesTotal.WithLabelValues(result).Inc()
}

// RecordSMSStatus counts a provider delivery callback (queued, sent, delivered, undelivered, ...).
func (m *Metrics) RecordSMSStatus(status string) {
	if m == nil {
		return
	}
	m.smsStatusTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordSOS(outcome string) {
	if m == nil {
		return
	}
	m.sosTriggersTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordLocationUpdate(outcome string) {
	if m == nil {
		return
	}
	m.locationUpdates.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordAssistant(source string) {
	if m == nil {
		return
	}
	m.assistantResponses.WithLabelValues(source).Inc()
}

func (m *Metrics) RecordAlertsExpired(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.alertsExpired.Add(float64(n))
}

func (m *Metrics) RecordRateLimited(path string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(path).Inc()
}
