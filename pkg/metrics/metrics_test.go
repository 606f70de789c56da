package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordSMS("delivered")
		m.RecordSOS("triggered")
		m.RecordAssistant("fallback")
		m.RecordAlertsExpired(3)
		m.RecordSMSStatus("delivered")
	})
}

func TestInstancesAreIndependent(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.RecordSMS("delivered")
	a.RecordSMS("failed")
	a.RecordSMS("failed")

	assert.Equal(t, 1.0, testutil.ToFloat64(a.smsMessagesTotal.WithLabelValues("delivered")))
	assert.Equal(t, 2.0, testutil.ToFloat64(a.smsMessagesTotal.WithLabelValues("failed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.smsMessagesTotal.WithLabelValues("failed")))

	b.RecordSMSStatus("undelivered")
	assert.Equal(t, 1.0, testutil.ToFloat64(b.smsStatusTotal.WithLabelValues("undelivered")))
}

func TestMonitorMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	r := gin.New()
	r.Use(MonitorMiddleware(m))
	r.GET("/ping/:id", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping/7", nil))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/ping/:id", "200")))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "http_requests_total"))
}
