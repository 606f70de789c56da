package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"HerShield/pkg/cache"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingObserver struct{ denied map[string]int }

func (o *countingObserver) RecordRateLimited(route string) { o.denied[route]++ }

func withUser(id uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id != 0 {
			c.Set("user_id", id)
		}
		c.Next()
	}
}

func do(r http.Handler, method, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiterPerUserAndRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	obs := &countingObserver{denied: map[string]int{}}
	rl := NewRateLimiter(RateLimiterConfig{
		Rate:          "100-M",
		PerRouteRates: map[string]string{"/sos": "2-M"},
		Identifier:    "user",
		AddHeaders:    true,
	}, nil).WithObserver(obs)

	newRouter := func(uid uint) *gin.Engine {
		r := gin.New()
		r.Use(withUser(uid), rl.Middleware())
		r.POST("/sos", func(c *gin.Context) { c.Status(http.StatusOK) })
		r.POST("/chatbot", func(c *gin.Context) { c.Status(http.StatusOK) })
		return r
	}
	alice, bob := newRouter(1), newRouter(2)

	assert.Equal(t, http.StatusOK, do(alice, http.MethodPost, "/sos", nil).Code)
	assert.Equal(t, http.StatusOK, do(alice, http.MethodPost, "/sos", nil).Code)
	w := do(alice, http.MethodPost, "/sos", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, 1, obs.denied["/sos"])

	// other users and other routes keep their own budget
	assert.Equal(t, http.StatusOK, do(bob, http.MethodPost, "/sos", nil).Code)
	assert.Equal(t, http.StatusOK, do(alice, http.MethodPost, "/chatbot", nil).Code)
}

func TestRateLimiterSkipAndWhitelist(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(RateLimiterConfig{
		Rate:           "1-M",
		SkipPaths:      []string{"/api/system/health"},
		WhitelistCIDRs: []string{"10.0.0.0/8"},
	}, nil)
	r := gin.New()
	r.Use(rl.Middleware())
	r.GET("/api/system/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/system/health", nil).Code)
	}
	assert.Len(t, rl.whitelist(), 1)

	rl.UpdateConfig(RateLimiterConfig{Rate: "5-S"})
	assert.Equal(t, "5-S", rl.Config().Rate)
	assert.Empty(t, rl.whitelist())
}

func TestIdempotencyMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store, err := cache.NewCache(cache.Config{Type: "gocache", Local: cache.LocalConfig{DefaultExpiration: time.Minute}})
	require.NoError(t, err)
	defer store.Close()

	calls := 0
	r := gin.New()
	r.Use(withUser(7), IdempotencyMiddleware(IdempotencyConfig{Store: store}))
	r.POST("/sos", func(c *gin.Context) {
		calls++
		c.Status(http.StatusOK)
	})

	key := map[string]string{"Idempotency-Key": "abc"}
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/sos", key).Code)
	assert.Equal(t, http.StatusConflict, do(r, http.MethodPost, "/sos", key).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/sos", nil).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/sos", nil).Code)
	assert.Equal(t, 3, calls)
}

func TestIdempotencyReleasesFailedAttempt(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store, err := cache.NewCache(cache.Config{Type: "gocache", Local: cache.LocalConfig{DefaultExpiration: time.Minute}})
	require.NoError(t, err)
	defer store.Close()

	statuses := []int{http.StatusBadRequest, http.StatusInternalServerError, http.StatusOK}
	calls := 0
	r := gin.New()
	r.Use(withUser(7), IdempotencyMiddleware(IdempotencyConfig{Store: store}))
	r.POST("/sos", func(c *gin.Context) {
		c.Status(statuses[calls])
		calls++
	})

	key := map[string]string{"Idempotency-Key": "retry-me"}
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/sos", key).Code)
	assert.Equal(t, http.StatusInternalServerError, do(r, http.MethodPost, "/sos", key).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/sos", key).Code)
	assert.Equal(t, http.StatusConflict, do(r, http.MethodPost, "/sos", key).Code)
	assert.Equal(t, 3, calls)
}

func TestAccessLogRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AccessLogMiddleware())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	w := do(r, http.MethodGet, "/x", map[string]string{"User-Agent": "Mozilla/5.0 (Linux; Android 10)"})
	_, err := uuid.Parse(w.Header().Get(RequestIDHeader))
	assert.NoError(t, err)
	assert.Equal(t, w.Header().Get(RequestIDHeader), w.Body.String())

	given := uuid.NewString()
	w = do(r, http.MethodGet, "/x", map[string]string{RequestIDHeader: given})
	assert.Equal(t, given, w.Body.String())
}
