package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"HerShield/pkg/cache"
	"HerShield/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type IdempotencyConfig struct {
	HeaderName string        // Idempotency-Key 的请求头名
	TTL        time.Duration // 决定一段时间内重复请求的拒绝窗口
	Store      cache.Cache
}

// IdempotencyMiddleware rejects a replayed Idempotency-Key with 409. Requests
// without the header pass through, so repeated location updates stay possible.
// Keys are scoped per user and route. A key whose request ended with a 4xx or
// 5xx status is released again.
func IdempotencyMiddleware(cfg IdempotencyConfig) gin.HandlerFunc {
	if cfg.HeaderName == "" {
		cfg.HeaderName = "Idempotency-Key"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(cfg.HeaderName))
		if key == "" || cfg.Store == nil {
			c.Next()
			return
		}
		owner := currentUserID(c)
		if owner == "" {
			owner = clientIPFromRequest(c)
		}
		scoped := "idem:" + owner + ":" + c.FullPath() + ":" + key

		ok, err := cfg.Store.SetNX(c.Request.Context(), scoped, time.Now().Unix(), cfg.TTL)
		if err != nil {
			logger.Warn("idempotency store failed", zap.String("key", scoped), zap.Error(err))
			c.Next()
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "duplicate request"})
			return
		}
		c.Next()

		// a failed attempt frees the key so the client can retry it
		if c.Writer.Status() >= http.StatusBadRequest {
			if err := cfg.Store.Delete(context.WithoutCancel(c.Request.Context()), scoped); err != nil {
				logger.Warn("idempotency release failed", zap.String("key", scoped), zap.Error(err))
			}
		}
	}
}
