package handlers

import (
	"net/http"

	"HerShield/pkg/middleware"
	"HerShield/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetRateLimiterConfig 查看当前限流配置
func (h *Handlers) GetRateLimiterConfig(c *gin.Context) {
	if h.limiter == nil {
		response.FailWithStatus(c, http.StatusNotFound, "rate limiter disabled", nil)
		return
	}
	response.Success(c, "success", h.limiter.Config())
}

// UpdateRateLimiterConfig 更新限流配置
func (h *Handlers) UpdateRateLimiterConfig(c *gin.Context) {
	if h.limiter == nil {
		response.FailWithStatus(c, http.StatusNotFound, "rate limiter disabled", nil)
		return
	}
	var config middleware.RateLimiterConfig
	if err := c.ShouldBindJSON(&config); err != nil {
		response.Fail(c, "invalid request", nil)
		return
	}

	// 更新限流配置
	h.limiter.UpdateConfig(config)
	response.Success(c, "rate limiter config updated", config)
}

func ping(db *gorm.DB) string {
	sqlDB, err := db.DB()
	if err != nil {
		return "database connection failed"
	}
	if err := sqlDB.Ping(); err != nil {
		return "database ping failed"
	}
	return ""
}

// HealthCheck 健康检查接口
func (h *Handlers) HealthCheck(c *gin.Context) {
	// 检查数据库连接
	if msg := ping(h.db); msg != "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": msg})
		return
	}
	if h.alertDB != h.db {
		if msg := ping(h.alertDB); msg != "" {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "alert " + msg})
			return
		}
	}

	// 返回健康状态
	body := gin.H{"status": "healthy"}
	if h.hub != nil {
		body["live_feed_clients"] = h.hub.ClientCount()
	}
	c.JSON(http.StatusOK, body)
}
