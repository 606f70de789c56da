package handlers

import (
	"errors"
	"io"
	"net/http"

	"HerShield/internal/models"
	"HerShield/pkg/logger"
	"HerShield/pkg/response"
	"HerShield/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

const maxAlertPage = 200

// handleListAlerts 管理员查看警报列表，最新的在前
func (h *Handlers) handleListAlerts(c *gin.Context) {
	filter := models.AlertFilter{
		Status: c.Query("status"),
		UserID: cast.ToUint(c.Query("user_id")),
		Limit:  cast.ToInt(c.DefaultQuery("limit", "50")),
		Offset: cast.ToInt(c.Query("offset")),
	}
	if filter.Limit <= 0 || filter.Limit > maxAlertPage {
		filter.Limit = maxAlertPage
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	alerts, err := models.ListAlerts(h.alertDB, filter)
	if err != nil {
		jsonError(c, err)
		return
	}
	response.Success(c, "success", gin.H{"alerts": alerts, "limit": filter.Limit, "offset": filter.Offset})
}

func (h *Handlers) handleGetAlert(c *gin.Context) {
	id := cast.ToUint(c.Param("id"))
	alert, err := models.GetAlert(h.alertDB, id)
	if err != nil {
		jsonError(c, err)
		return
	}
	actions, err := models.ListAlertActions(h.alertDB, alert.ID)
	if err != nil {
		jsonError(c, err)
		return
	}
	response.Success(c, "success", gin.H{"alert": alert, "actions": actions})
}

func (h *Handlers) handleAdminResolve(c *gin.Context) {
	admin := models.CurrentUser(c)
	id := cast.ToUint(c.Param("id"))
	req := resolveRequest{Status: models.AlertStatusResolved}
	if err := c.ShouldBind(&req); err != nil && !errors.Is(err, io.EOF) {
		jsonError(c, models.ErrInvalidTransition)
		return
	}
	alert, err := models.ResolveAlert(h.alertDB, id, req.Status, admin.ID)
	if err != nil {
		jsonError(c, err)
		return
	}
	logger.Info("alert closed by admin",
		zap.Uint("alert_id", alert.ID), zap.Uint("admin_id", admin.ID), zap.String("status", alert.Status))
	util.Sig().Emit(models.SigAlertClosed, alert)
	response.Success(c, "Alert "+alert.Status, alert)
}

// handleAlertStream is the admin live feed (server-sent events).
func (h *Handlers) handleAlertStream(c *gin.Context) {
	if h.hub == nil {
		response.FailWithStatus(c, http.StatusServiceUnavailable, "Live feed disabled", nil)
		return
	}
	h.hub.Serve(c)
}

// handleAlertSocket is the same feed over WebSocket.
func (h *Handlers) handleAlertSocket(c *gin.Context) {
	if h.socket == nil {
		response.FailWithStatus(c, http.StatusServiceUnavailable, "Live feed disabled", nil)
		return
	}
	h.socket.Serve(c)
}
