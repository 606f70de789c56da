package handlers

import (
	"errors"
	"io"
	"net/http"

	"HerShield/internal/models"
	"HerShield/internal/sos"
	"HerShield/pkg/response"

	"github.com/gin-gonic/gin"
)

type resolveRequest struct {
	Status string `json:"status" form:"status"`
}

func (h *Handlers) handleSOS(c *gin.Context) {
	user := models.CurrentUser(c)
	var req sos.TriggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, sos.ErrMissingLocation.Message, nil)
		return
	}
	res, err := h.sos.Trigger(c.Request.Context(), user, req)
	if err != nil {
		jsonError(c, err)
		return
	}
	if res.NoContacts {
		c.JSON(http.StatusOK, gin.H{
			"error":             sos.ErrNoContacts.Message,
			"message":           "Please add emergency contacts in your profile",
			"contacts_notified": 0,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":            "success",
		"message":           "Emergency alert sent successfully",
		"alert_id":          res.AlertID,
		"contacts_notified": res.ContactsNotified,
		"total_contacts":    res.TotalContacts,
		"user_confirmed":    res.UserConfirmed,
	})
}

func (h *Handlers) handleUpdateLocation(c *gin.Context) {
	user := models.CurrentUser(c)
	var req sos.LocationUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, sos.ErrMissingLocation.Message, nil)
		return
	}
	res, err := h.sos.UpdateLocation(c.Request.Context(), user, req)
	if err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":             "success",
		"message":            "Location updated successfully",
		"notifications_sent": res.NotificationsSent,
		"alert_updated":      res.AlertUpdated,
	})
}

func (h *Handlers) handleResolveSOS(c *gin.Context) {
	user := models.CurrentUser(c)
	req := resolveRequest{Status: models.AlertStatusResolved}
	if err := c.ShouldBind(&req); err != nil && !errors.Is(err, io.EOF) {
		jsonError(c, models.ErrInvalidTransition)
		return
	}
	alert, err := h.sos.Resolve(c.Request.Context(), user, req.Status)
	if err != nil {
		jsonError(c, err)
		return
	}
	response.Success(c, "Alert "+alert.Status, alert)
}
