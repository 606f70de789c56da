package handlers

import (
	"net/http"

	"HerShield/internal/models"
	apperrors "HerShield/pkg/errors"
	"HerShield/pkg/logger"
	"HerShield/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	flashSuccess = "success"
	flashDanger  = "danger"
	flashWarning = "warning"
	flashInfo    = "info"
)

// renderPage writes the JSON stand-in for a page, with the pending flashes.
func renderPage(c *gin.Context, page string, data gin.H) {
	body := gin.H{"page": page, "flashes": models.PopFlashes(c)}
	for k, v := range data {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

func redirectWithFlash(c *gin.Context, location, category, message string) {
	models.AddFlash(c, category, message)
	c.Redirect(http.StatusFound, location)
}

// redirectWithError flashes the client-facing message of err. Server side
// failures get the generic text instead and are logged.
func redirectWithError(c *gin.Context, location string, err error, generic string) {
	if apperrors.GetCode(err) >= http.StatusInternalServerError {
		logger.Error("page action failed", zap.String("path", c.FullPath()), zap.String("error", apperrors.Detail(err)))
		redirectWithFlash(c, location, flashDanger, generic)
		return
	}
	redirectWithFlash(c, location, flashDanger, apperrors.GetMessage(err))
}

// jsonError answers JSON routes, logging anything the client will only see
// as "Internal server error".
func jsonError(c *gin.Context, err error) {
	if apperrors.GetCode(err) >= http.StatusInternalServerError {
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.String("error", apperrors.Detail(err)))
	}
	response.Error(c, err)
}
