package handlers

import (
	"net/http"

	"HerShield/pkg/logger"
	"HerShield/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const twilioSignatureHeader = "X-Twilio-Signature"

// callbackURL is the URL the provider signed: the configured status callback
// when set, otherwise the URL this request arrived on.
func (h *Handlers) callbackURL(c *gin.Context) string {
	if h.smsCallbackURL != "" {
		return h.smsCallbackURL
	}
	scheme := "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host + c.Request.RequestURI
}

// handleSMSStatus receives delivery receipts for messages sent by the gateway.
func (h *Handlers) handleSMSStatus(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		response.Fail(c, "invalid form", nil)
		return
	}
	params := make(map[string]string, len(c.Request.PostForm))
	for k, v := range c.Request.PostForm {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}
	if !h.verifier.Verify(h.callbackURL(c), params, c.GetHeader(twilioSignatureHeader)) {
		logger.Warn("sms status callback rejected", zap.String("ip", c.ClientIP()))
		response.FailWithStatus(c, http.StatusForbidden, "invalid signature", nil)
		return
	}

	status := params["MessageStatus"]
	if status == "" {
		status = "unknown"
	}
	h.metrics.RecordSMSStatus(status)
	fields := []zap.Field{
		zap.String("sid", params["MessageSid"]),
		zap.String("status", status),
	}
	if code := params["ErrorCode"]; code != "" {
		fields = append(fields, zap.String("error_code", code))
		logger.Warn("sms delivery failed", fields...)
	} else {
		logger.Info("sms status", fields...)
	}
	c.Status(http.StatusNoContent)
}
