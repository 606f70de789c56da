package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"HerShield/internal/assistant"
	"HerShield/internal/models"
	"HerShield/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type chatForm struct {
	UserInput           string `form:"user_input" json:"user_input"`
	ConversationHistory string `form:"conversation_history" json:"conversation_history"`
}

func (h *Handlers) handleChatbotPage(c *gin.Context) {
	renderPage(c, "chatbot", gin.H{"personalized": models.CurrentUser(c) != nil})
}

// handleChatbot always answers 200; the assistant degrades to canned text.
func (h *Handlers) handleChatbot(c *gin.Context) {
	var form chatForm
	if err := c.ShouldBind(&form); err != nil || strings.TrimSpace(form.UserInput) == "" {
		c.JSON(http.StatusOK, gin.H{"response": assistant.ErrorResponse, "source": assistant.SourceFallback})
		return
	}

	var history []assistant.Message
	if raw := strings.TrimSpace(form.ConversationHistory); raw != "" {
		if err := json.Unmarshal([]byte(raw), &history); err != nil {
			logger.Debug("ignoring malformed conversation history", zap.Error(err))
			history = nil
		}
	}

	req := assistant.Request{Question: form.UserInput, History: history}
	if user := models.CurrentUser(c); user != nil {
		req.UserID = user.ID
	}
	c.JSON(http.StatusOK, h.assistant.Ask(c.Request.Context(), req))
}
