package handlers

import (
	"net/http"

	"HerShield/internal/models"
	"HerShield/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *Handlers) handleLanding(c *gin.Context) {
	if models.CurrentUser(c) != nil {
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}
	renderPage(c, "landing", nil)
}

func (h *Handlers) handleSignupPage(c *gin.Context) {
	renderPage(c, "signup", nil)
}

func (h *Handlers) handleSignup(c *gin.Context) {
	var form models.SignupForm
	if err := c.ShouldBind(&form); err != nil {
		redirectWithFlash(c, "/signup", flashDanger, models.ErrSignupFieldsRequired.Message)
		return
	}
	if _, err := models.CreateUser(h.db, form); err != nil {
		redirectWithError(c, "/signup", err, "Could not create account. Please try again.")
		return
	}
	redirectWithFlash(c, "/login", flashSuccess, "Account created successfully! Please login.")
}

func (h *Handlers) handleLoginPage(c *gin.Context) {
	renderPage(c, "login", nil)
}

func (h *Handlers) handleLogin(c *gin.Context) {
	var form models.LoginForm
	if err := c.ShouldBind(&form); err != nil {
		redirectWithFlash(c, "/login", flashDanger, models.ErrInvalidCredentials.Message)
		return
	}
	user, err := models.Authenticate(h.db, form)
	if err != nil {
		redirectWithError(c, "/login", err, "Login failed. Please try again.")
		return
	}
	if err := models.Login(c, user); err != nil {
		logger.Error("save session failed", zap.Uint("user_id", user.ID), zap.Error(err))
		redirectWithFlash(c, "/login", flashDanger, "Login failed. Please try again.")
		return
	}
	redirectWithFlash(c, "/dashboard", flashSuccess, "Login successful!")
}

func (h *Handlers) handleLogout(c *gin.Context) {
	if err := models.Logout(c); err != nil {
		logger.Warn("clear session failed", zap.Error(err))
	}
	redirectWithFlash(c, "/", flashInfo, "You have been logged out")
}

func (h *Handlers) handleDashboard(c *gin.Context) {
	user := models.CurrentUser(c)
	count, err := models.CountContacts(h.db, user.ID)
	if err != nil {
		logger.Warn("count contacts failed", zap.Uint("user_id", user.ID), zap.Error(err))
	}
	data := gin.H{"name": user.Name, "contacts_count": count}
	if alert, err := models.GetActiveAlert(h.alertDB, user.ID); err == nil {
		data["active_alert"] = alert
	}
	renderPage(c, "dashboard", data)
}

func (h *Handlers) handleProfile(c *gin.Context) {
	renderPage(c, "profile", gin.H{"user": models.CurrentUser(c)})
}
