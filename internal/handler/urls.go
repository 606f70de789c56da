package handlers

import (
	"HerShield/internal/assistant"
	"HerShield/internal/models"
	"HerShield/internal/sos"
	"HerShield/pkg/cache"
	"HerShield/pkg/metrics"
	"HerShield/pkg/middleware"
	"HerShield/pkg/notification"
	"HerShield/pkg/sse"
	"HerShield/pkg/websocket"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps are the services the HTTP layer drives. DB, SOS and Assistant are
// required; the rest switch features off when nil.
type Deps struct {
	DB          *gorm.DB
	AlertDB     *gorm.DB
	SOS         *sos.Orchestrator
	Assistant   *assistant.Assistant
	Hub         *sse.Hub
	LiveSocket  *websocket.Feed
	RateLimiter *middleware.RateLimiter
	Metrics     *metrics.Metrics
	SMSVerifier *notification.CallbackVerifier
	Idempotency cache.Cache
	MetricsPath string

	// SMSCallbackURL is the status callback URL registered with the provider.
	SMSCallbackURL string
}

type Handlers struct {
	db             *gorm.DB
	alertDB        *gorm.DB
	sos            *sos.Orchestrator
	assistant      *assistant.Assistant
	hub            *sse.Hub
	socket         *websocket.Feed
	limiter        *middleware.RateLimiter
	metrics        *metrics.Metrics
	verifier       *notification.CallbackVerifier
	smsCallbackURL string
	idem           cache.Cache
	metricsPath    string
}

func NewHandlers(d Deps) *Handlers {
	alertDB := d.AlertDB
	if alertDB == nil {
		alertDB = d.DB
	}
	return &Handlers{
		db:             d.DB,
		alertDB:        alertDB,
		sos:            d.SOS,
		assistant:      d.Assistant,
		hub:            d.Hub,
		socket:         d.LiveSocket,
		limiter:        d.RateLimiter,
		metrics:        d.Metrics,
		verifier:       d.SMSVerifier,
		smsCallbackURL: d.SMSCallbackURL,
		idem:           d.Idempotency,
		metricsPath:    d.MetricsPath,
	}
}

func (h *Handlers) Register(engine *gin.Engine) {
	// Register Global Singleton DB
	engine.Use(middleware.InjectDB(h.db, h.alertDB))

	h.registerSystemRoutes(engine)
	h.registerAuthRoutes(engine)
	h.registerContactRoutes(engine)
	h.registerSOSRoutes(engine)
	h.registerAssistantRoutes(engine)
	h.registerContentRoutes(engine)
	h.registerAdminRoutes(engine)
}

// rateLimit is a no-op when no limiter is configured.
func (h *Handlers) rateLimit() gin.HandlerFunc {
	if h.limiter == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return h.limiter.Middleware()
}

func (h *Handlers) idempotent() gin.HandlerFunc {
	return middleware.IdempotencyMiddleware(middleware.IdempotencyConfig{Store: h.idem})
}

func (h *Handlers) registerSystemRoutes(r *gin.Engine) {
	system := r.Group("/api/system")
	{
		system.GET("/health", h.HealthCheck)

		system.GET("/rate-limiter/config", models.APIAuthRequired, models.AdminRequired, h.GetRateLimiterConfig)

		system.POST("/rate-limiter/config", models.APIAuthRequired, models.AdminRequired, h.UpdateRateLimiterConfig)
	}
	if h.metrics != nil && h.metricsPath != "" {
		r.GET(h.metricsPath, gin.WrapH(h.metrics.Handler()))
	}
	r.POST("/sms/status", h.handleSMSStatus)
}

// User Module
func (h *Handlers) registerAuthRoutes(r *gin.Engine) {
	r.GET("/", h.handleLanding)

	r.GET("/signup", h.handleSignupPage)

	r.POST("/signup", h.handleSignup)

	r.GET("/login", h.handleLoginPage)

	r.POST("/login", h.handleLogin)

	r.GET("/logout", h.handleLogout)

	r.GET("/dashboard", models.AuthRequired, h.handleDashboard)

	r.GET("/profile", models.AuthRequired, h.handleProfile)
}

func (h *Handlers) registerContactRoutes(r *gin.Engine) {
	contacts := r.Group("", models.AuthRequired)
	{
		contacts.GET("/emergency-contacts", h.handleListContacts)

		contacts.POST("/emergency-contacts", h.handleAddContact)

		contacts.POST("/delete-contact/:id", h.handleDeleteContact)

		contacts.GET("/edit-contact/:id", h.handleEditContactPage)

		contacts.POST("/edit-contact/:id", h.handleEditContact)
	}
}

func (h *Handlers) registerSOSRoutes(r *gin.Engine) {
	api := r.Group("", models.APIAuthRequired)
	{
		api.POST("/sos", h.rateLimit(), h.idempotent(), h.handleSOS)

		api.POST("/update-location", h.rateLimit(), h.handleUpdateLocation)

		api.POST("/sos/resolve", h.idempotent(), h.handleResolveSOS)
	}
}

func (h *Handlers) registerAssistantRoutes(r *gin.Engine) {
	r.GET("/chatbot", h.handleChatbotPage)

	r.POST("/chatbot", h.identify, h.rateLimit(), h.handleChatbot)
}

func (h *Handlers) registerContentRoutes(r *gin.Engine) {
	r.GET("/health-tips", models.AuthRequired, h.handleHealthTips)

	r.GET("/self-defense", models.AuthRequired, h.handleSelfDefense)

	r.GET("/latest-articles", models.AuthRequired, h.handleLatestArticles)
}

func (h *Handlers) registerAdminRoutes(r *gin.Engine) {
	admin := r.Group("/admin", models.APIAuthRequired, models.AdminRequired)
	{
		admin.GET("/alerts", h.handleListAlerts)

		admin.GET("/alerts/stream", h.handleAlertStream)

		admin.GET("/alerts/ws", h.handleAlertSocket)

		admin.GET("/alerts/:id", h.handleGetAlert)

		admin.POST("/alerts/:id/resolve", h.handleAdminResolve)
	}
}

// identify loads the session user when there is one, without requiring it.
func (h *Handlers) identify(c *gin.Context) {
	models.CurrentUser(c)
	c.Next()
}
