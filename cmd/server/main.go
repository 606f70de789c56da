package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"HerShield/internal/assistant"
	handlers "HerShield/internal/handler"
	"HerShield/internal/listeners"
	"HerShield/internal/models"
	"HerShield/internal/sos"
	"HerShield/pkg/backup"
	"HerShield/pkg/cache"
	"HerShield/pkg/config"
	constants "HerShield/pkg/constant"
	"HerShield/pkg/llm"
	"HerShield/pkg/logger"
	"HerShield/pkg/metrics"
	"HerShield/pkg/middleware"
	"HerShield/pkg/notification"
	"HerShield/pkg/scheduler"
	"HerShield/pkg/sse"
	"HerShield/pkg/storage"
	"HerShield/pkg/util"
	"HerShield/pkg/websocket"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志配置
	if err := logger.Init(cfg.Log, cfg.Mode); err != nil {
		fmt.Printf("初始化日志配置失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Error("server exited", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	debug := cfg.Mode == gin.DebugMode
	gin.SetMode(cfg.Mode)

	db, alertDB, err := openStores(cfg, debug)
	if err != nil {
		return err
	}
	if err := models.Migrate(db, alertDB); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := models.SyncAdmins(db, cfg.AdminEmails); err != nil {
		return fmt.Errorf("sync admins: %w", err)
	}

	store, err := cache.NewCache(cfg.Cache)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer store.Close()

	m := metrics.NewMetrics()
	gateway := newSMSGateway(cfg, m)
	hub := sse.NewHub(15*time.Second, 100)
	wsCfg := websocket.DefaultConfig()
	wsCfg.AllowedOrigins = cfg.FeedOrigins
	socket, err := websocket.NewFeed(hub, wsCfg)
	if err != nil {
		return fmt.Errorf("live feed: %w", err)
	}

	listeners.InitUserListeners(db, cfg.AdminEmails)
	listeners.InitAlertListeners(hub)

	orchestrator := sos.NewOrchestrator(db, alertDB, gateway, m)
	bot := assistant.New(db, newProvider(cfg), m)

	jobs, err := startJobs(cfg, orchestrator, db, alertDB)
	if err != nil {
		return err
	}
	defer jobs.Stop()

	limiter, err := newRateLimiter(cfg, store, m)
	if err != nil {
		return err
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), middleware.AccessLogMiddleware(), metrics.MonitorMiddleware(m))
	engine.Use(sessions.Sessions(constants.SessionName, newSessionStore(cfg)))

	handlers.NewHandlers(handlers.Deps{
		DB:             db,
		AlertDB:        alertDB,
		SOS:            orchestrator,
		Assistant:      bot,
		Hub:            hub,
		LiveSocket:     socket,
		RateLimiter:    limiter,
		Metrics:        m,
		SMSVerifier:    notification.NewCallbackVerifier(cfg.SMS.AuthToken),
		SMSCallbackURL: cfg.SMS.StatusCallbackURL,
		Idempotency:    store,
		MetricsPath:    cfg.MetricsPath,
	}).Register(engine)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStores opens the primary database and, when configured, the separate
// alert store. Both handles are the same when alerts share the primary.
func openStores(cfg *config.Config, debug bool) (*gorm.DB, *gorm.DB, error) {
	db, err := util.InitDatabase(cfg.DBDriver, cfg.DSN, debug)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if !cfg.SeparateAlertStore() {
		return db, db, nil
	}
	alertDB, err := util.InitDatabase(cfg.AlertDBDriver, cfg.AlertDSN, debug)
	if err != nil {
		return nil, nil, fmt.Errorf("open alert database: %w", err)
	}
	return db, alertDB, nil
}

func newSMSGateway(cfg *config.Config, m *metrics.Metrics) *notification.Gateway {
	var cli notification.SMSClient
	twilioCli, err := notification.NewTwilioClient(cfg.SMS)
	if err != nil {
		logger.Warn("sms disabled", zap.Error(err))
	} else {
		cli = twilioCli
	}
	return notification.NewGateway(cfg.SMS, cli, m)
}

// newProvider returns nil when no API key is set; the assistant then answers
// from its built-in corpus.
func newProvider(cfg *config.Config) llm.LLM {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	h, err := llm.NewLLMHandler(cfg.LLM, "", log)
	if err != nil {
		logger.Warn("llm provider disabled", zap.Error(err))
		return nil
	}
	return h
}

func startJobs(cfg *config.Config, orchestrator *sos.Orchestrator, db, alertDB *gorm.DB) (*scheduler.Cron, error) {
	jobs := scheduler.NewCron(time.Local, 5*time.Minute)

	_, err := jobs.Add("expire-alerts", cfg.AlertSweep, scheduler.FuncJob(func(ctx context.Context) {
		if _, err := orchestrator.ExpireStale(ctx, cfg.AlertTTL); err != nil {
			logger.Error("expire alerts failed", zap.Error(err))
		}
	}))
	if err != nil {
		return nil, fmt.Errorf("schedule alert expiry: %w", err)
	}

	if cfg.BackupEnabled {
		bcfg := backup.Config{Dir: cfg.BackupPath, Keep: cfg.BackupKeep}
		if cfg.BackupStore.Enabled() {
			offsite, err := storage.NewMinioStore(cfg.BackupStore)
			if err != nil {
				return nil, fmt.Errorf("backup storage: %w", err)
			}
			bcfg.Offsite = offsite
		}
		b := backup.New(bcfg)
		b.Register("users", db)
		if alertDB != db {
			b.Register("alerts", alertDB)
		}
		if _, err := jobs.Add("backup", cfg.BackupSchedule, b); err != nil {
			return nil, fmt.Errorf("schedule backup: %w", err)
		}
	}

	jobs.Start()
	return jobs, nil
}

func newRateLimiter(cfg *config.Config, store cache.Cache, m *metrics.Metrics) (*middleware.RateLimiter, error) {
	rl := middleware.RateLimiterConfig{
		Rate:          cfg.RateLimit.ChatRate,
		PerRouteRates: cfg.RateLimit.Routes(),
		Identifier:    "user",
		AddHeaders:    true,
	}
	// share redis with the limiter when the cache already runs on it
	if p, ok := store.(cache.ClientProvider); ok {
		redisStore, err := middleware.NewRedisStore(p.Client())
		if err != nil {
			return nil, fmt.Errorf("rate limiter store: %w", err)
		}
		return middleware.NewRateLimiter(rl, redisStore).WithObserver(m), nil
	}
	return middleware.NewRateLimiter(rl, nil).WithObserver(m), nil
}

func newSessionStore(cfg *config.Config) sessions.Store {
	secret := cfg.SessionSecret
	if secret == "" {
		// sessions will not survive a restart
		logger.Warn("SESSION_SECRET not set, using a random key")
		secret = uuid.NewString()
	}
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.SessionMaxAge(),
		Secure:   cfg.SecureCookies,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return store
}
