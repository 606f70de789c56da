package config

import (
	"HerShield/pkg/cache"
	"HerShield/pkg/llm"
	"HerShield/pkg/logger"
	"HerShield/pkg/notification"
	"HerShield/pkg/storage"
	"HerShield/pkg/util"
	"log"
	"os"
	"time"
)

// RateLimitConfig holds ulule/limiter rates ("<limit>-<S|M|H|D>") per user.
// The SOS limit only stops scripted floods; repeated presses of one alert are
// caught by the Idempotency-Key check instead.
type RateLimitConfig struct {
	SOSRate      string `env:"RATE_LIMIT_SOS"`
	LocationRate string `env:"RATE_LIMIT_LOCATION"`
	ChatRate     string `env:"RATE_LIMIT_CHAT"`
}

// Routes maps each limited route to its rate.
func (r RateLimitConfig) Routes() map[string]string {
	return map[string]string{
		"/sos":             r.SOSRate,
		"/update-location": r.LocationRate,
		"/chatbot":         r.ChatRate,
	}
}

type Config struct {
	Addr              string `env:"ADDR"`
	Mode              string `env:"MODE"`
	DBDriver          string `env:"DB_DRIVER"`
	DSN               string `env:"DSN"`
	AlertDBDriver     string `env:"ALERT_DB_DRIVER"`
	AlertDSN          string `env:"ALERT_DSN"`
	Log               logger.LogConfig
	SessionSecret     string `env:"SESSION_SECRET"`
	SessionExpireDays int    `env:"SESSION_EXPIRE_DAYS"`
	SecureCookies     bool   `env:"SESSION_SECURE"`
	SMS               notification.SMSConfig
	LLM               llm.Config
	Cache             cache.Config
	RateLimit         RateLimitConfig
	AdminEmails       []string      `env:"ADMIN_EMAILS"`
	AlertTTL          time.Duration `env:"ALERT_TTL"`
	AlertSweep        string        `env:"ALERT_SWEEP_SCHEDULE"`
	MetricsPath       string        `env:"METRICS_PATH"`
	FeedOrigins       []string      `env:"LIVE_FEED_ORIGINS"`
	BackupEnabled     bool          `env:"BACKUP_ENABLED"`
	BackupPath        string        `env:"BACKUP_PATH"`
	BackupSchedule    string        `env:"BACKUP_SCHEDULE"`
	BackupKeep        int           `env:"BACKUP_KEEP"`
	BackupStore       storage.MinioConfig
}

// Load reads the environment (after applying .env files for APP_ENV) into a
// fresh Config. Nothing else in the program reads the environment.
func Load() (*Config, error) {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	if err := util.LoadEnv(env); err != nil {
		log.Printf("Failed to load .env file: %v", err)
	}

	cfg := &Config{
		Addr:              util.GetEnvOr("ADDR", ":8080"),
		Mode:              util.GetEnvOr("MODE", "release"),
		DBDriver:          util.GetEnvOr("DB_DRIVER", "sqlite"),
		DSN:               util.GetEnvOr("DSN", "database/users.db"),
		AlertDBDriver:     util.GetEnv("ALERT_DB_DRIVER"),
		AlertDSN:          util.GetEnv("ALERT_DSN"),
		SessionSecret:     util.GetEnv("SESSION_SECRET"),
		SessionExpireDays: int(util.GetIntEnvOr("SESSION_EXPIRE_DAYS", 7)),
		SecureCookies:     util.GetBoolEnv("SESSION_SECURE"),
		Log: logger.LogConfig{
			Level:      util.GetEnvOr("LOG_LEVEL", "info"),
			Filename:   util.GetEnv("LOG_FILENAME"),
			MaxSize:    int(util.GetIntEnv("LOG_MAX_SIZE")),
			MaxAge:     int(util.GetIntEnv("LOG_MAX_AGE")),
			MaxBackups: int(util.GetIntEnv("LOG_MAX_BACKUPS")),
		},
		SMS: notification.SMSConfig{
			AccountSID:        util.GetEnv("TWILIO_ACCOUNT_SID"),
			AuthToken:         util.GetEnv("TWILIO_AUTH_TOKEN"),
			FromNumber:        util.GetEnv("TWILIO_PHONE_NUMBER"),
			StatusCallbackURL: util.GetEnv("TWILIO_STATUS_CALLBACK_URL"),
			CountryCode:       util.GetEnvOr("SMS_COUNTRY_CODE", "+91"),
		},
		LLM: llm.Config{
			APIKey:      util.GetEnv("LLM_API_KEY"),
			BaseURL:     util.GetEnvOr("LLM_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai"),
			Model:       util.GetEnvOr("LLM_MODEL", "gemini-1.5-pro-latest"),
			Temperature: float32(util.GetFloatEnvOr("LLM_TEMPERATURE", 0.7)),
			TopP:        float32(util.GetFloatEnvOr("LLM_TOP_P", 0.9)),
			MaxTokens:   int(util.GetIntEnvOr("LLM_MAX_TOKENS", 2048)),
			Timeout:     util.GetDurationEnvOr("LLM_TIMEOUT", 30*time.Second),
		},
		Cache: cache.Config{
			Type: util.GetEnvOr("CACHE_TYPE", "gocache"),
			Redis: cache.RedisConfig{
				Addr:     util.GetEnvOr("REDIS_ADDR", "localhost:6379"),
				Password: util.GetEnv("REDIS_PASSWORD"),
				DB:       int(util.GetIntEnv("REDIS_DB")),
			},
			Local: cache.LocalConfig{
				MaxSize:           int(util.GetIntEnvOr("LOCAL_CACHE_MAX_SIZE", 1000)),
				DefaultExpiration: util.GetDurationEnvOr("LOCAL_CACHE_DEFAULT_EXPIRATION", 5*time.Minute),
				CleanupInterval:   util.GetDurationEnvOr("LOCAL_CACHE_CLEANUP_INTERVAL", 10*time.Minute),
			},
		},
		RateLimit: RateLimitConfig{
			SOSRate:      util.GetEnvOr("RATE_LIMIT_SOS", "120-M"),
			LocationRate: util.GetEnvOr("RATE_LIMIT_LOCATION", "60-M"),
			ChatRate:     util.GetEnvOr("RATE_LIMIT_CHAT", "30-M"),
		},
		AdminEmails:    util.GetListEnv("ADMIN_EMAILS"),
		AlertTTL:       util.GetDurationEnvOr("ALERT_TTL", 24*time.Hour),
		AlertSweep:     util.GetEnvOr("ALERT_SWEEP_SCHEDULE", "@every 15m"),
		MetricsPath:    util.GetEnvOr("METRICS_PATH", "/metrics"),
		FeedOrigins:    util.GetListEnv("LIVE_FEED_ORIGINS"),
		BackupEnabled:  util.GetBoolEnv("BACKUP_ENABLED"),
		BackupPath:     util.GetEnvOr("BACKUP_PATH", "backups"),
		BackupSchedule: util.GetEnvOr("BACKUP_SCHEDULE", "@daily"),
		BackupKeep:     int(util.GetIntEnvOr("BACKUP_KEEP", 7)),
		BackupStore: storage.MinioConfig{
			Endpoint:  util.GetEnv("MINIO_ENDPOINT"),
			AccessKey: util.GetEnv("MINIO_ACCESS_KEY"),
			SecretKey: util.GetEnv("MINIO_SECRET_KEY"),
			Bucket:    util.GetEnv("MINIO_BUCKET"),
			UseSSL:    util.GetBoolEnv("MINIO_USE_SSL"),
			Prefix:    util.GetEnvOr("MINIO_PREFIX", "hershield/backups"),
		},
	}
	if cfg.AlertDBDriver == "" {
		cfg.AlertDBDriver = cfg.DBDriver
	}
	return cfg, nil
}

// SeparateAlertStore reports whether alerts live in their own database.
func (c *Config) SeparateAlertStore() bool {
	return c.AlertDSN != "" && (c.AlertDSN != c.DSN || c.AlertDBDriver != c.DBDriver)
}

// SessionMaxAge in seconds.
func (c *Config) SessionMaxAge() int {
	days := c.SessionExpireDays
	if days <= 0 {
		days = 7
	}
	return days * 24 * 60 * 60
}
