package config

import (
	"time"

	"github.com/joho/godotenv"

	"ogserve/utils"
)

// Config carries every runtime knob; loaded once from the environment in main.
type Config struct {
	Env     string // "development" or "production"
	Port    string
	BaseURL string

	SecretKey         string
	RequireSignedURLs bool

	DailyUsageLimit     int // 0 disables the daily limit
	MonthlyUsageLimit   int // 0 disables the monthly limit
	UsageWarningPercent float64

	RenderMaxAttempts int
	FetchTimeout      time.Duration
	CacheStaleAfter   time.Duration

	StorageBackend string // "s3" or "disk"
	StorageDir     string
	S3Bucket       string
	S3Region       string
	S3Endpoint     string
	S3Prefix       string

	TaskWorkers   int
	TaskQueueSize int

	AllowedOrigins   string
	BodyLimitBytes   int
	RateLimitMax     int
	RateLimitWindow  time.Duration
	ButtondownAPIKey string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
}

// C is the process-wide configuration, set by Load.
var C *Config

// Load reads .env (if present) and the environment into a Config.
func Load() *Config {
	_ = godotenv.Load()

	bodyLimit := utils.EnvInt("BODY_LIMIT_BYTES", 0)
	if bodyLimit <= 0 {
		bodyLimit = utils.EnvInt("BODY_LIMIT_MB", 4) * 1024 * 1024
	}

	C = &Config{
		Env:     utils.EnvStr("ENV", "development"),
		Port:    utils.EnvStr("PORT", "8080"),
		BaseURL: utils.EnvStr("BASE_URL", "http://localhost:8080"),

		SecretKey:         utils.EnvStr("SECRET_KEY", "insecure-dev-secret"),
		RequireSignedURLs: utils.EnvBool("REQUIRE_SIGNED_URLS", false),

		DailyUsageLimit:     utils.EnvInt("DAILY_USAGE_LIMIT", 0),
		MonthlyUsageLimit:   utils.EnvInt("MONTHLY_USAGE_LIMIT", 0),
		UsageWarningPercent: utils.EnvFloat("USAGE_WARNING_PERCENT", 0.8),

		RenderMaxAttempts: utils.EnvInt("RENDER_MAX_ATTEMPTS", 3),
		FetchTimeout:      time.Duration(utils.EnvInt("FETCH_TIMEOUT_SECONDS", 8)) * time.Second,
		CacheStaleAfter:   time.Duration(utils.EnvInt("CACHE_STALE_AFTER_HOURS", 48)) * time.Hour,

		StorageBackend: utils.EnvStr("STORAGE_BACKEND", "disk"),
		StorageDir:     utils.EnvStr("STORAGE_DIR", "./generated"),
		S3Bucket:       utils.EnvStr("S3_BUCKET", ""),
		S3Region:       utils.EnvStr("S3_REGION", "us-east-1"),
		S3Endpoint:     utils.EnvStr("S3_ENDPOINT", ""),
		S3Prefix:       utils.EnvStr("S3_PREFIX", "og-images/"),

		TaskWorkers:   utils.EnvInt("TASK_WORKERS", 4),
		TaskQueueSize: utils.EnvInt("TASK_QUEUE_SIZE", 256),

		AllowedOrigins:   utils.EnvStr("ALLOWED_ORIGINS", "*"),
		BodyLimitBytes:   bodyLimit,
		RateLimitMax:     utils.EnvInt("RATE_LIMIT_MAX", 120),
		RateLimitWindow:  time.Duration(utils.EnvInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,
		ButtondownAPIKey: utils.EnvStr("BUTTONDOWN_API_KEY", ""),

		DBHost:     utils.EnvStr("DB_HOST", "db"),
		DBPort:     utils.EnvStr("DB_PORT", "5432"),
		DBUser:     utils.EnvStr("DB_USER", "postgres"),
		DBPassword: utils.EnvStr("DB_PASSWORD", ""),
		DBName:     utils.EnvStr("DB_NAME", "ogserve"),
	}
	return C
}

// IsDevelopment reports whether the process runs in the development environment.
// The image cache treats every entry as stale in development.
func (c *Config) IsDevelopment() bool {
	return c.Env != "production"
}
