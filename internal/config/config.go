package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	AuthJWTSecret string
	AuthJWTTTL    time.Duration

	// DevPremiumBypass forces every synchronized entitlement to PREMIUM. Never honored in production.
	DevPremiumBypass bool

	SnowflakeNode int64

	Telemetry TelemetryConfig

	RateLimit RateLimitConfig
	QA        QAConfig
	Plans     PlanCatalog
	Billing   BillingConfig

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
}

type RateLimitConfig struct {
	RequestsPerWindow int64
	Window            time.Duration
	FailMode          string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// TelemetryConfig feeds logging, tracing, metrics and the query logger.
type TelemetryConfig struct {
	LogLevel      string
	LogFormat     string
	Enabled       bool
	Endpoint      string
	Protocol      string
	SamplingRatio float64
	SlowQuery     time.Duration
}

type QAConfig struct {
	Timeout time.Duration
}

type BillingConfig struct {
	StripeWebhookSecret string

	StripeSecretKey    string
	StripePriceMonthly string
	StripePriceAnnual  string
	StripeSuccessURL   string
	StripeCancelURL    string
}

const (
	FailModeOpen   = "open"
	FailModeClosed = "closed"
)

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewPlanCatalogHolder),
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	environment := getenv("ENVIRONMENT", "development")

	cfg := Config{
		AppName:          getenv("APP_SERVICE", "courtside"),
		AppVersion:       getenv("APP_VERSION", "0.1.0"),
		Environment:      environment,
		HTTPAddr:         getenv("HTTP_ADDR", ":8080"),
		AuthJWTSecret:    strings.TrimSpace(getenv("AUTH_JWT_SECRET", getenv("JWT_SECRET", "dev-secret"))),
		AuthJWTTTL:       getenvDuration("AUTH_JWT_TTL", 7*24*time.Hour),
		DevPremiumBypass: getenvBool("DEV_PREMIUM_BYPASS", false),
		SnowflakeNode:    getenvInt64("SNOWFLAKE_NODE", 1),
		Telemetry: TelemetryConfig{
			LogLevel:      strings.ToLower(strings.TrimSpace(getenv("LOG_LEVEL", "info"))),
			LogFormat:     strings.ToLower(strings.TrimSpace(getenv("LOG_FORMAT", "json"))),
			Enabled:       getenvBool("OTEL_ENABLED", true),
			Endpoint:      strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")),
			Protocol:      strings.ToLower(strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"))),
			SamplingRatio: getenvRatio("OTEL_SAMPLING_RATIO", 0.1),
			SlowQuery:     getenvDuration("DB_SLOW_QUERY", 200*time.Millisecond),
		},
		RateLimit: RateLimitConfig{
			RequestsPerWindow: getenvInt64("REQUESTS_PER_MINUTE", 120),
			Window:            time.Duration(getenvInt64("RATE_LIMIT_WINDOW_MS", 60_000)) * time.Millisecond,
			FailMode:          normalizeFailMode(getenv("RATE_LIMIT_FAIL_MODE", FailModeOpen)),
			RedisAddr:         strings.TrimSpace(getenv("REDIS_ADDR", "")),
			RedisPassword:     strings.TrimSpace(getenv("REDIS_PASSWORD", "")),
			RedisDB:           getenvInt("REDIS_DB", 0),
		},
		QA: QAConfig{
			Timeout: time.Duration(getenvInt64("QA_QUERY_TIMEOUT_MS", 2500)) * time.Millisecond,
		},
		Plans: PlanCatalog{
			Free: PlanLimits{
				QADailyLimit: getenvInt("FREE_QA_DAILY_LIMIT", 5),
				QARowLimit:   getenvInt("FREE_QA_ROW_LIMIT", 50),
			},
			Premium: PlanLimits{
				QADailyLimit: getenvInt("PREMIUM_QA_DAILY_LIMIT", 5000),
				QARowLimit:   getenvInt("PREMIUM_QA_ROW_LIMIT", 500),
			},
		},
		Billing: BillingConfig{
			StripeWebhookSecret: strings.TrimSpace(getenv("STRIPE_WEBHOOK_SECRET", "")),
			StripeSecretKey:     strings.TrimSpace(getenv("STRIPE_SECRET_KEY", "")),
			StripePriceMonthly:  strings.TrimSpace(getenv("STRIPE_PRICE_MONTHLY", "")),
			StripePriceAnnual:   strings.TrimSpace(getenv("STRIPE_PRICE_ANNUAL", "")),
			StripeSuccessURL:    getenv("STRIPE_SUCCESS_URL", "http://localhost:3000/billing/success"),
			StripeCancelURL:     getenv("STRIPE_CANCEL_URL", "http://localhost:3000/billing/cancel"),
		},
		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "courtside"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
	}

	if cfg.IsProduction() {
		cfg.DevPremiumBypass = false
	}
	if cfg.RateLimit.RequestsPerWindow <= 0 {
		cfg.RateLimit.RequestsPerWindow = 120
	}
	if cfg.RateLimit.Window <= 0 {
		cfg.RateLimit.Window = time.Minute
	}
	if cfg.QA.Timeout <= 0 {
		cfg.QA.Timeout = 2500 * time.Millisecond
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func normalizeFailMode(raw string) string {
	if strings.EqualFold(strings.TrimSpace(raw), FailModeClosed) {
		return FailModeClosed
	}
	return FailModeOpen
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvRatio(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || parsed < 0 || parsed > 1 {
		return def
	}
	return parsed
}

func getenvInt(key string, def int) int {
	return int(getenvInt64(key, int64(def)))
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
