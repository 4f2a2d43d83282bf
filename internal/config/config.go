package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DevSessionSecret is accepted only in local-like environments when SESSION_SECRET is unset.
const DevSessionSecret = "campus-portal-dev-session-secret-do-not-deploy"

const (
	OTPStoreMemory = "memory"
	OTPStoreRedis  = "redis"
	OTPStoreBolt   = "bolt"
)

type Config struct {
	Env      string
	HTTPPort string

	DatabaseURL string
	BoltPath    string

	SessionSecret          string
	SessionIssuer          string
	CookieDomain           string
	CookieSecure           bool
	CORSAllowedOrigins     []string
	PasswordHashIterations int
	BootstrapOwnerEmail    string

	OTPTTL                      time.Duration
	OTPStore                    string
	AuthResetRevealUnknownEmail bool

	AuthGoogleEnabled  bool
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	StateSigningSecret string

	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	AuthRateLimitPerMin int
	APIRateLimitPerMin  int

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool
	UploadMaxBytes int64

	ReadinessCheckTimeout        time.Duration
	ShutdownTimeout              time.Duration
	ShutdownHTTPDrainTimeout     time.Duration
	ShutdownObservabilityTimeout time.Duration

	OTELServiceName           string
	OTELEnvironment           string
	OTELExporterOTLPEndpoint  string
	OTELExporterOTLPInsecure  bool
	OTELMetricsExportInterval time.Duration
	OTELTraceSamplingRatio    float64
	OTELMetricsEnabled        bool
	OTELTracingEnabled        bool
	OTELLogsEnabled           bool
	OTELLogLevel              string
}

func Load() (*Config, error) {
	env := getEnv("APP_ENV", "development")
	localLike := IsLocalLikeEnv(env)

	googleClientID := os.Getenv("GOOGLE_OAUTH_CLIENT_ID")
	googleClientSecret := os.Getenv("GOOGLE_OAUTH_CLIENT_SECRET")
	googleEnabled := getEnvBool("AUTH_GOOGLE_ENABLED", googleClientID != "" && googleClientSecret != "")

	sessionSecret := os.Getenv("SESSION_SECRET")
	if sessionSecret == "" && localLike {
		sessionSecret = DevSessionSecret
	}

	cfg := &Config{
		Env:                         env,
		HTTPPort:                    getEnv("HTTP_PORT", "8080"),
		DatabaseURL:                 os.Getenv("DATABASE_URL"),
		BoltPath:                    getEnv("BOLT_PATH", "data/campus.db"),
		SessionSecret:               sessionSecret,
		SessionIssuer:               getEnv("SESSION_ISSUER", "campus-portal"),
		CookieDomain:                os.Getenv("COOKIE_DOMAIN"),
		CookieSecure:                getEnvBool("COOKIE_SECURE", !localLike),
		CORSAllowedOrigins:          splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		PasswordHashIterations:      getEnvInt("PASSWORD_HASH_ITERATIONS", 1000),
		BootstrapOwnerEmail:         strings.TrimSpace(strings.ToLower(os.Getenv("BOOTSTRAP_OWNER_EMAIL"))),
		OTPStore:                    strings.ToLower(getEnv("OTP_STORE", OTPStoreMemory)),
		AuthResetRevealUnknownEmail: getEnvBool("AUTH_RESET_REVEAL_UNKNOWN_EMAIL", false),
		AuthGoogleEnabled:           googleEnabled,
		GoogleClientID:              googleClientID,
		GoogleClientSecret:          googleClientSecret,
		GoogleRedirectURL:           getEnv("GOOGLE_OAUTH_REDIRECT_URL", "http://localhost:8080/api/v1/auth/google/callback"),
		StateSigningSecret:          getEnv("OAUTH_STATE_SECRET", sessionSecret),
		RedisEnabled:                getEnvBool("REDIS_ENABLED", false),
		RedisAddr:                   getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:               os.Getenv("REDIS_PASSWORD"),
		RedisDB:                     getEnvInt("REDIS_DB", 0),
		RedisPrefix:                 getEnv("REDIS_PREFIX", "campus"),
		AuthRateLimitPerMin:         getEnvInt("AUTH_RATE_LIMIT_PER_MIN", 30),
		APIRateLimitPerMin:          getEnvInt("API_RATE_LIMIT_PER_MIN", 120),
		MinIOEndpoint:               getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinIOAccessKey:              os.Getenv("MINIO_ACCESS_KEY"),
		MinIOSecretKey:              os.Getenv("MINIO_SECRET_KEY"),
		MinIOBucket:                 getEnv("MINIO_BUCKET", "campus-uploads"),
		MinIOUseSSL:                 getEnvBool("MINIO_USE_SSL", false),
		UploadMaxBytes:              int64(getEnvInt("UPLOAD_MAX_BYTES", 10<<20)),

		OTELServiceName:          getEnv("OTEL_SERVICE_NAME", "campus-portal-backend"),
		OTELEnvironment:          getEnv("OTEL_ENVIRONMENT", env),
		OTELExporterOTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTELExporterOTLPInsecure: getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		OTELTraceSamplingRatio:   getEnvFloat("OTEL_TRACE_SAMPLING_RATIO", 1.0),
		OTELMetricsEnabled:       getEnvBool("OTEL_METRICS_ENABLED", !localLike),
		OTELTracingEnabled:       getEnvBool("OTEL_TRACING_ENABLED", !localLike),
		OTELLogsEnabled:          getEnvBool("OTEL_LOGS_ENABLED", !localLike),
		OTELLogLevel:             strings.ToLower(getEnv("OTEL_LOG_LEVEL", "info")),
	}

	durations := []struct {
		key  string
		def  string
		dest *time.Duration
	}{
		{"OTP_TTL", "10m", &cfg.OTPTTL},
		{"READINESS_CHECK_TIMEOUT", "1s", &cfg.ReadinessCheckTimeout},
		{"SHUTDOWN_TIMEOUT", "20s", &cfg.ShutdownTimeout},
		{"SHUTDOWN_HTTP_DRAIN_TIMEOUT", "10s", &cfg.ShutdownHTTPDrainTimeout},
		{"SHUTDOWN_OBSERVABILITY_TIMEOUT", "8s", &cfg.ShutdownObservabilityTimeout},
		{"OTEL_METRICS_EXPORT_INTERVAL", "10s", &cfg.OTELMetricsExportInterval},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(getEnv(d.key, d.def))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dest = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string
	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if c.SessionSecret == "" {
		errs = append(errs, "SESSION_SECRET is required")
	} else if !IsLocalLikeEnv(c.Env) {
		if len(c.SessionSecret) < 32 {
			errs = append(errs, "SESSION_SECRET must be at least 32 chars")
		}
		if c.SessionSecret == DevSessionSecret {
			errs = append(errs, "SESSION_SECRET must not use the development default outside local environments")
		}
	}
	if c.PasswordHashIterations < 1000 {
		errs = append(errs, "PASSWORD_HASH_ITERATIONS must be >= 1000")
	}
	if c.OTPTTL <= 0 || c.OTPTTL > time.Hour {
		errs = append(errs, "OTP_TTL must be between 1s and 1h")
	}
	switch c.OTPStore {
	case OTPStoreMemory, OTPStoreBolt:
	case OTPStoreRedis:
		if !c.RedisEnabled {
			errs = append(errs, "OTP_STORE=redis requires REDIS_ENABLED=true")
		}
	default:
		errs = append(errs, "OTP_STORE must be one of memory, redis, bolt")
	}
	if c.BoltPath == "" {
		errs = append(errs, "BOLT_PATH is required")
	}
	if c.AuthGoogleEnabled && c.GoogleClientID == "" {
		errs = append(errs, "GOOGLE_OAUTH_CLIENT_ID is required when AUTH_GOOGLE_ENABLED=true")
	}
	if c.AuthGoogleEnabled && c.GoogleClientSecret == "" {
		errs = append(errs, "GOOGLE_OAUTH_CLIENT_SECRET is required when AUTH_GOOGLE_ENABLED=true")
	}
	if c.AuthGoogleEnabled && len(c.StateSigningSecret) < 16 {
		errs = append(errs, "OAUTH_STATE_SECRET must be at least 16 chars")
	}
	if c.AuthRateLimitPerMin <= 0 {
		errs = append(errs, "AUTH_RATE_LIMIT_PER_MIN must be > 0")
	}
	if c.APIRateLimitPerMin <= 0 {
		errs = append(errs, "API_RATE_LIMIT_PER_MIN must be > 0")
	}
	if c.UploadMaxBytes <= 0 {
		errs = append(errs, "UPLOAD_MAX_BYTES must be > 0")
	}
	if (c.OTELMetricsEnabled || c.OTELTracingEnabled || c.OTELLogsEnabled) && c.OTELExporterOTLPEndpoint == "" {
		errs = append(errs, "OTEL_EXPORTER_OTLP_ENDPOINT is required when OTel is enabled")
	}
	if c.OTELTraceSamplingRatio < 0 || c.OTELTraceSamplingRatio > 1 {
		errs = append(errs, "OTEL_TRACE_SAMPLING_RATIO must be between 0 and 1")
	}
	if c.OTELMetricsExportInterval <= 0 {
		errs = append(errs, "OTEL_METRICS_EXPORT_INTERVAL must be > 0")
	}
	if !isValidLogLevel(c.OTELLogLevel) {
		errs = append(errs, "OTEL_LOG_LEVEL must be one of debug, info, warn, error")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func IsLocalLikeEnv(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "development", "dev", "local", "test":
		return true
	default:
		return false
	}
}

func isValidLogLevel(v string) bool {
	switch strings.ToLower(v) {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trim := strings.TrimSpace(p)
		if trim != "" {
			out = append(out, trim)
		}
	}
	return out
}
