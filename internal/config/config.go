package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	Sentry    SentryConfig
	Reconcile ReconcileConfig
	Export    ExportConfig
	Notify    NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values for the account store.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// MongoConfig holds document store connection values.
type MongoConfig struct {
	URI               string
	Database          string
	ConnectTimeoutSec int
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines identity provider parameters.
type AuthConfig struct {
	JWTSecret                  string
	SessionTTLMinutes          int
	RecentLoginMinutes         int
	BcryptCost                 int
	MinPasswordLength          int
	AdminEmails                []string
	SignInMaxFailures          int
	SignInFailureWindowMinutes int
}

// SentryConfig enables error reporting when DSN is set.
type SentryConfig struct {
	DSN              string
	TracesSampleRate float64
}

// ReconcileConfig drives the orphan reconciliation job.
type ReconcileConfig struct {
	IntervalMinutes    int
	GracePeriodMinutes int
	PurgeOrphans       bool
}

// ExportConfig holds SFTP settings for roster exports.
type ExportConfig struct {
	SFTPHost              string
	SFTPPort              int
	SFTPUser              string
	SFTPPassword          string
	SFTPRemoteDir         string
	SFTPKnownHostsFile    string
	InsecureIgnoreHostKey bool
}

// NotificationConfig configures outbound notifications for employee events.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	sampleRate, err := strconv.ParseFloat(getEnv("SENTRY_TRACES_SAMPLE_RATE", "0.2"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid SENTRY_TRACES_SAMPLE_RATE: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "employee-portal"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Mongo: MongoConfig{
			URI:               os.Getenv("MONGO_URI"),
			Database:          getEnv("MONGO_DATABASE", "employee_portal"),
			ConnectTimeoutSec: getEnvAsInt("MONGO_CONNECT_TIMEOUT_SECONDS", 10),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:                  getEnv("AUTH_JWT_SECRET", "dev-secret"),
			SessionTTLMinutes:          getEnvAsInt("AUTH_SESSION_TTL_MINUTES", 60),
			RecentLoginMinutes:         getEnvAsInt("AUTH_RECENT_LOGIN_MINUTES", 5),
			BcryptCost:                 getEnvAsInt("AUTH_BCRYPT_COST", 12),
			MinPasswordLength:          getEnvAsInt("AUTH_MIN_PASSWORD_LENGTH", 6),
			AdminEmails:                getEnvAsList("AUTH_ADMIN_EMAILS"),
			SignInMaxFailures:          getEnvAsInt("AUTH_SIGNIN_MAX_FAILURES", 5),
			SignInFailureWindowMinutes: getEnvAsInt("AUTH_SIGNIN_FAILURE_WINDOW_MINUTES", 15),
		},
		Sentry: SentryConfig{
			DSN:              os.Getenv("SENTRY_DSN"),
			TracesSampleRate: sampleRate,
		},
		Reconcile: ReconcileConfig{
			IntervalMinutes:    getEnvAsInt("RECONCILE_INTERVAL_MINUTES", 60),
			GracePeriodMinutes: getEnvAsInt("RECONCILE_GRACE_PERIOD_MINUTES", 30),
			PurgeOrphans:       getEnvAsBool("RECONCILE_PURGE_ORPHANS", false),
		},
		Export: ExportConfig{
			SFTPHost:              os.Getenv("SFTP_HOST"),
			SFTPPort:              getEnvAsInt("SFTP_PORT", 22),
			SFTPUser:              os.Getenv("SFTP_USER"),
			SFTPPassword:          os.Getenv("SFTP_PASS"),
			SFTPRemoteDir:         getEnv("SFTP_REMOTE_DIR", "/"),
			SFTPKnownHostsFile:    os.Getenv("SFTP_KNOWN_HOSTS"),
			InsecureIgnoreHostKey: getEnvAsBool("SFTP_INSECURE_IGNORE_HOST_KEY", false),
		},
		Notify: NotificationConfig{
			EmailFrom:  os.Getenv("NOTIFY_EMAIL_FROM"),
			WebhookURL: os.Getenv("NOTIFY_WEBHOOK_URL"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// ConnectTimeout returns the Mongo connect timeout.
func (m MongoConfig) ConnectTimeout() time.Duration {
	if m.ConnectTimeoutSec <= 0 {
		return 10 * time.Second
	}
	return time.Duration(m.ConnectTimeoutSec) * time.Second
}

// SessionTTL returns how long an issued session stays valid.
func (a AuthConfig) SessionTTL() time.Duration {
	if a.SessionTTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(a.SessionTTLMinutes) * time.Minute
}

// RecentLoginWindow bounds how old a sign-in may be for sensitive account changes.
func (a AuthConfig) RecentLoginWindow() time.Duration {
	if a.RecentLoginMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(a.RecentLoginMinutes) * time.Minute
}

// SignInFailureWindow is the span over which failed sign-ins are counted.
func (a AuthConfig) SignInFailureWindow() time.Duration {
	if a.SignInFailureWindowMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(a.SignInFailureWindowMinutes) * time.Minute
}

// Interval returns the reconciliation period; zero disables the background job.
func (r ReconcileConfig) Interval() time.Duration {
	if r.IntervalMinutes <= 0 {
		return 0
	}
	return time.Duration(r.IntervalMinutes) * time.Minute
}

// GracePeriod is the minimum account age before it can be called an orphan.
func (r ReconcileConfig) GracePeriod() time.Duration {
	if r.GracePeriodMinutes < 0 {
		return 0
	}
	return time.Duration(r.GracePeriodMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	parts := strings.Split(val, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, strings.ToLower(trimmed))
		}
	}
	return result
}
