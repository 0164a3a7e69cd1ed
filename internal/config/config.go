package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service and the dashboard CLI.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Keycloak     KeycloakConfig
	Notification NotificationConfig
	Dashboard    DashboardConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	CORSAllowOrigins      string
	ShutdownGraceSeconds  int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr            string
	Password        string
	DB              int
	CacheTTLSeconds int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
	TrustGatewayHeaders   bool
	AdminEmail            string
	AdminPassword         string
}

// KeycloakConfig enables remote account provisioning when ServerURL is set.
type KeycloakConfig struct {
	ServerURL    string
	Realm        string
	ClientID     string
	ClientSecret string
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// DashboardConfig configures the staffctl front end.
type DashboardConfig struct {
	APIHost         string
	APIURL          string
	CredentialsFile string
	RedirectDelayMS int
	TimeoutSeconds  int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "staff-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "9002"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			CORSAllowOrigins:      getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000"),
			ShutdownGraceSeconds:  getEnvAsInt("SHUTDOWN_GRACE_SECONDS", 10),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:            os.Getenv("REDIS_ADDR"),
			Password:        os.Getenv("REDIS_PASSWORD"),
			DB:              redisDB,
			CacheTTLSeconds: getEnvAsInt("REDIS_CACHE_TTL_SECONDS", 60),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
			TrustGatewayHeaders:   getEnvAsBool("AUTH_TRUST_GATEWAY_HEADERS", false),
			AdminEmail:            os.Getenv("AUTH_ADMIN_EMAIL"),
			AdminPassword:         os.Getenv("AUTH_ADMIN_PASSWORD"),
		},
		Keycloak: KeycloakConfig{
			ServerURL:    os.Getenv("KEYCLOAK_SERVER_URL"),
			Realm:        getEnv("KEYCLOAK_REALM", "microservices-realm"),
			ClientID:     os.Getenv("KEYCLOAK_CLIENT_ID"),
			ClientSecret: os.Getenv("KEYCLOAK_CLIENT_SECRET"),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
		Dashboard: DashboardConfig{
			APIHost:         getEnv("STAFF_API_HOST", "http://localhost:9002"),
			APIURL:          getEnv("STAFF_API_URL", "/staffs"),
			CredentialsFile: getEnv("STAFF_CREDENTIALS_FILE", defaultCredentialsFile()),
			RedirectDelayMS: getEnvAsInt("DASHBOARD_REDIRECT_DELAY_MS", 1200),
			TimeoutSeconds:  getEnvAsInt("STAFF_API_TIMEOUT_SECONDS", 15),
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

// ShutdownGrace bounds how long in-flight requests may run after a signal.
func (a AppConfig) ShutdownGrace() time.Duration {
	if a.ShutdownGraceSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(a.ShutdownGraceSeconds) * time.Second
}

// CacheTTL returns how long cached staff entries live.
func (r RedisConfig) CacheTTL() time.Duration {
	if r.CacheTTLSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(r.CacheTTLSeconds) * time.Second
}

// Enabled reports whether remote provisioning is configured.
func (k KeycloakConfig) Enabled() bool {
	return k.ServerURL != ""
}

// Endpoint resolves APIURL against APIHost; an absolute APIURL wins.
func (d DashboardConfig) Endpoint() (string, error) {
	ref, err := url.Parse(d.APIURL)
	if err != nil {
		return "", fmt.Errorf("invalid STAFF_API_URL: %w", err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	base, err := url.Parse(d.APIHost)
	if err != nil || !base.IsAbs() {
		return "", fmt.Errorf("invalid STAFF_API_HOST %q", d.APIHost)
	}
	return base.ResolveReference(ref).String(), nil
}

// RedirectDelay is the pause between a successful mutation and navigation.
func (d DashboardConfig) RedirectDelay() time.Duration {
	if d.RedirectDelayMS < 0 {
		return 0
	}
	return time.Duration(d.RedirectDelayMS) * time.Millisecond
}

// Timeout bounds each call made by the dashboard client.
func (d DashboardConfig) Timeout() time.Duration {
	if d.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(d.TimeoutSeconds) * time.Second
}

func defaultCredentialsFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "credentials.json"
	}
	return filepath.Join(dir, "medinsight", "credentials.json")
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
