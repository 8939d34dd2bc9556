package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "dev-only-jwt-secret-change-me-0123456789abcdef"

// Database drivers accepted by DB_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// OAuthClient holds the client registration of one OAuth2 provider.
type OAuthClient struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Enabled reports whether the provider has enough configuration to run a code flow.
func (c OAuthClient) Enabled() bool {
	return c.ClientID != "" && c.RedirectURL != ""
}

// Config holds application configuration.
// It is built once by LoadConfig and treated as read-only afterwards.
type Config struct {
	Port            string
	IsProduction    bool
	LogLevel        slog.Level
	ShutdownTimeout time.Duration
	ServiceName     string

	DatabaseDriver string
	DatabaseURL    string
	SQLitePath     string
	EnableDBCheck  bool
	RunMigrations  bool
	MigrationsPath string

	JWTSecret              string
	AccessTokenTTL         time.Duration
	RefreshTokenTTL        time.Duration
	RefreshTokenCookieName string

	Google OAuthClient
	Kakao  OAuthClient
	Naver  OAuthClient

	FrontendBaseURL    string
	FrontendLoginPath  string
	CORSAllowedOrigins []string
	LoginRateLimit     string

	PosthogAPIKey   string
	PosthogEndpoint string

	OTELEndpoint string
	OTELEnabled  bool

	SeedDevAccounts bool
}

// OAuthRedirectURL is where the browser lands after a successful social login.
func (c *Config) OAuthRedirectURL() string {
	return strings.TrimRight(c.FrontendBaseURL, "/") + c.FrontendLoginPath
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		Port:                   v.GetString("PORT"),
		IsProduction:           v.GetBool("IS_PRODUCTION"),
		ServiceName:            v.GetString("SERVICE_NAME"),
		DatabaseDriver:         strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseURL:            v.GetString("PGSQL_URL"),
		SQLitePath:             v.GetString("SQLITE_PATH"),
		EnableDBCheck:          v.GetBool("ENABLE_DB_CHECK"),
		RunMigrations:          v.GetBool("RUN_MIGRATIONS"),
		MigrationsPath:         v.GetString("MIGRATIONS_PATH"),
		JWTSecret:              v.GetString("JWT_SECRET"),
		RefreshTokenCookieName: v.GetString("REFRESH_TOKEN_COOKIE_NAME"),
		Google: OAuthClient{
			ClientID:     v.GetString("GOOGLE_CLIENT_ID"),
			ClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
			RedirectURL:  v.GetString("GOOGLE_REDIRECT_URL"),
		},
		Kakao: OAuthClient{
			ClientID:     v.GetString("KAKAO_CLIENT_ID"),
			ClientSecret: v.GetString("KAKAO_CLIENT_SECRET"),
			RedirectURL:  v.GetString("KAKAO_REDIRECT_URL"),
		},
		Naver: OAuthClient{
			ClientID:     v.GetString("NAVER_CLIENT_ID"),
			ClientSecret: v.GetString("NAVER_CLIENT_SECRET"),
			RedirectURL:  v.GetString("NAVER_REDIRECT_URL"),
		},
		FrontendBaseURL:   v.GetString("FRONTEND_BASE_URL"),
		FrontendLoginPath: v.GetString("FRONTEND_LOGIN_PATH"),
		LoginRateLimit:    v.GetString("LOGIN_RATE_LIMIT"),
		PosthogAPIKey:     v.GetString("POSTHOG_API_KEY"),
		PosthogEndpoint:   v.GetString("POSTHOG_ENDPOINT"),
		OTELEndpoint:      v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTELEnabled:       v.GetBool("OTEL_ENABLED"),
	}

	cfg.LogLevel = parseLogLevel(v.GetString("LOG_LEVEL"))
	cfg.AccessTokenTTL = parseDuration(v, "ACCESS_TOKEN_TTL", 10*time.Minute)
	cfg.RefreshTokenTTL = parseDuration(v, "REFRESH_TOKEN_TTL", 14*24*time.Hour)
	cfg.ShutdownTimeout = parseDuration(v, "SHUTDOWN_TIMEOUT", 10*time.Second)

	origins := v.GetString("CORS_ALLOWED_ORIGINS")
	if origins == "" {
		origins = cfg.FrontendBaseURL
	}
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
		}
	}

	// Seeding defaults to on outside production only.
	if v.IsSet("SEED_DEV_ACCOUNTS") {
		cfg.SeedDevAccounts = v.GetBool("SEED_DEV_ACCOUNTS") && !cfg.IsProduction
	} else {
		cfg.SeedDevAccounts = !cfg.IsProduction
	}

	for name, client := range map[string]OAuthClient{"GOOGLE": cfg.Google, "KAKAO": cfg.Kakao, "NAVER": cfg.Naver} {
		if !client.Enabled() {
			slog.Warn("OAuth2 provider not configured, social login disabled", slog.String("provider", name))
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SERVICE_NAME", "auth_backend")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("SQLITE_PATH", "auth.db")
	v.SetDefault("ENABLE_DB_CHECK", true)
	v.SetDefault("RUN_MIGRATIONS", true)
	v.SetDefault("MIGRATIONS_PATH", "file://migrations")
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("ACCESS_TOKEN_TTL", "10m")
	v.SetDefault("REFRESH_TOKEN_TTL", "336h")
	v.SetDefault("REFRESH_TOKEN_COOKIE_NAME", "Refresh")
	v.SetDefault("FRONTEND_BASE_URL", "http://localhost:3000")
	v.SetDefault("FRONTEND_LOGIN_PATH", "/test-login.html")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
	v.SetDefault("LOGIN_RATE_LIMIT", "5-M")
	v.SetDefault("POSTHOG_API_KEY", "")
	v.SetDefault("POSTHOG_ENDPOINT", "https://eu.i.posthog.com")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_ENABLED", true)
}

func parseDuration(v *viper.Viper, key string, fallback time.Duration) time.Duration {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		slog.Warn("Invalid duration, using default",
			slog.String("key", key), slog.String("value", raw), slog.String("default", fallback.String()))
		return fallback
	}
	return d
}

func parseLogLevel(raw string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func (c *Config) validate() error {
	var errs []error

	switch c.DatabaseDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("PGSQL_URL is required when DB_DRIVER=postgres"))
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required when DB_DRIVER=sqlite"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.DatabaseDriver))
	}

	// HS256 keys must carry at least 256 bits.
	if len(c.JWTSecret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 32 bytes"))
	}
	if c.IsProduction && c.JWTSecret == defaultJWTSecret {
		errs = append(errs, errors.New("JWT_SECRET must be set in production"))
	}
	if c.RefreshTokenCookieName == "" {
		errs = append(errs, errors.New("REFRESH_TOKEN_COOKIE_NAME cannot be empty"))
	}

	return errors.Join(errs...)
}
