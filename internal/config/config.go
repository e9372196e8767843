package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DefaultAlertSources is used when ALERT_SOURCES is unset.
var DefaultAlertSources = []string{"System Monitor", "Manual Check", "User Report", "Email Alert", "SMS Gateway"}

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Postgres PostgresConfig
	Auth     AuthConfig
	Report   ReportConfig
	Log      LogConfig
}

type ServerConfig struct {
	Addr           string
	StaticDir      string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Driver     string
	SQLitePath string
}

type PostgresConfig struct {
	DatabaseURL string
	Host        string
	Port        string
	User        string
	Password    string
	Database    string
	SSLMode     string
}

type AuthConfig struct {
	Enabled        string
	JWTSecret      string
	JWTAccessTTL   string
	JWTRefreshTTL  string
	CookieSecure   string
	CookieSameSite string
	CookieDomain   string
	CookiePath     string
	AdminUsername  string
	AdminPassword  string
	LoginRate      string
	LoginBurst     string
}

type ReportConfig struct {
	Timezone           string
	AlertSources       []string
	DefaultDevicesFile string
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real env vars win over it.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Server: ServerConfig{
			Addr:           getenv("HTTP_ADDR", ":8080"),
			StaticDir:      os.Getenv("STATIC_DIR"),
			AllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Driver:     strings.ToLower(getenv("DB_DRIVER", DriverPostgres)),
			SQLitePath: getenv("SQLITE_PATH", "cctv_report.db"),
		},
		Postgres: PostgresConfig{
			DatabaseURL: os.Getenv("DATABASE_URL"),
			Host:        getenv("PGHOST", "localhost"),
			Port:        getenv("PGPORT", "5432"),
			User:        os.Getenv("PGUSER"),
			Password:    os.Getenv("PGPASSWORD"),
			Database:    os.Getenv("PGDATABASE"),
			SSLMode:     getenv("PGSSLMODE", "disable"),
		},
		Auth: AuthConfig{
			Enabled:        getenv("AUTH_ENABLED", "true"),
			JWTSecret:      os.Getenv("JWT_SECRET"),
			JWTAccessTTL:   getenv("JWT_ACCESS_TTL", "5m"),
			JWTRefreshTTL:  getenv("JWT_REFRESH_TTL", "168h"),
			CookieSecure:   os.Getenv("AUTH_COOKIE_SECURE"),
			CookieSameSite: os.Getenv("AUTH_COOKIE_SAMESITE"),
			CookieDomain:   os.Getenv("AUTH_COOKIE_DOMAIN"),
			CookiePath:     os.Getenv("AUTH_COOKIE_PATH"),
			AdminUsername:  getenv("ADMIN_USERNAME", "admin"),
			AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
			LoginRate:      getenv("LOGIN_RATE_PER_MINUTE", "10"),
			LoginBurst:     getenv("LOGIN_RATE_BURST", "5"),
		},
		Report: ReportConfig{
			Timezone:           getenv("REPORT_TIMEZONE", "UTC"),
			AlertSources:       alertSources(os.Getenv("ALERT_SOURCES")),
			DefaultDevicesFile: os.Getenv("DEFAULT_DEVICES_FILE"),
		},
		Log: LogConfig{
			Level:  getenv("LOG_LEVEL", "info"),
			Format: getenv("LOG_FORMAT", "json"),
		},
	}
}

// Validate reports settings that would stop the server from starting.
func (c Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver))
	}
	if c.Database.Driver == DriverSQLite && strings.TrimSpace(c.Database.SQLitePath) == "" {
		errs = append(errs, errors.New("SQLITE_PATH is required for the sqlite driver"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("invalid REPORT_TIMEZONE: %w", err))
	}
	if len(c.Report.AlertSources) == 0 {
		errs = append(errs, errors.New("ALERT_SOURCES must list at least one source"))
	}
	if _, err := c.Auth.IsEnabled(); err != nil {
		errs = append(errs, fmt.Errorf("invalid AUTH_ENABLED: %w", err))
	}
	if _, _, err := c.Auth.LoginLimit(); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "", "json", "console":
	default:
		errs = append(errs, fmt.Errorf("unsupported LOG_FORMAT %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// IsEnabled reports whether device mutations and settings require a token.
// Unset means enabled.
func (a AuthConfig) IsEnabled() (bool, error) {
	if strings.TrimSpace(a.Enabled) == "" {
		return true, nil
	}
	return strconv.ParseBool(strings.TrimSpace(a.Enabled))
}

// LoginLimit returns the per-IP login attempts per minute and burst size.
func (a AuthConfig) LoginLimit() (perMinute, burst int, err error) {
	perMinute, err = atoiOr(a.LoginRate, 10)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid LOGIN_RATE_PER_MINUTE: %w", err)
	}
	burst, err = atoiOr(a.LoginBurst, 5)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid LOGIN_RATE_BURST: %w", err)
	}
	return perMinute, burst, nil
}

func atoiOr(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

// Location returns the zone used for month/year windows and zone-less
// incident times.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Report.Timezone)
}

func alertSources(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		out := make([]string, len(DefaultAlertSources))
		copy(out, DefaultAlertSources)
		return out
	}
	return splitList(raw)
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
