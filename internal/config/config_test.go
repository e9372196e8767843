package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("ALERT_SOURCES", "")
	t.Setenv("REPORT_TIMEZONE", "")
	t.Setenv("JWT_ACCESS_TTL", "")

	cfg := Load()

	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "UTC", cfg.Report.Timezone)
	assert.Equal(t, "5m", cfg.Auth.JWTAccessTTL)
	assert.Equal(t, DefaultAlertSources, cfg.Report.AlertSources)
	require.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/report.db")
	t.Setenv("ALERT_SOURCES", " NVR Health , ,Patrol ")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:5173,https://cctv.example")
	t.Setenv("REPORT_TIMEZONE", "Asia/Bangkok")

	cfg := Load()

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "/tmp/report.db", cfg.Database.SQLitePath)
	assert.Equal(t, []string{"NVR Health", "Patrol"}, cfg.Report.AlertSources)
	assert.Equal(t, []string{"http://localhost:5173", "https://cctv.example"}, cfg.Server.AllowedOrigins)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Bangkok", loc.String())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "unknown-driver",
			mutate:  func(c *Config) { c.Database.Driver = "mysql" },
			wantErr: `unsupported DB_DRIVER "mysql"`,
		},
		{
			name: "sqlite-without-path",
			mutate: func(c *Config) {
				c.Database.Driver = DriverSQLite
				c.Database.SQLitePath = " "
			},
			wantErr: "SQLITE_PATH is required",
		},
		{
			name:    "bad-timezone",
			mutate:  func(c *Config) { c.Report.Timezone = "Mars/Olympus" },
			wantErr: "invalid REPORT_TIMEZONE",
		},
		{
			name:    "bad-auth-enabled",
			mutate:  func(c *Config) { c.Auth.Enabled = "sometimes" },
			wantErr: "invalid AUTH_ENABLED",
		},
		{
			name:    "bad-login-rate",
			mutate:  func(c *Config) { c.Auth.LoginRate = "fast" },
			wantErr: "invalid LOGIN_RATE_PER_MINUTE",
		},
		{
			name:    "bad-log-format",
			mutate:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: "unsupported LOG_FORMAT",
		},
		{
			name:    "no-alert-sources",
			mutate:  func(c *Config) { c.Report.AlertSources = nil },
			wantErr: "ALERT_SOURCES",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{
				Database: DatabaseConfig{Driver: DriverPostgres},
				Report:   ReportConfig{Timezone: "UTC", AlertSources: DefaultAlertSources},
			}
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAuthHelpers(t *testing.T) {
	enabled, err := AuthConfig{}.IsEnabled()
	require.NoError(t, err)
	assert.True(t, enabled)

	enabled, err = AuthConfig{Enabled: "false"}.IsEnabled()
	require.NoError(t, err)
	assert.False(t, enabled)

	perMinute, burst, err := AuthConfig{}.LoginLimit()
	require.NoError(t, err)
	assert.Equal(t, 10, perMinute)
	assert.Equal(t, 5, burst)

	perMinute, burst, err = AuthConfig{LoginRate: "0", LoginBurst: "3"}.LoginLimit()
	require.NoError(t, err)
	assert.Equal(t, 0, perMinute)
	assert.Equal(t, 3, burst)
}
