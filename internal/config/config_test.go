package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var configEnvKeys = []string{
	"NIKOTRADE_SERVER_HOST",
	"NIKOTRADE_SERVER_PORT",
	"NIKOTRADE_APP_ENVIRONMENT",
	"NIKOTRADE_APP_BASE_URL",
	"NIKOTRADE_INQUIRY_CONTACT_EMAIL",
	"NIKOTRADE_INQUIRY_SESSION_SECRET",
	"NIKOTRADE_INQUIRY_SESSION_TTL",
	"NIKOTRADE_INQUIRY_ACCESS_TOKEN_TTL",
	"NIKOTRADE_INQUIRY_RETENTION_DAYS",
	"NIKOTRADE_STORE_DIR",
	"NIKOTRADE_SMTP_HOST",
	"NIKOTRADE_SMTP_PORT",
	"NIKOTRADE_SMTP_FROM",
	"NIKOTRADE_CORS_ALLOWED_ORIGINS",
	"NIKOTRADE_LOG_LEVEL",
	"NIKOTRADE_LOG_DEVELOPMENT",
	"NIKOTRADE_DATABASE_TYPE",
	"NIKOTRADE_DATABASE_DSN",
	"NIKOTRADE_REDIS_ADDRESS",
}

func withCleanEnv(t *testing.T) {
	t.Helper()

	original := make(map[string]string)
	for _, key := range configEnvKeys {
		original[key] = os.Getenv(key)
		os.Unsetenv(key)
	}

	t.Cleanup(func() {
		for key, value := range original {
			if value == "" {
				os.Unsetenv(key)
			} else {
				os.Setenv(key, value)
			}
		}
	})
}

func TestLoadDefaults(t *testing.T) {
	withCleanEnv(t)

	cfg, err := Load()

	assert.NoError(t, err)
	assert.NotNil(t, cfg)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "development", cfg.App.Environment)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "http://localhost:3000", cfg.App.BaseURL)
	assert.Equal(t, 24*time.Hour, cfg.Inquiry.SessionTTL)
	assert.Equal(t, 30*time.Minute, cfg.Inquiry.AccessTokenTTL)
	assert.Equal(t, 730, cfg.Inquiry.RetentionDays)
	assert.Equal(t, devSessionSecret, cfg.Inquiry.SessionSecret)
	assert.Equal(t, "data", cfg.Store.Dir)
	assert.False(t, cfg.SMTP.Configured())
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Database.Type)
	assert.Empty(t, cfg.Redis.Address)
}

func TestLoadCustomValues(t *testing.T) {
	withCleanEnv(t)

	os.Setenv("NIKOTRADE_SERVER_HOST", "127.0.0.1")
	os.Setenv("NIKOTRADE_SERVER_PORT", "9090")
	os.Setenv("NIKOTRADE_APP_BASE_URL", "https://nikotrade.hr/")
	os.Setenv("NIKOTRADE_INQUIRY_CONTACT_EMAIL", "prodaja@nikotrade.hr")
	os.Setenv("NIKOTRADE_INQUIRY_SESSION_TTL", "12h")
	os.Setenv("NIKOTRADE_SMTP_HOST", "smtp.gmail.com")
	os.Setenv("NIKOTRADE_SMTP_FROM", "noreply@nikotrade.hr")
	os.Setenv("NIKOTRADE_CORS_ALLOWED_ORIGINS", "https://nikotrade.hr,https://www.nikotrade.hr")
	os.Setenv("NIKOTRADE_LOG_LEVEL", "debug")
	os.Setenv("NIKOTRADE_LOG_DEVELOPMENT", "true")

	cfg, err := Load()

	assert.NoError(t, err)
	assert.NotNil(t, cfg)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "https://nikotrade.hr", cfg.App.BaseURL, "trailing slash should be trimmed")
	assert.Equal(t, "prodaja@nikotrade.hr", cfg.Inquiry.ContactEmail)
	assert.Equal(t, 12*time.Hour, cfg.Inquiry.SessionTTL)
	assert.True(t, cfg.SMTP.Configured())
	assert.Equal(t, []string{"https://nikotrade.hr", "https://www.nikotrade.hr"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Development)
}

func TestLoadProductionRequiresSessionSecret(t *testing.T) {
	withCleanEnv(t)

	os.Setenv("NIKOTRADE_APP_ENVIRONMENT", "production")

	cfg, err := Load()

	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "session secret is required in production")
}

func TestLoadProductionRejectsShortSecret(t *testing.T) {
	withCleanEnv(t)

	os.Setenv("NIKOTRADE_APP_ENVIRONMENT", "production")
	os.Setenv("NIKOTRADE_INQUIRY_SESSION_SECRET", "too-short")

	cfg, err := Load()

	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "at least 32 characters")
}

func TestLoadProductionAcceptsStrongSecret(t *testing.T) {
	withCleanEnv(t)

	os.Setenv("NIKOTRADE_APP_ENVIRONMENT", "production")
	os.Setenv("NIKOTRADE_INQUIRY_SESSION_SECRET", "a-strong-production-secret-at-least-32-chars")

	cfg, err := Load()

	assert.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.True(t, cfg.IsProduction())
}

func TestLoadRejectsInvalidEnvironment(t *testing.T) {
	withCleanEnv(t)

	os.Setenv("NIKOTRADE_APP_ENVIRONMENT", "staging")

	cfg, err := Load()

	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "app.environment")
}

func TestLoadRejectsInvalidSessionTTL(t *testing.T) {
	withCleanEnv(t)

	os.Setenv("NIKOTRADE_INQUIRY_SESSION_TTL", "not-a-duration")

	cfg, err := Load()

	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "invalid inquiry.session_ttl")
}

func TestLoadRejectsDatabaseTypeWithoutDSN(t *testing.T) {
	withCleanEnv(t)

	os.Setenv("NIKOTRADE_DATABASE_TYPE", "postgres")

	cfg, err := Load()

	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "database.dsn is required")
}

func TestLoadRejectsUnknownDatabaseType(t *testing.T) {
	withCleanEnv(t)

	os.Setenv("NIKOTRADE_DATABASE_TYPE", "oracle")
	os.Setenv("NIKOTRADE_DATABASE_DSN", "some-dsn")

	cfg, err := Load()

	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "database.type")
}

func TestParseList(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected []string
	}{
		{"single item", "item1", []string{"item1"}},
		{"multiple items", "item1,item2,item3", []string{"item1", "item2", "item3"}},
		{"items with spaces", " item1 , item2 ", []string{"item1", "item2"}},
		{"empty string", "", []string{}},
		{"only commas", ",,,", []string{}},
		{"mixed empties", "item1,,item2,", []string{"item1", "item2"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, parseList(tc.input))
		})
	}
}
