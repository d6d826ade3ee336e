package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ServerConfig is the HTTP listener.
type ServerConfig struct {
	Host string
	Port int
}

// AppConfig is storefront-level settings.
type AppConfig struct {
	// Environment is "development" or "production".
	Environment string
	// BaseURL is the public storefront URL embedded into magic links.
	BaseURL string
}

// InquiryConfig tunes the inquiry subsystem.
type InquiryConfig struct {
	// ContactEmail receives the contact-form notifications.
	ContactEmail string
	// SessionSecret signs inquiry session tokens. Required in production.
	SessionSecret string
	// SessionTTL is the session cookie lifetime.
	SessionTTL time.Duration
	// AccessTokenTTL is how long an unused magic link stays valid.
	AccessTokenTTL time.Duration
	// RetentionDays is how long inquiries are kept.
	RetentionDays int
}

// StoreConfig selects and tunes the persistence backend.
type StoreConfig struct {
	// Dir is where the filesystem backend keeps its JSON document.
	Dir string
}

// SMTPConfig is the outbound mail relay.
type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	From        string
	FromName    string
	ImplicitTLS bool
	// Attempts, Backoff, Timeout, and PerSecond feed the mail dispatcher.
	Attempts  int
	Backoff   time.Duration
	Timeout   time.Duration
	PerSecond float64
}

// Configured reports whether a relay is set up at all.
func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.From != ""
}

// CORSConfig lists the allowed browser origins.
type CORSConfig struct {
	AllowedOrigins []string
}

// LogConfig tunes the zap logger.
type LogConfig struct {
	Level       string
	Development bool
}

// DatabaseConfig is the optional SQL backend.
type DatabaseConfig struct {
	// Type is "postgres" or "mysql"; empty disables the SQL backend.
	Type string
	DSN  string
}

// RedisConfig is the optional shared rate-limit backend.
type RedisConfig struct {
	// Address empty disables Redis; rate limiting falls back in-process.
	Address  string
	Password string
	DB       int
}

// Config is the root configuration.
type Config struct {
	Server   ServerConfig
	App      AppConfig
	Inquiry  InquiryConfig
	Store    StoreConfig
	SMTP     SMTPConfig
	CORS     CORSConfig
	Log      LogConfig
	Database DatabaseConfig
	Redis    RedisConfig
}

// IsProduction reports whether the app runs in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

const devSessionSecret = "dev-only-inquiry-session-secret"

// Load reads configuration from the environment and an optional .env file.
//
// Precedence: real environment variables, then .env, then defaults. All keys
// use the NIKOTRADE_ prefix with underscores, e.g. NIKOTRADE_SERVER_PORT,
// NIKOTRADE_INQUIRY_SESSION_SECRET.
func Load() (*Config, error) {
	loadEnvFile()

	viper.SetEnvPrefix("nikotrade")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("app.environment", "development")
	viper.SetDefault("app.base_url", "http://localhost:3000")
	viper.SetDefault("inquiry.contact_email", "")
	viper.SetDefault("inquiry.session_secret", "")
	viper.SetDefault("inquiry.session_ttl", "24h")
	viper.SetDefault("inquiry.access_token_ttl", "30m")
	viper.SetDefault("inquiry.retention_days", 730)
	viper.SetDefault("store.dir", "data")
	viper.SetDefault("smtp.host", "")
	viper.SetDefault("smtp.port", 465)
	viper.SetDefault("smtp.username", "")
	viper.SetDefault("smtp.password", "")
	viper.SetDefault("smtp.from", "")
	viper.SetDefault("smtp.from_name", "NikoTrade")
	viper.SetDefault("smtp.implicit_tls", true)
	viper.SetDefault("smtp.attempts", 3)
	viper.SetDefault("smtp.backoff", "2s")
	viper.SetDefault("smtp.timeout", "15s")
	viper.SetDefault("smtp.per_second", 1.0)
	viper.SetDefault("cors.allowed_origins", "*")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.development", false)
	viper.SetDefault("database.type", "")
	viper.SetDefault("database.dsn", "")
	viper.SetDefault("redis.address", "")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	environment := strings.ToLower(viper.GetString("app.environment"))
	if environment != "development" && environment != "production" {
		return nil, fmt.Errorf("invalid app.environment %q: must be development or production", environment)
	}

	sessionTTL, err := time.ParseDuration(viper.GetString("inquiry.session_ttl"))
	if err != nil {
		return nil, fmt.Errorf("invalid inquiry.session_ttl: %w", err)
	}

	accessTokenTTL, err := time.ParseDuration(viper.GetString("inquiry.access_token_ttl"))
	if err != nil {
		return nil, fmt.Errorf("invalid inquiry.access_token_ttl: %w", err)
	}

	retentionDays := viper.GetInt("inquiry.retention_days")
	if retentionDays <= 0 {
		return nil, fmt.Errorf("inquiry.retention_days must be positive")
	}

	sessionSecret := viper.GetString("inquiry.session_secret")
	if sessionSecret == "" {
		if environment == "production" {
			return nil, fmt.Errorf("SECURITY ERROR: inquiry session secret is required in production. Set NIKOTRADE_INQUIRY_SESSION_SECRET")
		}
		sessionSecret = devSessionSecret
	}
	if environment == "production" && len(sessionSecret) < 32 {
		return nil, fmt.Errorf("SECURITY ERROR: inquiry session secret must be at least 32 characters long")
	}

	smtpBackoff, err := time.ParseDuration(viper.GetString("smtp.backoff"))
	if err != nil {
		smtpBackoff = 2 * time.Second
	}
	smtpTimeout, err := time.ParseDuration(viper.GetString("smtp.timeout"))
	if err != nil {
		smtpTimeout = 15 * time.Second
	}

	corsOrigins := parseList(viper.GetString("cors.allowed_origins"))
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	databaseType := strings.ToLower(viper.GetString("database.type"))
	if databaseType != "" && databaseType != "postgres" && databaseType != "mysql" {
		return nil, fmt.Errorf("invalid database.type %q: must be postgres or mysql", databaseType)
	}
	if databaseType != "" && viper.GetString("database.dsn") == "" {
		return nil, fmt.Errorf("database.dsn is required when database.type is set")
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: viper.GetString("server.host"),
			Port: viper.GetInt("server.port"),
		},
		App: AppConfig{
			Environment: environment,
			BaseURL:     strings.TrimRight(viper.GetString("app.base_url"), "/"),
		},
		Inquiry: InquiryConfig{
			ContactEmail:   viper.GetString("inquiry.contact_email"),
			SessionSecret:  sessionSecret,
			SessionTTL:     sessionTTL,
			AccessTokenTTL: accessTokenTTL,
			RetentionDays:  retentionDays,
		},
		Store: StoreConfig{
			Dir: viper.GetString("store.dir"),
		},
		SMTP: SMTPConfig{
			Host:        viper.GetString("smtp.host"),
			Port:        viper.GetInt("smtp.port"),
			Username:    viper.GetString("smtp.username"),
			Password:    viper.GetString("smtp.password"),
			From:        viper.GetString("smtp.from"),
			FromName:    viper.GetString("smtp.from_name"),
			ImplicitTLS: viper.GetBool("smtp.implicit_tls"),
			Attempts:    viper.GetInt("smtp.attempts"),
			Backoff:     smtpBackoff,
			Timeout:     smtpTimeout,
			PerSecond:   viper.GetFloat64("smtp.per_second"),
		},
		CORS: CORSConfig{
			AllowedOrigins: corsOrigins,
		},
		Log: LogConfig{
			Level:       viper.GetString("log.level"),
			Development: viper.GetBool("log.development"),
		},
		Database: DatabaseConfig{
			Type: databaseType,
			DSN:  viper.GetString("database.dsn"),
		},
		Redis: RedisConfig{
			Address:  viper.GetString("redis.address"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
	}

	return cfg, nil
}

// parseList splits a comma separated value, dropping empty entries.
func parseList(value string) []string {
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// loadEnvFile loads .env from the working directory or its parent. Missing
// files are fine; real environment variables always win.
func loadEnvFile() {
	if err := godotenv.Load(".env"); err == nil {
		return
	}

	parentEnv := filepath.Join("..", ".env")
	if _, err := os.Stat(parentEnv); err == nil {
		_ = godotenv.Load(parentEnv)
	}
}
