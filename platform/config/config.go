// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// AuthServiceConfig provides settings needed by the auth service.
type AuthServiceConfig interface {
	JWTConfig
	GetAccessTokenTTL() time.Duration
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
}

// AssignmentConfig provides the tunables of the lead assignment core.
type AssignmentConfig interface {
	// GetOfferWindow is the exclusivity window of one offered lead.
	GetOfferWindow() time.Duration
	// GetMaxConcurrentLeads caps accepted-but-open leads per professional.
	GetMaxConcurrentLeads() int
	// GetSweepInterval is the cadence of the expiry safety sweep.
	GetSweepInterval() time.Duration
	// GetMaxOfferAttempts bounds re-offers per case (0 = unbounded).
	GetMaxOfferAttempts() int
}

// SchedulerConfig provides settings for the asynq scheduler and worker.
type SchedulerConfig interface {
	GetRedisURL() string
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// EmailConfig provides settings for SMTP email sending.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
}

// WhatsAppConfig provides settings for the WhatsApp gateway.
type WhatsAppConfig interface {
	GetWhatsAppURL() string
	GetWhatsAppKey() string
}

// StorageConfig provides settings for S3-compatible export storage.
type StorageConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinioBucketExports() string
	IsStorageEnabled() bool
}

// FeeTableConfig locates the optional fee table override file.
type FeeTableConfig interface {
	GetFeeTablePath() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                string
	HTTPAddr           string
	DatabaseURL        string
	JWTAccessSecret    string
	AccessTokenTTL     time.Duration
	CORSAllowAll       bool
	CORSOrigins        []string
	OfferWindow        time.Duration
	MaxConcurrentLeads int
	SweepInterval      time.Duration
	MaxOfferAttempts   int
	RedisURL           string
	AsynqQueueName     string
	AsynqConcurrency   int
	EmailEnabled       bool
	SMTPHost           string
	SMTPPort           int
	SMTPUsername       string
	SMTPPassword       string
	EmailFromName      string
	EmailFromAddress   string
	WhatsAppURL        string
	WhatsAppKey        string
	MinIOEndpoint      string
	MinIOAccessKey     string
	MinIOSecretKey     string
	MinIOUseSSL        bool
	MinioBucketExports string
	FeeTablePath       string
}

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig / AuthServiceConfig implementation
func (c *Config) GetJWTAccessSecret() string       { return c.JWTAccessSecret }
func (c *Config) GetAccessTokenTTL() time.Duration { return c.AccessTokenTTL }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }

// AssignmentConfig implementation
func (c *Config) GetOfferWindow() time.Duration   { return c.OfferWindow }
func (c *Config) GetMaxConcurrentLeads() int      { return c.MaxConcurrentLeads }
func (c *Config) GetSweepInterval() time.Duration { return c.SweepInterval }
func (c *Config) GetMaxOfferAttempts() int        { return c.MaxOfferAttempts }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// EmailConfig implementation
func (c *Config) GetEmailEnabled() bool       { return c.EmailEnabled }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }

// WhatsAppConfig implementation
func (c *Config) GetWhatsAppURL() string { return c.WhatsAppURL }
func (c *Config) GetWhatsAppKey() string { return c.WhatsAppKey }

// StorageConfig implementation
func (c *Config) GetMinIOEndpoint() string      { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string     { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string     { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool          { return c.MinIOUseSSL }
func (c *Config) GetMinioBucketExports() string { return c.MinioBucketExports }
func (c *Config) IsStorageEnabled() bool        { return c.MinIOEndpoint != "" }

// FeeTableConfig implementation
func (c *Config) GetFeeTablePath() string { return c.FeeTablePath }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	smtpHost := getEnv("SMTP_HOST", "")
	emailEnabled := strings.EqualFold(getEnv("EMAIL_ENABLED", "true"), "true")

	cfg := &Config{
		Env:                getEnv("APP_ENV", "development"),
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		JWTAccessSecret:    getEnv("JWT_ACCESS_SECRET", ""),
		AccessTokenTTL:     mustDuration(getEnv("JWT_ACCESS_TTL", "15m")),
		CORSAllowAll:       corsAllowAll,
		CORSOrigins:        corsOrigins,
		OfferWindow:        mustDuration(getEnv("OFFER_WINDOW", "24h")),
		MaxConcurrentLeads: mustInt(getEnv("MAX_CONCURRENT_LEADS", "5")),
		SweepInterval:      mustDuration(getEnv("SWEEP_INTERVAL", "60s")),
		MaxOfferAttempts:   mustInt(getEnv("MAX_OFFER_ATTEMPTS", "0")),
		RedisURL:           getEnv("REDIS_URL", ""),
		AsynqQueueName:     getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:   mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		EmailEnabled:       emailEnabled && smtpHost != "",
		SMTPHost:           smtpHost,
		SMTPPort:           mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:       getEnv("SMTP_USERNAME", ""),
		SMTPPassword:       getEnv("SMTP_PASSWORD", ""),
		EmailFromName:      getEnv("EMAIL_FROM_NAME", "Marketplace"),
		EmailFromAddress:   getEnv("EMAIL_FROM_ADDRESS", ""),
		WhatsAppURL:        getEnv("WHATSAPP_URL", ""),
		WhatsAppKey:        getEnv("WHATSAPP_KEY", ""),
		MinIOEndpoint:      getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:     getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:     getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:        strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinioBucketExports: getEnv("MINIO_BUCKET_EXPORTS", "assignment-exports"),
		FeeTablePath:       getEnv("FEE_TABLE_PATH", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.OfferWindow <= 0 {
		return nil, fmt.Errorf("OFFER_WINDOW must be a positive duration")
	}
	if cfg.MaxConcurrentLeads < 1 {
		return nil, fmt.Errorf("MAX_CONCURRENT_LEADS must be at least 1")
	}
	if cfg.SweepInterval <= 0 {
		return nil, fmt.Errorf("SWEEP_INTERVAL must be a positive duration")
	}
	if cfg.EmailEnabled && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when email is enabled")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
