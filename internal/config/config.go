// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

const (
	LedgerDriverMemory   = "memory"
	LedgerDriverPostgres = "postgres"

	RevokedReusable = "reusable"
	RevokedRetired  = "retired"
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

type Config struct {
	Environment string
	LogLevel    string
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Redis       RedisConfig
	AWS         AWSConfig
	Ledger      LedgerConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	I18n        I18nConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

type JWTConfig struct {
	SecretKey      string
	Issuer         string
	AccessTokenTTL time.Duration
	// NonceTTL bounds how long a sign-in challenge may stay unsigned.
	NonceTTL time.Duration
}

// RedisConfig is optional. Without a URL sign-in nonces stay in process.
type RedisConfig struct {
	URL      string
	PoolSize int
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	CloudFrontURL   string
	MaxDocumentMB   int
}

type LedgerConfig struct {
	Driver            string
	AdminAddress      string
	ContractAddress   string
	EnforceUniqueness bool
	ValidityDays      int
	RevokedPolicy     string
	ScanConcurrency   int
	CallTimeout       time.Duration
}

type RateLimitConfig struct {
	GeneralPerSecond int
	GeneralBurst     int
	VerifyPerMinute  int
	VerifyBurst      int
	UploadPerMinute  int
	UploadBurst      int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type I18nConfig struct {
	DefaultLocale string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 60),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "licensechain"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "warn"),
		},
		JWT: JWTConfig{
			SecretKey:      getEnv("JWT_SECRET", defaultJWTSecret),
			Issuer:         getEnv("JWT_ISSUER", "licensechain"),
			AccessTokenTTL: getEnvAsDuration("JWT_ACCESS_TTL", 24*time.Hour),
			NonceTTL:       getEnvAsDuration("AUTH_NONCE_TTL", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", ""),
			PoolSize: getEnvAsInt("REDIS_POOL_SIZE", 10),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:        getEnv("AWS_S3_BUCKET", "licensechain-documents"),
			CloudFrontURL:   getEnv("AWS_CLOUDFRONT_URL", ""),
			MaxDocumentMB:   getEnvAsInt("DOCUMENT_MAX_SIZE_MB", 10),
		},
		Ledger: LedgerConfig{
			Driver:            strings.ToLower(getEnv("LEDGER_DRIVER", LedgerDriverMemory)),
			AdminAddress:      getEnv("LEDGER_ADMIN_ADDRESS", ""),
			ContractAddress:   getEnv("LEDGER_CONTRACT_ADDRESS", ""),
			EnforceUniqueness: getEnvAsBool("LEDGER_ENFORCES_UNIQUENESS", false),
			ValidityDays:      getEnvAsInt("LEDGER_LICENSE_VALIDITY_DAYS", 365),
			RevokedPolicy:     strings.ToLower(getEnv("LEDGER_REVOKED_REUSE", RevokedReusable)),
			ScanConcurrency:   getEnvAsInt("LEDGER_SCAN_CONCURRENCY", 8),
			CallTimeout:       getEnvAsDuration("LEDGER_CALL_TIMEOUT", 30*time.Second),
		},
		RateLimit: RateLimitConfig{
			GeneralPerSecond: getEnvAsInt("RATE_LIMIT_GENERAL_PER_SECOND", 10),
			GeneralBurst:     getEnvAsInt("RATE_LIMIT_GENERAL_BURST", 20),
			VerifyPerMinute:  getEnvAsInt("RATE_LIMIT_VERIFY_PER_MINUTE", 30),
			VerifyBurst:      getEnvAsInt("RATE_LIMIT_VERIFY_BURST", 10),
			UploadPerMinute:  getEnvAsInt("RATE_LIMIT_UPLOAD_PER_MINUTE", 10),
			UploadBurst:      getEnvAsInt("RATE_LIMIT_UPLOAD_BURST", 5),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		},
		I18n: I18nConfig{
			DefaultLocale: getEnv("DEFAULT_LOCALE", "en"),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == defaultJWTSecret && c.Environment == "production" {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	if c.JWT.AccessTokenTTL <= 0 || c.JWT.NonceTTL <= 0 {
		return fmt.Errorf("JWT_ACCESS_TTL and AUTH_NONCE_TTL must be positive")
	}

	if !addressPattern.MatchString(c.Ledger.AdminAddress) {
		return fmt.Errorf("LEDGER_ADMIN_ADDRESS must be a 0x-prefixed 20-byte hex address, got %q", c.Ledger.AdminAddress)
	}

	switch c.Ledger.Driver {
	case LedgerDriverMemory:
		if c.Environment == "production" {
			return fmt.Errorf("ledger driver %q cannot be used in production", c.Ledger.Driver)
		}
	case LedgerDriverPostgres:
		if c.Database.Password == "" && c.Environment == "production" {
			return fmt.Errorf("database password is required in production")
		}
	default:
		return fmt.Errorf("unknown ledger driver %q", c.Ledger.Driver)
	}

	if c.Ledger.RevokedPolicy != RevokedReusable && c.Ledger.RevokedPolicy != RevokedRetired {
		return fmt.Errorf("LEDGER_REVOKED_REUSE must be %q or %q", RevokedReusable, RevokedRetired)
	}

	if c.Ledger.ValidityDays <= 0 {
		return fmt.Errorf("LEDGER_LICENSE_VALIDITY_DAYS must be positive")
	}

	return nil
}

// Validity is the ledger-side approval window.
func (l LedgerConfig) Validity() time.Duration {
	return time.Duration(l.ValidityDays) * 24 * time.Hour
}

// RevokedReusable reports whether a revoked record frees its registration number.
func (l LedgerConfig) RevokedReusable() bool {
	return l.RevokedPolicy == RevokedReusable
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// DSN is the postgres connection string gorm opens.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}
