package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// UnmappedDomainPolicy controls what the tenant resolver does when an email
// domain has no active mapping. Decided once at startup.
type UnmappedDomainPolicy string

const (
	PolicyBlock           UnmappedDomainPolicy = "block"
	PolicyAutoCreate      UnmappedDomainPolicy = "auto-create"
	PolicyDefaultFallback UnmappedDomainPolicy = "default-fallback"
)

// DBConfig holds database configuration
type DBConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        logger.LogLevel
}

// GetDSN returns the PostgreSQL connection string
func (c *DBConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	SigningKey string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// TenantConfig holds tenant resolution configuration
type TenantConfig struct {
	UnmappedDomainPolicy UnmappedDomainPolicy
	CacheTTL             time.Duration
	LookupTimeout        time.Duration
}

// NotificationConfig holds notification engine configuration
type NotificationConfig struct {
	Timezone      string
	ScanInterval  time.Duration
	DigestEnabled bool
}

// MailConfig holds digest mail configuration
type MailConfig struct {
	AWSRegion string
	FromEmail string
}

// Config holds all configuration
type Config struct {
	DB           DBConfig
	Server       ServerConfig
	JWT          JWTConfig
	Log          LogConfig
	Tenant       TenantConfig
	Notification NotificationConfig
	Mail         MailConfig
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Not returning error as .env file is optional
		fmt.Printf("Warning: .env file not found, using environment variables\n")
	}

	config := &Config{
		DB: DBConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "password"),
			DBName:          getEnv("DB_NAME", "sme_suite"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 1*time.Hour),
			LogLevel:        getEnvAsLogLevel("DB_LOG_LEVEL", logger.Warn),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("APP_ENV", "development"),
		},
		JWT: JWTConfig{
			SigningKey: getEnv("JWT_SIGNING_KEY", "smesuitesecretkey"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Tenant: TenantConfig{
			UnmappedDomainPolicy: getEnvAsPolicy("UNMAPPED_DOMAIN_POLICY", PolicyDefaultFallback),
			CacheTTL:             getEnvAsDuration("TENANT_CACHE_TTL", 5*time.Minute),
			LookupTimeout:        getEnvAsDuration("RESOLVER_LOOKUP_TIMEOUT", 3*time.Second),
		},
		Notification: NotificationConfig{
			Timezone:      getEnv("APP_TIMEZONE", "Asia/Dubai"),
			ScanInterval:  getEnvAsDuration("NOTIFICATION_SCAN_INTERVAL", 24*time.Hour),
			DigestEnabled: getEnvAsBool("DIGEST_ENABLED", true),
		},
		Mail: MailConfig{
			AWSRegion: getEnv("AWS_REGION", "me-central-1"),
			FromEmail: getEnv("DIGEST_FROM_EMAIL", "noreply@smesuite.ae"),
		},
	}

	return config, nil
}

// LogConfig returns the configuration as a zap logger-friendly format
func (c *Config) LogConfig() []zap.Field {
	return []zap.Field{
		zap.String("environment", c.Server.Env),
		zap.String("db_host", c.DB.Host),
		zap.String("db_port", c.DB.Port),
		zap.String("db_name", c.DB.DBName),
		zap.String("server_port", c.Server.Port),
		zap.String("unmapped_domain_policy", string(c.Tenant.UnmappedDomainPolicy)),
	}
}

// Helper function to get environment variables with defaults
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as integers
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as booleans
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as durations
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as log levels
func getEnvAsLogLevel(key string, defaultValue logger.LogLevel) logger.LogLevel {
	valueStr := getEnv(key, "")
	switch valueStr {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return defaultValue
	}
}

// Helper function to get the unmapped domain policy; unknown values fall back
// to the default rather than failing startup.
func getEnvAsPolicy(key string, defaultValue UnmappedDomainPolicy) UnmappedDomainPolicy {
	switch UnmappedDomainPolicy(getEnv(key, "")) {
	case PolicyBlock:
		return PolicyBlock
	case PolicyAutoCreate:
		return PolicyAutoCreate
	case PolicyDefaultFallback:
		return PolicyDefaultFallback
	default:
		return defaultValue
	}
}
