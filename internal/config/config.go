package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// Create a new instance of the logger
// Configure it to log at the desired level
// and format it as JSON for structured logging
var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(LevelFromEnv())
}

// LevelFromEnv picks the log level for the package loggers. An explicit
// LOG_LEVEL wins; otherwise APP_ENV decides (development: debug,
// production: error, anything else: info).
func LevelFromEnv() logrus.Level {
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		if level, err := logrus.ParseLevel(raw); err == nil {
			return level
		}
	}
	switch GetEnvWithDefault("APP_ENV", "development") {
	case "development":
		return logrus.DebugLevel
	case "production":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// Config used for the application configuration, loading the input from environment variables
type Config struct {
	// Server Configuration
	Port        int      `json:"port"`
	Host        string   `json:"host"`
	CORSOrigins []string `json:"cors_origins"`

	// Database configuration
	DBDriver   string `json:"db_driver"`
	DBPath     string `json:"db_path"`
	DBHost     string `json:"db_host"`
	DBPort     string `json:"db_port"`
	DBName     string `json:"db_name"`
	DBUser     string `json:"db_user"`
	DBPassword string `json:"db_password"`
	DBSSLMode  string `json:"db_sslmode"`

	// Logging configuration
	LogLevel string `json:"log_level"`

	// Security Configuration
	JWTSecret         string `json:"jwt_secret"`
	OAuthClientID     string `json:"oauth_client_id"`
	OAuthClientSecret string `json:"oauth_client_secret"`
	TokenTTLHours     int    `json:"token_ttl_hours"`

	// Recipe rules
	MaxCookingTime    int `json:"max_cooking_time"`
	RecipeCreateLimit int `json:"recipe_create_limit"`

	// Media storage
	StorageDriver string `json:"storage_driver"`
	MediaRoot     string `json:"media_root"`
	MediaURL      string `json:"media_url"`
	S3Bucket      string `json:"s3_bucket"`
	S3Region      string `json:"s3_region"`
	S3Endpoint    string `json:"s3_endpoint"`
	S3PublicURL   string `json:"s3_public_url"`

	// Redis backs the recipe creation rate limiter; empty disables it
	RedisURL string `json:"redis_url"`
}

// String returns a string representation of Config with sensitive data masked
func (c *Config) String() string {
	return fmt.Sprintf("Config{Port: %d, Host: %s, DBDriver: %s, DBHost: %s, DBName: %s, DBUser: %s, DBPassword: [REDACTED], LogLevel: %s, JWTSecret: [REDACTED], OAuthClientID: %s, OAuthClientSecret: [REDACTED], MaxCookingTime: %d, StorageDriver: %s, RedisURL: %s}",
		c.Port, c.Host, c.DBDriver, c.DBHost, c.DBName, c.DBUser, c.LogLevel, c.OAuthClientID, c.MaxCookingTime, c.StorageDriver, maskURL(c.RedisURL))
}

// maskURL hides everything after the scheme of a URL carrying credentials
func maskURL(raw string) string {
	if raw == "" {
		return ""
	}
	if i := strings.Index(raw, "@"); i >= 0 {
		if j := strings.Index(raw, "://"); j >= 0 && j < i {
			return raw[:j+3] + "[REDACTED]" + raw[i:]
		}
		return "[REDACTED]" + raw[i:]
	}
	return raw
}

// LoadConfig read the proper configuration from environment variables and returns a Config struct
// Returns an error if any numeric variable is malformed or a value is out of range
func LoadConfig() (*Config, error) {
	log.Info("Loading configuration from environment variables")
	port, err := strconv.Atoi(GetEnvWithDefault("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	maxCookingTime, err := strconv.Atoi(GetEnvWithDefault("MAX_COOKING_TIME", "32000"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_COOKING_TIME: %w", err)
	}
	if maxCookingTime < 1 {
		return nil, fmt.Errorf("MAX_COOKING_TIME must be positive, got %d", maxCookingTime)
	}

	storageDriver := strings.ToLower(GetEnvWithDefault("STORAGE_DRIVER", "local"))
	if storageDriver != "local" && storageDriver != "s3" {
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER: %s (supported: local, s3)", storageDriver)
	}

	config := &Config{
		Port:              port,
		Host:              GetEnvWithDefault("APP_HOST", "localhost"),
		CORSOrigins:       splitList(GetEnvWithDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		DBDriver:          GetEnvWithDefault("DB_DRIVER", "sqlite"),
		DBPath:            GetEnvWithDefault("DB_PATH", "foodgram.sqlite"),
		DBHost:            GetEnvWithDefault("DB_HOST", "localhost"),
		DBPort:            GetEnvWithDefault("DB_PORT", "5432"),
		DBName:            GetEnvWithDefault("DB_NAME", "foodgram"),
		DBUser:            GetEnvWithDefault("DB_USER", "foodgram"),
		DBPassword:        GetEnvWithDefault("DB_PASSWORD", "password"),
		DBSSLMode:         GetEnvWithDefault("DB_SSLMODE", "disable"),
		LogLevel:          GetEnvWithDefault("LOG_LEVEL", "info"),
		JWTSecret:         GetEnvWithDefault("JWT_SECRET", "secret"),
		OAuthClientID:     GetEnvWithDefault("OAUTH_CLIENT_ID", "foodgram-web"),
		OAuthClientSecret: GetEnvWithDefault("OAUTH_CLIENT_SECRET", "foodgram-web-secret"),
		TokenTTLHours:     GetEnvAsType("TOKEN_TTL_HOURS", 24*7),
		MaxCookingTime:    maxCookingTime,
		RecipeCreateLimit: GetEnvAsType("RECIPE_CREATE_LIMIT", 30),
		StorageDriver:     storageDriver,
		MediaRoot:         GetEnvWithDefault("MEDIA_ROOT", "media"),
		MediaURL:          GetEnvWithDefault("MEDIA_URL", "/media/"),
		S3Bucket:          GetEnvWithDefault("S3_BUCKET_NAME", "foodgram-media"),
		S3Region:          GetEnvWithDefault("AWS_REGION", "us-east-1"),
		S3Endpoint:        GetEnvWithDefault("S3_ENDPOINT", ""),
		S3PublicURL:       GetEnvWithDefault("S3_PUBLIC_URL", ""),
		RedisURL:          GetEnvWithDefault("REDIS_URL", ""),
	}
	log.Infof("Configuration loaded: %s", config.String())
	return config, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Helper to get environment with default values
func GetEnvWithDefault(key, defaultValue string) string {
	log.Tracef("Getting environment variable: %s", key)
	value := os.Getenv(key)
	if value == "" {
		log.Debugf("Environment variable %s not set, using default value", key)
		return defaultValue
	}
	return value
}

// GetEnvAsType retrieves an environment variable and converts it to the specified type
// using generic type handling.
func GetEnvAsType[T any](key string, defaultValue T) T {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var result T
	switch any(result).(type) {
	case int:
		intValue, err := strconv.Atoi(value)
		if err != nil {
			return defaultValue
		}
		return any(intValue).(T)
	case string:
		return any(value).(T)
	case bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return any(boolValue).(T)
	default:
		return defaultValue // Fallback for unsupported types
	}
}
