package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Redis     RedisConfig
	Lightning LightningConfig
	Blob      BlobConfig
}

// ServerConfig holds the server configuration
type ServerConfig struct {
	Port int
	// DevMode swaps the Postgres repository and the LND client for
	// in-process fakes. Useful for local frontend work without a node.
	DevMode bool
}

// DatabaseConfig holds the database configuration
type DatabaseConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	DBName     string
	SSLMode    string
	TestDBName string // Separate database for testing
}

// AuthConfig holds the authentication configuration
type AuthConfig struct {
	JWTSecret string
}

// RedisConfig holds the notification relay configuration. An empty Addr
// disables the relay.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LightningConfig holds the LND REST endpoint configuration
type LightningConfig struct {
	RESTAddr    string
	MacaroonHex string
}

// BlobConfig holds the presigned URL configuration
type BlobConfig struct {
	Secret     string
	BaseURL    string
	TTLSeconds int
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.Username, c.Password, c.DBName, c.SSLMode,
	)
}

// LoadConfig loads the configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:    getEnvAsInt("SERVER_PORT", 8080),
			DevMode: getEnvAsBool("DEV_MODE", false),
		},
		Database: DatabaseConfig{
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnvAsInt("DB_PORT", 5432),
			Username:   getEnv("DB_USERNAME", "postgres"),
			Password:   getEnv("DB_PASSWORD", "password"),
			DBName:     getEnv("DB_NAME", "asksats"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			TestDBName: getEnv("TEST_DB_NAME", "asksats_test"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "your-secret-key-here"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Lightning: LightningConfig{
			RESTAddr:    getEnv("LND_REST_ADDR", "https://localhost:8080"),
			MacaroonHex: getEnv("LND_MACAROON_HEX", ""),
		},
		Blob: BlobConfig{
			Secret:     getEnv("BLOB_SECRET", "dev-blob-secret"),
			BaseURL:    getEnv("BLOB_BASE_URL", "http://localhost:9000/blobs"),
			TTLSeconds: getEnvAsInt("BLOB_TTL_SECONDS", 900),
		},
	}
}

// Helper functions to read environment variables
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
