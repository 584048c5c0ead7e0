// Package config loads application configuration. Settings come from an
// optional TOML file overridden by environment variables, so containerized
// deployments can run file-less while local setups keep a checked-in
// config.toml.
package config

import (
	"fmt"
	"os"
	"strconv"

	toml "github.com/pelletier/go-toml/v2"
)

// Storage driver names accepted by StorageDriver.
const (
	StorageSQLite   = "sqlite"
	StorageDynamoDB = "dynamodb"
	StorageMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string `toml:"server_address"`
	Environment   string `toml:"environment"`

	// Storage configuration
	StorageDriver string `toml:"storage_driver"`
	SQLitePath    string `toml:"sqlite_path"`

	// AWS configuration
	AWSRegion        string `toml:"aws_region"`
	DynamoDBTable    string `toml:"dynamodb_table"`
	DynamoDBEndpoint string `toml:"dynamodb_endpoint"`

	// Corpus configuration
	LibraryPath  string `toml:"library_path"`
	WatchLibrary bool   `toml:"watch_library"`

	// Lambda configuration
	IsLambda bool `toml:"-"`

	// Logging
	LogLevel string `toml:"log_level"`

	// Authentication
	JWTSecret string `toml:"jwt_secret"`
	JWTIssuer string `toml:"jwt_issuer"`

	// Feature flags
	EnableCORS bool `toml:"enable_cors"`
}

// Load reads the optional TOML file named by READER_CONFIG_FILE and then
// applies environment variables on top.
func Load() (*Config, error) {
	cfg := &Config{
		ServerAddress: ":8080",
		Environment:   "development",
		StorageDriver: StorageSQLite,
		SQLitePath:    "data/reader.db",
		AWSRegion:     "us-west-2",
		DynamoDBTable: "reader-annotations",
		LibraryPath:   "data/library.json",
		WatchLibrary:  true,
		LogLevel:      "info",
		JWTIssuer:     "church-fathers-reader",
		EnableCORS:    true,
	}

	if path := os.Getenv("READER_CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.ServerAddress = getEnv("SERVER_ADDRESS", cfg.ServerAddress)
	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)
	cfg.StorageDriver = getEnv("STORAGE_DRIVER", cfg.StorageDriver)
	cfg.SQLitePath = getEnv("SQLITE_PATH", cfg.SQLitePath)
	cfg.AWSRegion = getEnv("AWS_REGION", cfg.AWSRegion)
	cfg.DynamoDBTable = getEnv("TABLE_NAME", cfg.DynamoDBTable)
	cfg.DynamoDBEndpoint = getEnv("DYNAMODB_ENDPOINT", cfg.DynamoDBEndpoint)
	cfg.LibraryPath = getEnv("LIBRARY_PATH", cfg.LibraryPath)
	cfg.WatchLibrary = getEnvBool("WATCH_LIBRARY", cfg.WatchLibrary)
	cfg.IsLambda = os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.JWTIssuer = getEnv("JWT_ISSUER", cfg.JWTIssuer)
	cfg.EnableCORS = getEnvBool("ENABLE_CORS", cfg.EnableCORS)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageSQLite, StorageDynamoDB, StorageMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
	if c.StorageDriver == StorageSQLite && c.SQLitePath == "" {
		return fmt.Errorf("SQLITE_PATH is required for the sqlite driver")
	}
	if c.StorageDriver == StorageDynamoDB && c.DynamoDBTable == "" {
		return fmt.Errorf("TABLE_NAME is required for the dynamodb driver")
	}
	if c.IsProduction() {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if c.StorageDriver == StorageMemory {
			return fmt.Errorf("the memory driver is not allowed in production")
		}
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if parsed, err := strconv.ParseBool(value); err == nil {
		return parsed
	}
	return value == "yes"
}
