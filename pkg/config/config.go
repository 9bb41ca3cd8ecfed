// Package config provides configuration handling for the workflow engine.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/hacking-linux/workflow/pkg/logging"
	"github.com/hacking-linux/workflow/pkg/storage"
)

// Config represents the application configuration
type Config struct {
	// Storage configuration
	Storage StorageConfig `json:"storage"`

	// Logging configuration
	Logging logging.LogConfig `json:"logging"`

	// Server configuration (used by the serve command)
	Server ServerConfig `json:"server"`

	// Engine configuration
	Engine EngineConfig `json:"engine"`

	// Schedules pair cron specs with flow names for the serve command
	Schedules []ScheduleConfig `json:"schedules,omitempty"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	// Host to bind to
	Host string `json:"host"`

	// Port to listen on
	Port int `json:"port"`
}

// EngineConfig contains execution settings
type EngineConfig struct {
	// StepTimeoutMS bounds each step's execution; zero means no deadline
	StepTimeoutMS int `json:"step_timeout_ms"`
}

// ScheduleConfig runs a flow on a cron schedule
type ScheduleConfig struct {
	// Spec is the cron expression
	Spec string `json:"spec"`

	// Flow is the name of the flow to run
	Flow string `json:"flow"`
}

// StorageConfig contains storage settings
type StorageConfig struct {
	// Type of storage to use: "memory", "postgresql", "redis", or "dynamodb"
	Type string `json:"type"`

	// Postgres configuration
	Postgres PostgresConfig `json:"postgres"`

	// Redis configuration
	Redis RedisConfig `json:"redis"`

	// DynamoDB configuration
	DynamoDB DynamoDBConfig `json:"dynamodb"`
}

// PostgresConfig contains PostgreSQL settings
type PostgresConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"ssl_mode"`
	Table    string `json:"table"`
}

// RedisConfig contains Redis settings
type RedisConfig struct {
	Address   string `json:"address"`
	Password  string `json:"password"`
	DB        int    `json:"db"`
	KeyPrefix string `json:"key_prefix"`
}

// DynamoDBConfig contains DynamoDB settings
type DynamoDBConfig struct {
	Region      string `json:"region"`
	Endpoint    string `json:"endpoint"`
	TablePrefix string `json:"table_prefix"`
}

// DefaultConfig returns the configuration used when nothing is specified
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Type: "memory",
			Postgres: PostgresConfig{
				Host: "localhost",
				Port: 5432,
			},
			Redis: RedisConfig{
				Address: "localhost:6379",
			},
			DynamoDB: DynamoDBConfig{
				Region: "us-east-1",
			},
		},
		Logging: logging.LogConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
	}
}

// LoadConfig builds the configuration from defaults, an optional JSON file,
// and environment variable overrides, in that order. A .env file in the
// working directory is loaded first if present.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvironment()
	return cfg, nil
}

// applyEnvironment overrides configuration values from WORKFLOW_* variables
func (c *Config) applyEnvironment() {
	setString(&c.Storage.Type, "WORKFLOW_STORAGE_TYPE")

	setString(&c.Storage.Postgres.Host, "POSTGRES_HOST")
	setInt(&c.Storage.Postgres.Port, "POSTGRES_PORT")
	setString(&c.Storage.Postgres.User, "POSTGRES_USER")
	setString(&c.Storage.Postgres.Password, "POSTGRES_PASSWORD")
	setString(&c.Storage.Postgres.Database, "POSTGRES_DB")

	setString(&c.Storage.Redis.Address, "REDIS_ADDR")
	setString(&c.Storage.Redis.Password, "REDIS_PASSWORD")

	setString(&c.Storage.DynamoDB.Region, "AWS_REGION")
	setString(&c.Storage.DynamoDB.Endpoint, "DYNAMODB_ENDPOINT")

	setString(&c.Logging.Level, "WORKFLOW_LOG_LEVEL")
	setString(&c.Logging.Format, "WORKFLOW_LOG_FORMAT")
	setString(&c.Logging.Output, "WORKFLOW_LOG_OUTPUT")
	setString(&c.Logging.FilePath, "WORKFLOW_LOG_FILE")

	setString(&c.Server.Host, "WORKFLOW_SERVER_HOST")
	setInt(&c.Server.Port, "WORKFLOW_SERVER_PORT")

	setInt(&c.Engine.StepTimeoutMS, "WORKFLOW_STEP_TIMEOUT_MS")
}

// ProviderConfig maps the storage section onto the storage factory's input
func (c *Config) ProviderConfig() storage.ProviderConfig {
	return storage.ProviderConfig{
		Type: storage.ProviderType(c.Storage.Type),
		PostgreSQL: &storage.PostgreSQLProviderConfig{
			Host:     c.Storage.Postgres.Host,
			Port:     c.Storage.Postgres.Port,
			User:     c.Storage.Postgres.User,
			Password: c.Storage.Postgres.Password,
			Database: c.Storage.Postgres.Database,
			SSLMode:  c.Storage.Postgres.SSLMode,
			Table:    c.Storage.Postgres.Table,
		},
		Redis: &storage.RedisProviderConfig{
			Address:   c.Storage.Redis.Address,
			Password:  c.Storage.Redis.Password,
			DB:        c.Storage.Redis.DB,
			KeyPrefix: c.Storage.Redis.KeyPrefix,
		},
		DynamoDB: &storage.DynamoDBProviderConfig{
			Region:      c.Storage.DynamoDB.Region,
			AccessKey:   os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretKey:   os.Getenv("AWS_SECRET_ACCESS_KEY"),
			Endpoint:    c.Storage.DynamoDB.Endpoint,
			TablePrefix: c.Storage.DynamoDB.TablePrefix,
		},
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}
