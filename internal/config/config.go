// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/fingrow/acf-backend/internal/acf"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	ACF         ACFConfig
	Commission  CommissionConfig
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

type ACFConfig struct {
	SystemRootWorldID  string
	DefaultRootWorldID string
	RespectAccepting   bool
	DefaultAccepting   bool
	AutoCloseWhenFull  bool
	DefaultMaxChildren int
	ReconcileSchedule  string
}

type CommissionConfig struct {
	DefaultRate float64
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "fingrow"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "silent"),
		},
		ACF: ACFConfig{
			SystemRootWorldID:  getEnv("ACF_SYSTEM_ROOT_ID", acf.SystemRootWorldID),
			DefaultRootWorldID: getEnv("ACF_DEFAULT_ROOT_ID", acf.DefaultACFRootWorldID),
			RespectAccepting:   getEnvAsBool("ACF_RESPECT_ACCEPTING", true),
			DefaultAccepting:   getEnvAsBool("ACF_DEFAULT_ACCEPTING", true),
			AutoCloseWhenFull:  getEnvAsBool("ACF_AUTO_CLOSE_WHEN_FULL", true),
			DefaultMaxChildren: getEnvAsInt("ACF_DEFAULT_MAX_CHILDREN", acf.MaxChildrenPerNode),
			ReconcileSchedule:  getEnv("ACF_RECONCILE_SCHEDULE", "@hourly"),
		},
		Commission: CommissionConfig{
			DefaultRate: getEnvAsFloat("COMMISSION_DEFAULT_RATE", 0.15),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.Database.Password == "" && c.Environment == "production" {
		return fmt.Errorf("database password is required in production")
	}

	if !acf.ValidWorldID(c.ACF.SystemRootWorldID) {
		return fmt.Errorf("invalid system root world id: %s", c.ACF.SystemRootWorldID)
	}

	if !acf.ValidWorldID(c.ACF.DefaultRootWorldID) {
		return fmt.Errorf("invalid default ACF root world id: %s", c.ACF.DefaultRootWorldID)
	}

	if c.ACF.DefaultMaxChildren < 1 || c.ACF.DefaultMaxChildren > acf.MaxChildrenPerNode {
		return fmt.Errorf("default max children must be between 1 and %d", acf.MaxChildrenPerNode)
	}

	return nil
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
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
