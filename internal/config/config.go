package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPostcodesBaseURL     = "https://api.postcodes.io"
	DefaultGeocodeRatePerSecond = 5
	DefaultSessionTTL           = 24 * time.Hour
	DefaultRadiusKm             = 20
	DefaultServerAddr           = ":8080"
	DefaultRequestsPerMinute    = 120
	DefaultMaxRecurrences       = 52
)

// Environment variables that override secrets in the config file
const (
	EnvDatabaseURL   = "DATABASE_URL"
	EnvJWTSecret     = "JWT_SECRET"
	EnvRedisPassword = "REDIS_PASSWORD"
)

// SearchConfig controls shift browsing
type SearchConfig struct {
	DefaultRadiusKm float64 `yaml:"defaultRadiusKm" validate:"gt=0"`
}

// MessageGateConfig extends the built-in chat filter
type MessageGateConfig struct {
	ExtraBlockedTerms []string `yaml:"extraBlockedTerms,omitempty" validate:"dive,required"`
}

// NotificationsConfig controls booking emails sent through Gmail
type NotificationsConfig struct {
	Enabled         bool   `yaml:"enabled"`
	GmailSender     string `yaml:"gmailSender,omitempty" validate:"omitempty,email"`
	OAuthClientFile string `yaml:"oauthClientFile,omitempty"`
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	Addr              string   `yaml:"addr" validate:"required"`
	AllowedOrigins    []string `yaml:"allowedOrigins,omitempty" validate:"dive,url"`
	RequestsPerMinute int      `yaml:"requestsPerMinute" validate:"min=1"`
}

// Config represents the application configuration
type Config struct {
	DatabaseURL          string              `yaml:"databaseURL" validate:"required"`
	JWTSecret            string              `yaml:"jwtSecret" validate:"required,min=16"`
	SessionTTL           time.Duration       `yaml:"sessionTTL" validate:"gt=0"`
	RedisAddr            string              `yaml:"redisAddr,omitempty" validate:"omitempty,hostname_port"`
	RedisPassword        string              `yaml:"redisPassword,omitempty"`
	PostcodesBaseURL     string              `yaml:"postcodesBaseURL" validate:"required,url"`
	GeocodeRatePerSecond float64             `yaml:"geocodeRatePerSecond" validate:"gt=0"`
	MaxRecurrences       int                 `yaml:"maxRecurrences" validate:"min=1,max=366"`
	Search               SearchConfig        `yaml:"search"`
	MessageGate          MessageGateConfig   `yaml:"messageGate"`
	Notifications        NotificationsConfig `yaml:"notifications"`
	Server               ServerConfig        `yaml:"server"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// LoadWithEnv loads and validates the configuration for an environment.
// For example, env="test" will look for "locum_config.test.yaml".
// A .env file in the working directory is loaded first so secrets can live outside the YAML.
func LoadWithEnv(env string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	configPath, err := findConfigFile(env)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.Notifications.Enabled {
		if cfg.Notifications.GmailSender == "" {
			return fmt.Errorf("config validation failed: notifications.gmailSender is required when notifications are enabled")
		}
		if cfg.Notifications.OAuthClientFile == "" {
			return fmt.Errorf("config validation failed: notifications.oauthClientFile is required when notifications are enabled")
		}
	}

	return nil
}

// applyEnvOverrides replaces secrets with values from the environment when set
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvDatabaseURL); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv(EnvJWTSecret); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv(EnvRedisPassword); v != "" {
		cfg.RedisPassword = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	if cfg.PostcodesBaseURL == "" {
		cfg.PostcodesBaseURL = DefaultPostcodesBaseURL
	}
	if cfg.GeocodeRatePerSecond == 0 {
		cfg.GeocodeRatePerSecond = DefaultGeocodeRatePerSecond
	}
	if cfg.MaxRecurrences == 0 {
		cfg.MaxRecurrences = DefaultMaxRecurrences
	}
	if cfg.Search.DefaultRadiusKm == 0 {
		cfg.Search.DefaultRadiusKm = DefaultRadiusKm
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultServerAddr
	}
	if cfg.Server.RequestsPerMinute == 0 {
		cfg.Server.RequestsPerMinute = DefaultRequestsPerMinute
	}
}

// findConfigFile searches for the config file in the current directory and home directory
func findConfigFile(env string) (string, error) {
	configFileName := "locum_config.yaml"
	if env != "" {
		configFileName = "locum_config." + env + ".yaml"
	}

	// Check current directory
	if _, err := os.Stat(configFileName); err == nil {
		return configFileName, nil
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, configFileName)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("%s not found in current directory or home directory", configFileName)
}
