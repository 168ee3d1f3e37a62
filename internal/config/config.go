package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server       ServerConfig       `yaml:"server" envPrefix:"MEDCAMP_SERVER_"`
	Database     DatabaseConfig     `yaml:"database" envPrefix:"MEDCAMP_DB_"`
	AWS          AWSConfig          `yaml:"aws" envPrefix:"MEDCAMP_AWS_"`
	JWT          JWTConfig          `yaml:"jwt" envPrefix:"MEDCAMP_JWT_"`
	APNs         APNsConfig         `yaml:"apns" envPrefix:"MEDCAMP_APNS_"`
	Log          LogConfig          `yaml:"log" envPrefix:"MEDCAMP_LOG_"`
	Registration RegistrationConfig `yaml:"registration" envPrefix:"MEDCAMP_REGISTRATION_"`
	Jobs         JobsConfig         `yaml:"jobs" envPrefix:"MEDCAMP_JOBS_"`
	I18n         I18nConfig         `yaml:"i18n" envPrefix:"MEDCAMP_I18N_"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int      `yaml:"port" env:"PORT"`
	Host           string   `yaml:"host" env:"HOST"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"HOST"`
	Port           int    `yaml:"port" env:"PORT"`
	User           string `yaml:"user" env:"USER"`
	Password       string `yaml:"password" env:"PASSWORD"`
	DBName         string `yaml:"dbname" env:"NAME"`
	SSLMode        string `yaml:"sslmode" env:"SSLMODE"`
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH"`
}

// AWSConfig holds the S3 settings used for avatar uploads.
type AWSConfig struct {
	Region    string `yaml:"region" env:"REGION"`
	S3Bucket  string `yaml:"s3_bucket" env:"S3_BUCKET"`
	AccessKey string `yaml:"access_key" env:"ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"SECRET_KEY"`
	Endpoint  string `yaml:"endpoint" env:"ENDPOINT"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string        `yaml:"secret" env:"SECRET"`
	TTL    time.Duration `yaml:"ttl" env:"TTL"`
}

// APNsConfig enables iOS push notifications when CertFile is set.
type APNsConfig struct {
	CertFile     string `yaml:"cert_file" env:"CERT_FILE"`
	CertPassword string `yaml:"cert_password" env:"CERT_PASSWORD"`
	Topic        string `yaml:"topic" env:"TOPIC"`
	Production   bool   `yaml:"production" env:"PRODUCTION"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level" env:"LEVEL"`
}

// RegistrationConfig controls the registration workflow.
type RegistrationConfig struct {
	// EnforceCapacity turns the registered_count increment into a conditional
	// write that fails once the camp is full.
	EnforceCapacity bool    `yaml:"enforce_capacity" env:"ENFORCE_CAPACITY"`
	CommissionRate  float64 `yaml:"commission_rate" env:"COMMISSION_RATE"`
	Currency        string  `yaml:"currency" env:"CURRENCY"`
}

// JobsConfig holds scheduled job intervals.
type JobsConfig struct {
	DirectoryRefreshInterval time.Duration `yaml:"directory_refresh_interval" env:"DIRECTORY_REFRESH_INTERVAL"`
	LifecycleInterval        time.Duration `yaml:"lifecycle_interval" env:"LIFECYCLE_INTERVAL"`
}

// I18nConfig holds the fallback locale for user-facing messages.
type I18nConfig struct {
	DefaultLocale string `yaml:"default_locale" env:"DEFAULT_LOCALE"`
}

// Load reads configuration from a YAML file, applies .env and MEDCAMP_*
// environment overrides, then validates the result. A missing file is not an
// error when the environment provides everything.
func Load(path string) (*Config, error) {
	// .env is optional when variables come from the environment (Docker, CI).
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate fills defaults and rejects unusable values.
func (c *Config) validate() error {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port out of range: %d", c.Server.Port)
	}
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}

	if strings.TrimSpace(c.Database.Host) == "" {
		c.Database.Host = "localhost"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if strings.TrimSpace(c.Database.DBName) == "" {
		return fmt.Errorf("config: database.dbname is required")
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MigrationsPath == "" {
		c.Database.MigrationsPath = "migrations"
	}

	if strings.TrimSpace(c.JWT.Secret) == "" {
		return fmt.Errorf("config: jwt.secret is required")
	}
	if c.JWT.TTL <= 0 {
		c.JWT.TTL = 30 * 24 * time.Hour
	}

	if c.APNs.CertFile != "" && c.APNs.Topic == "" {
		return fmt.Errorf("config: apns.topic is required when apns.cert_file is set")
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if c.Registration.CommissionRate < 0 || c.Registration.CommissionRate >= 1 {
		return fmt.Errorf("config: registration.commission_rate must be in [0, 1): %v", c.Registration.CommissionRate)
	}
	if c.Registration.Currency == "" {
		c.Registration.Currency = "INR"
	}

	if c.Jobs.DirectoryRefreshInterval <= 0 {
		c.Jobs.DirectoryRefreshInterval = 5 * time.Minute
	}
	if c.Jobs.LifecycleInterval <= 0 {
		c.Jobs.LifecycleInterval = time.Hour
	}

	if c.I18n.DefaultLocale == "" {
		c.I18n.DefaultLocale = "en"
	}
	return nil
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// URL returns the connection string in URL form, as golang-migrate expects.
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}
