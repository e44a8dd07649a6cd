// Package config provides configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Models   ModelsConfig   `yaml:"models"`
	Auth     AuthConfig     `yaml:"auth"`
	Email    EmailConfig    `yaml:"email"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	OpenAPI  OpenAPIConfig  `yaml:"openapi"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host            string        `yaml:"host" env:"MODELGATE_SERVER_HOST"`
	Port            int           `yaml:"port" env:"MODELGATE_SERVER_PORT"`
	BasePath        string        `yaml:"base_path" env:"MODELGATE_SERVER_BASE_PATH"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"MODELGATE_SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"MODELGATE_SERVER_WRITE_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" env:"MODELGATE_SERVER_REQUEST_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"MODELGATE_SERVER_SHUTDOWN_TIMEOUT"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig configures the database.
type DatabaseConfig struct {
	Driver string `yaml:"driver" env:"MODELGATE_DATABASE_DRIVER"` // sqlite3, sqlite, postgres or mysql
	DSN    string `yaml:"dsn" env:"MODELGATE_DATABASE_DSN"`
}

// ModelsConfig locates the model documents.
type ModelsConfig struct {
	Dir        string `yaml:"dir" env:"MODELGATE_CONFIGURATION_PATH"`
	DefaultDir string `yaml:"default_dir" env:"MODELGATE_DEFAULT_MODELS_PATH"`
}

// AuthConfig configures token issuing and verification.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret,omitempty" env:"MODELGATE_JWT_SECRET"`
	TokenTTL  time.Duration `yaml:"token_ttl" env:"MODELGATE_TOKEN_TTL"`
}

// EmailConfig configures the sender used for verification mail.
type EmailConfig struct {
	Provider string     `yaml:"provider" env:"MODELGATE_EMAIL_PROVIDER"` // log, smtp or none
	SMTP     SMTPConfig `yaml:"smtp"`
}

// SMTPConfig configures the smtp provider.
type SMTPConfig struct {
	Host        string `yaml:"host" env:"MODELGATE_SMTP_HOST"`
	Port        int    `yaml:"port" env:"MODELGATE_SMTP_PORT"`
	Username    string `yaml:"username" env:"MODELGATE_SMTP_USERNAME"`
	Password    string `yaml:"password,omitempty" env:"MODELGATE_SMTP_PASSWORD"`
	From        string `yaml:"from" env:"MODELGATE_SMTP_FROM"`
	FromName    string `yaml:"from_name" env:"MODELGATE_SMTP_FROM_NAME"`
	UseTLS      bool   `yaml:"use_tls" env:"MODELGATE_SMTP_USE_TLS"`
	UseImplicit bool   `yaml:"use_implicit" env:"MODELGATE_SMTP_USE_IMPLICIT"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"MODELGATE_LOG_LEVEL"`   // "debug", "info", "warn", "error"
	Format string `yaml:"format" env:"MODELGATE_LOG_FORMAT"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"MODELGATE_METRICS_ENABLED"`
	Path    string `yaml:"path" env:"MODELGATE_METRICS_PATH"`
}

// OpenAPIConfig configures OpenAPI/Swagger documentation.
type OpenAPIConfig struct {
	Enabled bool   `yaml:"enabled" env:"MODELGATE_OPENAPI_ENABLED"`
	Title   string `yaml:"title" env:"MODELGATE_OPENAPI_TITLE"`
	Version string `yaml:"version" env:"MODELGATE_OPENAPI_VERSION"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            1337,
			BasePath:        "/api/v1",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			RequestTimeout:  60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: "sqlite3",
			DSN:    "tmp/db.sqlite",
		},
		Models: ModelsConfig{
			Dir: "./models",
		},
		Auth: AuthConfig{
			TokenTTL: 7 * 24 * time.Hour,
		},
		Email: EmailConfig{
			Provider: "log",
			SMTP: SMTPConfig{
				Host:     "localhost",
				Port:     25,
				From:     "noreply@localhost",
				FromName: "modelgate",
				UseTLS:   true,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		OpenAPI: OpenAPIConfig{
			Enabled: true,
			Title:   "modelgate API",
			Version: "1.0.0",
		},
	}
}

// Load reads configuration from a YAML file on top of the defaults.
// An empty path loads defaults and environment overrides only.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}

		// Expand environment variables
		data = []byte(os.ExpandEnv(string(data)))

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}

	setDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies MODELGATE_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) error {
	err := envdecode.Decode(cfg)
	if err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return err
	}
	return nil
}

// setDefaults fills values a file or the environment explicitly emptied.
func setDefaults(cfg *Config) {
	def := Default()

	if cfg.Server.Host == "" {
		cfg.Server.Host = def.Server.Host
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = def.Server.Port
	}
	cfg.Server.BasePath = normalizeBasePath(cfg.Server.BasePath)
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = def.Server.ReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = def.Server.WriteTimeout
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = def.Server.RequestTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = def.Server.ShutdownTimeout
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = def.Database.Driver
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = def.Database.DSN
	}

	if cfg.Models.Dir == "" {
		cfg.Models.Dir = def.Models.Dir
	}
	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = def.Auth.TokenTTL
	}
	if cfg.Email.Provider == "" {
		cfg.Email.Provider = def.Email.Provider
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = def.Logging.Format
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = def.Metrics.Path
	}
	if cfg.OpenAPI.Title == "" {
		cfg.OpenAPI.Title = def.OpenAPI.Title
	}
	if cfg.OpenAPI.Version == "" {
		cfg.OpenAPI.Version = def.OpenAPI.Version
	}
}

// normalizeBasePath returns base with a leading and no trailing slash.
// The root path normalizes to "".
func normalizeBasePath(base string) string {
	base = strings.Trim(strings.TrimSpace(base), "/")
	if base == "" {
		return ""
	}
	return "/" + base
}

func validate(cfg *Config) error {
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535, got %d", cfg.Server.Port)
	}

	validDrivers := map[string]bool{"sqlite3": true, "sqlite": true, "postgres": true, "mysql": true}
	if !validDrivers[cfg.Database.Driver] {
		return fmt.Errorf("database.driver must be one of: sqlite3, sqlite, postgres, mysql, got %q", cfg.Database.Driver)
	}

	if cfg.Auth.TokenTTL < 0 {
		return fmt.Errorf("auth.token_ttl must not be negative")
	}

	validProviders := map[string]bool{"log": true, "smtp": true, "none": true}
	if !validProviders[cfg.Email.Provider] {
		return fmt.Errorf("email.provider must be one of: log, smtp, none, got %q", cfg.Email.Provider)
	}
	if cfg.Email.Provider == "smtp" && cfg.Email.SMTP.Host == "" {
		return fmt.Errorf("email.smtp.host is required when email.provider is 'smtp'")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error, got %q", cfg.Logging.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}

	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with '/', got %q", cfg.Metrics.Path)
	}

	return nil
}
