package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port            string `mapstructure:"port" yaml:"port"`
	Environment     string `mapstructure:"environment" yaml:"environment"`
	ShutdownTimeout string `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	Database  DatabaseConfig  `mapstructure:"database" yaml:"database"`
	Session   SessionConfig   `mapstructure:"session" yaml:"session"`
	Google    GoogleConfig    `mapstructure:"google" yaml:"google"`
	Grid      GridConfig      `mapstructure:"grid" yaml:"grid"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit" yaml:"ratelimit"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

type SessionConfig struct {
	Secret string `mapstructure:"secret" yaml:"secret"`
	MaxAge int    `mapstructure:"max_age" yaml:"max_age"`
}

type GoogleConfig struct {
	ClientID     string `mapstructure:"client_id" yaml:"client_id"`
	ClientSecret string `mapstructure:"client_secret" yaml:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url" yaml:"redirect_url"`
}

type GridConfig struct {
	DefaultPageSize int    `mapstructure:"default_page_size" yaml:"default_page_size"`
	ViewCacheTTL    string `mapstructure:"view_cache_ttl" yaml:"view_cache_ttl"`
}

type RateLimitConfig struct {
	GridPerMinute int `mapstructure:"grid_per_minute" yaml:"grid_per_minute"`
	GridBurst     int `mapstructure:"grid_burst" yaml:"grid_burst"`
}

type LogConfig struct {
	Level    string            `mapstructure:"level" yaml:"level"`
	File     string            `mapstructure:"file" yaml:"file"`
	Rotation LogRotationConfig `mapstructure:"rotation" yaml:"rotation"`
}

type LogRotationConfig struct {
	MaxSize    int  `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups int  `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int  `mapstructure:"max_age" yaml:"max_age"`
	Compress   bool `mapstructure:"compress" yaml:"compress"`
}

var envKeyReplacer = strings.NewReplacer(".", "_")

func DefaultConfig() Config {
	return Config{
		Port:            "8080",
		Environment:     "development",
		ShutdownTimeout: "10s",
		Database: DatabaseConfig{
			Path: "./dashboard.db",
		},
		Session: SessionConfig{
			MaxAge: 86400,
		},
		Google: GoogleConfig{
			RedirectURL: "http://localhost:8080/auth/callback",
		},
		Grid: GridConfig{
			DefaultPageSize: 100,
			ViewCacheTTL:    "5m",
		},
		RateLimit: RateLimitConfig{
			GridPerMinute: 120,
			GridBurst:     240,
		},
		Log: LogConfig{
			Level: "INFO",
			Rotation: LogRotationConfig{
				MaxSize:    128,
				MaxBackups: 5,
				MaxAge:     16,
				Compress:   false,
			},
		},
	}
}

func setDefaults(v *viper.Viper) {
	defaults := DefaultConfig()

	v.SetDefault("port", defaults.Port)
	v.SetDefault("environment", defaults.Environment)
	v.SetDefault("shutdown_timeout", defaults.ShutdownTimeout)
	v.SetDefault("database.path", defaults.Database.Path)
	v.SetDefault("session.secret", defaults.Session.Secret)
	v.SetDefault("session.max_age", defaults.Session.MaxAge)
	v.SetDefault("google.client_id", defaults.Google.ClientID)
	v.SetDefault("google.client_secret", defaults.Google.ClientSecret)
	v.SetDefault("google.redirect_url", defaults.Google.RedirectURL)
	v.SetDefault("grid.default_page_size", defaults.Grid.DefaultPageSize)
	v.SetDefault("grid.view_cache_ttl", defaults.Grid.ViewCacheTTL)
	v.SetDefault("ratelimit.grid_per_minute", defaults.RateLimit.GridPerMinute)
	v.SetDefault("ratelimit.grid_burst", defaults.RateLimit.GridBurst)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.file", defaults.Log.File)
	v.SetDefault("log.rotation.max_size", defaults.Log.Rotation.MaxSize)
	v.SetDefault("log.rotation.max_backups", defaults.Log.Rotation.MaxBackups)
	v.SetDefault("log.rotation.max_age", defaults.Log.Rotation.MaxAge)
	v.SetDefault("log.rotation.compress", defaults.Log.Rotation.Compress)
}

// initConfig loads .env files and the optional YAML file into v. Nested
// keys are read from the environment with dots replaced by underscores, so
// SESSION_SECRET sets session.secret.
func initConfig(v *viper.Viper, path string) error {
	envFiles := []string{".env", ".env.local"}
	for _, envFile := range envFiles {
		// Missing .env files are fine
		godotenv.Load(envFile)
	}

	if path != "" {
		v.SetConfigFile(path)
		configDir := filepath.Dir(path)
		for _, envFile := range envFiles {
			godotenv.Load(filepath.Join(configDir, envFile))
		}
	} else {
		v.SetConfigName("gridboard")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// LoadConfig unmarshals the settings held by v
func LoadConfig(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if cfg.Grid.DefaultPageSize <= 0 {
		return nil, fmt.Errorf("grid.default_page_size must be positive")
	}
	if _, err := cfg.ShutdownDuration(); err != nil {
		return nil, err
	}
	if _, err := cfg.ViewCacheDuration(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ValidateServe checks the settings only the HTTP server needs
func (c *Config) ValidateServe() error {
	if c.Google.ClientID == "" {
		return fmt.Errorf("GOOGLE_CLIENT_ID environment variable is required")
	}
	if c.Google.ClientSecret == "" {
		return fmt.Errorf("GOOGLE_CLIENT_SECRET environment variable is required")
	}
	if c.Session.Secret == "" {
		return fmt.Errorf("SESSION_SECRET environment variable is required")
	}
	if len(c.Session.Secret) < 32 {
		return fmt.Errorf("SESSION_SECRET must be at least 32 characters long")
	}
	if c.RateLimit.GridPerMinute <= 0 || c.RateLimit.GridBurst <= 0 {
		return fmt.Errorf("ratelimit.grid_per_minute and ratelimit.grid_burst must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) ShutdownDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return d, nil
}

func (c *Config) ViewCacheDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.Grid.ViewCacheTTL)
	if err != nil {
		return 0, fmt.Errorf("invalid grid.view_cache_ttl: %w", err)
	}
	return d, nil
}

// MarshalDefaults renders the default configuration as YAML
func MarshalDefaults() ([]byte, error) {
	return yaml.Marshal(DefaultConfig())
}
