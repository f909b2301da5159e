package utils

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the runtime configuration of the api server and the CLI.
// Values come from an optional YAML file (ADVOCATES_CONFIG) and are then
// overridden by environment variables.
type Config struct {
	HTTPAddr string     `yaml:"http_addr"`
	LogLevel string     `yaml:"log_level"`
	LogDev   bool       `yaml:"log_dev"`
	DB       DBConfig   `yaml:"db"`
	Auth     AuthConfig `yaml:"auth"`
}

type DBConfig struct {
	// Driver is sqlite, postgres or mysql. Empty disables the store and
	// every search is served from the bundled dataset.
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type AuthConfig struct {
	JWTSecret   string        `yaml:"jwt_secret"`
	JWTIssuer   string        `yaml:"jwt_issuer"`
	JWTDuration time.Duration `yaml:"jwt_duration"`
	// AdminPasswordHash is a bcrypt hash. Empty disables login.
	AdminPasswordHash string `yaml:"admin_password_hash"`
}

func defaults() Config {
	return Config{
		HTTPAddr: ":8080",
		LogLevel: "info",
		Auth: AuthConfig{
			// dev default (change for production)
			JWTSecret:   "dev-secret-change-me",
			JWTIssuer:   "advocatehub",
			JWTDuration: 24 * time.Hour,
		},
	}
}

// Load reads the YAML file named by ADVOCATES_CONFIG (if any) and applies
// environment overrides on top.
func Load() (Config, error) {
	cfg := defaults()

	if path := os.Getenv("ADVOCATES_CONFIG"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("ADVOCATES_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("ADVOCATES_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("ADVOCATES_LOG_DEV"); v != "" {
		cfg.LogDev = parseBool(v, cfg.LogDev)
	}
	if v := os.Getenv("ADVOCATES_DB_DRIVER"); v != "" {
		cfg.DB.Driver = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("ADVOCATES_DB_DSN"); v != "" {
		cfg.DB.DSN = v
	}
	if v := os.Getenv("ADVOCATES_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("ADVOCATES_JWT_ISSUER"); v != "" {
		cfg.Auth.JWTIssuer = v
	}
	if v := os.Getenv("ADVOCATES_JWT_TTL_HOURS"); v != "" {
		// if parse fails, keep the current duration
		if h, err := strconv.Atoi(v); err == nil && h > 0 {
			cfg.Auth.JWTDuration = time.Duration(h) * time.Hour
		}
	}
	if v := os.Getenv("ADVOCATES_ADMIN_PASSWORD_HASH"); v != "" {
		cfg.Auth.AdminPasswordHash = v
	}
}

func parseBool(s string, def bool) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return b
}
