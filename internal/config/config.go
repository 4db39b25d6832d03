package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	configFileBase = "point_rota_config"

	DefaultPollInterval = 2 * time.Second
	DefaultSessionTTL   = 30 * 24 * time.Hour

	PolicyOpen      = "open"
	PolicyAllowList = "allowlist"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Environment variables that override values from the file
const (
	EnvSessionSecret = "POINT_ROTA_SESSION_SECRET"
	EnvStoreDSN      = "POINT_ROTA_STORE_DSN"
)

// StoreConfig selects and connects the shared document store
type StoreConfig struct {
	Driver       string        `yaml:"driver" validate:"required,oneof=postgres sqlite memory"`
	DSN          string        `yaml:"dsn" validate:"required_unless=Driver memory"`
	PollInterval time.Duration `yaml:"pollInterval"`
}

// SessionConfig configures anonymous session tokens
type SessionConfig struct {
	Secret string        `yaml:"secret" validate:"required,min=16"`
	TTL    time.Duration `yaml:"ttl"`
}

// IdentityConfig selects how unknown volunteer names are treated
type IdentityConfig struct {
	Policy string `yaml:"policy" validate:"oneof=open allowlist"`
}

// SheetConfig points at a Google Sheet holding the static roster
type SheetConfig struct {
	SheetID         string `yaml:"sheetID" validate:"required"`
	Tab             string `yaml:"tab" validate:"required"`
	CredentialsFile string `yaml:"credentialsFile" validate:"required"`
}

// RosterConfig lists the known volunteers offered before anyone has registered
type RosterConfig struct {
	Names []string     `yaml:"names,omitempty" validate:"dive,required"`
	Sheet *SheetConfig `yaml:"sheet,omitempty" validate:"omitempty"`
}

// Config represents the application configuration
type Config struct {
	AppID     string         `yaml:"appID" validate:"required"`
	PointName string         `yaml:"pointName,omitempty"`
	Timezone  string         `yaml:"timezone,omitempty"`
	Store     StoreConfig    `yaml:"store"`
	Session   SessionConfig  `yaml:"session"`
	Identity  IdentityConfig `yaml:"identity"`
	Roster    RosterConfig   `yaml:"roster"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Location returns the timezone shift dates are interpreted in
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load loads and validates the configuration from point_rota_config.yaml
// It looks for the config file in the current directory first, then in the user's home directory
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv prefers point_rota_config.<env>.yaml over point_rota_config.yaml
func LoadWithEnv(env string) (*Config, error) {
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

// Validate validates the configuration struct and checks the timezone
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}

	if cfg.Store.PollInterval < 0 {
		return fmt.Errorf("store.pollInterval must not be negative")
	}

	return nil
}

func applyEnvOverrides(cfg *Config) {
	if secret := os.Getenv(EnvSessionSecret); secret != "" {
		cfg.Session.Secret = secret
	}
	if dsn := os.Getenv(EnvStoreDSN); dsn != "" {
		cfg.Store.DSN = dsn
	}
}

func applyDefaults(cfg *Config) {
	if cfg.PointName == "" {
		cfg.PointName = cfg.AppID
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "UTC"
	}
	if cfg.Store.PollInterval == 0 {
		cfg.Store.PollInterval = DefaultPollInterval
	}
	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = DefaultSessionTTL
	}
	if cfg.Identity.Policy == "" {
		cfg.Identity.Policy = PolicyOpen
	}
}

// findConfigFile searches the current directory then the home directory,
// trying the env-specific file before the shared one in each
func findConfigFile(env string) (string, error) {
	names := []string{configFileBase + ".yaml"}
	if env != "" {
		names = append([]string{fmt.Sprintf("%s.%s.yaml", configFileBase, env)}, names...)
	}

	dirs := []string{"."}
	if homeDir, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, homeDir)
	}

	for _, dir := range dirs {
		for _, name := range names {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
	}

	return "", fmt.Errorf("config file not found in current directory or home directory")
}
