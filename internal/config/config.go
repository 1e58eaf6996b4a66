package config

import (
	"fmt"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "clinic"

// Password hashing modes.
const (
	HashingPlain  = "plain"
	HashingBcrypt = "bcrypt"
)

// Config aggregates runtime configuration for the record store.
type Config struct {
	App    AppConfig    `envconfig:"APP"`
	Store  StoreConfig  `envconfig:"STORE"`
	Logger LoggerConfig `envconfig:"LOGGER"`
	Auth   AuthConfig   `envconfig:"AUTH"`
}

// AppConfig identifies the running program.
type AppConfig struct {
	Name string `envconfig:"NAME" default:"clinic-records"`
	Env  string `envconfig:"ENV" default:"development"`
}

// StoreConfig controls where and how the logs are written.
type StoreConfig struct {
	DataDir   string `envconfig:"DATA_DIR" default:"data"`
	Locking   bool   `envconfig:"LOCKING" default:"true"`
	UniqueIDs bool   `envconfig:"UNIQUE_IDS" default:"false"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level  string `envconfig:"LEVEL" default:"info"`
	Output string `envconfig:"OUTPUT" default:"stderr"`
}

// AuthConfig defines how passwords are stored.
type AuthConfig struct {
	PasswordHashing string `envconfig:"PASSWORD_HASHING" default:"plain"`
	BcryptCost      int    `envconfig:"BCRYPT_COST" default:"12"`
}

// Load reads configuration from the environment (and an optional .env file), applying defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}

	switch cfg.Auth.PasswordHashing {
	case HashingPlain, HashingBcrypt:
	default:
		return nil, fmt.Errorf("invalid CLINIC_AUTH_PASSWORD_HASHING %q", cfg.Auth.PasswordHashing)
	}
	if cfg.Store.DataDir == "" {
		return nil, fmt.Errorf("CLINIC_STORE_DATA_DIR must not be empty")
	}

	return &cfg, nil
}

// LogPath returns the path of a named log inside the data directory.
func (s StoreConfig) LogPath(name string) string {
	return filepath.Join(s.DataDir, name)
}
