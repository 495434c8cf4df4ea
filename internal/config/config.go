package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/saldo-app/saldo/internal/model"
)

// Store backends.
const (
	BackendFirestore = "firestore"
	BackendMemory    = "memory"
)

// Config represents the top-level saldo.yaml configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store"`
	Auth    AuthConfig    `yaml:"auth"`
	Ledger  LedgerConfig  `yaml:"ledger"`
	Logging LoggingConfig `yaml:"logging"`
}

// StoreConfig selects and configures the backing document store.
type StoreConfig struct {
	Backend         string `yaml:"backend"` // "firestore" or "memory"
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file,omitempty"`
}

// AuthConfig identifies the ledger owner.
type AuthConfig struct {
	UserID string `yaml:"user_id"`
}

// LedgerConfig holds ledger-wide defaults.
type LedgerConfig struct {
	DefaultCurrency string `yaml:"default_currency"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Load reads a saldo.yaml file and applies environment overrides. A .env
// file next to the working directory is honored when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyEnv(cfg)
	if cfg.Ledger.DefaultCurrency == "" {
		cfg.Ledger.DefaultCurrency = model.DefaultCurrency
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Backend: BackendFirestore,
		},
		Ledger: LedgerConfig{
			DefaultCurrency: model.DefaultCurrency,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Pretty: true,
		},
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SALDO_STORE_BACKEND"); v != "" {
		cfg.Store.Backend = v
	}
	if v := os.Getenv("SALDO_PROJECT_ID"); v != "" {
		cfg.Store.ProjectID = v
	}
	if v := os.Getenv("SALDO_CREDENTIALS_FILE"); v != "" {
		cfg.Store.CredentialsFile = v
	}
	if v := os.Getenv("SALDO_USER_ID"); v != "" {
		cfg.Auth.UserID = v
	}
	if v := os.Getenv("SALDO_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
