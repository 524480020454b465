package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Session store backends.
const (
	SessionBackendSQLite  = "sqlite"
	SessionBackendKeyring = "keyring"
)

// BackendConfig points jiradash at the backend-of-record that fronts
// the Nango proxy.
type BackendConfig struct {
	// BaseURL is the API root, e.g. http://localhost:8000/api.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec bounds every HTTP request.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// IssuesConfig controls issue list queries.
type IssuesConfig struct {
	// MaxResults is forwarded as max_results (1-100). Zero leaves the
	// backend default in place.
	MaxResults int `mapstructure:"max_results" yaml:"max_results"`
}

// SessionConfig selects where the active connection ID is kept.
type SessionConfig struct {
	Backend string `mapstructure:"backend" yaml:"backend"`
	DBPath  string `mapstructure:"db_path" yaml:"db_path"`
}

// LogConfig holds logging preferences.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Backend BackendConfig `mapstructure:"backend" yaml:"backend"`
	Issues  IssuesConfig  `mapstructure:"issues" yaml:"issues"`
	Session SessionConfig `mapstructure:"session" yaml:"session"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
}

// ConfigDir returns ~/.config/jiradash, or the working directory when
// the home directory cannot be resolved.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "jiradash")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/jiradash/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	dir := ConfigDir()
	return &AppConfig{
		Backend: BackendConfig{
			BaseURL:    "http://localhost:8000/api",
			TimeoutSec: 30,
		},
		Issues: IssuesConfig{
			MaxResults: 50,
		},
		Session: SessionConfig{
			Backend: SessionBackendSQLite,
			DBPath:  filepath.Join(dir, "jiradash.db"),
		},
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(dir, "jiradash.log"),
		},
		Display: DisplayConfig{
			Theme: "default",
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// Values may be overridden with JIRADASH_* environment variables
// (e.g. JIRADASH_BACKEND_BASE_URL). If the file does not exist, defaults
// are used.
func LoadConfig(path string) (*AppConfig, error) {
	def := defaultAppConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("jiradash")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("backend.base_url", def.Backend.BaseURL)
	v.SetDefault("backend.timeout_sec", def.Backend.TimeoutSec)
	v.SetDefault("issues.max_results", def.Issues.MaxResults)
	v.SetDefault("session.backend", def.Session.Backend)
	v.SetDefault("session.db_path", def.Session.DBPath)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.file", def.Log.File)
	v.SetDefault("display.theme", def.Display.Theme)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		var pathErr *os.PathError
		if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks value ranges that viper cannot express.
func (c *AppConfig) Validate() error {
	if strings.TrimSpace(c.Backend.BaseURL) == "" {
		return errors.New("backend.base_url must not be empty")
	}
	if c.Backend.TimeoutSec <= 0 {
		return fmt.Errorf("backend.timeout_sec must be positive, got %d", c.Backend.TimeoutSec)
	}
	if c.Issues.MaxResults < 0 || c.Issues.MaxResults > 100 {
		return fmt.Errorf("issues.max_results must be between 0 and 100, got %d", c.Issues.MaxResults)
	}
	switch c.Session.Backend {
	case SessionBackendSQLite, SessionBackendKeyring:
	default:
		return fmt.Errorf("session.backend must be %q or %q, got %q",
			SessionBackendSQLite, SessionBackendKeyring, c.Session.Backend)
	}
	return nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("backend", cfg.Backend)
	v.Set("issues", cfg.Issues)
	v.Set("session", cfg.Session)
	v.Set("log", cfg.Log)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
