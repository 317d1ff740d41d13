// Package config loads tasker settings.
//
// Precedence, lowest first: built-in defaults, ~/.tasker/config.yaml,
// ./.tasker/config.yaml, a .env file in the working directory, then
// TASKER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Makepad-fr/tasker/internal/api"
	"github.com/Makepad-fr/tasker/internal/credstore"
)

// Environment overrides.
const (
	EnvAPIURL   = "TASKER_API_URL"
	EnvTheme    = "TASKER_THEME"
	EnvLogLevel = "TASKER_LOG_LEVEL"
	EnvCredsDir = "TASKER_CREDENTIALS_DIR"
)

// Config is the merged configuration.
type Config struct {
	API         APIConfig         `yaml:"api,omitempty" mapstructure:"api"`
	Credentials CredentialsConfig `yaml:"credentials,omitempty" mapstructure:"credentials"`
	UI          UIConfig          `yaml:"ui,omitempty" mapstructure:"ui"`
	Log         LogConfig         `yaml:"log,omitempty" mapstructure:"log"`
}

// APIConfig points at the backend.
type APIConfig struct {
	BaseURL string `yaml:"base_url,omitempty" mapstructure:"base_url"`
}

// CredentialsConfig says where the token file lives.
type CredentialsConfig struct {
	Dir string `yaml:"dir,omitempty" mapstructure:"dir"`
}

// UIConfig holds view preferences.
type UIConfig struct {
	Theme string `yaml:"theme,omitempty" mapstructure:"theme"`
}

// LogConfig sets the diagnostic log level (debug, info, warn, error).
type LogConfig struct {
	Level string `yaml:"level,omitempty" mapstructure:"level"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	dir, err := credstore.DefaultDir()
	if err != nil {
		dir = ".tasker"
	}
	return &Config{
		API:         APIConfig{BaseURL: api.DefaultBaseURL},
		Credentials: CredentialsConfig{Dir: dir},
		UI:          UIConfig{Theme: "dark"},
		Log:         LogConfig{Level: "warn"},
	}
}

// Load merges the global and project files, .env and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return LoadFiles(GlobalConfigPath(), ProjectConfigPath())
}

// LoadFiles merges the given YAML files (missing ones are skipped) over
// the defaults, then applies environment overrides.
func LoadFiles(paths ...string) (*Config, error) {
	cfg := DefaultConfig()
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := loadFile(p, cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", p, err)
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return err
	}

	return v.Unmarshal(cfg)
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		cfg.API.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvTheme)); v != "" {
		cfg.UI.Theme = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Log.Level = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvCredsDir)); v != "" {
		cfg.Credentials.Dir = v
	}
}

// Save writes cfg as YAML, creating the parent directory.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, b, 0o600)
}

// SetTheme persists the theme choice into the file at path, keeping any
// other settings already there.
func SetTheme(path, theme string) error {
	cfg := &Config{}
	if _, err := os.Stat(path); err == nil {
		if err := loadFile(path, cfg); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	cfg.UI.Theme = theme
	return Save(path, cfg)
}

// GlobalConfigPath returns the path to the global config file.
func GlobalConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".tasker", "config.yaml")
}

// ProjectConfigPath returns the path to the project config file.
func ProjectConfigPath() string {
	cwd, _ := os.Getwd()
	return filepath.Join(cwd, ".tasker", "config.yaml")
}
