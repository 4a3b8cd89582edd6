package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the Contrackt client
type Config struct {
	Backend BackendConfig `mapstructure:"backend"`
	Storage StorageConfig `mapstructure:"storage"`
	History HistoryConfig `mapstructure:"history"`
	Upload  UploadConfig  `mapstructure:"upload"`
	Alerts  AlertsConfig  `mapstructure:"alerts"`
}

// BackendConfig holds the contract backend connection settings
type BackendConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// StorageConfig holds local persistence configuration
type StorageConfig struct {
	Path     string `mapstructure:"path"`
	InMemory bool   `mapstructure:"in_memory"`
}

// HistoryConfig holds conversation history configuration
type HistoryConfig struct {
	MaxEntries   int           `mapstructure:"max_entries"`
	SaveDebounce time.Duration `mapstructure:"save_debounce"`
}

// UploadConfig holds contract upload configuration
type UploadConfig struct {
	MaxFiles         int           `mapstructure:"max_files"`
	AcceptedExt      string        `mapstructure:"accepted_ext"`
	ToastTimeout     time.Duration `mapstructure:"toast_timeout"`
	StatusClearDelay time.Duration `mapstructure:"status_clear_delay"`
}

// AlertsConfig holds the alerts/reminders polling configuration
type AlertsConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// Load loads configuration from file and environment
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read config file if specified
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("CONTRACKT")
	v.AutomaticEnv()

	// Read config
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend.base_url", "http://127.0.0.1:8000")
	v.SetDefault("backend.timeout", "60s")

	v.SetDefault("storage.path", "./data/contrackt.db")
	v.SetDefault("storage.in_memory", false)

	v.SetDefault("history.max_entries", 50)
	v.SetDefault("history.save_debounce", "1s")

	v.SetDefault("upload.max_files", 5)
	v.SetDefault("upload.accepted_ext", ".pdf")
	v.SetDefault("upload.toast_timeout", "4s")
	v.SetDefault("upload.status_clear_delay", "2s")

	v.SetDefault("alerts.poll_interval", "5m")
}
