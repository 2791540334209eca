// Package config loads quotabar settings from config.yaml, the environment
// and defaults, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/user/quotabar/internal/provider"
)

type Config struct {
	// Providers lists the enabled provider ids; empty means the whole
	// catalog.
	Providers []string `yaml:"providers" mapstructure:"providers"`

	Settings  Settings                    `yaml:"settings" mapstructure:"settings"`
	Overrides map[string]ProviderOverride `yaml:"overrides" mapstructure:"overrides"`
}

type Settings struct {
	// Timeout bounds a single provider fetch end to end.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// RefreshInterval is the watch-mode and server cache poll period.
	RefreshInterval time.Duration `yaml:"refresh_interval" mapstructure:"refresh_interval"`
	// MaxConcurrent bounds the fetch fan-out.
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	// StaleAfter flags records older than this in output.
	StaleAfter time.Duration `yaml:"stale_after" mapstructure:"stale_after"`

	// CredentialDir holds the per-provider secret files (0700).
	CredentialDir string `yaml:"credential_dir" mapstructure:"credential_dir"`

	// CaptureDir, when set, enables raw-response debug capture into that
	// directory. Off by default since captures contain account data.
	CaptureDir string `yaml:"capture_dir" mapstructure:"capture_dir"`

	APIPort int `yaml:"api_port" mapstructure:"api_port"`
}

// ProviderOverride adjusts a catalog entry without reopening the table.
type ProviderOverride struct {
	DatabasePath string `yaml:"database_path" mapstructure:"database_path"`
	Command      string `yaml:"command" mapstructure:"command"`
}

func Load(configFile string) (*Config, error) {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "quotabar"))
		}
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("QUOTABAR")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	cfg := DefaultConfig()

	decodeHook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.TextUnmarshallerHookFunc(),
	)

	if err := v.Unmarshal(cfg, viper.DecodeHook(decodeHook)); err != nil {
		return nil, err
	}

	cfg.Settings.CredentialDir = os.ExpandEnv(cfg.Settings.CredentialDir)
	cfg.Settings.CaptureDir = os.ExpandEnv(cfg.Settings.CaptureDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(cfg *Config, configFile string) error {
	path := configFile
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		path = filepath.Join(home, ".config", "quotabar", "config.yaml")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func DefaultConfig() *Config {
	return &Config{
		Settings: Settings{
			Timeout:         30 * time.Second,
			RefreshInterval: 5 * time.Minute,
			MaxConcurrent:   4,
			StaleAfter:      time.Hour,
			CredentialDir:   defaultCredentialDir(),
			APIPort:         3456,
		},
	}
}

func (c *Config) Validate() error {
	if c.Settings.Timeout <= 0 {
		return fmt.Errorf("config: timeout must be positive")
	}
	if c.Settings.RefreshInterval < time.Second {
		return fmt.Errorf("config: refresh_interval below 1s would hammer providers")
	}
	if c.Settings.MaxConcurrent <= 0 {
		return fmt.Errorf("config: max_concurrent must be positive")
	}
	return nil
}

// ProviderIDs returns the enabled set as typed ids; nil means everything.
func (c *Config) ProviderIDs() []provider.ProviderID {
	if len(c.Providers) == 0 {
		return nil
	}
	ids := make([]provider.ProviderID, 0, len(c.Providers))
	for _, p := range c.Providers {
		ids = append(ids, provider.ProviderID(p))
	}
	return ids
}

func defaultCredentialDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".quotabar/credentials"
	}
	return filepath.Join(home, ".config", "quotabar", "credentials")
}
