package config

import (
	"encoding/json"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/danisty/LethalManager/internal/errors"
)

const (
	// DefaultCatalogURL is the Thunderstore package listing for Lethal Company
	DefaultCatalogURL = "https://thunderstore.io/c/lethal-company/api/v1/package/"
	// DefaultCatalogMaxAge is how long a cached catalog is trusted
	DefaultCatalogMaxAge = "1h"
	// DefaultProfile is used when no --profile flag is given
	DefaultProfile = "default"
)

// CatalogConfig contains catalog source settings
type CatalogConfig struct {
	URL    string `json:"url"`    // package listing endpoint
	MaxAge string `json:"maxAge"` // Go duration, e.g. "1h", "30m"
}

// ProfileConfig contains profile selection settings
type ProfileConfig struct {
	Default string `json:"default"`
}

// Config represents the main configuration file structure
type Config struct {
	Locale  string        `json:"locale"` // "auto" or ISO format (e.g., "ko-KR", "en-US")
	Catalog CatalogConfig `json:"catalog"`
	Profile ProfileConfig `json:"profile"`
	DataDir string        `json:"dataDir,omitempty"` // overrides the profiles root
}

var (
	cfg     *Config
	cfgOnce sync.Once
	cfgMu   sync.RWMutex
)

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		Locale: "auto", // default: auto-detect system locale
		Catalog: CatalogConfig{
			URL:    DefaultCatalogURL,
			MaxAge: DefaultCatalogMaxAge,
		},
		Profile: ProfileConfig{
			Default: DefaultProfile,
		},
	}
}

// Load loads the configuration from file
func Load() (*Config, error) {
	cfgMu.RLock()
	defer cfgMu.RUnlock()
	return load()
}

func load() (*Config, error) {
	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return NewConfig(), nil
		}
		return nil, errors.Wrap(err, errors.ErrIOFailure, "failed to read config")
	}

	config := NewConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput, "failed to parse %s", ConfigPath())
	}

	// Fill in anything the file left empty
	if config.Locale == "" {
		config.Locale = "auto"
	}
	if config.Catalog.URL == "" {
		config.Catalog.URL = DefaultCatalogURL
	}
	if config.Catalog.MaxAge == "" {
		config.Catalog.MaxAge = DefaultCatalogMaxAge
	}
	if config.Profile.Default == "" {
		config.Profile.Default = DefaultProfile
	}

	return config, nil
}

// Save saves the configuration to file
func Save(config *Config) error {
	cfgMu.Lock()
	defer cfgMu.Unlock()

	if err := EnsureDir(ConfigDir()); err != nil {
		return errors.Wrap(err, errors.ErrIOFailure, "failed to create config directory")
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to encode config")
	}

	if err := os.WriteFile(ConfigPath(), data, 0644); err != nil {
		return errors.Wrap(err, errors.ErrIOFailure, "failed to write config")
	}
	return nil
}

// Get returns the current configuration (singleton)
func Get() *Config {
	cfgOnce.Do(func() {
		var err error
		cfg, err = Load()
		if err != nil {
			cfg = NewConfig()
		}
	})
	return cfg
}

// Reload reloads the configuration from file
func Reload() error {
	cfgMu.Lock()
	defer cfgMu.Unlock()

	newCfg, err := load()
	if err != nil {
		return err
	}
	cfg = newCfg
	return nil
}

// MaxAgeDuration parses Catalog.MaxAge, falling back to the default on bad input
func (c *Config) MaxAgeDuration() time.Duration {
	d, err := time.ParseDuration(c.Catalog.MaxAge)
	if err != nil || d < 0 {
		d, _ = time.ParseDuration(DefaultCatalogMaxAge)
	}
	return d
}

// setters maps the keys accepted by `config set` to their validators
var setters = map[string]func(c *Config, value string) error{
	"locale": func(c *Config, value string) error {
		c.Locale = value
		return nil
	},
	"catalog.url": func(c *Config, value string) error {
		if value == "" {
			return errors.New(errors.ErrInvalidInput, "catalog.url must not be empty")
		}
		c.Catalog.URL = value
		return nil
	},
	"catalog.maxAge": func(c *Config, value string) error {
		if _, err := time.ParseDuration(value); err != nil {
			return errors.Wrapf(err, errors.ErrInvalidInput, "invalid duration %q", value)
		}
		c.Catalog.MaxAge = value
		return nil
	},
	"profile.default": func(c *Config, value string) error {
		if value == "" {
			return errors.New(errors.ErrInvalidInput, "profile.default must not be empty")
		}
		c.Profile.Default = value
		return nil
	},
	"dataDir": func(c *Config, value string) error {
		c.DataDir = value
		return nil
	},
}

// Keys returns the settable configuration keys in sorted order
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set validates and applies a single key on the config without saving it
func (c *Config) Set(key, value string) error {
	set, ok := setters[key]
	if !ok {
		return errors.Newf(errors.ErrInvalidInput, "unknown config key %q", key).WithDetail("key", key)
	}
	return set(c, value)
}

// GetLocale returns the configured locale
func GetLocale() string {
	return Get().Locale
}

// SetLocale sets the locale and saves
func SetLocale(locale string) error {
	config := Get()
	config.Locale = locale
	return Save(config)
}
