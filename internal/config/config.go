package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

const appName = "likesearch"

// Config holds all application configuration
type Config struct {
	Version int           `toml:"version"`
	Search  SearchConfig  `toml:"search"`
	Browser BrowserConfig `toml:"browser"`
	Storage StorageConfig `toml:"storage"`
	Logging LoggingConfig `toml:"logging"`
	Watch   WatchConfig   `toml:"watch"`
}

type SearchConfig struct {
	MaxIterations      int    `toml:"max_iterations"`
	LoadMoreIterations int    `toml:"load_more_iterations"`
	StallThreshold     int    `toml:"stall_threshold"`
	WarmUpIterations   int    `toml:"warm_up_iterations"`
	ScrollDelay        string `toml:"scroll_delay"`
	WaitTimeout        string `toml:"wait_timeout"`
	SessionTimeout     string `toml:"session_timeout"`
}

type BrowserConfig struct {
	Headless bool `toml:"headless"`
	// RemoteURL attaches to an already running Chrome (e.g. ws://127.0.0.1:9222)
	// instead of launching one. The active tab is used as the current page.
	RemoteURL string `toml:"remote_url"`
	StartURL  string `toml:"start_url"`
}

type StorageConfig struct {
	DBPath string `toml:"db_path"` // empty means <cache dir>/likesearch.db
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	Dir    string `toml:"dir"` // empty means <cache dir>/logs
}

type WatchConfig struct {
	Every    string `toml:"every"`
	Timezone string `toml:"timezone"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Version: 1,
		Search: SearchConfig{
			MaxIterations:      100,
			LoadMoreIterations: 20,
			StallThreshold:     5,
			WarmUpIterations:   10,
			ScrollDelay:        "800ms",
			WaitTimeout:        "10s",
			SessionTimeout:     "10m",
		},
		Browser: BrowserConfig{
			Headless: true,
			StartURL: "https://x.com/home",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Watch: WatchConfig{
			Every:    "6h",
			Timezone: "Local",
		},
	}
}

// ScrollDelayDuration returns the parsed scroll delay, falling back to the default
func (s SearchConfig) ScrollDelayDuration() time.Duration {
	return parseDuration(s.ScrollDelay, 800*time.Millisecond)
}

// WaitTimeoutDuration returns the parsed wait-for-element timeout
func (s SearchConfig) WaitTimeoutDuration() time.Duration {
	return parseDuration(s.WaitTimeout, 10*time.Second)
}

// SessionTimeoutDuration bounds a whole search session
func (s SearchConfig) SessionTimeoutDuration() time.Duration {
	return parseDuration(s.SessionTimeout, 10*time.Minute)
}

// EveryDuration returns the refresh interval of the watch command
func (w WatchConfig) EveryDuration() time.Duration {
	return parseDuration(w.Every, 6*time.Hour)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// ConfigDir returns the platform-appropriate config directory
func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, appName), nil
}

// ConfigPath returns the full path to the config file
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// CacheDir returns the platform-appropriate cache directory.
// On macOS this is ~/Library/Caches/likesearch/
func CacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, appName), nil
}

// DBPath returns the configured database path or the default one
func (c *Config) DBPath() (string, error) {
	if c.Storage.DBPath != "" {
		return c.Storage.DBPath, nil
	}
	dir, err := CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "likesearch.db"), nil
}

// LogDir returns the configured log directory or the default one
func (c *Config) LogDir() (string, error) {
	if c.Logging.Dir != "" {
		return c.Logging.Dir, nil
	}
	dir, err := CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "logs"), nil
}

// LoadFile reads config from the given path. Keys missing from the file keep
// their default values.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveFile writes config to the given path
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}
