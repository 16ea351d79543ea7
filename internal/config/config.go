// Package config handles TOML-based configuration loading and validation.
// Values are layered: defaults, then the config file, then YTRESOLVE_*
// environment variables; command-line flags are applied by the caller.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/ytget/ytresolve/internal/jsengine"
	"github.com/ytget/ytresolve/internal/logger"
	"github.com/ytget/ytresolve/internal/rulecache"
)

const appName = "ytresolve"

// Duration is a time.Duration written as "1.5s" or "200ms" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config holds all application configuration.
type Config struct {
	Resolve ResolveConfig    `toml:"resolve"`
	HTTP    HTTPConfig       `toml:"http"`
	Cipher  CipherConfig     `toml:"cipher"`
	Log     logger.LogConfig `toml:"log"`
}

// ResolveConfig controls format selection and the validation retry loop.
type ResolveConfig struct {
	Format         string   `toml:"format"`
	MaxAttempts    int      `toml:"max_attempts"`
	InitialBackoff Duration `toml:"initial_backoff"`
	MaxBackoff     Duration `toml:"max_backoff"`
	// Timeout bounds one whole resolve call; 0 means no deadline.
	Timeout Duration `toml:"timeout"`
}

// HTTPConfig configures the page/script client.
type HTTPConfig struct {
	Timeout   Duration `toml:"timeout"`
	Retries   int      `toml:"retries"`
	UserAgent string   `toml:"user_agent"`
	Proxy     string   `toml:"proxy"`
}

// CipherConfig configures rule mining.
type CipherConfig struct {
	JSEngine      string   `toml:"js_engine"`
	EngineTimeout Duration `toml:"engine_timeout"`
	Cache         string   `toml:"cache"`
	CachePath     string   `toml:"cache_path"`
	CacheTTL      Duration `toml:"cache_ttl"`
	Strict        bool     `toml:"strict"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Resolve: ResolveConfig{
			MaxAttempts:    5,
			InitialBackoff: Duration{200 * time.Millisecond},
			MaxBackoff:     Duration{3 * time.Second},
		},
		HTTP: HTTPConfig{
			Timeout: Duration{30 * time.Second},
			Retries: 3,
		},
		Cipher: CipherConfig{
			JSEngine:      jsengine.NameGoja,
			EngineTimeout: Duration{2 * time.Second},
			Cache:         rulecache.ModeMemory,
		},
		Log: *logger.DefaultLogConfig(),
	}
}

// configDir returns the XDG-compliant config directory.
func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// ConfigPath returns the path to the default config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// cacheDir returns the XDG-compliant cache directory.
func cacheDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".cache", appName), nil
}

// Load reads the config file at path and merges it over the defaults, then
// applies the environment. An empty path means the default location, which
// may be absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := ConfigPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := cfg.ApplyEnvironment(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnvironment overrides fields from YTRESOLVE_* variables.
func (c *Config) ApplyEnvironment() error {
	if v := os.Getenv("YTRESOLVE_FORMAT"); v != "" {
		c.Resolve.Format = v
	}
	if v := os.Getenv("YTRESOLVE_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("YTRESOLVE_MAX_ATTEMPTS: %w", err)
		}
		c.Resolve.MaxAttempts = n
	}
	if v := os.Getenv("YTRESOLVE_USER_AGENT"); v != "" {
		c.HTTP.UserAgent = v
	}
	if v := os.Getenv("YTRESOLVE_PROXY"); v != "" {
		c.HTTP.Proxy = v
	}
	if v := os.Getenv("YTRESOLVE_JS_ENGINE"); v != "" {
		c.Cipher.JSEngine = v
	}
	if v := os.Getenv("YTRESOLVE_CACHE"); v != "" {
		c.Cipher.Cache = v
	}
	if v := os.Getenv("YTRESOLVE_CACHE_PATH"); v != "" {
		c.Cipher.CachePath = v
	}
	if v := os.Getenv("YTRESOLVE_STRICT"); v != "" {
		c.Cipher.Strict = v == "true" || v == "1"
	}
	c.Log.ApplyEnvironment()
	return nil
}

// Validate checks config values are within acceptable bounds.
func (c *Config) Validate() error {
	if c.Resolve.MaxAttempts < 1 {
		return fmt.Errorf("resolve.max_attempts must be at least 1, got %d", c.Resolve.MaxAttempts)
	}
	if c.Resolve.InitialBackoff.Duration < 0 || c.Resolve.MaxBackoff.Duration < 0 {
		return fmt.Errorf("resolve backoff cannot be negative")
	}
	if c.Resolve.MaxBackoff.Duration < c.Resolve.InitialBackoff.Duration {
		return fmt.Errorf("resolve.max_backoff (%s) is below resolve.initial_backoff (%s)",
			c.Resolve.MaxBackoff.Duration, c.Resolve.InitialBackoff.Duration)
	}
	if c.HTTP.Retries < 0 {
		return fmt.Errorf("http.retries cannot be negative")
	}

	validEngines := map[string]bool{
		jsengine.NameGoja: true, jsengine.NameOtto: true, jsengine.NameOff: true,
	}
	if !validEngines[strings.ToLower(c.Cipher.JSEngine)] {
		return fmt.Errorf("unsupported js engine %q (valid: goja, otto, off)", c.Cipher.JSEngine)
	}

	validCaches := map[string]bool{
		rulecache.ModeMemory: true, rulecache.ModeFile: true, rulecache.ModeSQLite: true, rulecache.ModeOff: true,
	}
	if !validCaches[strings.ToLower(c.Cipher.Cache)] {
		return fmt.Errorf("unsupported cache %q (valid: memory, file, sqlite, off)", c.Cipher.Cache)
	}

	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

// RuleCachePath returns Cipher.CachePath, or the default location for the
// configured cache mode under $XDG_CACHE_HOME.
func (c *Config) RuleCachePath() (string, error) {
	if c.Cipher.CachePath != "" {
		return c.Cipher.CachePath, nil
	}
	dir, err := cacheDir()
	if err != nil {
		return "", err
	}
	switch strings.ToLower(c.Cipher.Cache) {
	case rulecache.ModeSQLite:
		return filepath.Join(dir, "rules.db"), nil
	case rulecache.ModeFile:
		return filepath.Join(dir, "rules"), nil
	}
	return "", nil
}
