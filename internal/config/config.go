// Package config loads gateway settings from an optional TOML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the full gateway configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Security SecurityConfig `toml:"security"`
	Log      LogConfig      `toml:"log"`
	Cache    CacheConfig    `toml:"cache"`
}

// ServerConfig maps the [server] table.
type ServerConfig struct {
	Port                   string `toml:"port"`
	ReadTimeoutSeconds     int    `toml:"read-timeout"`
	WriteTimeoutSeconds    int    `toml:"write-timeout"`
	ShutdownTimeoutSeconds int    `toml:"shutdown-timeout"`
}

// SecurityConfig maps the [security] table.
type SecurityConfig struct {
	RatePerMinute         int      `toml:"rate-per-minute"`
	MaxInputLength        int      `toml:"max-input"`
	RequestTimeoutSeconds int      `toml:"request-timeout"`
	GatewaySecret         string   `toml:"gateway-secret"`
	AllowedOrigins        []string `toml:"allowed-origins"`
	EnableHSTS            bool     `toml:"hsts"`
}

// LogConfig maps the [log] table.
type LogConfig struct {
	Level string `toml:"level"`
}

// CacheConfig maps the [cache] table. A zero TTL disables reply caching.
type CacheConfig struct {
	TTLSeconds int `toml:"ttl"`
	MaxEntries int `toml:"max-entries"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:                   "8080",
			ReadTimeoutSeconds:     15,
			WriteTimeoutSeconds:    15,
			ShutdownTimeoutSeconds: 30,
		},
		Security: SecurityConfig{
			RatePerMinute:         60,
			MaxInputLength:        4000,
			RequestTimeoutSeconds: 10,
			AllowedOrigins:        []string{"http://localhost:3000"},
		},
		Log: LogConfig{Level: "info"},
		Cache: CacheConfig{
			TTLSeconds: 600,
			MaxEntries: 1024,
		},
	}
}

// Load builds the configuration: defaults, then the TOML file at path (a
// missing file or empty path is not an error), then environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat config: %w", err)
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("%w: unknown key %q", ErrInvalidConfig, undecoded[0].String())
	}

	return nil
}

func applyEnv(cfg *Config) error {
	cfg.Server.Port = getEnvOrDefault("PORT", cfg.Server.Port)
	cfg.Security.GatewaySecret = getEnvOrDefault("CALCBOT_GATEWAY_SECRET", cfg.Security.GatewaySecret)
	cfg.Log.Level = getEnvOrDefault("CALCBOT_LOG_LEVEL", cfg.Log.Level)

	var err error
	if cfg.Security.RatePerMinute, err = getEnvInt("CALCBOT_RATE_PER_MIN", cfg.Security.RatePerMinute); err != nil {
		return err
	}
	if cfg.Security.MaxInputLength, err = getEnvInt("CALCBOT_MAX_INPUT", cfg.Security.MaxInputLength); err != nil {
		return err
	}

	if cfg.Cache.TTLSeconds, err = getEnvInt("CALCBOT_CACHE_TTL", cfg.Cache.TTLSeconds); err != nil {
		return err
	}

	if origins := os.Getenv("CALCBOT_ALLOWED_ORIGINS"); origins != "" {
		cfg.Security.AllowedOrigins = splitList(origins)
	}

	return nil
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	port, err := strconv.Atoi(c.Server.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("%w: port %q", ErrInvalidConfig, c.Server.Port)
	}
	if c.Security.RatePerMinute <= 0 {
		return fmt.Errorf("%w: rate-per-minute must be positive", ErrInvalidConfig)
	}
	if c.Security.MaxInputLength <= 0 {
		return fmt.Errorf("%w: max-input must be positive", ErrInvalidConfig)
	}
	if c.Security.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("%w: request-timeout must be positive", ErrInvalidConfig)
	}
	if len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("%w: allowed-origins cannot be empty", ErrInvalidConfig)
	}
	for _, origin := range c.Security.AllowedOrigins {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("%w: origin %q needs an http or https scheme", ErrInvalidConfig, origin)
		}
	}
	if c.Cache.TTLSeconds < 0 || c.Cache.MaxEntries < 0 {
		return fmt.Errorf("%w: cache settings cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// ReadTimeout returns the HTTP server read timeout.
func (c ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout returns the HTTP server write timeout.
func (c ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSeconds) * time.Second
}

// ShutdownTimeout bounds graceful shutdown.
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// TTL returns how long a cached reply lives.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// RequestTimeout bounds a single request's context.
func (c SecurityConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, key, value)
	}
	return n, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
