// Package config loads arbor settings from a YAML file and ARBOR_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultFile is read when no explicit path is given. It is optional.
const DefaultFile = "arbor.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ARBOR_"

// Store drivers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
)

// ErrInvalid is returned when the loaded settings are unusable.
var ErrInvalid = errors.New("invalid configuration")

// Config is the resolved application configuration.
type Config struct {
	LogLevel string        `mapstructure:"log_level"`
	Session  string        `mapstructure:"session"`
	History  HistoryConfig `mapstructure:"history"`
	Store    StoreConfig   `mapstructure:"store"`
	Redis    RedisConfig   `mapstructure:"redis"`
	HTTP     HTTPConfig    `mapstructure:"http"`
}

type HistoryConfig struct {
	Limit int `mapstructure:"limit"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
	// Lock enables distributed session locks, for replicas sharing one Redis.
	Lock    bool          `mapstructure:"lock"`
	LockTTL time.Duration `mapstructure:"lock_ttl"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// Defaults returns the settings used when nothing overrides them.
func Defaults() map[string]any {
	return map[string]any{
		"log_level": "info",
		"session":   "default",
		"history": map[string]any{
			"limit": 50,
		},
		"store": map[string]any{
			"driver": DriverFile,
			"path":   ".arbor/sessions",
		},
		"redis": map[string]any{
			"addr":     "localhost:6379",
			"password": "",
			"db":       0,
			"prefix":   "arbor:session:",
			"ttl":      "0s",
			"lock":     false,
			"lock_ttl": "30s",
		},
		"http": map[string]any{
			"addr":             ":8080",
			"read_timeout":     "10s",
			"shutdown_timeout": "5s",
			"allowed_origins":  []any{"*"},
		},
	}
}

// Load resolves the configuration: defaults, then the YAML file, then the
// environment. An empty path reads DefaultFile if it exists; an explicit
// path must exist.
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookupEnv func(string) (string, bool)) (*Config, error) {
	raw := Defaults()

	// 1. File
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var fromFile map[string]any
		if err := yaml.Unmarshal(data, &fromFile); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		merge(raw, fromFile)
	case os.IsNotExist(err) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// 2. Environment
	for _, key := range leafKeys(Defaults(), "") {
		if v, ok := lookupEnv(EnvName(key)); ok {
			set(raw, key, v)
		}
	}

	// 3. Decode
	var cfg Config
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory, DriverFile, DriverRedis:
	default:
		return fmt.Errorf("%w: unknown store driver %q", ErrInvalid, c.Store.Driver)
	}
	if c.History.Limit < 0 {
		return fmt.Errorf("%w: history limit must not be negative", ErrInvalid)
	}
	if c.Store.Driver == DriverRedis && c.Redis.Addr == "" {
		return fmt.Errorf("%w: redis driver requires redis.addr", ErrInvalid)
	}
	return nil
}

// EnvName maps a dotted key to its environment variable, e.g.
// "redis.lock_ttl" to ARBOR_REDIS_LOCK_TTL.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// merge copies src into dst, descending into nested maps.
func merge(dst, src map[string]any) {
	for k, v := range src {
		if sub, ok := v.(map[string]any); ok {
			if existing, ok := dst[k].(map[string]any); ok {
				merge(existing, sub)
				continue
			}
		}
		dst[k] = v
	}
}

func leafKeys(m map[string]any, prefix string) []string {
	var keys []string
	for k, v := range m {
		if sub, ok := v.(map[string]any); ok {
			keys = append(keys, leafKeys(sub, prefix+k+".")...)
			continue
		}
		keys = append(keys, prefix+k)
	}
	return keys
}

func set(m map[string]any, key string, value any) {
	parts := strings.Split(key, ".")
	for _, p := range parts[:len(parts)-1] {
		sub, ok := m[p].(map[string]any)
		if !ok {
			sub = map[string]any{}
			m[p] = sub
		}
		m = sub
	}
	m[parts[len(parts)-1]] = value
}
