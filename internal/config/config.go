// Package config loads babis settings from defaults, an optional YAML file,
// BABIS_* environment variables and command-line flags, in rising priority.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "BABIS_"

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "babis.yaml"

// Environments
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds every runtime setting.
type Config struct {
	Addr              string `koanf:"addr"`
	DBPath            string `koanf:"db_path"`
	Env               string `koanf:"env"`
	LogLevel          string `koanf:"log_level"`
	CSRFKey           string `koanf:"csrf_key"`
	AdminUser         string `koanf:"admin_user"`
	AdminPasswordHash string `koanf:"admin_password_hash"`
	ResendAPIKey      string `koanf:"resend_api_key"`
	NotifyFrom        string `koanf:"notify_from"`
	NotifyTo          string `koanf:"notify_to"` // comma separated
	SlowRequestMs     int    `koanf:"slow_request_ms"`
	SlowQueryMs       int    `koanf:"slow_query_ms"`
	PerPage           int    `koanf:"per_page"`

	// File is the config file that was loaded, empty when none was found.
	File string `koanf:"-"`
}

// Defaults returns the built-in settings.
func Defaults() map[string]any {
	return map[string]any{
		"addr":            ":8080",
		"db_path":         "babis.db",
		"env":             EnvDevelopment,
		"log_level":       "info",
		"notify_from":     "Babis <office@babis.co.il>",
		"slow_request_ms": 500,
		"slow_query_ms":   50,
		"per_page":        0,
	}
}

// Default returns the built-in settings as a Config.
func Default() *Config {
	k := koanf.New(".")
	_ = k.Load(confmap.Provider(Defaults(), "."), nil)
	var cfg Config
	_ = k.Unmarshal("", &cfg)
	return &cfg
}

// Load reads configuration. An explicit cfgFile must exist; otherwise
// DefaultFile is used when present. Only flags that were set override
// lower layers; dashes in flag names map to underscores.
// PRE: flags may be nil
// POST: Returns a validated Config or an error naming the failing layer
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	used := cfgFile
	if used == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			used = DefaultFile
		}
	}
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	// BABIS_DB_PATH -> db_path
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.File = used

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validation errors
var (
	ErrUnknownEnv      = errors.New("env must be 'development' or 'production'")
	ErrUnknownLevel    = errors.New("log_level must be debug, info, warn or error")
	ErrCSRFKey         = errors.New("csrf_key must be 32 bytes in production")
	ErrAdminHash       = errors.New("admin_user requires admin_password_hash")
	ErrNegativeSetting = errors.New("thresholds and per_page cannot be negative")
)

// Validate checks settings that would otherwise fail at request time.
// PRE: none
// POST: Returns the first violated rule, nil otherwise
func (c *Config) Validate() error {
	if c.Env != EnvDevelopment && c.Env != EnvProduction {
		return ErrUnknownEnv
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.IsProduction() && len(c.CSRFKey) != 32 {
		return ErrCSRFKey
	}
	if c.CSRFKey != "" && len(c.CSRFKey) != 32 {
		return ErrCSRFKey
	}
	if c.AdminUser != "" && c.AdminPasswordHash == "" {
		return ErrAdminHash
	}
	if c.SlowRequestMs < 0 || c.SlowQueryMs < 0 || c.PerPage < 0 {
		return ErrNegativeSetting
	}
	return nil
}

// IsProduction reports whether the production environment is selected.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, ErrUnknownLevel
	}
	return l, nil
}

// Recipients splits NotifyTo into addresses.
func (c *Config) Recipients() []string {
	var out []string
	for _, a := range strings.Split(c.NotifyTo, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}
