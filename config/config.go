package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the node configuration read from TOML.
type Config struct {
	DataDir         string          `toml:"DataDir"`
	RPCAddress      string          `toml:"RPCAddress"`
	MetricsAddress  string          `toml:"MetricsAddress"`
	Environment     string          `toml:"Environment"`
	LogFile         string          `toml:"LogFile"`
	GenesisFile     string          `toml:"GenesisFile"`
	RPCReadTimeout  int             `toml:"RPCReadTimeout"`
	RPCWriteTimeout int             `toml:"RPCWriteTimeout"`
	EventLog        EventLogConfig  `toml:"event_log"`
	Auth            AuthConfig      `toml:"auth"`
	RateLimit       RateLimitConfig `toml:"rate_limit"`
	Telemetry       TelemetryConfig `toml:"telemetry"`
}

// EventLogConfig selects the database the notification log is written to. An
// empty driver disables the log.
type EventLogConfig struct {
	Driver string `toml:"Driver"`
	DSN    string `toml:"DSN"`
}

// AuthConfig configures bearer token validation for mutating RPC calls.
type AuthConfig struct {
	HMACSecret         string `toml:"HMACSecret"`
	HMACSecretEnv      string `toml:"HMACSecretEnv"`
	Issuer             string `toml:"Issuer"`
	Audience           string `toml:"Audience"`
	AllowedSkewSeconds int    `toml:"AllowedSkewSeconds"`
}

// RateLimitConfig bounds request throughput per client.
type RateLimitConfig struct {
	RequestsPerMinute float64 `toml:"RequestsPerMinute"`
	Burst             int     `toml:"Burst"`
}

// TelemetryConfig configures OTLP export.
type TelemetryConfig struct {
	Enabled  bool   `toml:"Enabled"`
	Endpoint string `toml:"Endpoint"`
	Insecure bool   `toml:"Insecure"`
	Headers  string `toml:"Headers"`
	Metrics  bool   `toml:"Metrics"`
	Traces   bool   `toml:"Traces"`
}

// Load loads the configuration from the given path. A missing file is
// replaced by a default configuration written to path.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	cfg := &Config{}
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config file %s has unknown field %s", path, undecoded[0].String())
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./stableamm-data"
	}
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = ":8080"
	}
	if strings.TrimSpace(cfg.MetricsAddress) == "" {
		cfg.MetricsAddress = ":9090"
	}
	if strings.TrimSpace(cfg.Environment) == "" {
		cfg.Environment = "local"
	}
	if cfg.RPCReadTimeout <= 0 {
		cfg.RPCReadTimeout = 15
	}
	if cfg.RPCWriteTimeout <= 0 {
		cfg.RPCWriteTimeout = 15
	}
	if cfg.Auth.AllowedSkewSeconds <= 0 {
		cfg.Auth.AllowedSkewSeconds = 30
	}
	if cfg.RateLimit.RequestsPerMinute <= 0 {
		cfg.RateLimit.RequestsPerMinute = 600
	}
	if cfg.RateLimit.Burst <= 0 {
		cfg.RateLimit.Burst = 50
	}
	if cfg.Telemetry.Endpoint == "" {
		cfg.Telemetry.Endpoint = "localhost:4318"
	}
	cfg.EventLog.Driver = strings.ToLower(strings.TrimSpace(cfg.EventLog.Driver))
}

// Validate rejects configurations the daemon cannot start with.
func (c *Config) Validate() error {
	switch c.EventLog.Driver {
	case "", "sqlite", "postgres":
	default:
		return fmt.Errorf("event_log: unsupported driver %q", c.EventLog.Driver)
	}
	if c.EventLog.Driver != "" && strings.TrimSpace(c.EventLog.DSN) == "" {
		return fmt.Errorf("event_log: dsn required for driver %s", c.EventLog.Driver)
	}
	if c.RateLimit.Burst < 1 {
		return fmt.Errorf("rate_limit: burst must be positive")
	}
	if c.Auth.Issuer != "" && c.Auth.Audience == "" {
		return fmt.Errorf("auth: audience required when issuer is set")
	}
	return nil
}

// ResolveSecret returns the configured HMAC secret, preferring the
// environment variable named by HMACSecretEnv.
func (a AuthConfig) ResolveSecret() string {
	if env := strings.TrimSpace(a.HMACSecretEnv); env != "" {
		if value := strings.TrimSpace(os.Getenv(env)); value != "" {
			return value
		}
	}
	return strings.TrimSpace(a.HMACSecret)
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := Default()
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
