// Package config loads export client settings from the environment or from a
// YAML file and turns them into client options.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"

	client "github.com/peteraglen/export-manager-go-client"
)

// EnvPrefix prefixes every environment variable, e.g. EXPORTS_BASE_URL.
const EnvPrefix = "EXPORTS"

// Config holds client and logging settings.
type Config struct {
	BaseURL  string `envconfig:"BASE_URL" required:"true" yaml:"base_url"`
	Username string `envconfig:"USERNAME" yaml:"username"`
	Password string `envconfig:"PASSWORD" yaml:"password"`

	// InsecureSkipVerify disables TLS certificate verification. It defaults
	// to true for compatibility with existing deployments.
	InsecureSkipVerify bool          `envconfig:"INSECURE_SKIP_VERIFY" default:"true" yaml:"insecure_skip_verify"`
	ConnectTimeout     time.Duration `envconfig:"CONNECT_TIMEOUT" default:"3s" yaml:"connect_timeout"`
	Timeout            time.Duration `envconfig:"TIMEOUT" default:"30s" yaml:"timeout"`

	RateLimit float64 `envconfig:"RATE_LIMIT" default:"0" yaml:"rate_limit"`
	RateBurst int     `envconfig:"RATE_BURST" default:"1" yaml:"rate_burst"`
	UserAgent string  `envconfig:"USER_AGENT" yaml:"user_agent"`

	Log LogConfig `envconfig:"LOG" yaml:"log"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LEVEL" default:"info" yaml:"level"`
	Development bool   `envconfig:"DEV" default:"false" yaml:"development"`
}

// Default returns the settings used when nothing is configured. BaseURL is
// left empty.
func Default() Config {
	return Config{
		InsecureSkipVerify: true,
		ConnectTimeout:     3 * time.Second,
		Timeout:            30 * time.Second,
		RateBurst:          1,
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the configuration from EXPORTS_* environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// LoadFile reads the configuration from a YAML file. Missing keys keep
// their Default values.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.BaseURL == "" {
		return Config{}, errors.New("base_url must be set")
	}

	return cfg, nil
}

// ClientOptions converts the settings into options for [client.New].
func (c Config) ClientOptions() []client.Option {
	opts := []client.Option{
		client.WithInsecureSkipVerify(c.InsecureSkipVerify),
		client.WithConnectTimeout(c.ConnectTimeout),
		client.WithTimeout(c.Timeout),
		client.WithRateLimit(c.RateLimit, c.RateBurst),
	}

	if c.Username != "" {
		opts = append(opts, client.WithCredentials(c.Username, c.Password))
	}

	if c.UserAgent != "" {
		opts = append(opts, client.WithUserAgent(c.UserAgent))
	}

	return opts
}

// NewClient builds a client from the settings, logging through logger.
func (c Config) NewClient(logger RequestLogger) *client.Client {
	opts := c.ClientOptions()
	if logger != nil {
		opts = append(opts, client.WithRequestLogger(logger))
	}

	return client.New(c.BaseURL, opts...)
}

// RequestLogger is the logger accepted by [Config.NewClient].
type RequestLogger = client.RequestLogger
