package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/profilemcp/observe"
	"github.com/jonwraymond/profilemcp/secret"
)

// Credential environment variables.
const (
	EnvUsername = "USERNAME"
	EnvPassword = "PASSWORD"
	EnvEmail    = "EMAIL"
	EnvBaseURL  = "BASE_URL"
)

// Ambient environment variables.
const (
	EnvTransport       = "PROFILE_MCP_TRANSPORT"
	EnvHTTPAddr        = "PROFILE_MCP_HTTP_ADDR"
	EnvAPIKey          = "PROFILE_MCP_API_KEY"
	EnvMaxConcurrent   = "PROFILE_MCP_MAX_CONCURRENT"
	EnvUpstreamTimeout = "PROFILE_MCP_UPSTREAM_TIMEOUT"
	EnvTokenCacheTTL   = "PROFILE_MCP_TOKEN_CACHE_TTL"
	EnvResultCacheTTL  = "PROFILE_MCP_RESULT_CACHE_TTL"
	EnvLogLevel        = "PROFILE_MCP_LOG_LEVEL"
	EnvTracingExporter = "PROFILE_MCP_TRACING_EXPORTER"
	EnvTracingSample   = "PROFILE_MCP_TRACING_SAMPLE"
	EnvMetricsExporter = "PROFILE_MCP_METRICS_EXPORTER"
)

// Transports.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Credentials are the upstream account settings. They are immutable once
// loaded; pass them by value.
type Credentials struct {
	Username     string
	Password     string
	ContactEmail string
	BaseURL      string
}

// CredentialsFromEnv reads the four credential variables. Absent variables
// are empty strings.
func CredentialsFromEnv() Credentials {
	return Credentials{
		Username:     os.Getenv(EnvUsername),
		Password:     os.Getenv(EnvPassword),
		ContactEmail: os.Getenv(EnvEmail),
		BaseURL:      os.Getenv(EnvBaseURL),
	}
}

// URL joins the base URL and a relative resource path by plain
// concatenation.
func (c Credentials) URL(path string) string {
	return c.BaseURL + path
}

// String hides the password.
func (c Credentials) String() string {
	pw := ""
	if c.Password != "" {
		pw = "[REDACTED]"
	}
	return fmt.Sprintf("{username:%q password:%q email:%q base_url:%q}", c.Username, pw, c.ContactEmail, c.BaseURL)
}

// Config is the complete server configuration.
type Config struct {
	Upstream  UpstreamConfig  `yaml:"upstream"`
	Server    ServerConfig    `yaml:"server"`
	Cache     CacheConfig     `yaml:"cache"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// UpstreamConfig holds the upstream API account and client settings.
type UpstreamConfig struct {
	BaseURL      string `yaml:"base_url"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	ContactEmail string `yaml:"contact_email"`

	// Timeout bounds each upstream HTTP call. Zero keeps the client default.
	Timeout    time.Duration `yaml:"-"`
	TimeoutRaw string        `yaml:"timeout"`
}

// ServerConfig holds the tool-exposure settings.
type ServerConfig struct {
	Transport     string `yaml:"transport"`
	HTTPAddr      string `yaml:"http_addr"`
	APIKey        string `yaml:"api_key"`        // required X-API-Key on /mcp when set
	MaxConcurrent int    `yaml:"max_concurrent"` // 0 = unlimited
}

// CacheConfig holds the opt-in caches. Zero TTLs disable them.
type CacheConfig struct {
	TokenTTL  time.Duration `yaml:"-"`
	ResultTTL time.Duration `yaml:"-"`

	TokenTTLRaw  string `yaml:"token_ttl"`
	ResultTTLRaw string `yaml:"result_ttl"`
}

// TelemetryConfig holds logging, tracing and metrics settings.
type TelemetryConfig struct {
	LogLevel        string  `yaml:"log_level"`
	TracingExporter string  `yaml:"tracing_exporter"`
	TracingSample   float64 `yaml:"tracing_sample"`
	MetricsExporter string  `yaml:"metrics_exporter"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Transport: TransportStdio,
			HTTPAddr:  ":8080",
		},
		Telemetry: TelemetryConfig{
			LogLevel:      "info",
			TracingSample: 1.0,
		},
	}
}

// FromEnv builds the configuration from the process environment.
func FromEnv() (*Config, error) {
	cfg, err := fromEnv()
	if err != nil {
		return nil, err
	}
	if err := finish(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads the environment, then overlays the YAML file at path.
// Fields absent from the file keep their environment value.
func Load(path string) (*Config, error) {
	cfg, err := fromEnv()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded, err := secret.ExpandEnv(string(data), false)
	if err != nil {
		return nil, fmt.Errorf("expanding config file: %w", err)
	}

	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := finish(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromEnv() (*Config, error) {
	cfg := Default()

	creds := CredentialsFromEnv()
	cfg.Upstream.BaseURL = creds.BaseURL
	cfg.Upstream.Username = creds.Username
	cfg.Upstream.Password = creds.Password
	cfg.Upstream.ContactEmail = creds.ContactEmail

	setString(&cfg.Server.Transport, EnvTransport)
	setString(&cfg.Server.HTTPAddr, EnvHTTPAddr)
	setString(&cfg.Server.APIKey, EnvAPIKey)
	setString(&cfg.Upstream.TimeoutRaw, EnvUpstreamTimeout)
	setString(&cfg.Cache.TokenTTLRaw, EnvTokenCacheTTL)
	setString(&cfg.Cache.ResultTTLRaw, EnvResultCacheTTL)
	setString(&cfg.Telemetry.LogLevel, EnvLogLevel)
	setString(&cfg.Telemetry.TracingExporter, EnvTracingExporter)
	setString(&cfg.Telemetry.MetricsExporter, EnvMetricsExporter)

	if v := os.Getenv(EnvMaxConcurrent); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parsing %s %q: %w", EnvMaxConcurrent, v, err)
		}
		cfg.Server.MaxConcurrent = n
	}
	if v := os.Getenv(EnvTracingSample); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing %s %q: %w", EnvTracingSample, v, err)
		}
		cfg.Telemetry.TracingSample = f
	}

	return cfg, nil
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

func finish(cfg *Config) error {
	if err := parseDurations(cfg); err != nil {
		return fmt.Errorf("parsing durations: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	return nil
}

// parseDurations converts the raw duration strings into time.Duration values.
func parseDurations(cfg *Config) error {
	fields := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"upstream.timeout", cfg.Upstream.TimeoutRaw, &cfg.Upstream.Timeout},
		{"cache.token_ttl", cfg.Cache.TokenTTLRaw, &cfg.Cache.TokenTTL},
		{"cache.result_ttl", cfg.Cache.ResultTTLRaw, &cfg.Cache.ResultTTL},
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = d
	}
	return nil
}

// Validate checks the ambient settings. Credentials are not checked.
func (c *Config) Validate() error {
	switch c.Server.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("%w: unknown transport %q", ErrInvalidConfig, c.Server.Transport)
	}
	if c.Server.Transport == TransportHTTP && c.Server.HTTPAddr == "" {
		return fmt.Errorf("%w: server.http_addr is required for the http transport", ErrInvalidConfig)
	}
	if c.Server.MaxConcurrent < 0 {
		return fmt.Errorf("%w: server.max_concurrent must not be negative", ErrInvalidConfig)
	}
	if c.Upstream.Timeout < 0 || c.Cache.TokenTTL < 0 || c.Cache.ResultTTL < 0 {
		return fmt.Errorf("%w: durations must not be negative", ErrInvalidConfig)
	}

	// stdout carries the protocol in stdio mode
	if c.Server.Transport == TransportStdio &&
		(c.Telemetry.TracingExporter == "stdout" || c.Telemetry.MetricsExporter == "stdout") {
		return fmt.Errorf("%w: stdout exporters cannot be used with the stdio transport", ErrInvalidConfig)
	}

	obs := c.ObserveConfig("validate", "")
	if err := obs.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Credentials returns the upstream account settings.
func (c *Config) Credentials() Credentials {
	return Credentials{
		Username:     c.Upstream.Username,
		Password:     c.Upstream.Password,
		ContactEmail: c.Upstream.ContactEmail,
		BaseURL:      c.Upstream.BaseURL,
	}
}

// ResolveSecrets replaces secretref values in the credential and API key
// fields.
func (c *Config) ResolveSecrets(ctx context.Context, r *secret.Resolver) error {
	err := r.ResolveInPlace(ctx,
		&c.Upstream.Username,
		&c.Upstream.Password,
		&c.Upstream.ContactEmail,
		&c.Server.APIKey,
	)
	if err != nil {
		return fmt.Errorf("resolving secrets: %w", err)
	}
	return nil
}

// BaseURLWarning describes a base URL that will not concatenate cleanly
// with resource paths, or returns "" when it looks fine.
func (c *Config) BaseURLWarning() string {
	switch {
	case c.Upstream.BaseURL == "":
		return EnvBaseURL + " is empty; every tool call will fail"
	case !strings.HasSuffix(c.Upstream.BaseURL, "/"):
		return EnvBaseURL + " does not end with '/'; resource paths are appended verbatim"
	}
	return ""
}

// ObserveConfig maps the telemetry settings onto an observe.Config.
func (c *Config) ObserveConfig(serviceName, version string) observe.Config {
	t := c.Telemetry
	return observe.Config{
		ServiceName: serviceName,
		Version:     version,
		Tracing: observe.TracingConfig{
			Enabled:   t.TracingExporter != "" && t.TracingExporter != "none",
			Exporter:  t.TracingExporter,
			SamplePct: t.TracingSample,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  t.MetricsExporter != "" && t.MetricsExporter != "none",
			Exporter: t.MetricsExporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: true,
			Level:   t.LogLevel,
		},
	}
}
