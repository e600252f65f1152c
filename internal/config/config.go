// Package config loads the opcuad server's bootstrap configuration:
// listen address, certificate material, and the security-policy
// allowlist. Everything a running session needs beyond this point
// (secure channels, subscriptions, the address space) is built by
// internal/runtime from the values loaded here.
//
// Configuration sources, in order of precedence:
//  1. Environment variables (OPCUAD_*)
//  2. Configuration file (YAML)
//  3. Default values
//
// CLI flags are not a source; opcuad's --config flag only names the file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ua-stack/opcua/pkg/ua/security/policies"
)

// Config is the opcuad bootstrap configuration.
type Config struct {
	// ListenAddress is the TCP address the UA/TCP listener binds to,
	// e.g. "0.0.0.0:4840".
	ListenAddress string `mapstructure:"listen_address" yaml:"listen_address"`

	// ShutdownTimeout bounds how long the server waits for open
	// channels to drain on a graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	// SendBufferSize and ReceiveBufferSize are offered to clients
	// during HEL/ACK negotiation (spec.md §5).
	SendBufferSize    uint32 `mapstructure:"send_buffer_size" yaml:"send_buffer_size"`
	ReceiveBufferSize uint32 `mapstructure:"receive_buffer_size" yaml:"receive_buffer_size"`
	MaxMessageSize    uint32 `mapstructure:"max_message_size" yaml:"max_message_size"`
	MaxChunkCount     uint32 `mapstructure:"max_chunk_count" yaml:"max_chunk_count"`

	// SecurityPolicies lists the SecurityPolicy URIs this server
	// accepts during channel OPN, in the order they are advertised.
	// At least one entry is required; "...#None" is permitted only
	// when explicitly listed.
	SecurityPolicies []string `mapstructure:"security_policies" yaml:"security_policies"`

	Certificate CertificateConfig `mapstructure:"certificate" yaml:"certificate"`
	Logging     LoggingConfig     `mapstructure:"logging" yaml:"logging"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry" yaml:"telemetry"`
	Metrics     MetricsConfig     `mapstructure:"metrics" yaml:"metrics"`
}

// CertificateConfig locates the server's application instance
// certificate and the trust/rejected/issuer stores used by
// pkg/ua/certs.Store.
type CertificateConfig struct {
	CertPath      string `mapstructure:"cert_path" yaml:"cert_path"`
	KeyPath       string `mapstructure:"key_path" yaml:"key_path"`
	TrustedDir    string `mapstructure:"trusted_dir" yaml:"trusted_dir"`
	IssuersDir    string `mapstructure:"issuers_dir" yaml:"issuers_dir"`
	RejectedDir   string `mapstructure:"rejected_dir" yaml:"rejected_dir"`
	MaxChainDepth int    `mapstructure:"max_chain_depth" yaml:"max_chain_depth"`
}

// LoggingConfig controls internal/logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// TelemetryConfig controls internal/telemetry tracing.
type TelemetryConfig struct {
	Enabled    bool    `mapstructure:"enabled" yaml:"enabled"`
	SampleRate float64 `mapstructure:"sample_rate" yaml:"sample_rate"`
}

// MetricsConfig controls the Prometheus metrics HTTP endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Address string `mapstructure:"address" yaml:"address"`
}

var knownPolicyURIs = map[string]bool{
	policies.NoneURI:               true,
	policies.Basic128Rsa15URI:      true,
	policies.Basic256Sha256URI:     true,
	policies.Aes256Sha256RsaPssURI: true,
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *Config {
	return &Config{
		ListenAddress:     "0.0.0.0:4840",
		ShutdownTimeout:   10 * time.Second,
		SendBufferSize:    65536,
		ReceiveBufferSize: 65536,
		MaxMessageSize:    4 * 1024 * 1024,
		MaxChunkCount:     0,
		SecurityPolicies:  []string{policies.Basic256Sha256URI, policies.Aes256Sha256RsaPssURI},
		Certificate: CertificateConfig{
			MaxChainDepth: 5,
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
			Output: "stdout",
		},
		Telemetry: TelemetryConfig{
			Enabled:    false,
			SampleRate: 1.0,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Address: "0.0.0.0:9090",
		},
	}
}

// Load reads configuration from configPath (if non-empty), overlays
// OPCUAD_-prefixed environment variables, and fills in defaults for
// anything left unset. It does not validate; call Validate
// explicitly once CLI flag overrides have also been applied.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("OPCUAD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(defaultConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	cfg := Default()
	bindDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, nil
}

// bindDefaults seeds viper with cfg's zero-config defaults so that an
// absent key falls back to Default() rather than Go's zero value.
func bindDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("listen_address", cfg.ListenAddress)
	v.SetDefault("shutdown_timeout", cfg.ShutdownTimeout)
	v.SetDefault("send_buffer_size", cfg.SendBufferSize)
	v.SetDefault("receive_buffer_size", cfg.ReceiveBufferSize)
	v.SetDefault("max_message_size", cfg.MaxMessageSize)
	v.SetDefault("max_chunk_count", cfg.MaxChunkCount)
	v.SetDefault("security_policies", cfg.SecurityPolicies)
	v.SetDefault("certificate.max_chain_depth", cfg.Certificate.MaxChainDepth)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.output", cfg.Logging.Output)
	v.SetDefault("telemetry.enabled", cfg.Telemetry.Enabled)
	v.SetDefault("telemetry.sample_rate", cfg.Telemetry.SampleRate)
	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.address", cfg.Metrics.Address)
}

// Validate checks the configuration for internal consistency. It
// does not touch the filesystem beyond the certificate paths it is
// told to check, since callers may still be assembling a config from
// flags one field at a time.
func (c *Config) Validate() error {
	if c.ListenAddress == "" {
		return fmt.Errorf("listen_address is required")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive")
	}
	if c.SendBufferSize == 0 || c.ReceiveBufferSize == 0 {
		return fmt.Errorf("send_buffer_size and receive_buffer_size must be nonzero")
	}
	if c.MaxMessageSize == 0 {
		return fmt.Errorf("max_message_size must be nonzero")
	}
	if len(c.SecurityPolicies) == 0 {
		return fmt.Errorf("at least one security policy must be configured")
	}
	for _, uri := range c.SecurityPolicies {
		if !knownPolicyURIs[uri] {
			return fmt.Errorf("unknown security policy uri %q", uri)
		}
	}
	if err := c.Logging.validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Telemetry.validate(); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	if err := c.Certificate.validate(c.requiresCertificate()); err != nil {
		return fmt.Errorf("certificate: %w", err)
	}
	return nil
}

// requiresCertificate reports whether any configured security policy
// needs an application instance certificate; "...#None" is the only
// policy that does not.
func (c *Config) requiresCertificate() bool {
	for _, uri := range c.SecurityPolicies {
		if uri != policies.NoneURI {
			return true
		}
	}
	return false
}

func (l LoggingConfig) validate() error {
	switch strings.ToUpper(l.Level) {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		return fmt.Errorf("invalid level %q", l.Level)
	}
	switch l.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid format %q", l.Format)
	}
	if l.Output == "" {
		return fmt.Errorf("output is required")
	}
	return nil
}

func (t TelemetryConfig) validate() error {
	if t.SampleRate < 0 || t.SampleRate > 1 {
		return fmt.Errorf("sample_rate must be in [0,1], got %v", t.SampleRate)
	}
	return nil
}

func (c CertificateConfig) validate(required bool) error {
	if c.MaxChainDepth < 0 {
		return fmt.Errorf("max_chain_depth cannot be negative")
	}
	if !required {
		return nil
	}
	if c.CertPath == "" {
		return fmt.Errorf("cert_path is required when a non-None security policy is configured")
	}
	if c.KeyPath == "" {
		return fmt.Errorf("key_path is required when a non-None security policy is configured")
	}
	if _, err := os.Stat(c.CertPath); err != nil {
		return fmt.Errorf("cert_path %q: %w", c.CertPath, err)
	}
	if _, err := os.Stat(c.KeyPath); err != nil {
		return fmt.Errorf("key_path %q: %w", c.KeyPath, err)
	}
	return nil
}

func defaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "opcuad")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "opcuad")
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() string {
	return filepath.Join(defaultConfigDir(), "config.yaml")
}
