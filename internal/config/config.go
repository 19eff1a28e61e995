// ABOUTME: Configuration loading and parsing for promptdeck services
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete configuration for a promptdeck service
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Email    EmailConfig    `yaml:"email"`
	LLM      LLMConfig      `yaml:"llm"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig holds token signing and verification configuration.
// VerifyMode selects how protected services check tokens: "local" decodes
// in-process with the shared secret, "remote" asks the auth service and
// degrades to local when LocalFallback is set.
type AuthConfig struct {
	JWTSecret     string `yaml:"jwt_secret"`
	VerifyMode    string `yaml:"verify_mode"`
	AuthorityURL  string `yaml:"authority_url"`
	LocalFallback bool   `yaml:"local_fallback"`
	BcryptCost    int    `yaml:"bcrypt_cost"`

	TokenTTL      time.Duration `yaml:"-"`
	RemoteTimeout time.Duration `yaml:"-"`

	// Raw string values for YAML unmarshaling
	TokenTTLRaw      string `yaml:"token_ttl"`
	RemoteTimeoutRaw string `yaml:"remote_timeout"`
}

// EmailConfig holds registration email validation configuration.
// DNSFailurePolicy is "open" (DNS flakiness passes the check) or "closed".
type EmailConfig struct {
	CheckMX          bool   `yaml:"check_mx"`
	CheckDisposable  bool   `yaml:"check_disposable"`
	DNSFailurePolicy string `yaml:"dns_failure_policy"`

	DNSTimeout time.Duration `yaml:"-"`

	DNSTimeoutRaw string `yaml:"dns_timeout"`
}

// LLMConfig holds LLM provider configuration for the chat service
type LLMConfig struct {
	Provider string `yaml:"provider"` // "openrouter" or "openai"
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`

	RequestTimeout time.Duration `yaml:"-"`

	RequestTimeoutRaw string `yaml:"request_timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default token lifetime when token_ttl is not configured.
const DefaultTokenTTL = 30 * time.Minute

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Parse duration fields
	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	applyDefaults(&cfg)

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// applyDefaults fills unset fields with working defaults.
func applyDefaults(cfg *Config) {
	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = DefaultTokenTTL
	}
	if cfg.Auth.VerifyMode == "" {
		cfg.Auth.VerifyMode = "local"
	}
	if cfg.Email.DNSFailurePolicy == "" {
		cfg.Email.DNSFailurePolicy = "open"
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openrouter"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "openai/gpt-3.5-turbo"
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}

	switch c.Auth.VerifyMode {
	case "local", "remote":
	default:
		return fmt.Errorf("auth.verify_mode must be %q or %q, got %q", "local", "remote", c.Auth.VerifyMode)
	}

	if c.Auth.VerifyMode == "remote" && c.Auth.AuthorityURL == "" {
		return fmt.Errorf("auth.authority_url is required when verify_mode is remote")
	}

	switch c.Email.DNSFailurePolicy {
	case "open", "closed":
	default:
		return fmt.Errorf("email.dns_failure_policy must be %q or %q, got %q", "open", "closed", c.Email.DNSFailurePolicy)
	}

	switch c.LLM.Provider {
	case "openrouter", "openai":
	default:
		return fmt.Errorf("llm.provider must be %q or %q, got %q", "openrouter", "openai", c.LLM.Provider)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Auth.TokenTTLRaw != "" {
		cfg.Auth.TokenTTL, err = time.ParseDuration(cfg.Auth.TokenTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing token_ttl %q: %w", cfg.Auth.TokenTTLRaw, err)
		}
	}

	if cfg.Auth.RemoteTimeoutRaw != "" {
		cfg.Auth.RemoteTimeout, err = time.ParseDuration(cfg.Auth.RemoteTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing remote_timeout %q: %w", cfg.Auth.RemoteTimeoutRaw, err)
		}
	}

	if cfg.Email.DNSTimeoutRaw != "" {
		cfg.Email.DNSTimeout, err = time.ParseDuration(cfg.Email.DNSTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing dns_timeout %q: %w", cfg.Email.DNSTimeoutRaw, err)
		}
	}

	if cfg.LLM.RequestTimeoutRaw != "" {
		cfg.LLM.RequestTimeout, err = time.ParseDuration(cfg.LLM.RequestTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing request_timeout %q: %w", cfg.LLM.RequestTimeoutRaw, err)
		}
	}

	return nil
}
