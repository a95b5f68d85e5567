package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment selects which reply service deployment the widget talks to.
type Environment string

const (
	EnvProduction  Environment = "production"
	EnvDevelopment Environment = "development"
)

const (
	DefaultProdBaseURL = "https://chatbotlogic.vercel.app"
	DefaultDevBasePath = "/api"
	DefaultDevOrigin   = "http://localhost:8080"
)

// ClientConfig holds the chat widget configuration.
type ClientConfig struct {
	Environment    Environment   `yaml:"environment"`
	BaseURL        string        `yaml:"base_url"`
	ProdBaseURL    string        `yaml:"prod_base_url"`
	DevBasePath    string        `yaml:"dev_base_path"`
	DevOrigin      string        `yaml:"dev_origin"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// DefaultClientConfig returns a ClientConfig pointing at a local development server.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Environment: EnvDevelopment,
		ProdBaseURL: DefaultProdBaseURL,
		DevBasePath: DefaultDevBasePath,
		DevOrigin:   DefaultDevOrigin,
	}
}

// LoadClient reads the optional YAML file at path, then applies CHAT_* environment
// overrides. A missing file is not an error.
func LoadClient(path string) (*ClientConfig, error) {
	cfg := DefaultClientConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *ClientConfig) applyEnv() error {
	if raw := strings.TrimSpace(os.Getenv("CHAT_ENV")); raw != "" {
		env, err := ParseEnvironment(raw)
		if err != nil {
			return err
		}
		c.Environment = env
	}

	c.BaseURL = getEnvOrDefault("CHAT_BASE_URL", c.BaseURL)
	c.ProdBaseURL = getEnvOrDefault("CHAT_PROD_BASE_URL", c.ProdBaseURL)
	c.DevBasePath = getEnvOrDefault("CHAT_DEV_BASE_PATH", c.DevBasePath)
	c.DevOrigin = getEnvOrDefault("CHAT_DEV_ORIGIN", c.DevOrigin)

	if raw := strings.TrimSpace(os.Getenv("CHAT_REQUEST_TIMEOUT")); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid CHAT_REQUEST_TIMEOUT value %q: %w", raw, err)
		}
		c.RequestTimeout = timeout
	}

	return nil
}

func (c *ClientConfig) applyDefaults() {
	if c.Environment == "" {
		c.Environment = EnvDevelopment
	}
	// 文件里的别名（prod、Production）统一成规范值，非法值留给 Validate 报错
	if env, err := ParseEnvironment(string(c.Environment)); err == nil {
		c.Environment = env
	}
	if c.ProdBaseURL == "" {
		c.ProdBaseURL = DefaultProdBaseURL
	}
	if c.DevBasePath == "" {
		c.DevBasePath = DefaultDevBasePath
	}
	if c.DevOrigin == "" {
		c.DevOrigin = DefaultDevOrigin
	}
}

// Validate checks the configuration for invalid values.
func (c ClientConfig) Validate() error {
	if _, err := ParseEnvironment(string(c.Environment)); err != nil {
		return err
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must not be negative, got %s", c.RequestTimeout)
	}
	if _, err := c.ResolveBaseURL(); err != nil {
		return err
	}
	return nil
}

// ResolveBaseURL picks the reply service base URL. An explicit BaseURL wins;
// otherwise production uses ProdBaseURL and development resolves DevBasePath
// against DevOrigin.
func (c ClientConfig) ResolveBaseURL() (string, error) {
	if c.BaseURL != "" {
		return absoluteURL("base_url", c.BaseURL)
	}

	env, err := ParseEnvironment(string(c.Environment))
	if err != nil {
		return "", err
	}
	if env == EnvProduction {
		return absoluteURL("prod_base_url", c.ProdBaseURL)
	}

	origin, err := url.Parse(c.DevOrigin)
	if err != nil || origin.Scheme == "" || origin.Host == "" {
		return "", fmt.Errorf("invalid dev_origin %q", c.DevOrigin)
	}
	ref, err := url.Parse(c.DevBasePath)
	if err != nil {
		return "", fmt.Errorf("invalid dev_base_path %q: %w", c.DevBasePath, err)
	}
	return origin.ResolveReference(ref).String(), nil
}

func absoluteURL(field, raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid %s %q: %w", field, raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid %s %q: must be an absolute URL", field, raw)
	}
	return raw, nil
}

// ParseEnvironment accepts the long and short names of an environment.
func ParseEnvironment(raw string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return EnvProduction, nil
	case "development", "dev":
		return EnvDevelopment, nil
	default:
		return "", fmt.Errorf("invalid environment %q: expected production or development", raw)
	}
}
