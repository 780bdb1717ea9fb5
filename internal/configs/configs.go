/*
Package configs is responsible for loading and parsing the application's configuration settings.

Values are read from operating system environment variables into a tagged struct, then validated.
It covers the running environment, the local UI bridge port, CORS allowed origins, and the
broker endpoint and topic names used by every chat session.
*/
package configs

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	// DefaultBrokerURL is the public broker every peer joins unless overridden.
	DefaultBrokerURL = "wss://demo.nats.io:8443"

	// DefaultChatTopic carries text and image message envelopes.
	DefaultChatTopic = "nickchat.messages"

	// DefaultPresenceTopic carries join envelopes.
	DefaultPresenceTopic = "nickchat.presence"
)

// supportedBrokerSchemes lists the URL schemes the transport layer can dial.
var supportedBrokerSchemes = map[string]struct{}{
	"ws":   {},
	"wss":  {},
	"nats": {},
	"tls":  {},
	"mem":  {},
}

// AppConfig contains all configuration parameters required for the application to run.
// All configuration values are loaded from environment variables.
type AppConfig struct {
	// General Server Settings
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Port        int    `env:"PORT" envDefault:"8080"`

	// Security Settings
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	// Broker Settings
	BrokerURL      string        `env:"BROKER_URL" envDefault:"wss://demo.nats.io:8443"`
	ChatTopic      string        `env:"CHAT_TOPIC" envDefault:"nickchat.messages"`
	PresenceTopic  string        `env:"PRESENCE_TOPIC" envDefault:"nickchat.presence"`
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" envDefault:"10s"`
}

// IsDevelopment reports whether the application runs in the development environment.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// Override adjusts a configuration parsed from the environment before it is validated.
type Override func(cfg *AppConfig)

// LoadConfig reads the configuration from environment variables, applies the overrides in
// order, and validates the result once. Defaults come from the struct tags, so an invalid
// environment value is accepted as long as an override replaces it.
func LoadConfig(overrides ...Override) (*AppConfig, error) {
	cfg, err := parseEnv()
	if err != nil {
		return nil, err
	}

	for _, override := range overrides {
		override(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseEnv() (*AppConfig, error) {
	cfg := &AppConfig{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	origins := make([]string, 0, len(cfg.AllowedOrigins))
	for _, origin := range cfg.AllowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	cfg.AllowedOrigins = origins

	return cfg, nil
}

// Validate checks the configuration for values the application cannot run with.
func (c *AppConfig) Validate() error {
	if c.Port < 1024 || c.Port > 65535 {
		return fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", c.Port, 1024, 65535)
	}

	brokerURL, err := url.Parse(c.BrokerURL)
	if err != nil {
		return fmt.Errorf("invalid BROKER_URL: %w", err)
	}
	if _, ok := supportedBrokerSchemes[brokerURL.Scheme]; !ok {
		return fmt.Errorf("unsupported BROKER_URL scheme %q", brokerURL.Scheme)
	}

	if strings.TrimSpace(c.ChatTopic) == "" {
		return fmt.Errorf("CHAT_TOPIC must not be empty")
	}
	if strings.TrimSpace(c.PresenceTopic) == "" {
		return fmt.Errorf("PRESENCE_TOPIC must not be empty")
	}
	if c.ChatTopic == c.PresenceTopic {
		return fmt.Errorf("CHAT_TOPIC and PRESENCE_TOPIC must differ")
	}

	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("CONNECT_TIMEOUT must be positive")
	}

	return nil
}
