package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	Auth   AuthConfig   `yaml:"auth"`
	Live   LiveConfig   `yaml:"live"`
}

type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type AuthConfig struct {
	// StaffToken guards the staff control API. Empty disables staff auth
	// (local development only).
	StaffToken string `yaml:"staff_token"`
	// TokenSecret signs viewer session tokens.
	TokenSecret string        `yaml:"token_secret"`
	TokenTTL    time.Duration `yaml:"token_ttl"`
	// HandleTTL bounds how long an exchanged channel handle stays
	// redeemable.
	HandleTTL time.Duration `yaml:"handle_ttl"`
}

type LiveConfig struct {
	ExchangeRetryDelay time.Duration `yaml:"exchange_retry_delay"`
	ChannelRetryDelay  time.Duration `yaml:"channel_retry_delay"`
}

// Default returns the built-in configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
			Host: "0.0.0.0",
		},
		Auth: AuthConfig{
			TokenSecret: "dev-secret-change-me",
			TokenTTL:    12 * time.Hour,
			HandleTTL:   30 * time.Second,
		},
		Live: LiveConfig{
			ExchangeRetryDelay: 5 * time.Second,
			ChannelRetryDelay:  3 * time.Second,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
