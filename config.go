package main

import (
	"errors"
	"fmt"
	"melcloud2mqtt/entity"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const INTEGRATION_LEGACY = "legacy"
const INTEGRATION_CURRENT = "current"

var ErrUnknownIntegration = errors.New("integration must be legacy or current")
var ErrInvalidPollInterval = errors.New("poll interval must be positive")

type MqttConfig struct {
	Server   string `yaml:"server"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Insecure bool   `yaml:"insecure"`
}

// Config is the daemon configuration. Defaults are overridden by the config
// file, then by the environment, then by command line flags.
type Config struct {
	Mqtt         MqttConfig    `yaml:"mqtt"`
	TopicPrefix  string        `yaml:"topic_prefix"`
	HassPrefix   string        `yaml:"hass_prefix"`
	Integration  string        `yaml:"integration"`
	EntriesFile  string        `yaml:"entries_file"`
	MetricsAddr  string        `yaml:"metrics_addr"`
	LogLevel     string        `yaml:"log_level"`
	PollInterval time.Duration `yaml:"poll_interval"`
	HostUnit     string        `yaml:"host_unit"`
	Token        string        `yaml:"token"` // imported into the entries on start
	Email        string        `yaml:"email"`
	Password     string        `yaml:"password"`
}

func defaultConfig() *Config {
	hostname, _ := os.Hostname()
	return &Config{
		Mqtt: MqttConfig{
			Server:   "tcp://127.0.0.1:1883",
			ClientID: hostname + strconv.Itoa(time.Now().Second()),
		},
		TopicPrefix:  "melcloud2mqtt",
		HassPrefix:   "homeassistant",
		Integration:  INTEGRATION_CURRENT,
		EntriesFile:  "melcloud-entries.yaml",
		LogLevel:     "info",
		PollInterval: 5 * time.Second,
		HostUnit:     entity.TEMP_CELSIUS,
	}
}

// LoadConfig reads the config file at path, if any, over the defaults and applies the environment
func LoadConfig(path string) (*Config, error) {
	config := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if v := os.Getenv("MELCLOUD_TOKEN"); v != "" {
		config.Token = v
	}
	if v := os.Getenv("MELCLOUD_EMAIL"); v != "" {
		config.Email = v
	}
	if v := os.Getenv("MELCLOUD_PASSWORD"); v != "" {
		config.Password = v
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the settings that cannot be defaulted
func (c *Config) Validate() error {
	if _, err := c.Domain(); err != nil {
		return err
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w, got %s", ErrInvalidPollInterval, c.PollInterval)
	}
	return nil
}

// Domain returns the entity domain of the configured integration
func (c *Config) Domain() (string, error) {
	switch c.Integration {
	case INTEGRATION_LEGACY:
		return entity.DOMAIN_LEGACY, nil
	case INTEGRATION_CURRENT:
		return entity.DOMAIN_CURRENT, nil
	}
	return "", fmt.Errorf("%w, got %q", ErrUnknownIntegration, c.Integration)
}
