package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for hond.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Hon        HonConfig         `yaml:"hon"`
	Appliances []ApplianceConfig `yaml:"appliances"`
	Database   DatabaseConfig    `yaml:"database"`
	MQTT       MQTTConfig        `yaml:"mqtt"`
	API        APIConfig         `yaml:"api"`
	WebSocket  WebSocketConfig   `yaml:"websocket"`
	InfluxDB   InfluxDBConfig    `yaml:"influxdb"`
	Logging    LoggingConfig     `yaml:"logging"`
}

// HonConfig contains the cloud API settings.
type HonConfig struct {
	BaseURL      string `yaml:"base_url"`
	IDToken      string `yaml:"id_token"`
	CognitoToken string `yaml:"cognito_token"`
	MobileID     string `yaml:"mobile_id"`
	AppVersion   string `yaml:"app_version"`
	OS           string `yaml:"os"`
	Timeout      int    `yaml:"timeout"`      // seconds
	PollInterval int    `yaml:"poll_interval"` // seconds between attribute refreshes, 0 disables
}

// ApplianceConfig describes one appliance known to the daemon.
type ApplianceConfig struct {
	MacAddress      string            `yaml:"mac_address"`
	Name            string            `yaml:"name"`
	Type            string            `yaml:"type"`
	ModelID         string            `yaml:"model_id"`
	Code            string            `yaml:"code"`
	FirmwareID      string            `yaml:"firmware_id"`
	FirmwareVersion string            `yaml:"firmware_version"`
	Series          string            `yaml:"series"`
	Zone            int               `yaml:"zone"`
	Options         map[string]any    `yaml:"options"`
	Programs        map[string]string `yaml:"programs"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled     bool                `yaml:"enabled"`
	Broker      MQTTBrokerConfig    `yaml:"broker"`
	Auth        MQTTAuthConfig      `yaml:"auth"`
	QoS         int                 `yaml:"qos"`
	TopicPrefix string              `yaml:"topic_prefix"`
	Reconnect   MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: HOND_SECTION_KEY
// For example: HOND_DATABASE_PATH, HOND_HON_ID_TOKEN
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Hon: HonConfig{
			BaseURL:      "https://api-iot.he.services",
			AppVersion:   "2.3.5",
			OS:           "android",
			MobileID:     "hond",
			Timeout:      30,
			PollInterval: 60,
		},
		Database: DatabaseConfig{
			Path:        "./data/hond.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "hond",
			},
			QoS:         1,
			TopicPrefix: "hon",
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: HOND_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Hon cloud credentials
	if v := os.Getenv("HOND_HON_ID_TOKEN"); v != "" {
		cfg.Hon.IDToken = v
	}
	if v := os.Getenv("HOND_HON_COGNITO_TOKEN"); v != "" {
		cfg.Hon.CognitoToken = v
	}

	// Database
	if v := os.Getenv("HOND_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("HOND_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("HOND_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("HOND_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("HOND_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// InfluxDB
	if v := os.Getenv("HOND_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Hon.BaseURL == "" {
		errs = append(errs, "hon.base_url is required")
	}
	if c.Hon.Timeout < 0 {
		errs = append(errs, "hon.timeout must not be negative")
	}

	seen := make(map[string]bool, len(c.Appliances))
	for i, a := range c.Appliances {
		mac := strings.ToLower(a.MacAddress)
		switch {
		case mac == "":
			errs = append(errs, fmt.Sprintf("appliances[%d].mac_address is required", i))
		case seen[mac]:
			errs = append(errs, fmt.Sprintf("appliances[%d].mac_address %q is duplicated", i, a.MacAddress))
		}
		seen[mac] = true
		if a.Type == "" {
			errs = append(errs, fmt.Sprintf("appliances[%d].type is required", i))
		}
		if a.Zone < 0 {
			errs = append(errs, fmt.Sprintf("appliances[%d].zone must not be negative", i))
		}
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// GetHonTimeout returns the cloud request timeout as a Duration.
func (c *Config) GetHonTimeout() time.Duration {
	return time.Duration(c.Hon.Timeout) * time.Second
}

// GetPollInterval returns the attribute refresh interval, zero when disabled.
func (c *Config) GetPollInterval() time.Duration {
	return time.Duration(c.Hon.PollInterval) * time.Second
}
