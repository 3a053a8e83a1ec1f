package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hond.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
hon:
  id_token: "id"
  poll_interval: 15
appliances:
  - mac_address: "AA-BB-CC"
    type: "WM"
    zone: 1
    programs:
      "1": "Cotton"
database:
  path: "/tmp/hond.db"
mqtt:
  enabled: true
  topic_prefix: "home/hon"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Hon.IDToken != "id" {
		t.Errorf("Hon.IDToken = %q, want %q", cfg.Hon.IDToken, "id")
	}
	if cfg.Hon.BaseURL != "https://api-iot.he.services" {
		t.Errorf("Hon.BaseURL default lost: %q", cfg.Hon.BaseURL)
	}
	if len(cfg.Appliances) != 1 || cfg.Appliances[0].Programs["1"] != "Cotton" || cfg.Appliances[0].Zone != 1 {
		t.Errorf("Appliances = %+v", cfg.Appliances)
	}
	if cfg.MQTT.TopicPrefix != "home/hon" || !cfg.MQTT.Enabled {
		t.Errorf("MQTT = %+v", cfg.MQTT)
	}
	if got := cfg.GetPollInterval().Seconds(); got != 15 {
		t.Errorf("GetPollInterval() = %v, want 15", got)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/hond.yaml"); err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "hon: [yaml: content")); err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	path := writeConfig(t, `
appliances:
  - type: "WM"
`)
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "appliances[0].mac_address is required") {
		t.Errorf("Load() error = %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{
			name:    "missing base url",
			mutate:  func(c *Config) { c.Hon.BaseURL = "" },
			wantErr: "hon.base_url",
		},
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.Hon.Timeout = -1 },
			wantErr: "hon.timeout",
		},
		{
			name: "duplicate mac ignores case",
			mutate: func(c *Config) {
				c.Appliances = []ApplianceConfig{
					{MacAddress: "aa", Type: "WM"},
					{MacAddress: "AA", Type: "TD"},
				}
			},
			wantErr: "duplicated",
		},
		{
			name:    "missing type",
			mutate:  func(c *Config) { c.Appliances = []ApplianceConfig{{MacAddress: "aa"}} },
			wantErr: "appliances[0].type",
		},
		{
			name:    "negative zone",
			mutate:  func(c *Config) { c.Appliances = []ApplianceConfig{{MacAddress: "aa", Type: "WM", Zone: -2}} },
			wantErr: "zone",
		},
		{
			name:    "missing database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: "database.path",
		},
		{
			name:    "invalid QoS",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: "mqtt.qos",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.API.Port = 70000 },
			wantErr: "api.port",
		},
		{
			name:    "influxdb enabled without url",
			mutate:  func(c *Config) { c.InfluxDB.Enabled = true },
			wantErr: "influxdb.url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Validate_AggregatesErrors(t *testing.T) {
	cfg := defaultConfig()
	cfg.Database.Path = ""
	cfg.API.Port = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error")
	}
	if !strings.HasPrefix(err.Error(), "configuration errors: ") || strings.Count(err.Error(), ";") != 1 {
		t.Errorf("Validate() error = %q", err)
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		Hon: HonConfig{Timeout: 12},
		API: APIConfig{Timeouts: APITimeoutConfig{Read: 30, Write: 45, Idle: 60}},
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}
	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}
	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}
	if got := cfg.GetHonTimeout().Seconds(); got != 12 {
		t.Errorf("GetHonTimeout() = %v, want 12", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("HOND_HON_ID_TOKEN", "id-token")
	t.Setenv("HOND_HON_COGNITO_TOKEN", "cognito")
	t.Setenv("HOND_DATABASE_PATH", "/custom/path.db")
	t.Setenv("HOND_MQTT_HOST", "mqtt.example.com")
	t.Setenv("HOND_MQTT_USERNAME", "testuser")
	t.Setenv("HOND_MQTT_PASSWORD", "testpass")
	t.Setenv("HOND_API_HOST", "192.168.1.1")
	t.Setenv("HOND_INFLUXDB_TOKEN", "secret-token")

	applyEnvOverrides(cfg)

	checks := []struct {
		field, got, want string
	}{
		{"Hon.IDToken", cfg.Hon.IDToken, "id-token"},
		{"Hon.CognitoToken", cfg.Hon.CognitoToken, "cognito"},
		{"Database.Path", cfg.Database.Path, "/custom/path.db"},
		{"MQTT.Broker.Host", cfg.MQTT.Broker.Host, "mqtt.example.com"},
		{"MQTT.Auth.Username", cfg.MQTT.Auth.Username, "testuser"},
		{"MQTT.Auth.Password", cfg.MQTT.Auth.Password, "testpass"},
		{"API.Host", cfg.API.Host, "192.168.1.1"},
		{"InfluxDB.Token", cfg.InfluxDB.Token, "secret-token"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %q, want %q", c.field, c.got, c.want)
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Hon.Timeout != 30 {
		t.Errorf("defaultConfig Hon.Timeout = %d, want 30", cfg.Hon.Timeout)
	}
	if cfg.MQTT.Enabled || cfg.InfluxDB.Enabled {
		t.Error("optional integrations must be disabled by default")
	}
	if cfg.API.Port != 8080 {
		t.Errorf("defaultConfig API.Port = %d, want 8080", cfg.API.Port)
	}
}

func TestLoad_ExampleConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "..", "configs", "hond.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Appliances) != 1 || cfg.Appliances[0].Type != "WM" {
		t.Errorf("Appliances = %+v", cfg.Appliances)
	}
}
