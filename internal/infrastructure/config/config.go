package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for every environment override.
const EnvPrefix = "OSCLEASH_"

// Config is the root configuration for the OSCLeash service.
// Leash tuning lives in a separate settings file (see SettingsConfig) so it
// can be hot-reloaded and saved without touching this file.
type Config struct {
	Instance  InstanceConfig  `yaml:"instance"`
	OSC       OSCConfig       `yaml:"osc"`
	Settings  SettingsConfig  `yaml:"settings"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
	Security  SecurityConfig  `yaml:"security"`
}

// InstanceConfig identifies this OSCLeash instance on shared infrastructure
// (MQTT topics, InfluxDB tags).
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// OSCConfig contains OSC and OSCQuery discovery settings.
type OSCConfig struct {
	// ServiceName is the name advertised over mDNS and in HOST_INFO.
	ServiceName string `yaml:"service_name"`

	// ReceivePort is the UDP port OSC messages are received on.
	// 0 picks a free port at startup.
	ReceivePort int `yaml:"receive_port"`

	// QueryPort is the TCP port of the OSCQuery HTTP server.
	// 0 picks a free port at startup.
	QueryPort int `yaml:"query_port"`

	// BrowseInterval is how often, in seconds, mDNS is browsed for clients.
	BrowseInterval int `yaml:"browse_interval"`

	// DebounceMS is the calculation window in milliseconds.
	DebounceMS int `yaml:"debounce_ms"`

	// ClientPrefix selects which discovered OSCQuery services are clients.
	ClientPrefix string `yaml:"client_prefix"`
}

// SettingsConfig locates the leash settings file.
type SettingsConfig struct {
	Path           string `yaml:"path"`
	ReloadInterval int    `yaml:"reload_interval"` // seconds
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
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

// MQTTReconnectConfig contains MQTT reconnection settings, in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// APIConfig contains status API server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings, in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// WebSocketConfig contains status stream settings.
type WebSocketConfig struct {
	MaxMessageSize int `yaml:"max_message_size"`
	PingInterval   int `yaml:"ping_interval"`
	PongTimeout    int `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings for movement
// telemetry.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"` // milliseconds
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// Output is "stdout", "stderr", or a file path.
	Output string `yaml:"output"`
}

// SecurityConfig contains API security settings.
type SecurityConfig struct {
	JWT JWTConfig `yaml:"jwt"`
}

// JWTConfig contains JWT token settings. An empty secret disables API
// authentication.
type JWTConfig struct {
	Secret   string `yaml:"secret"`
	TokenTTL int    `yaml:"token_ttl"` // minutes
}

// Load reads configuration from a YAML file and applies environment variable
// overrides.
//
// The loading order is:
//  1. Default values
//  2. YAML file values
//  3. Environment variables (OSCLEASH_SECTION_KEY)
//
// An empty path skips step 2, so the service can run on defaults and
// environment alone.
//
// Parameters:
//   - path: Path to the YAML configuration file, or ""
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If the file cannot be read or parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Instance: InstanceConfig{
			ID: "oscleash",
		},
		OSC: OSCConfig{
			ServiceName:    "OSCLeash",
			BrowseInterval: 5,
			DebounceMS:     66,
			ClientPrefix:   "VRChat-Client-",
		},
		Settings: SettingsConfig{
			Path:           "./data/settings.yaml",
			ReloadInterval: 2,
		},
		Database: DatabaseConfig{
			Path:        "./data/oscleash.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "oscleash",
			},
			QoS: 0,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		API: APIConfig{
			Enabled: true,
			Host:    "127.0.0.1",
			Port:    8787,
			Timeouts: APITimeoutConfig{
				Read:  10,
				Write: 10,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			MaxMessageSize: 4096,
			PingInterval:   30,
			PongTimeout:    10,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     500,
			FlushInterval: 1000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
		Security: SecurityConfig{
			JWT: JWTConfig{
				TokenTTL: 60 * 24 * 30,
			},
		},
	}
}

// applyEnvOverrides applies OSCLEASH_* environment variables.
// Numeric and boolean variables that fail to parse are reported as errors
// rather than silently ignored.
func applyEnvOverrides(cfg *Config) error {
	strs := map[string]*string{
		"INSTANCE_ID":      &cfg.Instance.ID,
		"SETTINGS_PATH":    &cfg.Settings.Path,
		"DATABASE_PATH":    &cfg.Database.Path,
		"MQTT_HOST":        &cfg.MQTT.Broker.Host,
		"MQTT_USERNAME":    &cfg.MQTT.Auth.Username,
		"MQTT_PASSWORD":    &cfg.MQTT.Auth.Password,
		"API_HOST":         &cfg.API.Host,
		"INFLUXDB_URL":     &cfg.InfluxDB.URL,
		"INFLUXDB_TOKEN":   &cfg.InfluxDB.Token,
		"LOG_LEVEL":        &cfg.Logging.Level,
		"JWT_SECRET":       &cfg.Security.JWT.Secret,
		"OSC_SERVICE_NAME": &cfg.OSC.ServiceName,
	}
	for key, dst := range strs {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"OSC_RECEIVE_PORT": &cfg.OSC.ReceivePort,
		"OSC_QUERY_PORT":   &cfg.OSC.QueryPort,
		"MQTT_PORT":        &cfg.MQTT.Broker.Port,
		"API_PORT":         &cfg.API.Port,
	}
	for key, dst := range ints {
		v := os.Getenv(EnvPrefix + key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = n
	}

	bools := map[string]*bool{
		"MQTT_ENABLED":     &cfg.MQTT.Enabled,
		"API_ENABLED":      &cfg.API.Enabled,
		"INFLUXDB_ENABLED": &cfg.InfluxDB.Enabled,
	}
	for key, dst := range bools {
		v := os.Getenv(EnvPrefix + key)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = b
	}

	return nil
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if c.Instance.ID == "" {
		errs = append(errs, "instance.id is required")
	}

	if c.OSC.ServiceName == "" {
		errs = append(errs, "osc.service_name is required")
	}
	if c.OSC.ReceivePort < 0 || c.OSC.ReceivePort > 65535 {
		errs = append(errs, "osc.receive_port must be between 0 and 65535")
	}
	if c.OSC.QueryPort < 0 || c.OSC.QueryPort > 65535 {
		errs = append(errs, "osc.query_port must be between 0 and 65535")
	}
	if c.OSC.DebounceMS <= 0 {
		errs = append(errs, "osc.debounce_ms must be positive")
	}
	if c.OSC.BrowseInterval <= 0 {
		errs = append(errs, "osc.browse_interval must be positive")
	}

	if c.Settings.Path == "" {
		errs = append(errs, "settings.path is required")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.Enabled {
		if c.MQTT.Broker.Host == "" {
			errs = append(errs, "mqtt.broker.host is required when mqtt is enabled")
		}
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errs = append(errs, "mqtt.qos must be 0, 1, or 2")
		}
	}

	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	// The secret is optional; when set it must be strong enough to sign tokens.
	const minJWTSecretLength = 32
	if s := c.Security.JWT.Secret; s != "" && len(s) < minJWTSecretLength {
		errs = append(errs, "security.jwt.secret must be at least 32 characters")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// DebounceWindow returns the calculation window as a Duration.
func (c *Config) DebounceWindow() time.Duration {
	return time.Duration(c.OSC.DebounceMS) * time.Millisecond
}

// BrowseInterval returns the mDNS browse interval as a Duration.
func (c *Config) BrowseInterval() time.Duration {
	return time.Duration(c.OSC.BrowseInterval) * time.Second
}

// SettingsReloadInterval returns the settings poll interval as a Duration.
func (c *Config) SettingsReloadInterval() time.Duration {
	return time.Duration(c.Settings.ReloadInterval) * time.Second
}

// ReadTimeout returns the API read timeout as a Duration.
func (a APIConfig) ReadTimeout() time.Duration {
	return time.Duration(a.Timeouts.Read) * time.Second
}

// WriteTimeout returns the API write timeout as a Duration.
func (a APIConfig) WriteTimeout() time.Duration {
	return time.Duration(a.Timeouts.Write) * time.Second
}

// IdleTimeout returns the API idle timeout as a Duration.
func (a APIConfig) IdleTimeout() time.Duration {
	return time.Duration(a.Timeouts.Idle) * time.Second
}

// TokenTTL returns the lifetime of minted API tokens.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Security.JWT.TokenTTL) * time.Minute
}
