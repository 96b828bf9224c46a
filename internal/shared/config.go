package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Backend     BackendConfig     `toml:"backend"`
	Credentials CredentialsConfig `toml:"credentials"`
	Player      PlayerConfig      `toml:"player"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
}

// BackendConfig points at the rooms backend.
type BackendConfig struct {
	URL               string  `toml:"url"`
	WSURL             string  `toml:"ws_url"`
	LoginEndpoint     string  `toml:"login_endpoint"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
}

// CredentialsConfig holds the session and streaming tokens.
type CredentialsConfig struct {
	SessionToken   string `toml:"session_token"`
	StreamingToken string `toml:"streaming_token"`
}

// PlayerConfig contains device player settings.
type PlayerConfig struct {
	DeviceName          string `toml:"device_name"`
	Volume              int    `toml:"volume"`
	SyncIntervalSeconds int    `toml:"sync_interval_seconds"`
	StatePollMS         int    `toml:"state_poll_ms"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains settings for the local login callback server.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveConfig encodes config as TOML and writes it to path, replacing any existing file.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate reports obviously broken settings.
func (c *Config) Validate() error {
	if c.Backend.URL == "" {
		return fmt.Errorf("%w: backend.url is required", ErrInvalidConfig)
	}
	if _, err := url.Parse(c.Backend.URL); err != nil {
		return fmt.Errorf("%w: backend.url: %v", ErrInvalidConfig, err)
	}
	if c.Player.Volume < 0 || c.Player.Volume > 100 {
		return fmt.Errorf("%w: player.volume must be between 0 and 100", ErrInvalidConfig)
	}
	if c.Player.SyncIntervalSeconds < 0 {
		return fmt.Errorf("%w: player.sync_interval_seconds must not be negative", ErrInvalidConfig)
	}
	return nil
}

// WebSocketURL returns the configured WebSocket base, deriving it from the backend URL when unset.
func (b BackendConfig) WebSocketURL() string {
	if b.WSURL != "" {
		return strings.TrimRight(b.WSURL, "/")
	}
	base := strings.TrimRight(b.URL, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	default:
		return base
	}
}

// Timeout returns the HTTP timeout, defaulting to 15 seconds.
func (b BackendConfig) Timeout() time.Duration {
	if b.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// SyncInterval returns the periodic reconciliation interval. Zero disables it.
func (p PlayerConfig) SyncInterval() time.Duration {
	return time.Duration(p.SyncIntervalSeconds) * time.Second
}

// StatePollInterval returns how often the device player polls for state, defaulting to one second.
func (p PlayerConfig) StatePollInterval() time.Duration {
	if p.StatePollMS <= 0 {
		return time.Second
	}
	return time.Duration(p.StatePollMS) * time.Millisecond
}
