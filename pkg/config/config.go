// Package config provides YAML-based configuration loading for NetTask
// agent and server processes.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the root application configuration. cmd/nettask-agent reads the
// Agent section and cmd/nettask-server reads the Server section; neither
// binary consults Role.
type Config struct {
	// AppName is an optional logical name of the node/process.
	AppName string `mapstructure:"app_name"`

	// DataDir is the base directory for persistent data.
	DataDir string `mapstructure:"data_dir"`

	// Role is "agent" or "server". validate uses it only to decide whether
	// agent.server_address or server.listen_address must be set.
	Role string `mapstructure:"role"`

	Log LogConfig `mapstructure:"log"`

	Agent  AgentConfig  `mapstructure:"agent"`
	Server ServerConfig `mapstructure:"server"`

	Identity PresharedSecretConfig `mapstructure:"identity"`

	Net NetConfig `mapstructure:"net"`
}

// LogConfig defines logger settings.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `mapstructure:"level"`
	// Format: console or json
	Format string `mapstructure:"format"`
	// Outputs: list of outputs: stdout, stderr, or file paths
	Outputs []string `mapstructure:"outputs"`

	// Rotation controls file rotation when writing to files
	Rotation RotationConfig `mapstructure:"rotation"`
	// Development toggles development-friendly logging options
	Development bool `mapstructure:"development"`
}

// RotationConfig controls log file rotation for file outputs.
type RotationConfig struct {
	Enable     bool   `mapstructure:"enable"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		AppName: "nettask-node",
		DataDir: "./data",
		Role:    "agent",
		Log: LogConfig{
			Level:       "info",
			Format:      "console",
			Outputs:     []string{"stdout"},
			Development: true,
			Rotation: RotationConfig{
				Enable:     false,
				Filename:   "logs/nettask.log",
				MaxSizeMB:  50,
				MaxBackups: 3,
				MaxAgeDays: 28,
				Compress:   true,
			},
		},
		Agent: AgentConfig{
			Transport:     "udp",
			ServerAddress: "127.0.0.1:7777",
		},
		Server: ServerConfig{
			Transport:     "udp",
			ListenAddress: ":7777",
		},
		Identity: PresharedSecretConfig{},
		Net:      NetConfig{DialBackoffInitialMS: 500, DialBackoffMaxMS: 30000, DialBackoffJitterMS: 100},
	}
}

// Load reads configuration from the provided path (if non-empty),
// otherwise it searches common locations and supports environment
// overrides. Environment variables use the prefix NETTASK and `.`/`-` are
// replaced with `_`. Example: NETTASK_LOG_LEVEL=debug
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("NETTASK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("app_name", cfg.AppName)
	v.SetDefault("data_dir", cfg.DataDir)
	v.SetDefault("role", cfg.Role)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.outputs", cfg.Log.Outputs)
	v.SetDefault("log.development", cfg.Log.Development)
	v.SetDefault("log.rotation.enable", cfg.Log.Rotation.Enable)
	v.SetDefault("log.rotation.filename", cfg.Log.Rotation.Filename)
	v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
	v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
	v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
	v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)
	v.SetDefault("agent.transport", cfg.Agent.Transport)
	v.SetDefault("agent.server_address", cfg.Agent.ServerAddress)
	v.SetDefault("server.transport", cfg.Server.Transport)
	v.SetDefault("server.listen_address", cfg.Server.ListenAddress)
	v.SetDefault("identity.preshared_secret", cfg.Identity.PresharedSecret)
	v.SetDefault("identity.preshared_secret_file", cfg.Identity.PresharedSecretFile)
	v.SetDefault("net.dial_backoff_initial_ms", cfg.Net.DialBackoffInitialMS)
	v.SetDefault("net.dial_backoff_max_ms", cfg.Net.DialBackoffMaxMS)
	v.SetDefault("net.dial_backoff_jitter_ms", cfg.Net.DialBackoffJitterMS)

	if path == "" {
		if envPath := os.Getenv("NETTASK_CONFIG"); envPath != "" {
			path = envPath
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("nettask")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".nettask"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var viperConfigFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &viperConfigFileNotFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	lvl := strings.ToLower(strings.TrimSpace(c.Log.Level))
	switch lvl {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log.level: %q", c.Log.Level)
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if len(c.Log.Outputs) == 0 {
		c.Log.Outputs = []string{"stdout"}
	}

	c.Role = strings.ToLower(strings.TrimSpace(c.Role))
	switch c.Role {
	case "agent", "server":
	default:
		return fmt.Errorf("invalid role: %q, must be %q or %q", c.Role, "agent", "server")
	}

	c.Agent.Transport = strings.ToLower(strings.TrimSpace(c.Agent.Transport))
	c.Server.Transport = strings.ToLower(strings.TrimSpace(c.Server.Transport))
	for _, t := range []string{c.Agent.Transport, c.Server.Transport} {
		switch t {
		case "", "udp", "quic":
		default:
			return fmt.Errorf("invalid transport: %q, must be %q or %q", t, "udp", "quic")
		}
	}

	if c.Role == "agent" && strings.TrimSpace(c.Agent.ServerAddress) == "" {
		return errors.New("agent.server_address is required when role is agent")
	}
	if c.Role == "server" && strings.TrimSpace(c.Server.ListenAddress) == "" {
		return errors.New("server.listen_address is required when role is server")
	}
	return nil
}

// MustLoad is a convenience that panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}
