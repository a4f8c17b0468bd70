// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Bridge configuration model, defaults, loading and validation.

package control

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/momentics/serbridge/api"
	"github.com/momentics/serbridge/pool"
	"github.com/momentics/serbridge/transport"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultPort is the server port used when none is configured.
const DefaultPort = 8722

// Config is the root application configuration.
type Config struct {
	// Serial device and line speed.
	Serial transport.SerialConfig `mapstructure:"serial" yaml:"serial"`

	// Listen is the server bind address; ignored in client mode.
	Listen ListenConfig `mapstructure:"listen" yaml:"listen"`

	// Remote, when set, switches to client mode and dials this address.
	Remote string `mapstructure:"remote" yaml:"remote,omitempty"`

	// BufferSize is the capacity of each relay direction.
	BufferSize int `mapstructure:"buffer_size" yaml:"buffer_size"`

	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// ListenConfig holds the server bind address.
type ListenConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

// LogConfig defines logger settings.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `mapstructure:"level" yaml:"level"`
	// Format: console or json
	Format string `mapstructure:"format" yaml:"format"`
	// Outputs: stdout, stderr, or file paths
	Outputs []string `mapstructure:"outputs" yaml:"outputs"`

	Rotation RotationConfig `mapstructure:"rotation" yaml:"rotation"`
}

// RotationConfig controls log file rotation for file outputs.
type RotationConfig struct {
	Enable     bool `mapstructure:"enable" yaml:"enable"`
	MaxSizeMB  int  `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int  `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int  `mapstructure:"max_age_days" yaml:"max_age_days"`
	Compress   bool `mapstructure:"compress" yaml:"compress"`
}

// MetricsConfig controls the HTTP endpoint for /metrics and /debug/state.
type MetricsConfig struct {
	Listen string `mapstructure:"listen" yaml:"listen,omitempty"`
}

// Default returns a Config populated with defaults.
func Default() *Config {
	return &Config{
		Serial:     transport.SerialConfig{BaudRate: transport.DefaultBaudRate},
		Listen:     ListenConfig{Host: "0.0.0.0", Port: DefaultPort},
		BufferSize: pool.MinBufferSize,
		Log: LogConfig{
			Level:   "info",
			Format:  "console",
			Outputs: []string{"stdout"},
			Rotation: RotationConfig{
				MaxSizeMB:  10,
				MaxBackups: 5,
				MaxAgeDays: 30,
				Compress:   true,
			},
		},
	}
}

// ClientMode reports whether the bridge dials a remote server.
func (c *Config) ClientMode() bool { return c.Remote != "" }

// ListenAddr returns host:port for the server listener.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Listen.Host, strconv.Itoa(c.Listen.Port))
}

// Validate checks the configuration and normalizes correctable values.
// Returned warnings describe corrections that were applied.
func (c *Config) Validate() (warnings []string, err error) {
	invalid := func(msg string, key string, val any) error {
		return api.NewError(api.ErrCodeInvalidArgument, msg).WithContext(key, val)
	}
	if strings.TrimSpace(c.Serial.Name) == "" {
		return nil, invalid("no serial port specified", "serial.name", c.Serial.Name)
	}
	if c.Serial.BaudRate <= 0 {
		return nil, invalid("invalid baudrate", "serial.baud_rate", c.Serial.BaudRate)
	}
	if c.ClientMode() {
		if _, _, err := net.SplitHostPort(c.Remote); err != nil {
			return nil, invalid("invalid remote address", "remote", c.Remote)
		}
	} else if c.Listen.Port <= 0 || c.Listen.Port > 65535 {
		return nil, invalid("invalid server port", "listen.port", c.Listen.Port)
	}
	if size, raised := pool.NormalizeSize(c.BufferSize); raised {
		warnings = append(warnings, fmt.Sprintf("buffer size should be at least %d bytes, using %d", pool.MinBufferSize, size))
		c.BufferSize = size
	}
	return warnings, nil
}

// YAML renders the configuration.
func (c *Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("render config: %w", err)
	}
	return out, nil
}

// Loader reads configuration from an optional YAML file and the environment.
// Environment variables use the prefix SERBRIDGE and `.` is replaced with `_`,
// e.g. SERBRIDGE_LOG_LEVEL=debug.
type Loader struct {
	v    *viper.Viper
	path string
}

// NewLoader prepares a loader for path (may be empty).
func NewLoader(path string) *Loader {
	cfg := Default()
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("SERBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// seed defaults for viper so env-only configs work
	v.SetDefault("serial.name", cfg.Serial.Name)
	v.SetDefault("serial.baud_rate", cfg.Serial.BaudRate)
	v.SetDefault("listen.host", cfg.Listen.Host)
	v.SetDefault("listen.port", cfg.Listen.Port)
	v.SetDefault("remote", cfg.Remote)
	v.SetDefault("buffer_size", cfg.BufferSize)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.outputs", cfg.Log.Outputs)
	v.SetDefault("log.rotation.enable", cfg.Log.Rotation.Enable)
	v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
	v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
	v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
	v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)
	v.SetDefault("metrics.listen", cfg.Metrics.Listen)

	if path != "" {
		v.SetConfigFile(path)
	}
	return &Loader{v: v, path: path}
}

// Load reads the file (if any) and unmarshals the merged result.
func (l *Loader) Load() (*Config, error) {
	if l.path != "" {
		if err := l.v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) {
				return nil, fmt.Errorf("config file %s: %w", l.path, api.ErrNotFound)
			}
			return nil, fmt.Errorf("read config %s: %w", l.path, err)
		}
	}
	cfg := Default()
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Watch reloads the file on change and publishes the result to store.
// Flag overrides are re-applied through apply, then the result is validated.
// A reload that fails either step goes to onError and is not published.
func (l *Loader) Watch(store *ConfigStore, apply func(*Config) error, onError func(error)) {
	if l.path == "" {
		return
	}
	report := func(err error) {
		if onError != nil {
			onError(err)
		}
	}
	l.v.OnConfigChange(func(fsnotify.Event) {
		cfg := Default()
		if err := l.v.Unmarshal(cfg); err != nil {
			report(fmt.Errorf("decode reloaded config: %w", err))
			return
		}
		if apply != nil {
			if err := apply(cfg); err != nil {
				report(fmt.Errorf("apply overrides to reloaded config: %w", err))
				return
			}
		}
		if _, err := cfg.Validate(); err != nil {
			report(fmt.Errorf("reloaded config rejected: %w", err))
			return
		}
		store.Set(cfg)
	})
	l.v.WatchConfig()
}
