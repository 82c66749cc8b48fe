// Package config loads the relay configuration from a JSON file, the
// environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/samaysahu/Vox-GPT/pkg/arm"
)

const (
	DefaultConfigFile = "voxgpt.json"
	DefaultEnvFile    = ".env"

	// EnvPrefix prefixes every environment override, e.g. VOXGPT_DEVICE_URL.
	EnvPrefix = "VOXGPT"

	DefaultListenAddr = ":5000"
	DefaultDeviceURL  = "http://192.168.29.247"
	DefaultJournal    = "voxgpt.db"

	ProviderGemini = "gemini"
	ProviderNone   = "none"
)

// Config is the full relay configuration.
type Config struct {
	ListenAddr  string                `mapstructure:"listen_addr"`
	LogLevel    string                `mapstructure:"log_level"`
	CORSOrigins []string              `mapstructure:"cors_origins"`
	Device      DeviceConfig          `mapstructure:"device"`
	Oracle      OracleConfig          `mapstructure:"oracle"`
	Joints      map[string]arm.Limits `mapstructure:"joints"`
	Journal     JournalConfig         `mapstructure:"journal"`
}

// DeviceConfig locates the arm controller.
type DeviceConfig struct {
	URL              string        `mapstructure:"url"`
	Timeout          time.Duration `mapstructure:"timeout"`
	TelemetryTimeout time.Duration `mapstructure:"telemetry_timeout"`
}

// OracleConfig selects the language model used for intent parsing.
type OracleConfig struct {
	Provider string        `mapstructure:"provider"`
	Model    string        `mapstructure:"model"`
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// JournalConfig locates the command history. An empty path disables it.
type JournalConfig struct {
	Path string `mapstructure:"path"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", DefaultListenAddr)
	v.SetDefault("log_level", "info")
	v.SetDefault("cors_origins", []string{})
	v.SetDefault("device.url", DefaultDeviceURL)
	v.SetDefault("device.timeout", "2s")
	v.SetDefault("device.telemetry_timeout", "5s")
	v.SetDefault("oracle.provider", ProviderGemini)
	v.SetDefault("oracle.model", "gemini-2.5-flash")
	v.SetDefault("oracle.api_key", "")
	v.SetDefault("oracle.timeout", "10s")
	for j, l := range arm.DefaultLimits() {
		v.SetDefault("joints."+string(j)+".min", l.Min)
		v.SetDefault("joints."+string(j)+".max", l.Max)
	}
	v.SetDefault("journal.path", DefaultJournal)
}

// Default returns the built-in configuration.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(err)
	}
	return &cfg
}

// Load reads the default config file.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom reads configuration from path, then applies environment
// overrides. A missing file leaves the defaults in place.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if Exists(path) {
		v.SetConfigType("json")
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("oracle.api_key", EnvPrefix+"_ORACLE_API_KEY", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every key and names the first bad one.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ListenAddr) == "" {
		return errors.New("listen_addr: must not be empty")
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, strings.ToLower(c.LogLevel)) {
		return fmt.Errorf("log_level: unknown level %q", c.LogLevel)
	}
	if strings.TrimSpace(c.Device.URL) == "" {
		return errors.New("device.url: must not be empty")
	}
	if c.Device.Timeout <= 0 {
		return errors.New("device.timeout: must be positive")
	}
	if c.Device.TelemetryTimeout <= 0 {
		return errors.New("device.telemetry_timeout: must be positive")
	}
	switch c.Oracle.Provider {
	case ProviderGemini, ProviderNone:
	default:
		return fmt.Errorf("oracle.provider: unknown provider %q", c.Oracle.Provider)
	}
	if c.Oracle.Timeout <= 0 {
		return errors.New("oracle.timeout: must be positive")
	}
	if _, err := c.JointLimits(); err != nil {
		return err
	}
	return nil
}

// JointLimits returns the configured range of every angle joint.
func (c *Config) JointLimits() (map[arm.JointName]arm.Limits, error) {
	limits := arm.DefaultLimits()
	for name, l := range c.Joints {
		j, err := arm.ParseJoint(name)
		if err != nil || !j.IsAngleJoint() {
			return nil, fmt.Errorf("joints.%s: not an angle joint", name)
		}
		if err := l.Validate(); err != nil {
			return nil, fmt.Errorf("joints.%s: %w", name, err)
		}
		limits[j] = l
	}
	return limits, nil
}

// OracleEnabled reports whether intent parsing should consult a model.
func (c *Config) OracleEnabled() bool {
	return c.Oracle.Provider != ProviderNone && strings.TrimSpace(c.Oracle.APIKey) != ""
}

// Save writes the configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigFile)
}

// SaveTo writes the configuration to path as JSON. The API key is only
// written when it did not come from the environment.
func (c *Config) SaveTo(path string) error {
	v := viper.New()
	v.Set("listen_addr", c.ListenAddr)
	v.Set("log_level", c.LogLevel)
	v.Set("cors_origins", c.CORSOrigins)
	v.Set("device.url", c.Device.URL)
	v.Set("device.timeout", c.Device.Timeout.String())
	v.Set("device.telemetry_timeout", c.Device.TelemetryTimeout.String())
	v.Set("oracle.provider", c.Oracle.Provider)
	v.Set("oracle.model", c.Oracle.Model)
	if c.Oracle.APIKey != "" && !apiKeyFromEnv(c.Oracle.APIKey) {
		v.Set("oracle.api_key", c.Oracle.APIKey)
	}
	v.Set("oracle.timeout", c.Oracle.Timeout.String())
	for name, l := range c.Joints {
		v.Set("joints."+name+".min", l.Min)
		v.Set("joints."+name+".max", l.Max)
	}
	v.Set("journal.path", c.Journal.Path)

	v.SetConfigType("json")
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// apiKeyEnv lists the variables the oracle API key may be loaded from.
var apiKeyEnv = []string{EnvPrefix + "_ORACLE_API_KEY", "GEMINI_API_KEY"}

func apiKeyFromEnv(key string) bool {
	for _, name := range apiKeyEnv {
		if os.Getenv(name) == key {
			return true
		}
	}
	return false
}

// Exists reports whether a config file exists at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
