// Package config provides configuration loading and validation for the web UI and CLI.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Defaults used when neither the environment nor a config file provides a value.
const (
	DefaultAPIBase        = "http://localhost:8000"
	DefaultPort           = 3000
	DefaultRequestTimeout = 5 * time.Minute
)

// Environment variable names.
const (
	EnvAPIBase        = "API_BASE"
	EnvPort           = "PORT"
	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvLogJSON        = "LOG_JSON"
	EnvLogDebug       = "LOG_DEBUG"
)

// Duration is a time.Duration that reads "30s" style strings from JSON.
type Duration time.Duration

// UnmarshalJSON accepts a duration string or a number of seconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var seconds float64
	if err := json.Unmarshal(data, &seconds); err != nil {
		return fmt.Errorf("duration must be a string or number of seconds")
	}
	*d = Duration(time.Duration(seconds * float64(time.Second)))
	return nil
}

// Config holds the settings shared by the serve, run and health commands.
// All fields are optional in a config file; missing values use defaults.
type Config struct {
	APIBase        string   `json:"api_base,omitempty" validate:"required,url"` // Backend base URL, without trailing slash
	Port           int      `json:"port,omitempty" validate:"min=1,max=65535"`  // Web UI listen port
	RequestTimeout Duration `json:"request_timeout,omitempty" validate:"min=0"` // Transport timeout for backend calls; 0 disables
	LogJSON        bool     `json:"log_json,omitempty"`                         // JSON log encoding
	LogDebug       bool     `json:"log_debug,omitempty"`                        // Debug log level
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		APIBase:        DefaultAPIBase,
		Port:           DefaultPort,
		RequestTimeout: Duration(DefaultRequestTimeout),
	}
}

// Timeout returns RequestTimeout as a time.Duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout)
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv reads the configuration from environment variables. Unset or
// unparsable variables leave the corresponding field zero.
func FromEnv() Config {
	var cfg Config
	cfg.APIBase = strings.TrimSpace(os.Getenv(EnvAPIBase))
	if v := os.Getenv(EnvPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	if v := os.Getenv(EnvRequestTimeout); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RequestTimeout = Duration(d)
		}
	}
	cfg.LogJSON = envBool(EnvLogJSON)
	cfg.LogDebug = envBool(EnvLogDebug)
	return cfg
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}

// Load resolves the effective configuration: environment first, then the
// optional config file, then built-in defaults. The result is normalized and
// validated.
func Load(path string) (Config, error) {
	cfg := FromEnv()
	if path != "" {
		fileCfg, err := LoadConfig(path)
		if err != nil {
			return Config{}, err
		}
		cfg = cfg.MergeWithDefaults(*fileCfg)
	}
	cfg = cfg.MergeWithDefaults(Defaults())
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// MergeWithDefaults returns a new Config with zero fields filled from defaults.
func (c Config) MergeWithDefaults(defaults Config) Config {
	result := c

	if result.APIBase == "" {
		result.APIBase = defaults.APIBase
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.RequestTimeout == 0 {
		result.RequestTimeout = defaults.RequestTimeout
	}

	// Bool fields: cannot distinguish unset from false, so either source enables them
	result.LogJSON = result.LogJSON || defaults.LogJSON
	result.LogDebug = result.LogDebug || defaults.LogDebug

	return result
}

// Normalize trims whitespace and the trailing slash from the base URL.
func (c *Config) Normalize() {
	c.APIBase = NormalizeBaseURL(c.APIBase)
}

// NormalizeBaseURL strips surrounding whitespace and one trailing slash.
func NormalizeBaseURL(base string) string {
	return strings.TrimSuffix(strings.TrimSpace(base), "/")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("config error: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("'%s' failed '%s' (value: %v)", fe.Field(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("config error: %s", strings.Join(msgs, "; "))
}
