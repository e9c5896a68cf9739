package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/lcsecurity/scamcheck/internal/predict"
	"gopkg.in/yaml.v3"
)

const (
	DefaultServiceURL  = "http://localhost:8001"
	DefaultTimeout     = 10 * time.Second
	DefaultHistorySize = 20
)

// Config holds everything the client needs to reach the prediction service.
type Config struct {
	ServiceURL  string        `yaml:"service_url" validate:"required,http_url"`
	Timeout     time.Duration `yaml:"timeout" validate:"min=1ms"`
	Model       string        `yaml:"model" validate:"oneof=naive-bayes bert"`
	LogLevel    string        `yaml:"log_level" validate:"oneof=debug info warn error"`
	History     bool          `yaml:"history"`
	HistorySize int           `yaml:"history_size" validate:"min=1"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ServiceURL:  DefaultServiceURL,
		Timeout:     DefaultTimeout,
		Model:       predict.LegacyStatistical.String(),
		LogLevel:    "info",
		History:     true,
		HistorySize: DefaultHistorySize,
	}
}

// Variant returns the configured backend.
func (c Config) Variant() predict.Variant {
	variant, err := predict.ParseVariant(c.Model)
	if err != nil {
		return predict.LegacyStatistical
	}
	return variant
}

// envOverrides maps environment variables onto config fields.
var envOverrides = map[string]func(*Config, string) error{
	"SCAMCHECK_SERVICE_URL": func(c *Config, v string) error {
		c.ServiceURL = v
		return nil
	},
	"SCAMCHECK_TIMEOUT": func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		c.Timeout = d
		return nil
	},
	"SCAMCHECK_MODEL": func(c *Config, v string) error {
		c.Model = v
		return nil
	},
	"SCAMCHECK_LOG_LEVEL": func(c *Config, v string) error {
		c.LogLevel = v
		return nil
	},
	"SCAMCHECK_HISTORY": func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		c.History = b
		return nil
	},
	"SCAMCHECK_HISTORY_SIZE": func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		c.HistorySize = n
		return nil
	},
}

// Load builds the configuration from, in increasing priority: built-in
// defaults, the YAML file at path, a .env file in the working directory and
// SCAMCHECK_* environment variables. A missing file is not an error.
func Load(path string, dotenvPath string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	if dotenvPath != "" {
		// godotenv never overrides variables that are already set.
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("failed to load %s: %w", dotenvPath, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	for key, apply := range envOverrides {
		value, ok := os.LookupEnv(key)
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		if err := apply(cfg, strings.TrimSpace(value)); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate normalizes and checks the configuration.
func (c *Config) Validate() error {
	c.Model = strings.ToLower(strings.TrimSpace(c.Model))
	if variant, err := predict.ParseVariant(c.Model); err == nil {
		c.Model = variant.String()
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))

	if err := validate.Struct(c); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
			first := validationErrs[0]
			return fmt.Errorf("invalid configuration: %s failed %q check (value %v)", first.Field(), first.Tag(), first.Value())
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
