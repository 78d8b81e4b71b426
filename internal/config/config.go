package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/aetb-config/internal/settings"
)

const (
	envPrefix             = "AETB_"
	defaultEnvFile        = ".env"
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
)

// Config aggregates runtime options of the process resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
type Config struct {
	SettingsPath         string        `env:"CONFIG_PATH"`
	CredentialsPath      string        `env:"REMOTE_CREDENTIALS"`
	Port                 string        `env:"PORT"`
	LogLevel             string        `env:"LOG_LEVEL"`
	RefreshInterval      time.Duration `env:"REFRESH_INTERVAL"`
	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD"`
	ReadHeaderTimeout    time.Duration `env:"READ_HEADER_TIMEOUT"`
	WriteTimeout         time.Duration `env:"WRITE_TIMEOUT"`
	IdleTimeout          time.Duration `env:"IDLE_TIMEOUT"`
	EnableRequestLogging bool          `env:"ENABLE_REQUEST_LOGGING"`
	RateLimitRPS         float64       `env:"RATE_LIMIT_RPS"`
	RateLimitBurst       int           `env:"RATE_LIMIT_BURST"`
	AdminTokenSecret     string        `env:"ADMIN_TOKEN_SECRET"`
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	SettingsPath         string        `yaml:"config_path"`
	CredentialsPath      string        `yaml:"remote_credentials"`
	Port                 string        `yaml:"port"`
	LogLevel             string        `yaml:"log_level"`
	RefreshInterval      string        `yaml:"refresh_interval"`
	ShutdownGracePeriod  string        `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string        `yaml:"read_header_timeout"`
	WriteTimeout         string        `yaml:"write_timeout"`
	IdleTimeout          string        `yaml:"idle_timeout"`
	EnableRequestLogging *bool         `yaml:"enable_request_logging"`
	RateLimit            yamlRateLimit `yaml:"rate_limit"`
	AdminTokenSecret     string        `yaml:"admin_token_secret"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile      string
	EnvFile         string
	SettingsPath    *string
	CredentialsPath *string
	Port            *string
	LogLevel        *string
	RefreshInterval *time.Duration
	RateLimitRPS    *float64
	RateLimitBurst  *int
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	if overrides == nil {
		overrides = &CLIOverrides{}
	}

	cfg := defaultConfig()

	if err := loadDotEnv(overrides.EnvFile); err != nil {
		return Config{}, err
	}

	// Environment first, then YAML and CLI on top of it.
	if err := applyEnvConfig(&cfg); err != nil {
		return Config{}, err
	}

	if overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		if err := applyYAMLConfig(&cfg, yamlCfg); err != nil {
			return Config{}, fmt.Errorf("apply YAML config: %w", err)
		}
	}

	applyCLIOverrides(&cfg, overrides)

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		SettingsPath:         settings.DefaultPath,
		Port:                 defaultPort,
		LogLevel:             defaultLogLevel,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
	}
}

// loadDotEnv loads variables from a .env file without overriding the process
// environment. A missing default file is not an error; a missing explicit one is.
func loadDotEnv(path string) error {
	explicit := path != ""
	if !explicit {
		path = defaultEnvFile
	}

	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// applyEnvConfig applies AETB_* environment variables. Unset variables keep
// the current value.
func applyEnvConfig(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: envPrefix}); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) error {
	if yamlCfg.SettingsPath != "" {
		cfg.SettingsPath = yamlCfg.SettingsPath
	}
	if yamlCfg.CredentialsPath != "" {
		cfg.CredentialsPath = yamlCfg.CredentialsPath
	}
	if yamlCfg.Port != "" {
		cfg.Port = yamlCfg.Port
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.AdminTokenSecret != "" {
		cfg.AdminTokenSecret = yamlCfg.AdminTokenSecret
	}

	durations := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"refresh_interval", yamlCfg.RefreshInterval, &cfg.RefreshInterval},
		{"shutdown_grace_period", yamlCfg.ShutdownGracePeriod, &cfg.ShutdownGracePeriod},
		{"read_header_timeout", yamlCfg.ReadHeaderTimeout, &cfg.ReadHeaderTimeout},
		{"write_timeout", yamlCfg.WriteTimeout, &cfg.WriteTimeout},
		{"idle_timeout", yamlCfg.IdleTimeout, &cfg.IdleTimeout},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = parsed
	}

	if yamlCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *yamlCfg.EnableRequestLogging
	}
	if yamlCfg.RateLimit.RPS != nil {
		cfg.RateLimitRPS = *yamlCfg.RateLimit.RPS
	}
	if yamlCfg.RateLimit.Burst != nil {
		cfg.RateLimitBurst = *yamlCfg.RateLimit.Burst
	}

	return nil
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) {
	setString := func(dst *string, src *string) {
		if src != nil && strings.TrimSpace(*src) != "" {
			*dst = strings.TrimSpace(*src)
		}
	}

	setString(&cfg.SettingsPath, overrides.SettingsPath)
	setString(&cfg.CredentialsPath, overrides.CredentialsPath)
	setString(&cfg.Port, overrides.Port)
	setString(&cfg.LogLevel, overrides.LogLevel)

	if overrides.RefreshInterval != nil && *overrides.RefreshInterval >= 0 {
		cfg.RefreshInterval = *overrides.RefreshInterval
	}
	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}
	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.SettingsPath) == "" {
		return fmt.Errorf("AETB_CONFIG_PATH cannot be empty")
	}
	if cfg.Port == "" {
		return fmt.Errorf("AETB_PORT cannot be empty")
	}
	if cfg.RefreshInterval < 0 {
		return fmt.Errorf("AETB_REFRESH_INTERVAL must be >= 0")
	}
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("AETB_RATE_LIMIT_RPS must be >= 0")
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("AETB_RATE_LIMIT_BURST must be >= 0")
	}
	return nil
}
