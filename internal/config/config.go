package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"
)

// FileEnv names the environment variable pointing at an optional config file.
const FileEnv = "CONFIG_FILE"

// Config sections map to prefixed environment variables (SERVER_PORT,
// DATA_SOURCE, LOG_LEVEL, ...). Leaf fields derive their names with
// split_words so an unprefixed PORT or HOST is never picked up.
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Data      DataConfig      `yaml:"data" envconfig:"DATA"`
	Logger    LoggerConfig    `yaml:"logger" envconfig:"LOG"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" split_words:"true" default:"localhost" validate:"required"`
	Port            int           `yaml:"port" split_words:"true" default:"8084" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" split_words:"true" default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" split_words:"true" default:"10s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" split_words:"true" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" split_words:"true" default:"30s"`
}

// DataConfig locates the sales dataset: a .csv or .xlsx path, or a
// postgres:// URL together with the table to read.
type DataConfig struct {
	Source string `yaml:"source" split_words:"true" default:"data/superstore_sample.csv" validate:"required"`
	Table  string `yaml:"table" split_words:"true" default:"sales"`
}

type LoggerConfig struct {
	Level  string `yaml:"level" split_words:"true" default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" split_words:"true" default:"json" validate:"oneof=json text"`
}

type SecurityConfig struct {
	EnableRateLimit bool     `yaml:"enable_rate_limit" split_words:"true" default:"true"`
	RateLimitRPS    int      `yaml:"rate_limit_rps" split_words:"true" default:"100" validate:"gt=0"`
	RateLimitBurst  int      `yaml:"rate_limit_burst" split_words:"true" default:"10" validate:"gt=0"`
	AllowedOrigins  []string `yaml:"allowed_origins" split_words:"true" default:"http://localhost:8084"`
	TrustedProxies  []string `yaml:"trusted_proxies" split_words:"true" default:"127.0.0.1"`
}

type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name" split_words:"true" default:"sales-insights" validate:"required"`
	TraceExporter  string `yaml:"trace_exporter" split_words:"true" default:"none" validate:"oneof=none stdout"`
	MetricsEnabled bool   `yaml:"metrics_enabled" split_words:"true" default:"true"`
}

// Load reads the environment and, when CONFIG_FILE is set, overlays that file.
func Load() (*Config, error) {
	return LoadFile(os.Getenv(FileEnv))
}

// LoadFile applies defaults, then environment variables, then the file at
// path (YAML, TOML or JSON) if path is not empty. Keys absent from the file
// keep their earlier value.
func LoadFile(path string) (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, c)
	case ".toml":
		tree, err := toml.LoadBytes(data)
		if err != nil {
			return fmt.Errorf("parse TOML: %w", err)
		}
		return c.overlayMap(tree.ToMap())
	case ".json":
		var doc map[string]any
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parse JSON: %w", err)
		}
		return c.overlayMap(doc)
	default:
		return fmt.Errorf("unsupported config file format %q", filepath.Ext(path))
	}
}

// overlayMap re-encodes a decoded document as YAML so that durations like
// "10s" and absent keys behave the same for every file format.
func (c *Config) overlayMap(doc map[string]any) error {
	normalized, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(normalized, c)
}

var structValidator = validator.New(validator.WithRequiredStructEnabled())

func (c *Config) validate() error {
	if err := structValidator.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (got %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if isPostgres(c.Data.Source) && strings.TrimSpace(c.Data.Table) == "" {
		return fmt.Errorf("data table is required for a postgres source")
	}

	return nil
}

func isPostgres(source string) bool {
	return strings.HasPrefix(source, "postgres://") || strings.HasPrefix(source, "postgresql://")
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
