// ABOUTME: Runtime configuration for the lead scoring server and CLI.
// ABOUTME: Layers defaults, an optional YAML file, .env files and environment variables.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/2389/leadscore/internal/leads"
)

// Config holds every tunable setting.
type Config struct {
	Port           int      `yaml:"port" validate:"min=1,max=65535"`
	DBPath         string   `yaml:"db_path"`
	Count          int      `yaml:"count" validate:"min=0,max=5000"`
	Seed           *int64   `yaml:"seed,omitempty"`
	TopN           int      `yaml:"top_n" validate:"min=1"`
	Persist        bool     `yaml:"persist_datasets"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	Log    LogConfig    `yaml:"log"`
	OpenAI OpenAIConfig `yaml:"openai"`
}

// LogConfig selects the zap level and encoding.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=console json"`
}

// OpenAIConfig enables the AI-generated name pool. The key never comes from YAML.
type OpenAIConfig struct {
	APIKey   string `yaml:"-"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url" validate:"omitempty,url"`
	PoolSize int    `yaml:"pool_size" validate:"min=1,max=200"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port:           9000,
		Count:          leads.DefaultCount,
		TopN:           leads.DefaultTopN,
		Persist:        true,
		AllowedOrigins: []string{"*"},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		OpenAI: OpenAIConfig{
			Model:    "gpt-5-mini",
			PoolSize: 40,
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (a
// missing file is not an error), then .env files, then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("LEADSCORE_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	LoadDotEnv()
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads .env from the working directory, its parents and the home
// directory. Variables that are already set win.
func LoadDotEnv() {
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		_ = godotenv.Load(filepath.Join(home, ".env"))
	}
}

func (c *Config) applyEnvOverrides() error {
	ints := []struct {
		key  string
		dest *int
	}{
		{"LEADSCORE_PORT", &c.Port},
		{"LEADSCORE_COUNT", &c.Count},
		{"LEADSCORE_TOP_N", &c.TopN},
		{"LEADSCORE_POOL_SIZE", &c.OpenAI.PoolSize},
	}
	for _, e := range ints {
		v := strings.TrimSpace(os.Getenv(e.key))
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", leads.ErrInvalidConfiguration, e.key, v)
		}
		*e.dest = n
	}

	if v := strings.TrimSpace(os.Getenv("LEADSCORE_SEED")); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: LEADSCORE_SEED=%q is not an integer", leads.ErrInvalidConfiguration, v)
		}
		c.Seed = &seed
	}

	if v := strings.TrimSpace(os.Getenv("LEADSCORE_PERSIST")); v != "" {
		persist, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: LEADSCORE_PERSIST=%q is not a boolean", leads.ErrInvalidConfiguration, v)
		}
		c.Persist = persist
	}

	strs := []struct {
		key  string
		dest *string
	}{
		{"LEADSCORE_DB_PATH", &c.DBPath},
		{"LEADSCORE_LOG_LEVEL", &c.Log.Level},
		{"LEADSCORE_LOG_FORMAT", &c.Log.Format},
		{"OPENAI_API_KEY", &c.OpenAI.APIKey},
		{"OPENAI_MODEL", &c.OpenAI.Model},
		{"OPENAI_BASE_URL", &c.OpenAI.BaseURL},
	}
	for _, e := range strs {
		if v := strings.TrimSpace(os.Getenv(e.key)); v != "" {
			*e.dest = v
		}
	}

	if v := strings.TrimSpace(os.Getenv("LEADSCORE_ALLOWED_ORIGINS")); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.AllowedOrigins = origins
	}
	return nil
}

// Validate checks ranges and enums, wrapping failures in leads.ErrInvalidConfiguration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s fails %q (got %v)", leads.ErrInvalidConfiguration, fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("%w: %v", leads.ErrInvalidConfiguration, err)
	}
	return nil
}

// Save writes the configuration as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
