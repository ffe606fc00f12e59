package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for dishlens-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (API keys, passwords) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8090"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// AI model endpoint configuration
	AI AIConfig `yaml:"ai"`

	// Menu page scraper limits
	Scraper ScraperConfig `yaml:"scraper"`

	// Background task runner
	Tasks TasksConfig `yaml:"tasks"`

	// Object storage signed-URL settings
	Storage StorageConfig `yaml:"storage"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"dishlens"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"dishlens_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MigrationsPath string `yaml:"migrations_path" env:"PGMIGRATIONS_PATH" env-default:"migrations"`
}

// AIConfig holds the language-model endpoint configuration.
// Provider selects the client implementation; the OpenAI provider also covers
// any OpenAI-compatible endpoint (vLLM, Ollama, etc.) via BaseURL.
type AIConfig struct {
	Provider    string `yaml:"provider" env:"AI_PROVIDER" env-default:"openai"`
	BaseURL     string `yaml:"base_url" env:"AI_BASE_URL" env-default:"https://api.openai.com/v1"`
	Model       string `yaml:"model" env:"AI_MODEL" env-default:"gpt-4o-mini"`
	VisionModel string `yaml:"vision_model" env:"AI_VISION_MODEL" env-default:""` // Falls back to Model if empty
	APIKey      string `yaml:"-" env:"AI_API_KEY"`                                // Secret - not in YAML
}

// EffectiveVisionModel returns the model used for vision calls.
func (c *AIConfig) EffectiveVisionModel() string {
	if c.VisionModel != "" {
		return c.VisionModel
	}
	return c.Model
}

// ScraperConfig bounds the menu page scraper.
type ScraperConfig struct {
	UserAgent      string        `yaml:"user_agent" env:"SCRAPER_USER_AGENT" env-default:"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"`
	Timeout        time.Duration `yaml:"timeout" env:"SCRAPER_TIMEOUT" env-default:"30s"`
	MinRegionChars int           `yaml:"min_region_chars" env:"SCRAPER_MIN_REGION_CHARS" env-default:"200"`
	MinTotalChars  int           `yaml:"min_total_chars" env:"SCRAPER_MIN_TOTAL_CHARS" env-default:"50"`
	MaxTotalChars  int           `yaml:"max_total_chars" env:"SCRAPER_MAX_TOTAL_CHARS" env-default:"10000"`
}

// TasksConfig configures the in-process background task runner.
type TasksConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" env:"TASKS_MAX_CONCURRENT" env-default:"8"`
}

// StorageConfig configures signed read URLs for stored photos.
type StorageConfig struct {
	BaseURL    string        `yaml:"base_url" env:"STORAGE_BASE_URL" env-default:"http://localhost:8090/files"`
	SigningKey string        `yaml:"-" env:"STORAGE_SIGNING_KEY"` // Secret - not in YAML
	URLTTL     time.Duration `yaml:"url_ttl" env:"STORAGE_URL_TTL" env-default:"1h"`
}

// Load reads configuration from config.yaml with environment variable overrides.
// If config.yaml does not exist, configuration comes from the environment alone.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment config: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.AI.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("unsupported AI provider %q (expected openai or anthropic)", c.AI.Provider)
	}

	if c.Scraper.MaxTotalChars <= c.Scraper.MinTotalChars {
		return fmt.Errorf("scraper max_total_chars (%d) must exceed min_total_chars (%d)",
			c.Scraper.MaxTotalChars, c.Scraper.MinTotalChars)
	}

	return nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
