package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/mpmail/internal/compose"
)

type Config struct {
	// Server
	Port string
	Env  string // development, production

	// Directory
	DirectorySource  string // file path or http(s) URL
	DirectoryTimeout time.Duration

	// Message
	MailSubject  string
	TemplatePath string

	// Form
	PreserveAnswers bool

	// Limits
	RateLimitPerMinute int
}

func Load() (*Config, error) {
	return LoadArgs(os.Args[1:])
}

// LoadArgs is Load with explicit command-line arguments.
func LoadArgs(args []string) (*Config, error) {
	// Load .env file if it exists (don't error if missing)
	_ = godotenv.Load()

	cfg := &Config{}

	fs := flag.NewFlagSet("mpmail", flag.ContinueOnError)
	fs.StringVar(&cfg.Port, "port", getEnv("PORT", "8080"), "Server port")
	fs.StringVar(&cfg.Env, "env", getEnv("ENV", "development"), "Environment (development, production)")
	fs.StringVar(&cfg.DirectorySource, "directory", getEnv("DIRECTORY_SOURCE", "data/mps.csv"), "Representative directory CSV (path or URL)")
	fs.DurationVar(&cfg.DirectoryTimeout, "directory-timeout", getEnvDuration("DIRECTORY_TIMEOUT", 10*time.Second), "Directory fetch timeout")
	fs.StringVar(&cfg.TemplatePath, "template", getEnv("TEMPLATE_PATH", ""), "Default message template file")

	cfg.MailSubject = getEnv("MAIL_SUBJECT", compose.DefaultSubject)
	cfg.PreserveAnswers = getEnv("PRESERVE_ANSWERS", "false") == "true"
	cfg.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", 30)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DirectorySource == "" {
		return fmt.Errorf("DIRECTORY_SOURCE is required")
	}

	if p, err := strconv.Atoi(c.Port); err != nil || p <= 0 || p > 65535 {
		return fmt.Errorf("PORT must be a number between 1 and 65535, got %q", c.Port)
	}

	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}

	if c.DirectoryTimeout <= 0 {
		return fmt.Errorf("DIRECTORY_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
