package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultProductFilter restricts searches to the Firefox desktop products.
const DefaultProductFilter = "&classification=Client%20Software&classification=Components" +
	"&product=DevTools&product=Firefox&product=Core&product=Testing&product=Toolkit&product=WebExtensions"

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Bug tracker connection
	Bugzilla BugzillaConfig

	// Chart defaults
	Chart ChartConfig

	// Release calendar
	Releases ReleasesConfig

	// Rate limiting configuration
	RateLimit RateLimitConfig

	// Cross-origin access to the JSON API
	CORS CORSConfig

	// Logging configuration
	Logging LoggingConfig

	// Application metadata
	App AppConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// BugzillaConfig holds the Bugzilla REST connection settings
type BugzillaConfig struct {
	URL           string
	APIKey        string
	ProductFilter string // appended to every search
	Timeout       time.Duration
	PageSize      int
}

// ChartConfig holds the burndown defaults
type ChartConfig struct {
	StartMonths     int
	IgnoreOldClosed bool
}

// ReleasesConfig locates the optional release calendar file
type ReleasesConfig struct {
	CalendarPath string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	BurstSize         int
}

// CORSConfig holds the origins allowed to call the JSON API
type CORSConfig struct {
	AllowedOrigins []string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

// Load loads configuration from environment variables, after reading a
// .env file when one exists.
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	return FromEnv()
}

// FromEnv builds and validates the configuration from the process
// environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("SERVER_PORT", ":8080"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 90*time.Second),
			IdleTimeout:     getDurationOrDefault("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Bugzilla: BugzillaConfig{
			URL:           getEnvOrDefault("BUGZILLA_URL", "https://bugzilla.mozilla.org"),
			APIKey:        os.Getenv("BUGZILLA_API_KEY"),
			ProductFilter: getEnvOrDefault("BUGZILLA_PRODUCT_FILTER", DefaultProductFilter),
			Timeout:       getDurationOrDefault("BUGZILLA_TIMEOUT", 60*time.Second),
			PageSize:      getIntOrDefault("BUGZILLA_PAGE_SIZE", 0),
		},
		Chart: ChartConfig{
			StartMonths:     getIntOrDefault("CHART_START_MONTHS", 3),
			IgnoreOldClosed: getBoolOrDefault("CHART_IGNORE_OLD_CLOSED", false),
		},
		Releases: ReleasesConfig{
			CalendarPath: os.Getenv("RELEASE_CALENDAR_PATH"),
		},
		RateLimit: RateLimitConfig{
			Enabled:           getBoolOrDefault("RATE_LIMIT_ENABLED", true),
			RequestsPerSecond: getFloatOrDefault("RATE_LIMIT_RPS", 2),
			BurstSize:         getIntOrDefault("RATE_LIMIT_BURST", 5),
		},
		CORS: CORSConfig{
			AllowedOrigins: getStringSliceOrDefault("CORS_ALLOWED_ORIGINS", []string{}),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
		App: AppConfig{
			Name:        getEnvOrDefault("APP_NAME", "bug-burndown"),
			Version:     getEnvOrDefault("APP_VERSION", "dev"),
			Environment: getEnvOrDefault("APP_ENV", "development"),
		},
	}

	// "none" turns the default filter off
	if strings.EqualFold(cfg.Bugzilla.ProductFilter, "none") {
		cfg.Bugzilla.ProductFilter = ""
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errs []string

	if u, err := url.Parse(c.Bugzilla.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, "BUGZILLA_URL must be an absolute http(s) URL")
	}
	if c.Bugzilla.ProductFilter != "" && !strings.HasPrefix(c.Bugzilla.ProductFilter, "&") {
		errs = append(errs, "BUGZILLA_PRODUCT_FILTER must start with '&'")
	}
	if c.Bugzilla.Timeout <= 0 {
		errs = append(errs, "BUGZILLA_TIMEOUT must be positive")
	}
	if c.Bugzilla.PageSize < 0 {
		errs = append(errs, "BUGZILLA_PAGE_SIZE cannot be negative")
	}

	if c.Chart.StartMonths <= 0 {
		errs = append(errs, "CHART_START_MONTHS must be positive")
	}

	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.BurstSize <= 0) {
		errs = append(errs, "RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive when rate limiting is enabled")
	}

	// A fetch that outlives the write timeout can never be answered
	if c.Server.WriteTimeout > 0 && c.Server.WriteTimeout <= c.Bugzilla.Timeout {
		errs = append(errs, "SERVER_WRITE_TIMEOUT must be greater than BUGZILLA_TIMEOUT")
	}

	if c.IsProduction() && c.Logging.Format != "json" {
		errs = append(errs, "LOG_FORMAT must be json in production")
	}

	if len(errs) > 0 {
		return errors.New("configuration errors:\n  - " + strings.Join(errs, "\n  - "))
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// Helper functions

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getStringSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}

// String returns a redacted string representation of the config (safe for logging)
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Server: %s, Bugzilla: %s, APIKey: %s, RateLimit: %v, Environment: %s}",
		c.Server.Port,
		c.Bugzilla.URL,
		redactSecret(c.Bugzilla.APIKey),
		c.RateLimit.Enabled,
		c.App.Environment,
	)
}

// redactSecret hides a credential while showing whether one is set
func redactSecret(secret string) string {
	if secret == "" {
		return "[NONE]"
	}
	return "[REDACTED]"
}
