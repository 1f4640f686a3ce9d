package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"nfl-survivor-go/logging"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const devJWTSecret = "your-secret-key-change-in-production"

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig `json:"server"`

	// Database configuration
	Database DatabaseConfig `json:"database"`

	// Logging configuration
	Logging LoggingConfig `json:"logging"`

	// Authentication configuration
	Auth AuthConfig `json:"auth"`

	// Scheduler trigger configuration
	Scheduler SchedulerConfig `json:"scheduler"`

	// Score feed configuration
	Feed FeedConfig `json:"feed"`

	// Redis configuration (optional)
	Redis RedisConfig `json:"redis"`

	// Pick rules
	Picks PicksConfig `json:"picks"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string `json:"port"`
	Host        string `json:"host"`
	UseTLS      bool   `json:"use_tls"`
	BehindProxy bool   `json:"behind_proxy"`
	CertFile    string `json:"cert_file"`
	KeyFile     string `json:"key_file"`
	Environment string `json:"environment"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `json:"host"`
	Port            string        `json:"port"`
	Username        string        `json:"username"`
	Password        string        `json:"password"`
	Database        string        `json:"database"`
	Timeout         time.Duration `json:"timeout"`
	UseTransactions bool          `json:"use_transactions"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level       string `json:"level"`
	Prefix      string `json:"prefix"`
	EnableColor bool   `json:"enable_color"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret string `json:"jwt_secret"`
}

// SchedulerConfig holds the reconciliation trigger settings
type SchedulerConfig struct {
	Key         string `json:"key"`
	Cron        string `json:"cron"`
	CronEnabled bool   `json:"cron_enabled"`
	Timezone    string `json:"timezone"`
}

// FeedConfig holds score feed settings
type FeedConfig struct {
	BaseURL       string        `json:"base_url"`
	Timeout       time.Duration `json:"timeout"`
	CurrentSeason int           `json:"current_season"`
}

// RedisConfig holds the optional Redis connection used for the run lock and events
type RedisConfig struct {
	URL     string        `json:"url"`
	LockTTL time.Duration `json:"lock_ttl"`
}

// PicksConfig holds pick submission rules
type PicksConfig struct {
	EnforceUniqueTeams bool `json:"enforce_unique_teams"`
}

// Load loads configuration from an optional YAML file, the .env file and
// environment variables. Real environment variables always win.
func Load() (*Config, error) {
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := applyConfigFile(path); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Don't treat missing .env as an error
		logging.Debugf("Could not load .env file: %v", err)
	}

	environment := getEnv("ENVIRONMENT", "development")

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			UseTLS:      getBoolEnv("USE_TLS", false),
			BehindProxy: getBoolEnv("BEHIND_PROXY", false),
			CertFile:    getEnv("TLS_CERT_FILE", "server.crt"),
			KeyFile:     getEnv("TLS_KEY_FILE", "server.key"),
			Environment: environment,
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "27017"),
			Username:        getEnv("DB_USERNAME", ""),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "nfl_survivor"),
			Timeout:         getDurationEnv("DB_TIMEOUT", 10*time.Second),
			UseTransactions: getBoolEnv("DB_TRANSACTIONS", false),
		},
		Logging: LoggingConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Prefix:      getEnv("LOG_PREFIX", "survivor"),
			EnableColor: getBoolEnv("LOG_COLOR", true),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", devJWTSecret),
		},
		Scheduler: SchedulerConfig{
			Key:         getEnv("SCHEDULER_KEY", ""),
			Cron:        getEnv("SCHEDULER_CRON", "*/30 * * * *"),
			CronEnabled: getBoolEnv("SCHEDULER_CRON_ENABLED", false),
			Timezone:    getEnv("SCHEDULER_TIMEZONE", "America/New_York"),
		},
		Feed: FeedConfig{
			BaseURL:       getEnv("FEED_BASE_URL", "https://site.api.espn.com/apis/site/v2/sports/football/nfl"),
			Timeout:       getDurationEnv("FEED_TIMEOUT", 10*time.Second),
			CurrentSeason: getIntEnv("CURRENT_SEASON", 2025),
		},
		Redis: RedisConfig{
			URL:     getEnv("REDIS_URL", ""),
			LockTTL: getDurationEnv("RECONCILE_LOCK_TTL", 5*time.Minute),
		},
		Picks: PicksConfig{
			EnforceUniqueTeams: getBoolEnv("ENFORCE_UNIQUE_TEAMS", true),
		},
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// applyConfigFile reads a flat YAML map of environment keys and exports
// every key that is not already set in the process environment.
func applyConfigFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	values := map[string]string{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("invalid YAML: %w", err)
	}

	for key, value := range values {
		key = strings.ToUpper(strings.TrimSpace(key))
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return err
		}
	}
	return nil
}

// Validate validates the configuration for required fields and sensible values
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if c.Server.UseTLS && !c.Server.BehindProxy {
		if c.Server.CertFile == "" || c.Server.KeyFile == "" {
			return fmt.Errorf("TLS certificate and key files are required when USE_TLS=true")
		}
		if _, err := os.Stat(c.Server.CertFile); os.IsNotExist(err) {
			return fmt.Errorf("TLS certificate file not found: %s", c.Server.CertFile)
		}
		if _, err := os.Stat(c.Server.KeyFile); os.IsNotExist(err) {
			return fmt.Errorf("TLS key file not found: %s", c.Server.KeyFile)
		}
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.Port == "" {
		return fmt.Errorf("database port is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if c.Auth.JWTSecret == devJWTSecret && !c.IsDevelopment() {
		return fmt.Errorf("JWT secret must be changed in production")
	}

	if c.Scheduler.CronEnabled {
		if _, err := cron.ParseStandard(c.Scheduler.Cron); err != nil {
			return fmt.Errorf("invalid SCHEDULER_CRON %q: %w", c.Scheduler.Cron, err)
		}
	}
	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("invalid SCHEDULER_TIMEZONE %q: %w", c.Scheduler.Timezone, err)
	}

	if c.Feed.BaseURL == "" {
		return fmt.Errorf("feed base URL is required")
	}
	if c.Feed.Timeout <= 0 {
		return fmt.Errorf("feed timeout must be positive, got: %s", c.Feed.Timeout)
	}
	if c.Feed.CurrentSeason < 2020 || c.Feed.CurrentSeason > 2035 {
		return fmt.Errorf("current season must be between 2020 and 2035, got: %d", c.Feed.CurrentSeason)
	}

	if c.Redis.URL != "" && c.Redis.LockTTL <= 0 {
		return fmt.Errorf("reconcile lock TTL must be positive when REDIS_URL is set")
	}

	return nil
}

// IsDevelopment reports whether the server runs in development mode
func (c *Config) IsDevelopment() bool {
	return strings.ToLower(c.Server.Environment) == "development"
}

// IsRedisConfigured returns true if the optional Redis backend is configured
func (c *Config) IsRedisConfigured() bool {
	return c.Redis.URL != ""
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return c.Server.Host + ":" + c.Server.Port
}

// LogConfiguration logs the current configuration (without sensitive data)
func (c *Config) LogConfiguration() {
	logging.Info("=== Application Configuration ===")
	logging.Infof("Server: %s (TLS: %t, Behind Proxy: %t, Environment: %s)",
		c.GetServerAddress(), c.Server.UseTLS, c.Server.BehindProxy, c.Server.Environment)
	logging.Infof("Database: %s:%s/%s (Username: %s, Auth: %t, Transactions: %t)",
		c.Database.Host, c.Database.Port, c.Database.Database,
		c.Database.Username, c.Database.Password != "", c.Database.UseTransactions)
	logging.Infof("Logging: Level=%s, Prefix=%s, Color=%t",
		c.Logging.Level, c.Logging.Prefix, c.Logging.EnableColor)
	logging.Infof("Scheduler: KeyConfigured=%t, Cron=%t (%s, %s)",
		c.Scheduler.Key != "", c.Scheduler.CronEnabled, c.Scheduler.Cron, c.Scheduler.Timezone)
	logging.Infof("Feed: %s (Timeout: %s, Season: %d)",
		c.Feed.BaseURL, c.Feed.Timeout, c.Feed.CurrentSeason)
	logging.Infof("Redis: Configured=%t, LockTTL=%s", c.IsRedisConfigured(), c.Redis.LockTTL)
	logging.Infof("Picks: EnforceUniqueTeams=%t", c.Picks.EnforceUniqueTeams)
	if c.Scheduler.Key == "" {
		logging.Warn("SCHEDULER_KEY is empty: every reconciliation trigger request will be rejected")
	}
	logging.Info("================================")
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
