package config

import (
	"os"

	"nfl-survivor-go/cache"
	"nfl-survivor-go/database"
	"nfl-survivor-go/logging"
	"nfl-survivor-go/services"
)

// ToDatabaseConfig converts Config to database.Config
func (c *Config) ToDatabaseConfig() database.Config {
	return database.Config{
		Host:            c.Database.Host,
		Port:            c.Database.Port,
		Username:        c.Database.Username,
		Password:        c.Database.Password,
		Database:        c.Database.Database,
		Timeout:         c.Database.Timeout,
		UseTransactions: c.Database.UseTransactions,
	}
}

// ToLoggingConfig converts Config to logging.Config
func (c *Config) ToLoggingConfig() logging.Config {
	return logging.Config{
		Level:       c.Logging.Level,
		Output:      os.Stdout,
		Prefix:      c.Logging.Prefix,
		EnableColor: c.Logging.EnableColor,
	}
}

// ToCacheConfig converts Config to cache.Config
func (c *Config) ToCacheConfig() cache.Config {
	return cache.Config{
		URL:     c.Redis.URL,
		LockTTL: c.Redis.LockTTL,
	}
}

// ToFeedConfig converts Config to services.FeedConfig
func (c *Config) ToFeedConfig() services.FeedConfig {
	return services.FeedConfig{
		BaseURL: c.Feed.BaseURL,
		Timeout: c.Feed.Timeout,
	}
}

// ToSchedulerConfig converts Config to services.SchedulerConfig
func (c *Config) ToSchedulerConfig() services.SchedulerConfig {
	return services.SchedulerConfig{
		Spec:     c.Scheduler.Cron,
		Timezone: c.Scheduler.Timezone,
	}
}
