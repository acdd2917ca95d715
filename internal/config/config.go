// Package config provides configuration management for the application.
package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Carrier    CarrierConfig    `mapstructure:"carrier"`
	Dispatch   DispatchConfig   `mapstructure:"dispatch"`
	Queue      QueueConfig      `mapstructure:"queue"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Middleware MiddlewareConfig `mapstructure:"middleware"`
}

type ServerConfig struct {
	Port         string `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	DBName         string `mapstructure:"dbname"`
	SSLMode        string `mapstructure:"sslmode"`
	MigrationsPath string `mapstructure:"migrations_path"`
	AutoMigrate    bool   `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	CacheTTL int    `mapstructure:"cache_ttl_hours"`
}

// CarrierConfig configures the outbound SMS provider.
type CarrierConfig struct {
	URL            string               `mapstructure:"url"`
	Username       string               `mapstructure:"username"`
	Token          string               `mapstructure:"token"`
	Sender         string               `mapstructure:"sender"`
	TestMode       bool                 `mapstructure:"test_mode"`
	Timeout        int                  `mapstructure:"timeout"`
	RatePerSec     int                  `mapstructure:"rate_per_sec"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

type CircuitBreakerConfig struct {
	MaxRequests      uint32  `mapstructure:"max_requests"`
	Interval         int     `mapstructure:"interval"`
	Timeout          int     `mapstructure:"timeout"`
	FailureRatio     float64 `mapstructure:"failure_ratio"`
	ConsecutiveFails uint32  `mapstructure:"consecutive_fails"`
}

// DispatchConfig bounds the dispatch transaction and the submission pool.
type DispatchConfig struct {
	BatchSize   int `mapstructure:"batch_size"`
	Workers     int `mapstructure:"workers"`
	QueueSize   int `mapstructure:"queue_size"`
	RetryMax    int `mapstructure:"retry_max"`
	MaxAttempts int `mapstructure:"max_attempts"`
	MaxParts    int `mapstructure:"max_parts"`
}

// QueueConfig selects where dispatched campaigns are handed to the submission pool.
type QueueConfig struct {
	Driver    string `mapstructure:"driver"`
	AMQPURL   string `mapstructure:"amqp_url"`
	QueueName string `mapstructure:"queue_name"`
}

type SchedulerConfig struct {
	IntervalMinutes   int `mapstructure:"interval_minutes"`
	StaleAfterSeconds int `mapstructure:"stale_after_seconds"`
	BatchSize         int `mapstructure:"batch_size"`
}

type MiddlewareConfig struct {
	RateLimit      int      `mapstructure:"rate_limit"`
	RateLimitBurst int      `mapstructure:"rate_limit_burst"`
	EnableCORS     bool     `mapstructure:"enable_cors"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LoadConfig reads configPath, then overlays environment variables
// (CARRIER_TOKEN overrides carrier.token). A .env file next to the binary is
// loaded first when present.
func LoadConfig(configPath string) (*Config, error) {
	_ = godotenv.Load()

	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// Watch re-reads the config file on every write and passes the new values to
// onChange. Only settings that are safe to change at runtime should be
// applied by the callback.
func Watch(onChange func(*Config, error)) {
	viper.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		var config Config
		if err := viper.Unmarshal(&config); err != nil {
			onChange(nil, fmt.Errorf("failed to unmarshal config after %s: %w", e.Name, err))
			return
		}
		onChange(&config, nil)
	})
	viper.WatchConfig()
}

func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.read_timeout", 10)
	viper.SetDefault("server.write_timeout", 30)
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.migrations_path", "./migrations")
	viper.SetDefault("database.auto_migrate", false)
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.cache_ttl_hours", 72)
	viper.SetDefault("carrier.url", "https://api.labsmobile.com/json/send")
	viper.SetDefault("carrier.timeout", 30)
	viper.SetDefault("carrier.rate_per_sec", 20)
	viper.SetDefault("carrier.test_mode", false)
	viper.SetDefault("carrier.circuit_breaker.max_requests", 3)
	viper.SetDefault("carrier.circuit_breaker.interval", 60)
	viper.SetDefault("carrier.circuit_breaker.timeout", 60)
	viper.SetDefault("carrier.circuit_breaker.failure_ratio", 0.6)
	viper.SetDefault("carrier.circuit_breaker.consecutive_fails", 5)
	viper.SetDefault("dispatch.batch_size", 100)
	viper.SetDefault("dispatch.workers", 8)
	viper.SetDefault("dispatch.queue_size", 1024)
	viper.SetDefault("dispatch.retry_max", 2)
	viper.SetDefault("dispatch.max_attempts", 5)
	viper.SetDefault("dispatch.max_parts", 3)
	viper.SetDefault("queue.driver", "memory")
	viper.SetDefault("queue.queue_name", "campaign_sends")
	viper.SetDefault("scheduler.interval_minutes", 2)
	viper.SetDefault("scheduler.stale_after_seconds", 300)
	viper.SetDefault("scheduler.batch_size", 50)
	viper.SetDefault("middleware.rate_limit", 100)
	viper.SetDefault("middleware.rate_limit_burst", 1000)
	viper.SetDefault("middleware.enable_cors", true)
	viper.SetDefault("middleware.allowed_origins", []string{"*"})
}

// GetDSN returns PostgreSQL connection string.
func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// GetURL returns the PostgreSQL connection string in URL form, as expected by
// golang-migrate.
func (d *DatabaseConfig) GetURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode)
}
