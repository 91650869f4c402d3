// Package config provides configuration management for the application.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server         ServerConfig              `mapstructure:"server"`
	Database       DatabaseConfig            `mapstructure:"database"`
	Redis          RedisConfig               `mapstructure:"redis"`
	Queue          QueueConfig               `mapstructure:"queue"`
	Dispatch       DispatchConfig            `mapstructure:"dispatch"`
	Tokens         TokensConfig              `mapstructure:"tokens"`
	Scheduler      SchedulerConfig           `mapstructure:"scheduler"`
	CircuitBreaker CircuitBreakerConfig      `mapstructure:"circuit_breaker"`
	Auth           AuthConfig                `mapstructure:"auth"`
	Middleware     MiddlewareConfig          `mapstructure:"middleware"`
	Providers      map[string]ProviderConfig `mapstructure:"providers"`
}

type ServerConfig struct {
	Port         string `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// QueueConfig selects the job broker and worker pool sizing.
type QueueConfig struct {
	Driver         string `mapstructure:"driver"`
	Name           string `mapstructure:"name"`
	AMQPURL        string `mapstructure:"amqp_url"`
	Workers        int    `mapstructure:"workers"`
	MaxAttempts    int    `mapstructure:"max_attempts"`
	PollInterval   int    `mapstructure:"poll_interval_ms"`
	RefreshTimeout int    `mapstructure:"refresh_timeout"`
	SendJobTimeout int    `mapstructure:"send_job_timeout"`
}

type DispatchConfig struct {
	CallbackBaseURL string `mapstructure:"callback_base_url"`
	DefaultSender   string `mapstructure:"default_sender"`
	SendTimeout     int    `mapstructure:"send_timeout"`
	LockTTL         int    `mapstructure:"lock_ttl"`
}

type TokensConfig struct {
	LookaheadHours int `mapstructure:"lookahead_hours"`
}

type SchedulerConfig struct {
	TokenRefreshIntervalHours int `mapstructure:"token_refresh_interval_hours"`
	StatusPollIntervalMinutes int `mapstructure:"status_poll_interval_minutes"`
	StatusPollBatchSize       int `mapstructure:"status_poll_batch_size"`
	StatusPollWindowDays      int `mapstructure:"status_poll_window_days"`
}

type CircuitBreakerConfig struct {
	MaxRequests      uint32  `mapstructure:"max_requests"`
	Interval         int     `mapstructure:"interval"`
	Timeout          int     `mapstructure:"timeout"`
	FailureRatio     float64 `mapstructure:"failure_ratio"`
	ConsecutiveFails uint32  `mapstructure:"consecutive_fails"`
}

// AuthConfig configures bearer-token authentication for API clients.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

type MiddlewareConfig struct {
	RateLimit      int      `mapstructure:"rate_limit"`
	RateLimitBurst int      `mapstructure:"rate_limit_burst"`
	EnableCORS     bool     `mapstructure:"enable_cors"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ProviderConfig holds the endpoint and secrets of one vendor.
type ProviderConfig struct {
	BaseURL            string `mapstructure:"base_url"`
	Email              string `mapstructure:"email"`
	Password           string `mapstructure:"password"`
	Username           string `mapstructure:"username"`
	APIKey             string `mapstructure:"api_key"`
	Sender             string `mapstructure:"sender"`
	Timeout            int    `mapstructure:"timeout"`
	TokenLifetimeHours int    `mapstructure:"token_lifetime_hours"`
}

func LoadConfig(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// AutomaticEnv only applies to keys viper already knows about, so
	// vendor secrets that are absent from the file are resolved here.
	for name, pc := range config.Providers {
		prefix := "providers." + name + "."
		pc.Email = firstNonEmpty(v.GetString(prefix+"email"), pc.Email)
		pc.Password = firstNonEmpty(v.GetString(prefix+"password"), pc.Password)
		pc.Username = firstNonEmpty(v.GetString(prefix+"username"), pc.Username)
		pc.APIKey = firstNonEmpty(v.GetString(prefix+"api_key"), pc.APIKey)
		config.Providers[name] = pc
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.db", 0)
	v.SetDefault("queue.driver", "redis")
	v.SetDefault("queue.name", "sms")
	v.SetDefault("queue.workers", 4)
	v.SetDefault("queue.max_attempts", 3)
	v.SetDefault("queue.poll_interval_ms", 1000)
	v.SetDefault("queue.refresh_timeout", 300)
	v.SetDefault("dispatch.send_timeout", 30)
	v.SetDefault("dispatch.lock_ttl", 120)
	v.SetDefault("dispatch.default_sender", "4546")
	v.SetDefault("tokens.lookahead_hours", 48)
	v.SetDefault("scheduler.token_refresh_interval_hours", 240)
	v.SetDefault("scheduler.status_poll_interval_minutes", 5)
	v.SetDefault("scheduler.status_poll_batch_size", 50)
	v.SetDefault("scheduler.status_poll_window_days", 7)
	v.SetDefault("circuit_breaker.max_requests", 3)
	v.SetDefault("circuit_breaker.interval", 60)
	v.SetDefault("circuit_breaker.timeout", 60)
	v.SetDefault("circuit_breaker.failure_ratio", 0.6)
	v.SetDefault("circuit_breaker.consecutive_fails", 5)
	v.SetDefault("auth.issuer", "smshub")
	v.SetDefault("middleware.rate_limit", 100)
	v.SetDefault("middleware.rate_limit_burst", 1000)
	v.SetDefault("middleware.enable_cors", true)
	v.SetDefault("middleware.allowed_origins", []string{"*"})
}

// Validate checks settings that have no usable default.
func (c *Config) Validate() error {
	switch c.Queue.Driver {
	case "redis":
	case "rabbitmq":
		if c.Queue.AMQPURL == "" {
			return errors.New("queue.amqp_url is required for the rabbitmq driver")
		}
	default:
		return fmt.Errorf("unknown queue driver %q", c.Queue.Driver)
	}
	if c.Queue.Workers < 1 {
		return errors.New("queue.workers must be positive")
	}
	if c.Queue.SendJobTimeout > 0 && c.Queue.SendJobTimeout <= c.Dispatch.SendTimeout {
		return errors.New("queue.send_job_timeout must exceed dispatch.send_timeout")
	}
	return nil
}

const sendJobMargin = 15 * time.Second

// SendJobTimeout bounds one sms.send job. When unset it allows every
// configured vendor its full send timeout.
func (c *Config) SendJobTimeout() time.Duration {
	if c.Queue.SendJobTimeout > 0 {
		return time.Duration(c.Queue.SendJobTimeout) * time.Second
	}
	vendors := len(c.Providers)
	if vendors < 1 {
		vendors = 1
	}
	return time.Duration(vendors)*c.Dispatch.SendTimeoutDuration() + sendJobMargin
}

// GetDSN returns PostgreSQL connection string.
func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// GetAddr returns the Redis host:port address.
func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// SendTimeoutDuration bounds a single vendor send call.
func (d *DispatchConfig) SendTimeoutDuration() time.Duration {
	return time.Duration(d.SendTimeout) * time.Second
}

// CallbackURL builds the delivery webhook URL for a provider.
func (d *DispatchConfig) CallbackURL(provider string) string {
	if d.CallbackBaseURL == "" {
		return ""
	}
	return strings.TrimRight(d.CallbackBaseURL, "/") + "/v1/webhooks/" + provider + "/delivery"
}

func (t *TokensConfig) Lookahead() time.Duration {
	return time.Duration(t.LookaheadHours) * time.Hour
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
