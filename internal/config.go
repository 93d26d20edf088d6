package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env       string          `mapstructure:"env"`
	Server    ServerConfig    `mapstructure:"http_server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Security  SecurityConfig  `mapstructure:"security"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Dialer    DialerConfig    `mapstructure:"dialer"`
	Mail      MailConfig      `mapstructure:"mail"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	OpenAPIPath       string        `mapstructure:"openapi_path"`
	ValidateRequests  bool          `mapstructure:"validate_requests"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Source          string        `mapstructure:"source"`
}

type SecurityConfig struct {
	AccessTokenSecret    string        `mapstructure:"access_token_secret"`
	RefreshTokenSecret   string        `mapstructure:"refresh_token_secret"`
	AccessTokenDuration  time.Duration `mapstructure:"access_token_duration"`
	RefreshTokenDuration time.Duration `mapstructure:"refresh_token_duration"`
	BCryptCost           int           `mapstructure:"bcrypt_cost"`
	MasterOTP            string        `mapstructure:"master_otp"`
	OTPTTL               time.Duration `mapstructure:"otp_ttl"`
}

type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"`
	Burst   int     `mapstructure:"burst"`
}

// DialerConfig points at the external AI dialer and sizes the scheduled-call runner.
type DialerConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxWorkers   int           `mapstructure:"max_workers"`
	JobQueueSize int           `mapstructure:"job_queue_size"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	BatchSize    int           `mapstructure:"batch_size"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
	// ReclaimAfter is how long a claimed call may stay DIALING before it is dialed again.
	ReclaimAfter time.Duration `mapstructure:"reclaim_after"`
}

type MailConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Username     string        `mapstructure:"username"`
	Password     string        `mapstructure:"password"`
	From         string        `mapstructure:"from"`
	ImplicitTLS  bool          `mapstructure:"implicit_tls"`
	MaxWorkers   int           `mapstructure:"max_workers"`
	QueueSize    int           `mapstructure:"queue_size"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfigFromEnv builds the configuration purely from APP_* variables.
func LoadConfigFromEnv() *Config {
	return &Config{
		Env: getEnv("APP_ENV", "production"),
		Server: ServerConfig{
			Port:              getEnvAsInt("APP_HTTP_SERVER_PORT", 8080),
			BaseURL:           getEnv("APP_HTTP_SERVER_BASE_URL", ""),
			AllowedOrigins:    getEnv("APP_HTTP_SERVER_ALLOWED_ORIGINS", "*"),
			OpenAPIPath:       getEnv("APP_HTTP_SERVER_OPENAPI_PATH", "./api/openapi.yml"),
			ValidateRequests:  getEnvAsBool("APP_HTTP_SERVER_VALIDATE_REQUESTS", true),
			ReadHeaderTimeout: getEnvAsDuration("APP_HTTP_SERVER_READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       getEnvAsDuration("APP_HTTP_SERVER_READ_TIMEOUT", 15*time.Second),
			IdleTimeout:       getEnvAsDuration("APP_HTTP_SERVER_IDLE_TIMEOUT", 60*time.Second),
			WriteTimeout:      getEnvAsDuration("APP_HTTP_SERVER_WRITE_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			MaxOpenConns:    getEnvAsInt("APP_DATABASE_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    getEnvAsInt("APP_DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("APP_DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("APP_DATABASE_CONN_MAX_IDLE_TIME", 5*time.Minute),
			Source:          getEnv("APP_DATABASE_SOURCE", ""),
		},
		Security: SecurityConfig{
			AccessTokenSecret:    getEnv("APP_SECURITY_ACCESS_TOKEN_SECRET", ""),
			RefreshTokenSecret:   getEnv("APP_SECURITY_REFRESH_TOKEN_SECRET", ""),
			AccessTokenDuration:  getEnvAsDuration("APP_SECURITY_ACCESS_TOKEN_DURATION", 15*time.Minute),
			RefreshTokenDuration: getEnvAsDuration("APP_SECURITY_REFRESH_TOKEN_DURATION", 7*24*time.Hour),
			BCryptCost:           getEnvAsInt("APP_SECURITY_BCRYPT_COST", 10),
			MasterOTP:            getEnv("APP_SECURITY_MASTER_OTP", ""),
			OTPTTL:               getEnvAsDuration("APP_SECURITY_OTP_TTL", 10*time.Minute),
		},
		RateLimit: RateLimitConfig{
			Enabled: getEnvAsBool("APP_RATE_LIMIT_ENABLED", true),
			RPS:     getEnvAsFloat("APP_RATE_LIMIT_RPS", 1),
			Burst:   getEnvAsInt("APP_RATE_LIMIT_BURST", 5),
		},
		Dialer: DialerConfig{
			BaseURL:      getEnv("APP_DIALER_BASE_URL", ""),
			Timeout:      getEnvAsDuration("APP_DIALER_TIMEOUT", 30*time.Second),
			MaxWorkers:   getEnvAsInt("APP_DIALER_MAX_WORKERS", 4),
			JobQueueSize: getEnvAsInt("APP_DIALER_JOB_QUEUE_SIZE", 100),
			PollInterval: getEnvAsDuration("APP_DIALER_POLL_INTERVAL", 30*time.Second),
			BatchSize:    getEnvAsInt("APP_DIALER_BATCH_SIZE", 20),
			MaxAttempts:  getEnvAsInt("APP_DIALER_MAX_ATTEMPTS", 3),
			ReclaimAfter: getEnvAsDuration("APP_DIALER_RECLAIM_AFTER", 10*time.Minute),
		},
		Mail: MailConfig{
			Host:         getEnv("APP_MAIL_HOST", ""),
			Port:         getEnvAsInt("APP_MAIL_PORT", 465),
			Username:     getEnv("APP_MAIL_USERNAME", ""),
			Password:     getEnv("APP_MAIL_PASSWORD", ""),
			From:         getEnv("APP_MAIL_FROM", ""),
			ImplicitTLS:  getEnvAsBool("APP_MAIL_IMPLICIT_TLS", true),
			MaxWorkers:   getEnvAsInt("APP_MAIL_MAX_WORKERS", 2),
			QueueSize:    getEnvAsInt("APP_MAIL_QUEUE_SIZE", 100),
			MaxRetries:   getEnvAsInt("APP_MAIL_MAX_RETRIES", 3),
			RetryBackoff: getEnvAsDuration("APP_MAIL_RETRY_BACKOFF", time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnv("APP_LOGGING_LEVEL", "info"),
			Format: getEnv("APP_LOGGING_FORMAT", "json"),
		},
	}
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if err := c.Dialer.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("dialer config: %v", err))
	}

	if err := c.Mail.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("mail config: %v", err))
	}

	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("logging config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.Source == "" {
		return errors.New("source is required")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *SecurityConfig) Validate() error {
	if len(c.AccessTokenSecret) < 32 {
		return errors.New("access_token_secret must be at least 32 characters")
	}
	if len(c.RefreshTokenSecret) < 32 {
		return errors.New("refresh_token_secret must be at least 32 characters")
	}
	if c.AccessTokenSecret == c.RefreshTokenSecret {
		return errors.New("access and refresh token secrets must differ")
	}
	if c.AccessTokenDuration <= 0 || c.RefreshTokenDuration <= c.AccessTokenDuration {
		return errors.New("refresh_token_duration must be longer than access_token_duration")
	}
	if c.BCryptCost < 4 || c.BCryptCost > 15 {
		return errors.New("bcrypt_cost must be between 4 and 15")
	}
	if c.MasterOTP != "" && len(c.MasterOTP) != 6 {
		return errors.New("master_otp must be 6 characters")
	}
	return nil
}

func (c *DialerConfig) Validate() error {
	if c.BaseURL == "" {
		return nil
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid base_url %q", c.BaseURL)
	}
	if c.MaxAttempts < 0 {
		return errors.New("max_attempts cannot be negative")
	}
	if c.ReclaimAfter > 0 && c.ReclaimAfter <= c.Timeout {
		return errors.New("reclaim_after must be longer than timeout")
	}
	return nil
}

func (c *MailConfig) Validate() error {
	if c.Host == "" {
		return nil
	}
	if c.Port <= 0 {
		return errors.New("port is required when host is set")
	}
	if c.From == "" && c.Username == "" {
		return errors.New("from or username is required when host is set")
	}
	return nil
}

// Sender is the envelope sender, falling back to the SMTP username.
func (c *MailConfig) Sender() string {
	if c.From != "" {
		return c.From
	}
	return c.Username
}

func (c *LoggingConfig) Validate() error {
	switch strings.ToLower(c.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown level %q", c.Level)
	}
	switch strings.ToLower(c.Format) {
	case "", "json", "text":
	default:
		return fmt.Errorf("unknown format %q", c.Format)
	}
	return nil
}
