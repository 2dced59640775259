package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/Rrens/identity-api/internal/domain"
	"github.com/Rrens/identity-api/internal/security"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Tokens   TokensConfig   `mapstructure:"tokens"`
	Session  SessionConfig  `mapstructure:"session"`
	Security SecurityConfig `mapstructure:"security"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	MiddlewareTimeout time.Duration `mapstructure:"middleware_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongodb"
)

type DatabaseConfig struct {
	Driver      string `mapstructure:"driver"`
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	Database    string `mapstructure:"database"`
	SSLMode     string `mapstructure:"ssl_mode"`
	Path        string `mapstructure:"path"`
	MaxConns    int32  `mapstructure:"max_conns"`
	MinConns    int32  `mapstructure:"min_conns"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

// DSN returns the connection string for the configured driver
func (c DatabaseConfig) DSN() string {
	switch c.Driver {
	case DriverMySQL:
		return fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?parseTime=true",
			c.User, c.Password, c.Host, c.Port, c.Database,
		)
	case DriverSQLite:
		return fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", c.Path)
	case DriverMongo:
		u := url.URL{Scheme: "mongodb", Host: fmt.Sprintf("%s:%d", c.Host, c.Port)}
		if c.User != "" {
			u.User = url.UserPassword(c.User, c.Password)
		}
		return u.String()
	default:
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(c.User, c.Password),
			Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
			Path:     c.Database,
			RawQuery: "sslmode=" + c.SSLMode,
		}
		return u.String()
	}
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// TokensConfig mirrors the Tokens:* settings: lifetime is in seconds
type TokensConfig struct {
	Key      string `mapstructure:"key"`
	Lifetime int    `mapstructure:"lifetime"`
	Audience string `mapstructure:"audience"`
	Issuer   string `mapstructure:"issuer"`
}

// TokenConfig converts the settings for the token issuer
func (c TokensConfig) TokenConfig() security.TokenConfig {
	return security.TokenConfig{
		Key:      c.Key,
		Lifetime: time.Duration(c.Lifetime) * time.Second,
		Audience: c.Audience,
		Issuer:   c.Issuer,
	}
}

type SessionConfig struct {
	CookieName    string        `mapstructure:"cookie_name"`
	CookieSecure  bool          `mapstructure:"cookie_secure"`
	TTL           time.Duration `mapstructure:"ttl"`
	PersistentTTL time.Duration `mapstructure:"persistent_ttl"`
}

type SecurityConfig struct {
	BcryptCost int             `mapstructure:"bcrypt_cost"`
	RateLimit  RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
	Burst             int  `mapstructure:"burst"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	// AllowCredentials needs an explicit origin list; browsers reject
	// credentialed responses for "*"
	AllowCredentials bool `mapstructure:"allow_credentials"`
	MaxAge           int  `mapstructure:"max_age"`
}

func (c CORSConfig) wildcard() bool {
	for _, origin := range c.AllowedOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

type LoggingConfig struct {
	Level        string        `mapstructure:"level"`
	Format       string        `mapstructure:"format"`
	File         string        `mapstructure:"file"`
	MaxAge       time.Duration `mapstructure:"max_age"`
	RotationTime time.Duration `mapstructure:"rotation_time"`
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	// Set config file path
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/config.yaml"
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// Set defaults
	setDefaults(v)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	// Override with environment variables
	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate reports every missing or invalid setting at once
func (c *Config) Validate() error {
	var problems []string

	var cfgErr *domain.ConfigurationError
	if err := c.Tokens.TokenConfig().Validate(); errors.As(err, &cfgErr) {
		problems = append(problems, cfgErr.Problems...)
	}

	switch c.Database.Driver {
	case DriverPostgres, DriverMySQL, DriverMongo:
	case DriverSQLite:
		if c.Database.Path == "" {
			problems = append(problems, "database path is required for sqlite")
		}
	default:
		problems = append(problems, fmt.Sprintf("unsupported database driver %q", c.Database.Driver))
	}

	if c.Session.CookieName == "" {
		problems = append(problems, "session cookie name is required")
	}
	if c.Session.TTL <= 0 || c.Session.PersistentTTL <= 0 {
		problems = append(problems, "session lifetimes must be positive")
	}

	if c.CORS.AllowCredentials && (len(c.CORS.AllowedOrigins) == 0 || c.CORS.wildcard()) {
		problems = append(problems, "cors credentials require an explicit origin list")
	}

	if len(problems) > 0 {
		return &domain.ConfigurationError{Problems: problems}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.middleware_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// Database
	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "identity")
	v.SetDefault("database.database", "identity")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.path", "identity.db")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.auto_migrate", false)

	// Redis
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	// Tokens
	v.SetDefault("tokens.lifetime", 3600)

	// Session
	v.SetDefault("session.cookie_name", "identity.session")
	v.SetDefault("session.cookie_secure", false)
	v.SetDefault("session.ttl", "20m")
	v.SetDefault("session.persistent_ttl", "336h") // 14 days

	// Security
	v.SetDefault("security.bcrypt_cost", 12)
	v.SetDefault("security.rate_limit.enabled", true)
	v.SetDefault("security.rate_limit.requests_per_minute", 20)
	v.SetDefault("security.rate_limit.burst", 5)

	// CORS
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 300)

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.max_age", "168h")
	v.SetDefault("logging.rotation_time", "24h")
}

func bindEnvVars(v *viper.Viper) {
	// Database
	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.password", "DATABASE_PASSWORD")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Tokens
	v.BindEnv("tokens.key", "TOKENS_KEY")
	v.BindEnv("tokens.lifetime", "TOKENS_LIFETIME")
	v.BindEnv("tokens.audience", "TOKENS_AUDIENCE")
	v.BindEnv("tokens.issuer", "TOKENS_ISSUER")

	// Logging
	v.BindEnv("logging.level", "LOG_LEVEL")
}
