package config

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const defaultJWTSecret = "your-secret-key"

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Tasks     TasksConfig
	CORS      CORSConfig
	Log       LogConfig
}

type ServerConfig struct {
	Host         string        `env:"HOST, default=localhost"`
	Port         string        `env:"PORT, default=8080"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT, default=30s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT, default=30s"`
	IdleTimeout  time.Duration `env:"IDLE_TIMEOUT, default=60s"`
	Environment  string        `env:"ENVIRONMENT, default=development"`
}

type DatabaseConfig struct {
	Driver          string        `env:"DB_DRIVER, default=postgres"`
	Host            string        `env:"DB_HOST, default=localhost"`
	Port            string        `env:"DB_PORT, default=5432"`
	User            string        `env:"DB_USER, default=postgres"`
	Password        string        `env:"DB_PASSWORD"`
	Name            string        `env:"DB_NAME, default=task_manager"`
	SSLMode         string        `env:"DB_SSL_MODE, default=disable"`
	SQLitePath      string        `env:"DB_SQLITE_PATH, default=task_manager.db"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS, default=25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS, default=10"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME, default=1h"`
	ConnMaxIdleTime time.Duration `env:"DB_CONN_MAX_IDLE_TIME, default=30m"`
}

type RedisConfig struct {
	Enabled      bool          `env:"REDIS_ENABLED, default=true"`
	Host         string        `env:"REDIS_HOST, default=localhost"`
	Port         string        `env:"REDIS_PORT, default=6379"`
	Password     string        `env:"REDIS_PASSWORD"`
	DB           int           `env:"REDIS_DB, default=0"`
	PoolSize     int           `env:"REDIS_POOL_SIZE, default=10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS, default=5"`
	MaxRetries   int           `env:"REDIS_MAX_RETRIES, default=3"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT, default=5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT, default=3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT, default=3s"`
}

type AuthConfig struct {
	JWTSecret         string        `env:"JWT_SECRET, default=your-secret-key"`
	Issuer            string        `env:"JWT_ISSUER, default=task-manager"`
	AccessTokenTTL    time.Duration `env:"ACCESS_TOKEN_TTL, default=15m"`
	RefreshTokenTTL   time.Duration `env:"REFRESH_TOKEN_TTL, default=24h"`
	BCryptCost        int           `env:"BCRYPT_COST, default=10"`
	PasswordMinLength int           `env:"AUTH_PASSWORD_MIN_LENGTH, default=8"`
}

type RateLimitConfig struct {
	Enabled        bool `env:"RATE_LIMIT_ENABLED, default=true"`
	RequestsPerMin int  `env:"RATE_LIMIT_RPM, default=100"`
	BurstSize      int  `env:"RATE_LIMIT_BURST, default=10"`
}

// TasksConfig holds task listing settings. PageSize is not client-controlled.
type TasksConfig struct {
	PageSize int `env:"TASKS_PAGE_SIZE, default=5"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS, default=http://localhost:3000"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL, default=info"`
	Pretty bool   `env:"LOG_PRETTY, default=false"`
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig(ctx context.Context) (*Config, error) {
	_ = godotenv.Load()
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom builds a Config from the given lookuper.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var config Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &config,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	if c.IsProduction() && c.Database.Driver == "postgres" && c.Database.Password == "" {
		return errors.New("database password is required in production")
	}

	if c.IsProduction() && c.Auth.JWTSecret == defaultJWTSecret {
		return errors.New("JWT secret must be set in production")
	}

	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.Tasks.PageSize < 1 {
		return fmt.Errorf("tasks page size must be positive, got %d", c.Tasks.PageSize)
	}

	if c.Auth.AccessTokenTTL <= 0 || c.Auth.RefreshTokenTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}

	return nil
}

func (c *Config) GetDatabaseDSN() string {
	if c.Database.Driver == "sqlite" {
		return c.Database.SQLitePath
	}

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func (c *Config) GetRedisAddr() string {
	return net.JoinHostPort(c.Redis.Host, c.Redis.Port)
}

func (c *Config) GetServerAddr() string {
	return net.JoinHostPort(c.Server.Host, c.Server.Port)
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
