package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	Environment     string        `env:"SERVICE_ENVIRONMENT" envDefault:"development"`
	HTTPAddr         string        `env:"HTTP_ADDR" envDefault:":8080"`
	HTTPReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	HTTPWriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	HTTPIdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	StoreDriver    string `env:"STORE_DRIVER" envDefault:"postgres"`
	DBUser         string `env:"DB_USER"`
	DBPassword     string `env:"DB_PASSWORD"`
	DBHost         string `env:"DB_HOST" envDefault:"localhost"`
	DBPort         int    `env:"DB_PORT" envDefault:"5432"`
	DBName         string `env:"DB_NAME"`
	DBSSLMode      string `env:"DB_SSLMODE" envDefault:"disable"`
	DBMaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`

	// MemoryUsersFile seeds the user directory when STORE_DRIVER=memory.
	MemoryUsersFile string `env:"MEMORY_USERS_FILE" envDefault:"seed/users.json"`

	// AMQPURL empty means launch events stay in process.
	AMQPURL         string `env:"AMQP_URL"`
	AMQPLaunchQueue string `env:"AMQP_LAUNCH_QUEUE" envDefault:"campaign_launches"`

	DefaultMaxSharePerDept float64       `env:"GROUPING_MAX_SHARE_PER_DEPT" envDefault:"0.2"`
	GroupingLockLease      time.Duration `env:"GROUPING_LOCK_LEASE" envDefault:"2m"`
}

// Load reads .env files (if any) into the process environment and parses it.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && len(files) > 0 {
		return nil, fmt.Errorf("failed to load env files: %w", err)
	}
	return Parse()
}

// Parse reads configuration from the current environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DBName == "" {
			return fmt.Errorf("DB_NAME is required when STORE_DRIVER=%s", StoreDriverPostgres)
		}
	case StoreDriverMemory:
		if c.MemoryUsersFile == "" {
			return fmt.Errorf("MEMORY_USERS_FILE is required when STORE_DRIVER=%s", StoreDriverMemory)
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.DefaultMaxSharePerDept <= 0 || c.DefaultMaxSharePerDept > 1 {
		return fmt.Errorf("GROUPING_MAX_SHARE_PER_DEPT must be in (0,1], got %v", c.DefaultMaxSharePerDept)
	}
	if c.GroupingLockLease <= 0 {
		return fmt.Errorf("GROUPING_LOCK_LEASE must be positive, got %v", c.GroupingLockLease)
	}
	return nil
}
