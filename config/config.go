package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Backend names accepted in GRADEBOOK_BACKEND.
const (
	BackendFile  = "file"
	BackendExcel = "xlsx"
	BackendRedis = "redis"
)

// Config holds the server configuration, read from the environment.
type Config struct {
	Addr     string `env:"GRADEBOOK_ADDR"      envDefault:":8080"`
	Backend  string `env:"GRADEBOOK_BACKEND"   envDefault:"file"`
	DataFile string `env:"GRADEBOOK_DATA_FILE" envDefault:"students.json"`
	XLSXFile string `env:"GRADEBOOK_XLSX_FILE" envDefault:"students.xlsx"`

	RedisAddr     string `env:"GRADEBOOK_REDIS_ADDR"     envDefault:"127.0.0.1:6379"`
	RedisPassword string `env:"GRADEBOOK_REDIS_PASSWORD"`
	RedisDB       int    `env:"GRADEBOOK_REDIS_DB"       envDefault:"0"`
	RedisKey      string `env:"GRADEBOOK_REDIS_KEY"      envDefault:"students"`

	LogLevel string `env:"GRADEBOOK_LOG_LEVEL" envDefault:"info"`
	Dev      bool   `env:"GRADEBOOK_DEV"       envDefault:"false"`
	Seed     bool   `env:"GRADEBOOK_SEED"      envDefault:"false"`
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Backend {
	case BackendFile:
		if c.DataFile == "" {
			return fmt.Errorf("GRADEBOOK_DATA_FILE is required for the %s backend", c.Backend)
		}
	case BackendExcel:
		if c.XLSXFile == "" {
			return fmt.Errorf("GRADEBOOK_XLSX_FILE is required for the %s backend", c.Backend)
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("GRADEBOOK_REDIS_ADDR is required for the %s backend", c.Backend)
		}
	default:
		return fmt.Errorf("unknown backend %q, expected %s, %s or %s", c.Backend, BackendFile, BackendExcel, BackendRedis)
	}
	return nil
}
