package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

type Config struct {
	Port        string        `env:"PORT,default=5000"`
	StoreDriver string        `env:"STORE_DRIVER,default=postgres"`
	DatabaseURL string        `env:"DATABASE_URL,default=host=localhost user=postgres password=password dbname=jobtracker port=5432 sslmode=disable"`
	MongoURI    string        `env:"MONGO_URI,default=mongodb://localhost:27017"`
	MongoDB     string        `env:"MONGO_DATABASE,default=employer-management"`
	TokenSecret string        `env:"ACCESS_TOKEN_SECRET,required"`
	TokenTTL    time.Duration `env:"TOKEN_TTL,default=24h"`
	LogLevel    string        `env:"LOG_LEVEL,default=info"`
	LogFormat   string        `env:"LOG_FORMAT,default=text"`
	GinMode     string        `env:"GIN_MODE,default=release"`
	// Semicolon separated, "*" allows any origin.
	AllowOrigins []string `env:"CORS_ALLOW_ORIGINS,default=*"`
}

// Load reads an optional .env file and decodes the environment into a Config.
func Load() (*Config, error) {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverPostgres, DriverMongo, DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("unknown GIN_MODE %q", c.GinMode)
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	if strings.TrimSpace(c.TokenSecret) == "" {
		return errors.New("ACCESS_TOKEN_SECRET must not be blank")
	}
	return nil
}

func (c *Config) Addr() string {
	return ":" + c.Port
}

func (c *Config) AllowsAnyOrigin() bool {
	for _, o := range c.AllowOrigins {
		if o == "*" {
			return true
		}
	}
	return len(c.AllowOrigins) == 0
}
