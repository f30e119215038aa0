package config

import (
	"fmt"
	"log/slog"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr   string        `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath     string        `env:"DB_PATH" envDefault:"data/comhodl.db"`
	LogLevel   slog.Level    `env:"LOG_LEVEL" envDefault:"INFO"`
	JWTSecret  string        `env:"JWT_SECRET,required,notEmpty"`
	JWTTTL     time.Duration `env:"JWT_TTL" envDefault:"1h"`
	RedisURL   string        `env:"REDIS_URL"`
	SeedDemo   bool          `env:"SEED_DEMO" envDefault:"true"`
	CORSOrigin string        `env:"CORS_ORIGIN" envDefault:"*"`
	TimeZone   string        `env:"TIME_ZONE" envDefault:"Europe/Paris"`

	location *time.Location
}

// Location is the loaded TIME_ZONE, where reward hours are read.
func (c *Config) Location() *time.Location { return c.location }

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.location, err = time.LoadLocation(cfg.TimeZone); err != nil {
		return nil, fmt.Errorf("loading TIME_ZONE %q: %w", cfg.TimeZone, err)
	}
	return &cfg, nil
}

// Client configures the hodos terminal client.
type Client struct {
	APIURL    string        `env:"HODOS_API_URL" envDefault:"http://localhost:8080"`
	StatePath string        `env:"HODOS_STATE" envDefault:"hodos-state.db"`
	Timeout   time.Duration `env:"HODOS_TIMEOUT" envDefault:"10s"`
	LogLevel  slog.Level    `env:"LOG_LEVEL" envDefault:"WARN"`
}

func LoadClient() (*Client, error) {
	cfg, err := env.ParseAs[Client]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
