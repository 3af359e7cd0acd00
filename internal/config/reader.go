package config

import (
	"fmt"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

type Reader interface {
	Read() (*Config, error)
}

type EnvReader struct{}

func NewEnvReader() EnvReader {
	return EnvReader{}
}

func (EnvReader) Read() (*Config, error) {
	cfg := new(Config)
	err := cleanenv.ReadEnv(cfg)
	if err != nil {
		return nil, err
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects values cleanenv accepts but the server cannot run with.
func (c *Config) Validate() error {
	switch c.Env {
	case EnvDev, EnvProd, EnvLocal:
	default:
		return fmt.Errorf("unknown env: %s", c.Env)
	}

	if c.Postgres.MaxConns <= 0 {
		return fmt.Errorf("postgres max conns must be positive, got %d", c.Postgres.MaxConns)
	}
	if c.Realtime.SendBuffer <= 0 {
		return fmt.Errorf("realtime send buffer must be positive, got %d", c.Realtime.SendBuffer)
	}
	if c.Realtime.WriteWait <= 0 {
		return fmt.Errorf("realtime write wait must be positive, got %s", c.Realtime.WriteWait)
	}
	if c.Realtime.PongWait <= 0 {
		return fmt.Errorf("realtime pong wait must be positive, got %s", c.Realtime.PongWait)
	}
	if c.Metrics.RecentLimit <= 0 || c.Metrics.RecentLimit > 100 {
		return fmt.Errorf("metrics recent limit must be in [1, 100], got %d", c.Metrics.RecentLimit)
	}
	if c.Metrics.PersistTimeout <= 0 {
		return fmt.Errorf("metrics persist timeout must be positive, got %s", c.Metrics.PersistTimeout)
	}
	// The prefix also mounts the API routes, so "/" would shadow the live endpoint.
	prefix := strings.TrimSuffix(c.Metrics.APIPrefix, "/")
	if prefix == "" || prefix[0] != '/' {
		return fmt.Errorf("metrics api prefix must be a non-root path starting with '/', got %q", c.Metrics.APIPrefix)
	}
	return nil
}
