package config

import "time"

const (
	EnvDev   = "dev"
	EnvProd  = "prod"
	EnvLocal = "local"
)

var globalConfig *Config

func Global() *Config {
	return globalConfig
}

func SetGlobal(cfg *Config) {
	globalConfig = cfg
}

type Config struct {
	Env      string `env:"ENV" env-required:"true"`
	HTTP     HTTPConfig
	Postgres PostgresConfig
	Realtime RealtimeConfig
	Metrics  MetricsConfig
}

type HTTPConfig struct {
	Host              string        `env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port              string        `env:"HTTP_PORT" env-default:"5000"`
	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" env-default:"10s"`
	ShutdownTimeout   time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

type PostgresConfig struct {
	Host           string        `env:"POSTGRES_HOST" env-required:"true"`
	Port           int           `env:"POSTGRES_PORT" env-default:"5432"`
	Username       string        `env:"POSTGRES_USERNAME" env-required:"true"`
	Password       string        `env:"POSTGRES_PASSWORD" env-required:"true"`
	Database       string        `env:"POSTGRES_DATABASE" env-required:"true"`
	SSLMode        string        `env:"POSTGRES_SSL_MODE" env-default:"disable"`
	ConnectTimeout time.Duration `env:"POSTGRES_CONNECT_TIMEOUT" env-default:"10s"`
	PingTimeout    time.Duration `env:"POSTGRES_PING_TIMEOUT" env-default:"10s"`
	MaxConns       int32         `env:"POSTGRES_MAX_CONNS" env-default:"10"`
}

// RealtimeConfig tunes the live connection pumps.
type RealtimeConfig struct {
	SendBuffer     int           `env:"REALTIME_SEND_BUFFER" env-default:"256"`
	WriteWait      time.Duration `env:"REALTIME_WRITE_WAIT" env-default:"10s"`
	PongWait       time.Duration `env:"REALTIME_PONG_WAIT" env-default:"60s"`
	MaxMessageSize int64         `env:"REALTIME_MAX_MESSAGE_SIZE" env-default:"524288"`
	// Upgrade requests offering one of these subprotocols are refused.
	RejectedSubprotocols []string `env:"REALTIME_REJECTED_SUBPROTOCOLS" env-default:"vite-hmr" env-separator:","`
}

type MetricsConfig struct {
	APIPrefix      string        `env:"METRICS_API_PREFIX" env-default:"/api"`
	PersistTimeout time.Duration `env:"METRICS_PERSIST_TIMEOUT" env-default:"5s"`
	RecentLimit    int           `env:"METRICS_RECENT_LIMIT" env-default:"100"`
}
