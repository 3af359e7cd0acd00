package app

import (
	_ "github.com/joho/godotenv/autoload"

	"github.com/adanyl0v/go-tasksync/internal/config"
)

func MustReadEnv() {
	cfg, err := config.NewEnvReader().Read()
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to read env")
		panic(err)
	}
	globalLogger.Info().
		Str("env", cfg.Env).
		Str("http_port", cfg.HTTP.Port).
		Str("metrics_api_prefix", cfg.Metrics.APIPrefix).
		Strs("rejected_subprotocols", cfg.Realtime.RejectedSubprotocols).
		Msg("read env")

	config.SetGlobal(cfg)
}
