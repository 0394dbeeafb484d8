package app

import (
	_ "github.com/joho/godotenv/autoload"

	"github.com/adanyl0v/go-todo-lists/internal/config"
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
		Bool("google_sign_in", cfg.Google.Enabled()).
		Bool("notifications", cfg.Notify.Enabled).
		Msg("read env")

	config.SetGlobal(cfg)
}
