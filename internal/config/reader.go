package config

import (
	"errors"
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

type Reader interface {
	Read() (*Config, error)
}

// EnvReader loads the configuration from the process environment. Variables
// from a .env file are already exported by godotenv/autoload in the app
// package.
type EnvReader struct{}

func NewEnvReader() EnvReader {
	return EnvReader{}
}

func (EnvReader) Read() (*Config, error) {
	cfg := new(Config)
	err := cleanenv.ReadEnv(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to read env: %w", err)
	}

	if cfg.Google.Enabled() && cfg.Google.RedirectURL == "" {
		return nil, errors.New("failed to read env: GOOGLE_REDIRECT_URL is required when GOOGLE_CLIENT_ID is set")
	}
	return cfg, nil
}
