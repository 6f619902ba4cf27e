package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

// Config holds the session-layer runtime configuration.
type Config struct {
	MongoURI         string        `env:"MONGO_URI"`
	MongoDatabase    string        `env:"MONGO_DATABASE"     envDefault:"authsession"`
	AuthReadyTimeout time.Duration `env:"AUTH_READY_TIMEOUT" envDefault:"10s"`

	JWTSecret string        `env:"JWT_SECRET"`
	JWTIssuer string        `env:"JWT_ISSUER" envDefault:"authsession"`
	TokenTTL  time.Duration `env:"TOKEN_TTL"  envDefault:"15m"`

	// GoogleClientID enables Google sign-in when set.
	GoogleClientID string `env:"GOOGLE_CLIENT_ID"`

	// DevUserEmail/DevUserPassword seed one account into the local provider
	// at startup. Both or neither must be set.
	DevUserEmail    string `env:"DEV_USER_EMAIL"`
	DevUserPassword string `env:"DEV_USER_PASSWORD"`
}

// New creates a Config instance from environment variables.
func New(logger *zerolog.Logger) *Config {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse environment variables")
	}

	if err := cfg.validate(); err != nil {
		logger.Fatal().Err(err).Msg("failed to validate configuration")
	}

	return &cfg
}

// validate checks if the configuration is valid.
func (c *Config) validate() error {
	if c.MongoURI == "" {
		return fmt.Errorf("missing MONGO_URI environment variable")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("missing JWT_SECRET environment variable")
	}
	if (c.DevUserEmail == "") != (c.DevUserPassword == "") {
		return fmt.Errorf("DEV_USER_EMAIL and DEV_USER_PASSWORD must be set together")
	}

	return nil
}
