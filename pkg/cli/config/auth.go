package config

import (
	"time"

	"github.com/urfave/cli/v3"
)

// Auth holds bearer token settings
type Auth struct {
	JWTSecret string `masq:"secret"`
	TokenTTL  time.Duration
}

func (c *Auth) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "jwt-secret",
			Usage:       "HS256 signing key of access tokens (random per process when empty)",
			Destination: &c.JWTSecret,
			Sources:     cli.EnvVars("KMA_JWT_SECRET", "SECRET_KEY"),
		},
		&cli.DurationFlag{
			Name:        "token-ttl",
			Usage:       "Lifetime of access tokens",
			Value:       60 * time.Minute,
			Destination: &c.TokenTTL,
			Sources:     cli.EnvVars("KMA_TOKEN_TTL"),
		},
	}
}
