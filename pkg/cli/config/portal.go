package config

import (
	"time"

	"github.com/kmafetch/kmafetch/pkg/domain/interfaces"
	"github.com/kmafetch/kmafetch/pkg/infra/portal"
	"github.com/urfave/cli/v3"
)

// Portal holds KMA data portal client settings
type Portal struct {
	BaseURL   string
	Delay     time.Duration
	LoginWait time.Duration
	Timeout   time.Duration
}

func (c *Portal) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "portal-url",
			Usage:       "KMA data portal base URL",
			Value:       portal.DefaultBaseURL,
			Destination: &c.BaseURL,
			Sources:     cli.EnvVars("KMA_PORTAL_URL"),
		},
		&cli.DurationFlag{
			Name:        "portal-delay",
			Usage:       "Minimum interval between portal requests",
			Value:       500 * time.Millisecond,
			Destination: &c.Delay,
			Sources:     cli.EnvVars("KMA_PORTAL_DELAY"),
		},
		&cli.DurationFlag{
			Name:        "portal-login-wait",
			Usage:       "Wait after login before the first request",
			Value:       2 * time.Second,
			Destination: &c.LoginWait,
			Sources:     cli.EnvVars("KMA_PORTAL_LOGIN_WAIT"),
		},
		&cli.DurationFlag{
			Name:        "portal-timeout",
			Usage:       "Timeout of a single portal request",
			Value:       60 * time.Second,
			Destination: &c.Timeout,
			Sources:     cli.EnvVars("KMA_PORTAL_TIMEOUT"),
		},
	}
}

func (c *Portal) Factory() interfaces.PortalClientFactory {
	return portal.NewFactory(
		portal.WithBaseURL(c.BaseURL),
		portal.WithLoginWait(c.LoginWait),
		portal.WithTimeout(c.Timeout),
	)
}

// Credentials are the portal account used by batch commands
type Credentials struct {
	LoginID  string
	Password string `masq:"secret"`
}

func (c *Credentials) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "login-id",
			Usage:       "KMA data portal login id",
			Required:    true,
			Destination: &c.LoginID,
			Sources:     cli.EnvVars("KMA_LOGIN_ID"),
		},
		&cli.StringFlag{
			Name:        "password",
			Usage:       "KMA data portal password",
			Required:    true,
			Destination: &c.Password,
			Sources:     cli.EnvVars("KMA_PASSWORD"),
		},
	}
}
