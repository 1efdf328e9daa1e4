package config

import (
	"time"

	"github.com/kmafetch/kmafetch/pkg/domain/interfaces"
	"github.com/kmafetch/kmafetch/pkg/infra/asos"
	"github.com/urfave/cli/v3"
)

// ASOS holds public data API settings
type ASOS struct {
	ServiceKey string `masq:"secret"`
	BaseURL    string
	Retry      int
	Backoff    time.Duration
}

func (c *ASOS) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "service-key",
			Usage:       "data.go.kr service key for the ASOS API",
			Destination: &c.ServiceKey,
			Sources:     cli.EnvVars("KMA_SERVICE_KEY", "SERVICE_KEY"),
		},
		&cli.StringFlag{
			Name:        "asos-url",
			Usage:       "ASOS API base URL",
			Value:       asos.DefaultBaseURL,
			Destination: &c.BaseURL,
			Sources:     cli.EnvVars("KMA_ASOS_URL"),
		},
		&cli.IntFlag{
			Name:        "asos-retry",
			Usage:       "Attempts per ASOS page",
			Value:       3,
			Destination: &c.Retry,
			Sources:     cli.EnvVars("KMA_ASOS_RETRY"),
		},
		&cli.DurationFlag{
			Name:        "asos-backoff",
			Usage:       "Wait between ASOS attempts",
			Value:       time.Second,
			Destination: &c.Backoff,
			Sources:     cli.EnvVars("KMA_ASOS_BACKOFF"),
		},
	}
}

func (c *ASOS) Client() interfaces.ASOSClient {
	return asos.NewClient(
		asos.WithBaseURL(c.BaseURL),
		asos.WithServiceKey(c.ServiceKey),
		asos.WithRetry(c.Retry, c.Backoff),
	)
}
