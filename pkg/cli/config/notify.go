package config

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/kmafetch/kmafetch/pkg/domain/interfaces"
	"github.com/kmafetch/kmafetch/pkg/domain/types"
	"github.com/kmafetch/kmafetch/pkg/infra/slack"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Notify holds external reporting settings
type Notify struct {
	SlackWebhookURL string `masq:"secret"`
	SentryDSN       string `masq:"secret"`
	SentryEnv       string
}

func (c *Notify) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-webhook-url",
			Usage:       "Slack incoming webhook notified when a job finishes",
			Destination: &c.SlackWebhookURL,
			Sources:     cli.EnvVars("KMA_SLACK_WEBHOOK_URL"),
		},
		&cli.StringFlag{
			Name:        "sentry-dsn",
			Usage:       "Sentry DSN for error reporting",
			Destination: &c.SentryDSN,
			Sources:     cli.EnvVars("KMA_SENTRY_DSN", "SENTRY_DSN"),
		},
		&cli.StringFlag{
			Name:        "sentry-env",
			Usage:       "Sentry environment",
			Value:       "production",
			Destination: &c.SentryEnv,
			Sources:     cli.EnvVars("KMA_SENTRY_ENV"),
		},
	}
}

// ConfigureSentry initializes the global Sentry client when a DSN is set.
// The returned function flushes pending events.
func (c *Notify) ConfigureSentry(ctx context.Context) (func(), error) {
	if c.SentryDSN == "" {
		return func() {}, nil
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         c.SentryDSN,
		Environment: c.SentryEnv,
		Release:     types.Version,
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to initialize sentry")
	}
	ctxlog.From(ctx).Info("Sentry enabled", "env", c.SentryEnv)

	return func() { sentry.Flush(2 * time.Second) }, nil
}

// Notifier returns the Slack notifier, or nil when no webhook is set
func (c *Notify) Notifier() interfaces.Notifier {
	return slack.NewWebhook(c.SlackWebhookURL)
}
