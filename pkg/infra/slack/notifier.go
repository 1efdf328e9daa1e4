package slack

import (
	"context"

	"github.com/kmafetch/kmafetch/pkg/domain/interfaces"
	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"
)

type webhookNotifier struct {
	url string
}

// NewWebhook returns a notifier posting to a Slack incoming webhook. It
// returns nil when url is empty so callers can skip notification.
func NewWebhook(url string) interfaces.Notifier {
	if url == "" {
		return nil
	}
	return &webhookNotifier{url: url}
}

func (n *webhookNotifier) Notify(ctx context.Context, msg string) error {
	if err := slack.PostWebhookContext(ctx, n.url, &slack.WebhookMessage{Text: msg}); err != nil {
		return goerr.Wrap(err, "failed to post slack webhook")
	}
	return nil
}
