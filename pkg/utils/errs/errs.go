package errs

import (
	"context"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/ctxlog"
)

// Handle logs err and forwards it to Sentry when a client is configured.
// The hub carried by ctx is preferred over the global one.
func Handle(ctx context.Context, msg string, err error) {
	if err == nil {
		return
	}

	ctxlog.From(ctx).Error(msg, "error", err)

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	if hub.Client() == nil {
		return
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetExtra("message", msg)
		hub.CaptureException(err)
	})
}
