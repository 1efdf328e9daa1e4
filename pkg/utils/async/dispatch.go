package async

import (
	"context"
	"runtime/debug"

	"github.com/getsentry/sentry-go"
	"github.com/kmafetch/kmafetch/pkg/utils/errs"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

// Dispatch runs handler in a new goroutine detached from ctx cancellation.
// The logger and Sentry hub of ctx are carried over. Returned errors and
// panics are reported through errs.Handle.
func Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	bgCtx := detach(ctx)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				errs.Handle(bgCtx, "panic in background job",
					goerr.New("recovered panic", goerr.V("recover", r), goerr.V("stack", string(debug.Stack()))))
			}
		}()

		if err := handler(bgCtx); err != nil {
			errs.Handle(bgCtx, "background job failed", err)
		}
	}()
}

func detach(ctx context.Context) context.Context {
	newCtx := ctxlog.With(context.Background(), ctxlog.From(ctx))
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	return sentry.SetHubOnContext(newCtx, hub.Clone())
}
