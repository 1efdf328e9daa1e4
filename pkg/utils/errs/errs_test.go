package errs_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/kmafetch/kmafetch/pkg/utils/errs"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/gt"
)

func TestHandle(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := ctxlog.With(context.Background(), logger)

	errs.Handle(ctx, "job failed", errors.New("portal down"))
	gt.String(t, buf.String()).Contains("job failed")
	gt.String(t, buf.String()).Contains("portal down")

	buf.Reset()
	errs.Handle(ctx, "nothing", nil)
	gt.Equal(t, buf.Len(), 0)
}

func TestHandle_UsesHubFromContext(t *testing.T) {
	var events []*sentry.Event
	client, err := sentry.NewClient(sentry.ClientOptions{
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			events = append(events, event)
			return nil
		},
	})
	gt.NoError(t, err)

	hub := sentry.NewHub(client, sentry.NewScope())
	ctx := sentry.SetHubOnContext(context.Background(), hub)

	errs.Handle(ctx, "job failed", errors.New("portal down"))
	gt.A(t, events).Length(1)
	gt.Equal(t, events[0].Extra["message"], any("job failed"))

	errs.Handle(context.Background(), "job failed", errors.New("portal down"))
	gt.A(t, events).Length(1)
}
