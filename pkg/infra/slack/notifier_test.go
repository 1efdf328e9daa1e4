package slack_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kmafetch/kmafetch/pkg/infra/slack"
	"github.com/m-mizutani/gt"
)

func TestWebhookNotifier(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := slack.NewWebhook(srv.URL)
	gt.NotNil(t, n)
	gt.NoError(t, n.Notify(context.Background(), "job completed"))
	gt.Equal(t, got["text"], any("job completed"))
}

func TestWebhookNotifier_Disabled(t *testing.T) {
	gt.True(t, slack.NewWebhook("") == nil)
}

func TestWebhookNotifier_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	gt.Error(t, slack.NewWebhook(srv.URL).Notify(context.Background(), "x"))
}
