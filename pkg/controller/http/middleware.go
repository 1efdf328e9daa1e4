package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/kmafetch/kmafetch/pkg/domain/interfaces"
	"github.com/kmafetch/kmafetch/pkg/domain/types"
	"github.com/kmafetch/kmafetch/pkg/utils/errs"
	"github.com/m-mizutani/ctxlog"
)

const (
	clientIDCookie = "client_id"
	clientIDMaxAge = 365 * 24 * 60 * 60
)

type ctxKey int

const (
	clientIDKey ctxKey = iota
	usernameKey
)

// LoggingMiddleware returns a middleware that logs HTTP requests
func LoggingMiddleware(ctx context.Context) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			logger := ctxlog.From(ctx).With("request_id", middleware.GetReqID(r.Context()))

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Info("HTTP request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"duration_ms", time.Since(start).Milliseconds(),
				)
			}()

			next.ServeHTTP(ww, r.WithContext(ctxlog.With(r.Context(), logger)))
		})
	}
}

// ClientIDMiddleware assigns a long lived client_id cookie to each browser
func ClientIDMiddleware(secure bool) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id types.ClientID
			if c, err := r.Cookie(clientIDCookie); err == nil && c.Value != "" {
				id = types.ClientID(c.Value)
			} else {
				id = types.NewClientID()
				http.SetCookie(w, &http.Cookie{
					Name:     clientIDCookie,
					Value:    id.String(),
					Path:     "/",
					MaxAge:   clientIDMaxAge,
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), clientIDKey, id)))
		})
	}
}

func clientIDFrom(ctx context.Context) types.ClientID {
	id, _ := ctx.Value(clientIDKey).(types.ClientID)
	return id
}

// BearerAuthMiddleware requires a valid bearer token issued by /api/token
func BearerAuthMiddleware(authUC interfaces.AuthUseCase) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				writeUnauthorized(w, "Not authenticated")
				return
			}

			username, err := authUC.Verify(r.Context(), token)
			if err != nil {
				ctxlog.From(r.Context()).Warn("Bearer token rejected", "error", err)
				writeUnauthorized(w, "Could not validate credentials")
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), usernameKey, username)))
		})
	}
}

func usernameFrom(ctx context.Context) string {
	name, _ := ctx.Value(usernameKey).(string)
	return name
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, errors.New(msg), http.StatusUnauthorized)
}

// statusOf maps domain errors to HTTP status codes
func statusOf(err error) int {
	switch {
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, types.ErrTransientFetch):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// handleError logs err and writes msg with the mapped status. Server side
// failures are also reported to Sentry.
func handleError(ctx context.Context, w http.ResponseWriter, err error, msg string) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		errs.Handle(ctx, msg, err)
	} else {
		ctxlog.From(ctx).Warn(msg, "error", err, "status", status)
	}
	writeError(w, errors.New(msg), status)
}

// writeError writes an error response
func writeError(w http.ResponseWriter, err error, status int) {
	writeJSON(context.Background(), w, status, map[string]string{
		"error": err.Error(),
	})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		ctxlog.From(ctx).Error("Failed to encode response", "error", err)
	}
}
