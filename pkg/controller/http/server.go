package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/kmafetch/kmafetch/pkg/domain/interfaces"
)

// config holds internal HTTP server configuration
type config struct {
	addr         string
	secureCookie bool
}

// Option is a functional option for Server configuration
type Option func(*config)

// WithAddr sets the server address
func WithAddr(addr string) Option {
	return func(c *config) {
		c.addr = addr
	}
}

// WithSecureCookie marks the client id cookie as Secure
func WithSecureCookie(secure bool) Option {
	return func(c *config) {
		c.secureCookie = secure
	}
}

// UseCases bundles the use cases served over HTTP
type UseCases struct {
	Download interfaces.DownloadUseCase
	Region   interfaces.RegionUseCase
	Auth     interfaces.AuthUseCase
	ASOS     interfaces.ASOSUseCase
	Artifact interfaces.ArtifactUseCase
}

// Server represents the HTTP server
type Server struct {
	*http.Server
}

// NewServer creates a new HTTP server
func NewServer(ctx context.Context, uc UseCases, opts ...Option) (*Server, error) {
	cfg := &config{
		addr: "localhost:8000",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	index, err := newIndexHandler(uc.Download)
	if err != nil {
		return nil, err
	}

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(LoggingMiddleware(ctx))
	router.Use(middleware.Recoverer)
	router.Use(ClientIDMiddleware(cfg.secureCookie))

	router.Get("/", index.ServeHTTP)
	router.Get("/health", handleHealth)

	download := &downloadHandler{uc: uc.Download}
	region := &regionHandler{uc: uc.Region}
	auth := &authHandler{uc: uc.Auth}
	asos := &asosHandler{uc: uc.ASOS}
	artifact := &artifactHandler{uc: uc.Artifact}

	router.Route("/api", func(r chi.Router) {
		r.Get("/regions", region.listRegions)
		r.Get("/configs", download.listConfigs)
		r.Post("/token", auth.issueToken)

		r.With(BearerAuthMiddleware(uc.Auth)).Post("/download", download.submit)
		r.Get("/status/{taskID}", download.status)
		r.Get("/history", download.history)

		r.Get("/files", artifact.list)
		r.Get("/download-file/*", artifact.serve)

		r.Get("/asos/stations", region.listStations)
		r.Get("/download/asos", asos.download)
	})

	server := &Server{
		Server: &http.Server{
			Addr:              cfg.addr,
			Handler:           router,
			ReadHeaderTimeout: 15 * time.Second,
		},
	}

	return server, nil
}
