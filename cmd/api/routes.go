package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/capitalize-ai/call-controller/internal/config"
	"github.com/capitalize-ai/call-controller/internal/handler"
	"github.com/capitalize-ai/call-controller/internal/middleware"
	"github.com/capitalize-ai/call-controller/internal/service"
	"github.com/capitalize-ai/call-controller/pkg/logger"
)

type handlers struct {
	health   *handler.HealthHandler
	calls    *handler.CallHandler
	webhooks *handler.WebhookHandler
	tokens   *handler.TokenHandler
}

// newRouter mounts every endpoint with its middleware.
func newRouter(cfg *config.Config, h handlers, log *logger.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	// Health endpoints (no auth required)
	r.Get("/health", h.health.Health)
	r.Get("/ready", h.health.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// Provider webhooks
	r.Group(func(r chi.Router) {
		if cfg.ValidateWebhookSignatures {
			r.Use(middleware.ProviderSignature(cfg.TwilioAuthToken, cfg.PublicBaseURL, log))
		}

		r.Get(service.PathInboundTwiML, h.webhooks.InboundTwiML)
		r.Post(service.PathInboundTwiML, h.webhooks.InboundTwiML)
		r.Post(service.PathTranscriptionEvents, h.webhooks.TranscriptionEvents)
		r.Post(service.PathStatusEvents, h.webhooks.StatusEvents)
	})

	// Operator routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.OperatorJWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		callsWrite := middleware.RequireScope(cfg.OperatorJWTSecret, middleware.ScopeCallsWrite)
		r.With(callsWrite).Post("/dial", h.calls.Dial)
		r.With(callsWrite).Post("/hangup", h.calls.Hangup)
		r.With(middleware.RequireScope(cfg.OperatorJWTSecret, middleware.ScopeTokensIssue)).Get("/token", h.tokens.Token)
	})

	// Browser client
	if cfg.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(cfg.StaticDir)))
	}

	return r
}
