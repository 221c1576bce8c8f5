package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/capitalize-ai/call-controller/internal/middleware"
	"github.com/capitalize-ai/call-controller/internal/normalize"
	"github.com/capitalize-ai/call-controller/internal/service"
	"github.com/capitalize-ai/call-controller/pkg/logger"
	"github.com/capitalize-ai/call-controller/pkg/metrics"
)

// WebhookHandler handles provider callbacks. Every callback is acknowledged
// with 200 whatever happens to it internally.
type WebhookHandler struct {
	service *service.WebhookService
	inbound service.InboundConfig
	logger  *logger.Logger
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(svc *service.WebhookService, inbound service.InboundConfig, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		service: svc,
		inbound: inbound,
		logger:  log,
	}
}

// TranscriptionEvents handles POST /transcription-events
func (h *WebhookHandler) TranscriptionEvents(w http.ResponseWriter, r *http.Request) {
	p := normalize.FromRequest(r)
	kind, ok := h.service.RecordTranscription(r.Context(), p)
	metrics.RecordWebhook(service.PathTranscriptionEvents, kind, outcome(ok))
	ack(w)
}

// StatusEvents handles POST /status-events
func (h *WebhookHandler) StatusEvents(w http.ResponseWriter, r *http.Request) {
	p := normalize.FromRequest(r)
	ok := h.service.RecordStatus(r.Context(), p)
	metrics.RecordWebhook(service.PathStatusEvents, "status", outcome(ok))
	ack(w)
}

// InboundTwiML handles GET and POST /twiml/inbound
func (h *WebhookHandler) InboundTwiML(w http.ResponseWriter, r *http.Request) {
	p := normalize.FromRequest(r)
	identity := p.Get("client")

	doc, err := service.InboundTwiML(h.inbound, requestBaseURL(r), identity)
	if err != nil {
		// Rendering only fails on an encoder error; answer with an empty
		// document so the provider does not retry.
		h.logger.Error("failed to render inbound call flow",
			zap.String("correlation_id", middleware.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		metrics.RecordWebhook(service.PathInboundTwiML, "twiml", "error")
		doc = []byte(`<?xml version="1.0" encoding="UTF-8"?><Response></Response>`)
	} else {
		metrics.RecordWebhook(service.PathInboundTwiML, "twiml", "ok")
	}

	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}

func outcome(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

// requestBaseURL derives the externally visible base URL from the request,
// honoring the proxy scheme header.
func requestBaseURL(r *http.Request) string {
	scheme := r.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		scheme = "http"
		if r.TLS != nil {
			scheme = "https"
		}
	}
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	return scheme + "://" + host
}
