package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/capitalize-ai/call-controller/internal/correlate"
	"github.com/capitalize-ai/call-controller/internal/eventlog"
	"github.com/capitalize-ai/call-controller/internal/middleware"
	"github.com/capitalize-ai/call-controller/internal/model"
	"github.com/capitalize-ai/call-controller/internal/normalize"
	"github.com/capitalize-ai/call-controller/internal/telephony"
	"github.com/capitalize-ai/call-controller/pkg/logger"
)

// WebhookService turns provider callbacks into log records. None of its
// methods fail: whatever arrives is recorded as well as it can be.
type WebhookService struct {
	recorder   *eventlog.Recorder
	correlator *correlate.Correlator
	logger     *logger.Logger
}

// NewWebhookService creates a webhook service.
func NewWebhookService(recorder *eventlog.Recorder, correlator *correlate.Correlator, log *logger.Logger) *WebhookService {
	return &WebhookService{
		recorder:   recorder,
		correlator: correlator,
		logger:     log.Named("webhooks"),
	}
}

// RecordStatus persists a call status callback with its raw payload. The
// lifecycle is not validated; every callback is recorded.
func (s *WebhookService) RecordStatus(ctx context.Context, p model.Payload) bool {
	callSid, raw := normalize.Status(p)
	s.logger.WithCall(middleware.GetCorrelationID(ctx), callSid).Debug("status callback",
		zap.String("status", raw.Get(normalize.FieldCallStatus)),
	)
	return s.recorder.Record(ctx, eventlog.StreamCallLog,
		s.correlator.Call(model.EventTypeStatus, callSid, raw, nil))
}

// RecordTranscription persists a transcription webhook and returns the
// record type written.
func (s *WebhookService) RecordTranscription(ctx context.Context, p model.Payload) (string, bool) {
	t := normalize.TranscriptionFromPayload(p)
	s.logger.WithCall(middleware.GetCorrelationID(ctx), t.CallSid).Debug("transcription callback",
		zap.String("kind", t.Kind),
		zap.String("transcription_sid", t.TranscriptionSid),
		zap.String("sequence_id", t.SequenceID),
	)
	rec := s.correlator.Transcription(t)
	return rec.RecordType(), s.recorder.Record(ctx, eventlog.StreamTranscripts, rec)
}

// InboundConfig configures the inbound call flow.
type InboundConfig struct {
	PublicBaseURL         string
	DefaultClientIdentity string
	TranscriptionEngine   string
	TranscriptionLanguage string
}

// InboundTwiML renders the inbound call flow. baseURL overrides the
// configured public base when the latter is empty; identity falls back to the
// configured default.
func InboundTwiML(cfg InboundConfig, baseURL, identity string) ([]byte, error) {
	if cfg.PublicBaseURL != "" {
		baseURL = cfg.PublicBaseURL
	}
	if identity == "" {
		identity = cfg.DefaultClientIdentity
	}
	return telephony.InboundTwiML(telephony.InboundOptions{
		TranscriptionCallbackURL: baseURL + PathTranscriptionEvents,
		TranscriptionEngine:      cfg.TranscriptionEngine,
		LanguageCode:             cfg.TranscriptionLanguage,
		ClientIdentity:           identity,
	})
}
