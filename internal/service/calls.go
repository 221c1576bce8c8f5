package service

import (
	"context"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/capitalize-ai/call-controller/internal/correlate"
	"github.com/capitalize-ai/call-controller/internal/eventlog"
	"github.com/capitalize-ai/call-controller/internal/middleware"
	"github.com/capitalize-ai/call-controller/internal/model"
	"github.com/capitalize-ai/call-controller/internal/telephony"
	"github.com/capitalize-ai/call-controller/pkg/logger"
	"github.com/capitalize-ai/call-controller/pkg/metrics"
	"github.com/capitalize-ai/call-controller/pkg/tracing"
)

// Webhook paths the provider is pointed at.
const (
	PathInboundTwiML        = "/twiml/inbound"
	PathStatusEvents        = "/status-events"
	PathTranscriptionEvents = "/transcription-events"
)

// CallConfig holds the call defaults used by CallService.
type CallConfig struct {
	PublicBaseURL         string
	FromNumber            string
	DefaultToNumber       string
	DefaultClientIdentity string
}

// CallService initiates and terminates calls and records each attempt.
type CallService struct {
	provider   telephony.Provider
	recorder   *eventlog.Recorder
	correlator *correlate.Correlator
	cfg        CallConfig
	logger     *logger.Logger
	tracer     trace.Tracer
}

// NewCallService creates a call service. provider may be nil when credentials
// are not configured; Dial and Hangup then fail with ErrNotConfigured.
func NewCallService(
	provider telephony.Provider,
	recorder *eventlog.Recorder,
	correlator *correlate.Correlator,
	cfg CallConfig,
	log *logger.Logger,
) *CallService {
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	return &CallService{
		provider:   provider,
		recorder:   recorder,
		correlator: correlator,
		cfg:        cfg,
		logger:     log.Named("calls"),
		tracer:     tracing.Tracer(),
	}
}

// Dial places an outbound call to `to`, or to the configured default. The
// provider fetches the inbound call flow and posts status callbacks to this
// service.
func (s *CallService) Dial(ctx context.Context, to string) (*model.DialResponse, error) {
	to = strings.TrimSpace(to)
	if to == "" {
		to = s.cfg.DefaultToNumber
	}
	if to == "" {
		return nil, ErrMissingDestination
	}
	from := s.cfg.FromNumber
	if from == "" {
		return nil, ErrMissingSource
	}
	if s.provider == nil || s.cfg.PublicBaseURL == "" {
		return nil, ErrNotConfigured
	}

	ctx, span := s.tracer.Start(ctx, "calls.dial")
	defer span.End()

	req := telephony.CallRequest{
		To:                to,
		From:              from,
		TwiMLURL:          s.inboundTwiMLURL(),
		StatusCallbackURL: s.cfg.PublicBaseURL + PathStatusEvents,
	}
	payload := map[string]string{"to": to, "from": from}

	start := time.Now()
	call, err := s.provider.CreateCall(ctx, req)
	metrics.RecordProviderRequest("create_call", err, time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create call failed")
		s.logger.WithCall(middleware.GetCorrelationID(ctx), "").Error("failed to create call",
			zap.String("to", to),
			zap.String("from", from),
			zap.Error(err),
		)
		s.recorder.Record(ctx, eventlog.StreamCallLog,
			s.correlator.Call(model.EventTypeDialError, "", payload, err))
		return nil, &ProviderError{Op: "create_call", Err: err}
	}

	span.SetAttributes(attribute.String("call_sid", call.Sid))
	s.recorder.Record(ctx, eventlog.StreamCallLog,
		s.correlator.Call(model.EventTypeDialRequested, call.Sid, payload, nil))
	s.logger.WithCall(middleware.GetCorrelationID(ctx), call.Sid).Info("call requested",
		zap.String("to", to),
	)

	return &model.DialResponse{OK: true, CallSid: call.Sid, From: from, To: to}, nil
}

// Hangup asks the provider to end callSid.
func (s *CallService) Hangup(ctx context.Context, callSid string) (*model.HangupResponse, error) {
	callSid = strings.TrimSpace(callSid)
	if callSid == "" {
		return nil, ErrMissingCallSid
	}
	if s.provider == nil {
		return nil, ErrNotConfigured
	}

	log := s.logger.WithCall(middleware.GetCorrelationID(ctx), callSid)

	ctx, span := s.tracer.Start(ctx, "calls.hangup", trace.WithAttributes(
		attribute.String("call_sid", callSid),
	))
	defer span.End()

	start := time.Now()
	err := s.provider.EndCall(ctx, callSid)
	metrics.RecordProviderRequest("end_call", err, time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "end call failed")
		log.Error("failed to end call", zap.Error(err))
		s.recorder.Record(ctx, eventlog.StreamCallLog,
			s.correlator.Call(model.EventTypeHangupError, callSid, nil, err))
		return nil, &ProviderError{Op: "end_call", Err: err}
	}

	s.recorder.Record(ctx, eventlog.StreamCallLog,
		s.correlator.Call(model.EventTypeHangupRequested, callSid, nil, nil))
	log.Info("hangup requested")

	return &model.HangupResponse{OK: true, CallSid: callSid}, nil
}

func (s *CallService) inboundTwiMLURL() string {
	u := s.cfg.PublicBaseURL + PathInboundTwiML
	if s.cfg.DefaultClientIdentity != "" {
		u += "?client=" + url.QueryEscape(s.cfg.DefaultClientIdentity)
	}
	return u
}
