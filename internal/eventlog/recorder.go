package eventlog

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/capitalize-ai/call-controller/internal/model"
	"github.com/capitalize-ai/call-controller/pkg/logger"
	"github.com/capitalize-ai/call-controller/pkg/metrics"
	"github.com/capitalize-ai/call-controller/pkg/tracing"
)

// Recorder is the pipeline's view of the log. Record never reports failure to
// its caller: storage errors go to the diagnostic logger and metrics so that
// webhook acknowledgement is unaffected.
type Recorder struct {
	log    Log
	logger *logger.Logger
	tracer trace.Tracer
}

// NewRecorder wraps a sink.
func NewRecorder(l Log, log *logger.Logger) *Recorder {
	return &Recorder{
		log:    l,
		logger: log.Named("eventlog"),
		tracer: tracing.Tracer(),
	}
}

// Record appends rec to stream and reports whether it was fully persisted.
func (r *Recorder) Record(ctx context.Context, stream Stream, rec model.Record) bool {
	ctx, span := r.tracer.Start(ctx, "eventlog.append", trace.WithAttributes(
		attribute.String("stream", string(stream)),
		attribute.String("record.type", rec.RecordType()),
		attribute.String("call_sid", rec.CallID()),
	))
	defer span.End()

	if err := r.log.Append(ctx, stream, rec); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "append failed")
		metrics.AppendFailuresTotal.WithLabelValues(string(stream), rec.RecordType()).Inc()
		r.logger.Error("failed to append record",
			zap.String("stream", string(stream)),
			zap.String("type", rec.RecordType()),
			zap.String("call_sid", rec.CallID()),
			zap.Error(err),
		)
		return false
	}

	return true
}
