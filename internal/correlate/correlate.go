// Package correlate stamps normalized webhooks with ingestion context.
//
// A Correlator keeps no per-call state: events are not buffered or reordered
// here. Ordering by sequence id is resolved when the log is read back (see
// package reconcile).
package correlate

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/capitalize-ai/call-controller/internal/model"
	"github.com/capitalize-ai/call-controller/internal/normalize"
)

// Correlator builds persisted records from normalized input.
type Correlator struct {
	clock *Clock
	newID func() string
}

// New creates a correlator using the given clock.
func New(clock *Clock) *Correlator {
	if clock == nil {
		clock = NewClock()
	}
	return &Correlator{
		clock: clock,
		newID: func() string { return uuid.Must(uuid.NewV7()).String() },
	}
}

// Call builds a call-log record. err, when non-nil, is stored as the record's
// error description.
func (c *Correlator) Call(eventType model.EventType, callSid string, payload any, err error) *model.CallEvent {
	ev := &model.CallEvent{
		ID:        c.newID(),
		Timestamp: c.clock.Now(),
		Type:      eventType,
		CallSid:   callSid,
		Payload:   payload,
	}
	if err != nil {
		ev.Error = err.Error()
	}
	return ev
}

// Transcription builds either a TranscriptionEvent (content) or a
// TranscriptionMeta passthrough record.
func (c *Correlator) Transcription(t normalize.Transcription) model.Record {
	if !t.IsContent() {
		return &model.TranscriptionMeta{
			ID:               c.newID(),
			Timestamp:        c.clock.Now(),
			Type:             model.RecordTypeTranscriptionMeta,
			Event:            t.Kind,
			CallSid:          t.CallSid,
			TranscriptionSid: t.TranscriptionSid,
			Payload:          t.Raw,
		}
	}

	return &model.TranscriptionEvent{
		ID:                c.newID(),
		Timestamp:         c.clock.Now(),
		Type:              model.RecordTypeTranscriptionContent,
		ProviderTimestamp: t.ProviderTimestamp,
		CallSid:           t.CallSid,
		TranscriptionSid:  t.TranscriptionSid,
		Track:             t.Track,
		SequenceID:        ParseSequence(t.SequenceID),
		Text:              t.Text,
		Confidence:        t.Confidence,
		IsFinal:           t.IsFinal,
		LanguageCode:      t.LanguageCode,
	}
}

// ParseSequence coerces a provider sequence id to an integer. Values that are
// empty, negative or not integers yield nil.
func ParseSequence(raw string) *int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return nil
	}
	return &n
}
