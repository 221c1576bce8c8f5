// Package normalize converts raw provider webhooks into typed fields.
//
// Every function here is total: missing or malformed fields degrade to empty
// values, never to errors.
package normalize

import (
	"encoding/json"
	"strings"

	"github.com/capitalize-ai/call-controller/internal/model"
)

// Provider webhook field names.
const (
	FieldCallSid           = "CallSid"
	FieldCallStatus        = "CallStatus"
	FieldTranscriptionSid  = "TranscriptionSid"
	FieldTranscriptionKind = "TranscriptionEvent"
	FieldTranscriptionData = "TranscriptionData"
	FieldTrack             = "Track"
	FieldSequenceID        = "SequenceId"
	FieldFinal             = "Final"
	FieldTimestamp         = "Timestamp"
	FieldLanguageCode      = "LanguageCode"
)

// KindContent is the transcription event kind carrying recognised speech.
const KindContent = "transcription-content"

// Transcription is a normalized transcription webhook.
type Transcription struct {
	Kind              string
	CallSid           string
	TranscriptionSid  string
	Track             string
	SequenceID        string
	ProviderTimestamp string
	LanguageCode      string
	Text              string
	Confidence        *float64
	IsFinal           bool

	// Raw is the full webhook body, kept for non-content kinds.
	Raw model.Payload
}

// IsContent reports whether the webhook carried recognised speech.
func (t *Transcription) IsContent() bool {
	return t.Kind == KindContent
}

type transcriptionData struct {
	Transcript *string  `json:"transcript"`
	Confidence *float64 `json:"confidence"`
}

// TranscriptionFromPayload normalizes a transcription webhook body.
func TranscriptionFromPayload(p model.Payload) Transcription {
	t := Transcription{
		Kind:              p.Get(FieldTranscriptionKind),
		CallSid:           p.Get(FieldCallSid),
		TranscriptionSid:  p.Get(FieldTranscriptionSid),
		Track:             p.Get(FieldTrack),
		SequenceID:        p.Get(FieldSequenceID),
		ProviderTimestamp: p.Get(FieldTimestamp),
		LanguageCode:      p.Get(FieldLanguageCode),
		IsFinal:           IsTrue(p.Get(FieldFinal)),
	}

	if !t.IsContent() {
		t.Raw = p.Clone()
		return t
	}

	t.Text, t.Confidence = parseTranscriptionData(p.Get(FieldTranscriptionData))
	return t
}

// parseTranscriptionData extracts transcript text and confidence, falling back
// to the raw value as text when it is not a JSON object.
func parseTranscriptionData(raw string) (string, *float64) {
	if !strings.HasPrefix(strings.TrimSpace(raw), "{") {
		return raw, nil
	}
	var data transcriptionData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return raw, nil
	}
	if data.Transcript == nil {
		return "", data.Confidence
	}
	return *data.Transcript, data.Confidence
}

// IsTrue reports whether a provider flag is the string "true".
func IsTrue(v string) bool {
	return v == "true"
}

// Status extracts the call id from a status callback; the payload itself is
// persisted uninterpreted.
func Status(p model.Payload) (callSid string, raw model.Payload) {
	return p.Get(FieldCallSid), p.Clone()
}
