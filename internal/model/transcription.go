package model

import (
	"time"
)

const (
	// RecordTypeTranscriptionContent tags recognised speech.
	RecordTypeTranscriptionContent = "transcription.content"
	// RecordTypeTranscriptionMeta tags every other transcription webhook.
	RecordTypeTranscriptionMeta = "transcription.meta"
)

// TranscriptionEvent is one recognised fragment of a transcription session.
// SequenceID is per-track and is the only ordering signal; it is nil when the
// provider did not send a parseable value.
type TranscriptionEvent struct {
	ID                string    `json:"id"`
	Timestamp         time.Time `json:"ts"`
	Type              string    `json:"type"`
	ProviderTimestamp string    `json:"providerTimestamp,omitempty"`
	CallSid           string    `json:"callSid"`
	TranscriptionSid  string    `json:"transcriptionSid"`
	Track             string    `json:"track"`
	SequenceID        *int64    `json:"sequenceId"`
	Text              string    `json:"text"`
	Confidence        *float64  `json:"confidence"`
	IsFinal           bool      `json:"isFinal"`
	LanguageCode      string    `json:"languageCode,omitempty"`
}

// RecordType implements Record.
func (e *TranscriptionEvent) RecordType() string { return RecordTypeTranscriptionContent }

// CallID implements Record.
func (e *TranscriptionEvent) CallID() string { return e.CallSid }

// TranscriptionMeta preserves a non-content transcription webhook as received.
type TranscriptionMeta struct {
	ID               string    `json:"id"`
	Timestamp        time.Time `json:"ts"`
	Type             string    `json:"type"`
	Event            string    `json:"event"`
	CallSid          string    `json:"callSid,omitempty"`
	TranscriptionSid string    `json:"transcriptionSid,omitempty"`
	Payload          Payload   `json:"payload"`
}

// RecordType implements Record.
func (e *TranscriptionMeta) RecordType() string { return RecordTypeTranscriptionMeta }

// CallID implements Record.
func (e *TranscriptionMeta) CallID() string { return e.CallSid }
