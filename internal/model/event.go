// Package model defines the records persisted by the call controller.
package model

import (
	"time"
)

// EventType is the discriminator of a call-log record.
type EventType string

const (
	EventTypeDialRequested   EventType = "dial.requested"
	EventTypeDialError       EventType = "dial.error"
	EventTypeStatus          EventType = "status"
	EventTypeHangupRequested EventType = "hangup.requested"
	EventTypeHangupError     EventType = "hangup.error"
)

// Record is anything that can be appended to the event log.
type Record interface {
	// RecordType returns the record's discriminator.
	RecordType() string

	// CallID returns the call the record belongs to, or "" if unknown.
	CallID() string
}

// CallEvent represents one lifecycle transition of a call.
type CallEvent struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"ts"`
	Type      EventType `json:"eventType"`
	CallSid   string    `json:"callSid,omitempty"`
	Payload   any       `json:"payload,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// RecordType implements Record.
func (e *CallEvent) RecordType() string { return string(e.Type) }

// CallID implements Record.
func (e *CallEvent) CallID() string { return e.CallSid }
