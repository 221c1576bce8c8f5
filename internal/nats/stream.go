package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/capitalize-ai/call-controller/internal/eventlog"
	"github.com/capitalize-ai/call-controller/internal/model"
	"github.com/capitalize-ai/call-controller/pkg/metrics"
)

const (
	// StreamName is the name of the call events stream.
	StreamName = "CALL_EVENTS"

	// SubjectPrefix is the prefix for all call event subjects.
	SubjectPrefix = "calls"

	unknownCall = "_"
)

// publisher is the subset of jetstream.JetStream used for appends.
type publisher interface {
	Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// StreamManager handles JetStream stream operations. It implements
// eventlog.Log so it can mirror the file log.
type StreamManager struct {
	client *Client
	js     publisher
}

// NewStreamManager creates a new stream manager.
func NewStreamManager(client *Client) *StreamManager {
	return &StreamManager{client: client, js: client.JetStream()}
}

// EnsureStream ensures the call events stream exists. The stream denies
// deletes and purges so it stays append-only.
func (m *StreamManager) EnsureStream(ctx context.Context) error {
	js := m.client.JetStream()

	if s, err := js.Stream(ctx, StreamName); err == nil {
		if info, err := s.Info(ctx); err == nil {
			metrics.NATSStreamMessages.WithLabelValues(StreamName).Set(float64(info.State.Msgs))
		}
		return nil
	}

	_, err := js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      365 * 24 * time.Hour,
		MaxBytes:    100 * 1024 * 1024 * 1024,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		DenyDelete:  true,
		DenyPurge:   true,
		Description: "Call lifecycle and transcription records",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// Subject returns the subject a record is published on:
// calls.<stream>.<callSid>.<type>.
func Subject(stream eventlog.Stream, rec model.Record) string {
	return fmt.Sprintf("%s.%s.%s.%s",
		SubjectPrefix,
		token(string(stream)),
		token(rec.CallID()),
		token(rec.RecordType()),
	)
}

// token makes s safe to use as a single subject token.
func token(s string) string {
	if s == "" {
		return unknownCall
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\r', '\n':
			return '_'
		}
		return r
	}, s)
}

// Name implements eventlog.Named.
func (m *StreamManager) Name() string { return "jetstream" }

// Append implements eventlog.Log.
func (m *StreamManager) Append(ctx context.Context, stream eventlog.Stream, rec model.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	if _, err := m.js.Publish(ctx, Subject(stream, rec), data); err != nil {
		return fmt.Errorf("failed to publish record: %w", err)
	}

	return nil
}

// Close implements eventlog.Log. The connection is owned by the Client.
func (m *StreamManager) Close() error {
	return nil
}
