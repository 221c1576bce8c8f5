// Package eventlog provides the append-only record sinks.
//
// Sinks are write-only: there is no read, update or compaction API. Each
// Append writes one complete record; concurrent appends to the same stream
// never interleave.
package eventlog

import (
	"context"
	"errors"

	"github.com/capitalize-ai/call-controller/internal/model"
)

// Stream names a logical record stream.
type Stream string

const (
	// StreamCallLog holds call lifecycle records.
	StreamCallLog Stream = "call-log"
	// StreamTranscripts holds transcription records.
	StreamTranscripts Stream = "transcript-log"
)

// Streams lists every stream a sink must accept.
var Streams = []Stream{StreamCallLog, StreamTranscripts}

// ErrUnknownStream is returned when appending to a stream a sink does not hold.
var ErrUnknownStream = errors.New("unknown stream")

// ErrClosed is returned when appending to a closed sink.
var ErrClosed = errors.New("event log closed")

// Log is an append-only record sink.
type Log interface {
	// Append writes one record to the named stream.
	Append(ctx context.Context, stream Stream, rec model.Record) error

	// Close flushes and releases the sink.
	Close() error
}

// Named is implemented by sinks that report a name for metrics.
type Named interface {
	Name() string
}

func sinkName(l Log) string {
	if n, ok := l.(Named); ok {
		return n.Name()
	}
	return "unknown"
}
