package eventlog

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/capitalize-ai/call-controller/internal/model"
)

// MemoryLog keeps encoded records in memory. It stands in for FileLog in tests.
type MemoryLog struct {
	mu     sync.Mutex
	lines  map[Stream][][]byte
	closed bool
}

// NewMemoryLog creates an empty in-memory log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{lines: make(map[Stream][][]byte)}
}

// Name implements Named.
func (m *MemoryLog) Name() string { return "memory" }

// Append implements Log.
func (m *MemoryLog) Append(_ context.Context, stream Stream, rec model.Record) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	m.lines[stream] = append(m.lines[stream], line)
	return nil
}

// Lines returns a copy of the records appended to stream.
func (m *MemoryLog) Lines(stream Stream) [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([][]byte, len(m.lines[stream]))
	copy(out, m.lines[stream])
	return out
}

// Decode unmarshals every record in stream into maps.
func (m *MemoryLog) Decode(stream Stream) ([]map[string]any, error) {
	lines := m.Lines(stream)
	out := make([]map[string]any, 0, len(lines))
	for _, line := range lines {
		var rec map[string]any
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Close implements Log.
func (m *MemoryLog) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}
