package eventlog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/capitalize-ai/call-controller/internal/model"
)

// DefaultFiles maps each stream to its file name under the log directory.
var DefaultFiles = map[Stream]string{
	StreamCallLog:     "calls.jsonl",
	StreamTranscripts: "transcripts.jsonl",
}

type fileStream struct {
	mu     sync.Mutex
	f      *os.File
	closed bool
}

// FileLog appends newline-delimited JSON records to one file per stream.
type FileLog struct {
	streams map[Stream]*fileStream
}

// OpenFileLog opens (creating if needed) the stream files in dir.
func OpenFileLog(dir string) (*FileLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	l := &FileLog{streams: make(map[Stream]*fileStream, len(DefaultFiles))}
	for stream, name := range DefaultFiles {
		path := filepath.Join(dir, name)
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			l.Close()
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		l.streams[stream] = &fileStream{f: f}
	}

	return l, nil
}

// Name implements Named.
func (l *FileLog) Name() string { return "file" }

// Append implements Log. The encoded record and its separator go out in a
// single write while the stream lock is held.
func (l *FileLog) Append(_ context.Context, stream Stream, rec model.Record) error {
	s, ok := l.streams[stream]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStream, stream)
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if _, err := s.f.Write(line); err != nil {
		return fmt.Errorf("failed to append to %s: %w", stream, err)
	}

	return nil
}

// Close syncs and closes every stream file.
func (l *FileLog) Close() error {
	var firstErr error
	for _, s := range l.streams {
		s.mu.Lock()
		if !s.closed {
			s.closed = true
			if err := s.f.Sync(); err != nil && firstErr == nil {
				firstErr = err
			}
			if err := s.f.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		s.mu.Unlock()
	}
	return firstErr
}
