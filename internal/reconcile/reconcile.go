// Package reconcile rebuilds ordered transcripts from the transcript log.
//
// Webhooks arrive out of order and possibly more than once, so the log holds
// records in ingestion order. Reconcile orders each (transcriptionSid, track)
// by sequence id and settles partial/final conflicts: once a sequence position
// has a final record, nothing replaces it.
package reconcile

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/capitalize-ai/call-controller/internal/model"
)

// Key identifies one ordered track of a transcription session.
type Key struct {
	TranscriptionSid string `json:"transcriptionSid"`
	Track            string `json:"track"`
}

// Session is the reconciled content of one track.
type Session struct {
	Key
	CallSid  string                     `json:"callSid"`
	Segments []model.TranscriptionEvent `json:"segments"`
}

// Stats describes a decode pass.
type Stats struct {
	Lines     int `json:"lines"`
	Content   int `json:"content"`
	Skipped   int `json:"skipped"`
	Malformed int `json:"malformed"`
}

// maxLineSize bounds a single log line. Meta records carry whole webhook
// bodies, which JSON escaping can grow well past the body limit.
var maxLineSize = 32 << 20

type typed struct {
	Type string `json:"type"`
}

// Decode reads a JSONL transcript log and returns its content records in log
// order. Malformed lines and non-content records are counted and skipped.
func Decode(r io.Reader) ([]model.TranscriptionEvent, Stats, error) {
	var (
		events []model.TranscriptionEvent
		stats  Stats
	)

	br := bufio.NewReaderSize(r, 64*1024)
	for {
		line, oversized, err := readLine(br, maxLineSize)
		if err != nil && !errors.Is(err, io.EOF) {
			return events, stats, fmt.Errorf("failed to read log: %w", err)
		}

		switch {
		case oversized:
			stats.Lines++
			stats.Malformed++
		case len(line) > 0:
			stats.Lines++
			decodeLine(line, &events, &stats)
		}

		if err != nil {
			break
		}
	}

	return events, stats, nil
}

func decodeLine(line []byte, events *[]model.TranscriptionEvent, stats *Stats) {
	var t typed
	if err := json.Unmarshal(line, &t); err != nil {
		stats.Malformed++
		return
	}
	if t.Type != model.RecordTypeTranscriptionContent {
		stats.Skipped++
		return
	}

	var ev model.TranscriptionEvent
	if err := json.Unmarshal(line, &ev); err != nil {
		stats.Malformed++
		return
	}
	*events = append(*events, ev)
	stats.Content++
}

// readLine returns the next line without its terminator. A line longer than
// max is consumed and reported as oversized with no content.
func readLine(br *bufio.Reader, max int) ([]byte, bool, error) {
	var line []byte
	oversized := false
	for {
		chunk, err := br.ReadSlice('\n')
		if !oversized {
			if len(line)+len(chunk) > max+1 {
				oversized = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return bytes.TrimRight(line, "\r\n"), oversized, err
	}
}

type slot struct {
	event model.TranscriptionEvent
	order int
}

// supersedes reports whether candidate should replace current at the same
// sequence position.
func supersedes(current, candidate slot) bool {
	if current.event.IsFinal {
		return false
	}
	if candidate.event.IsFinal {
		return true
	}
	return later(candidate, current)
}

func later(a, b slot) bool {
	if !a.event.Timestamp.Equal(b.event.Timestamp) {
		return a.event.Timestamp.After(b.event.Timestamp)
	}
	return a.order > b.order
}

// Reconcile groups events by session and track, keeps one event per sequence
// position and returns sessions sorted by transcriptionSid then track.
// Events without a sequence id are kept, after the ordered ones, in ingestion
// order.
func Reconcile(events []model.TranscriptionEvent) []Session {
	type group struct {
		callSid   string
		positions map[int64]slot
		unordered []slot
	}
	groups := make(map[Key]*group)

	for i, ev := range events {
		k := Key{TranscriptionSid: ev.TranscriptionSid, Track: ev.Track}
		g, ok := groups[k]
		if !ok {
			g = &group{positions: make(map[int64]slot)}
			groups[k] = g
		}
		if g.callSid == "" {
			g.callSid = ev.CallSid
		}

		s := slot{event: ev, order: i}
		if ev.SequenceID == nil {
			g.unordered = append(g.unordered, s)
			continue
		}

		seq := *ev.SequenceID
		if cur, exists := g.positions[seq]; !exists || supersedes(cur, s) {
			g.positions[seq] = s
		}
	}

	sessions := make([]Session, 0, len(groups))
	for k, g := range groups {
		seqs := make([]int64, 0, len(g.positions))
		for seq := range g.positions {
			seqs = append(seqs, seq)
		}
		sort.Slice(seqs, func(i, j int) bool { return seqs[i] < seqs[j] })

		sort.SliceStable(g.unordered, func(i, j int) bool {
			return later(g.unordered[j], g.unordered[i])
		})

		segments := make([]model.TranscriptionEvent, 0, len(seqs)+len(g.unordered))
		for _, seq := range seqs {
			segments = append(segments, g.positions[seq].event)
		}
		for _, s := range g.unordered {
			segments = append(segments, s.event)
		}

		sessions = append(sessions, Session{Key: k, CallSid: g.callSid, Segments: segments})
	}

	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].TranscriptionSid != sessions[j].TranscriptionSid {
			return sessions[i].TranscriptionSid < sessions[j].TranscriptionSid
		}
		return sessions[i].Track < sessions[j].Track
	})

	return sessions
}

// Finals drops non-final segments from every session.
func Finals(sessions []Session) []Session {
	out := make([]Session, 0, len(sessions))
	for _, s := range sessions {
		finals := make([]model.TranscriptionEvent, 0, len(s.Segments))
		for _, ev := range s.Segments {
			if ev.IsFinal {
				finals = append(finals, ev)
			}
		}
		s.Segments = finals
		out = append(out, s)
	}
	return out
}

// ForCall keeps the sessions belonging to callSid.
func ForCall(sessions []Session, callSid string) []Session {
	var out []Session
	for _, s := range sessions {
		if s.CallSid == callSid {
			out = append(out, s)
		}
	}
	return out
}

// Since drops segments ingested before t from already reconciled sessions.
// Filtering after reconciliation keeps an earlier final from being replaced by
// a later partial at the same position.
func Since(sessions []Session, t time.Time) []Session {
	out := make([]Session, 0, len(sessions))
	for _, s := range sessions {
		kept := make([]model.TranscriptionEvent, 0, len(s.Segments))
		for _, ev := range s.Segments {
			if !ev.Timestamp.Before(t) {
				kept = append(kept, ev)
			}
		}
		s.Segments = kept
		out = append(out, s)
	}
	return out
}
