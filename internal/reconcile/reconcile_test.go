package reconcile

import (
	"strings"
	"testing"
	"time"

	"github.com/capitalize-ai/call-controller/internal/model"
)

var base = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

func seq(n int64) *int64 { return &n }

func ev(tsid, track string, s *int64, text string, final bool, at int) model.TranscriptionEvent {
	return model.TranscriptionEvent{
		Type:             model.RecordTypeTranscriptionContent,
		Timestamp:        base.Add(time.Duration(at) * time.Millisecond),
		CallSid:          "CA1",
		TranscriptionSid: tsid,
		Track:            track,
		SequenceID:       s,
		Text:             text,
		IsFinal:          final,
	}
}

func texts(s Session) []string {
	out := make([]string, len(s.Segments))
	for i, e := range s.Segments {
		out[i] = e.Text
	}
	return out
}

func TestReconcile_OrdersBySequence(t *testing.T) {
	events := []model.TranscriptionEvent{
		ev("GT1", "inbound_track", seq(3), "three", true, 1),
		ev("GT1", "inbound_track", seq(1), "one", true, 2),
		ev("GT1", "inbound_track", seq(2), "two", true, 3),
	}

	sessions := Reconcile(events)
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	got := strings.Join(texts(sessions[0]), " ")
	if got != "one two three" {
		t.Errorf("expected 'one two three', got %q", got)
	}
}

func TestReconcile_FinalIsNotSuperseded(t *testing.T) {
	events := []model.TranscriptionEvent{
		ev("GT1", "inbound_track", seq(1), "hel", false, 1),
		ev("GT1", "inbound_track", seq(1), "hello", true, 2),
		ev("GT1", "inbound_track", seq(1), "hello wor", false, 3),
		ev("GT1", "inbound_track", seq(1), "hello again", true, 4),
	}

	sessions := Reconcile(events)
	segs := sessions[0].Segments
	if len(segs) != 1 {
		t.Fatalf("expected one segment per position, got %d", len(segs))
	}
	if segs[0].Text != "hello" || !segs[0].IsFinal {
		t.Errorf("expected first final 'hello', got %+v", segs[0])
	}
}

func TestReconcile_LatestPartialWins(t *testing.T) {
	events := []model.TranscriptionEvent{
		ev("GT1", "inbound_track", seq(1), "b", false, 5),
		ev("GT1", "inbound_track", seq(1), "a", false, 1),
	}

	segs := Reconcile(events)[0].Segments
	if segs[0].Text != "b" {
		t.Errorf("expected latest ingested partial 'b', got %q", segs[0].Text)
	}
}

func TestReconcile_SplitsTracksAndSessions(t *testing.T) {
	events := []model.TranscriptionEvent{
		ev("GT2", "inbound_track", seq(1), "x", true, 1),
		ev("GT1", "outbound_track", seq(1), "out", true, 2),
		ev("GT1", "inbound_track", seq(1), "in", true, 3),
	}

	sessions := Reconcile(events)
	if len(sessions) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(sessions))
	}

	want := []Key{
		{"GT1", "inbound_track"},
		{"GT1", "outbound_track"},
		{"GT2", "inbound_track"},
	}
	for i, k := range want {
		if sessions[i].Key != k {
			t.Errorf("session %d: expected %+v, got %+v", i, k, sessions[i].Key)
		}
	}
}

func TestReconcile_UnsequencedLast(t *testing.T) {
	events := []model.TranscriptionEvent{
		ev("GT1", "inbound_track", nil, "late", true, 9),
		ev("GT1", "inbound_track", nil, "early", true, 1),
		ev("GT1", "inbound_track", seq(7), "seven", true, 5),
	}

	got := strings.Join(texts(Reconcile(events)[0]), ",")
	if got != "seven,early,late" {
		t.Errorf("expected 'seven,early,late', got %q", got)
	}
}

func TestFinalsAndForCall(t *testing.T) {
	other := ev("GT9", "inbound_track", seq(1), "other", true, 1)
	other.CallSid = "CA2"

	events := []model.TranscriptionEvent{
		ev("GT1", "inbound_track", seq(1), "partial", false, 1),
		ev("GT1", "inbound_track", seq(2), "final", true, 2),
		other,
	}

	sessions := ForCall(Finals(Reconcile(events)), "CA1")
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session for CA1, got %d", len(sessions))
	}
	if got := texts(sessions[0]); len(got) != 1 || got[0] != "final" {
		t.Errorf("expected only the final segment, got %v", got)
	}
}

func TestDecode(t *testing.T) {
	log := strings.Join([]string{
		`{"type":"transcription.content","transcriptionSid":"GT1","track":"inbound_track","sequenceId":2,"text":"b","isFinal":true}`,
		`{"type":"transcription.meta","event":"transcription-started"}`,
		`not json at all`,
		``,
		`{"type":"transcription.content","transcriptionSid":"GT1","track":"inbound_track","sequenceId":1,"text":"a","isFinal":true,"confidence":null}`,
	}, "\n")

	events, stats, err := Decode(strings.NewReader(log))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if stats.Lines != 4 || stats.Content != 2 || stats.Skipped != 1 || stats.Malformed != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if len(events) != 2 || events[0].Text != "b" || *events[1].SequenceID != 1 {
		t.Errorf("unexpected events %+v", events)
	}
}

func TestSince(t *testing.T) {
	sessions := Reconcile([]model.TranscriptionEvent{
		ev("GT1", "inbound_track", seq(1), "old", true, 1),
		ev("GT1", "inbound_track", seq(2), "new", true, 10),
	})

	got := Since(sessions, base.Add(10*time.Millisecond))
	if len(got) != 1 || strings.Join(texts(got[0]), " ") != "new" {
		t.Errorf("unexpected sessions %+v", got)
	}
}

func TestSince_FinalNotReplacedByLaterPartial(t *testing.T) {
	sessions := Reconcile([]model.TranscriptionEvent{
		ev("GT1", "inbound_track", seq(1), "final text", true, 0),
		ev("GT1", "inbound_track", seq(1), "late partial", false, 1000),
	})

	got := Since(sessions, base.Add(500*time.Millisecond))
	if len(got) != 1 {
		t.Fatalf("expected 1 session, got %d", len(got))
	}
	for _, seg := range got[0].Segments {
		if seg.Text == "late partial" {
			t.Errorf("partial replaced a final position: %+v", got[0].Segments)
		}
	}

	got = Since(sessions, base)
	if len(got[0].Segments) != 1 || !got[0].Segments[0].IsFinal || got[0].Segments[0].Text != "final text" {
		t.Errorf("unexpected segments %+v", got[0].Segments)
	}
}

func TestDecode_OversizedLine(t *testing.T) {
	prev := maxLineSize
	maxLineSize = 256
	defer func() { maxLineSize = prev }()

	good := `{"type":"transcription.content","transcriptionSid":"GT1","track":"inbound_track","sequenceId":1,"text":"hi","isFinal":true}`
	huge := `{"type":"transcription.meta","payload":{"x":"` + strings.Repeat("a", 1000) + `"}}`
	input := good + "\n" + huge + "\n" + good + "\r\n" + good

	events, stats, err := Decode(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(events) != 3 || stats.Lines != 4 || stats.Content != 3 || stats.Malformed != 1 {
		t.Errorf("events=%d stats=%+v", len(events), stats)
	}
}
