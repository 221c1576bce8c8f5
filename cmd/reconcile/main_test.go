package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const transcriptLog = `{"id":"1","ts":"2026-01-01T00:00:01Z","type":"transcription.content","callSid":"CA1","transcriptionSid":"GT1","track":"inbound_track","sequenceId":2,"text":"world","confidence":null,"isFinal":true}
{"id":"2","ts":"2026-01-01T00:00:02Z","type":"transcription.content","callSid":"CA1","transcriptionSid":"GT1","track":"inbound_track","sequenceId":1,"text":"hel","confidence":null,"isFinal":false}
{"id":"3","ts":"2026-01-01T00:00:03Z","type":"transcription.meta","event":"transcription-started","payload":{}}
not json
{"id":"4","ts":"2026-01-01T00:00:04Z","type":"transcription.content","callSid":"CA1","transcriptionSid":"GT1","track":"inbound_track","sequenceId":1,"text":"hello","confidence":0.9,"isFinal":true}
{"id":"5","ts":"2026-01-01T00:00:05Z","type":"transcription.content","callSid":"CA2","transcriptionSid":"GT2","track":"outbound_track","sequenceId":1,"text":"other","confidence":null,"isFinal":false}
`

type decoded struct {
	Stats struct {
		Lines     int `json:"lines"`
		Content   int `json:"content"`
		Skipped   int `json:"skipped"`
		Malformed int `json:"malformed"`
	} `json:"stats"`
	Sessions []struct {
		CallSid  string `json:"callSid"`
		Segments []struct {
			Text string `json:"text"`
		} `json:"segments"`
	} `json:"sessions"`
}

func runReconcile(t *testing.T, args ...string) decoded {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transcripts.jsonl")
	if err := os.WriteFile(path, []byte(transcriptLog), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	var out bytes.Buffer
	if err := run(append([]string{"-file", path}, args...), &out); err != nil {
		t.Fatalf("run: %v", err)
	}

	var d decoded
	if err := json.Unmarshal(out.Bytes(), &d); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	return d
}

func texts(d decoded, i int) string {
	parts := make([]string, 0, len(d.Sessions[i].Segments))
	for _, s := range d.Sessions[i].Segments {
		parts = append(parts, s.Text)
	}
	return strings.Join(parts, " ")
}

func TestRun(t *testing.T) {
	d := runReconcile(t)
	if d.Stats.Lines != 6 || d.Stats.Content != 4 || d.Stats.Skipped != 1 || d.Stats.Malformed != 1 {
		t.Errorf("unexpected stats %+v", d.Stats)
	}
	if len(d.Sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(d.Sessions))
	}
	if got := texts(d, 0); got != "hello world" {
		t.Errorf("session text = %q, want %q", got, "hello world")
	}
}

func TestRun_Filters(t *testing.T) {
	d := runReconcile(t, "-call", "CA2")
	if len(d.Sessions) != 1 || d.Sessions[0].CallSid != "CA2" {
		t.Fatalf("unexpected sessions %+v", d.Sessions)
	}

	d = runReconcile(t, "-call", "CA2", "-finals")
	if len(d.Sessions) != 1 || len(d.Sessions[0].Segments) != 0 {
		t.Errorf("expected no final segments, got %+v", d.Sessions)
	}

	d = runReconcile(t, "-since", "2026-01-01T00:00:04Z")
	if len(d.Sessions) != 2 || texts(d, 0) != "hello" {
		t.Errorf("unexpected sessions after -since: %+v", d.Sessions)
	}
}

func TestRun_MissingFile(t *testing.T) {
	var out bytes.Buffer
	if err := run([]string{"-file", filepath.Join(t.TempDir(), "missing.jsonl")}, &out); err == nil {
		t.Error("expected error for missing file")
	}
}
