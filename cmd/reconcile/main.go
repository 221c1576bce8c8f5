// Package main reconciles a transcript log into ordered per-track sessions.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/call-controller/internal/eventlog"
	"github.com/capitalize-ai/call-controller/internal/reconcile"
	"github.com/capitalize-ai/call-controller/pkg/logger"
)

type output struct {
	Stats    reconcile.Stats     `json:"stats"`
	Sessions []reconcile.Session `json:"sessions"`
}

func main() {
	log, err := logger.New(os.Getenv("LOG_LEVEL"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Error("reconcile failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("reconcile", flag.ContinueOnError)
	file := fs.String("file", "logs/"+eventlog.DefaultFiles[eventlog.StreamTranscripts], "transcript log to read")
	finals := fs.Bool("finals", false, "only emit final segments")
	callSid := fs.String("call", "", "only emit sessions for this call")
	since := fs.String("since", "", "only emit segments ingested at or after this RFC 3339 time")
	if err := fs.Parse(args); err != nil {
		return err
	}

	f, err := os.Open(*file)
	if err != nil {
		return fmt.Errorf("failed to open transcript log: %w", err)
	}
	defer f.Close()

	events, stats, err := reconcile.Decode(f)
	if err != nil {
		return fmt.Errorf("failed to read transcript log: %w", err)
	}

	sessions := reconcile.Reconcile(events)
	if *since != "" {
		t, err := time.Parse(time.RFC3339, *since)
		if err != nil {
			return fmt.Errorf("invalid -since: %w", err)
		}
		sessions = reconcile.Since(sessions, t)
	}
	if *callSid != "" {
		sessions = reconcile.ForCall(sessions, *callSid)
	}
	if *finals {
		sessions = reconcile.Finals(sessions)
	}
	if sessions == nil {
		sessions = []reconcile.Session{}
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(output{Stats: stats, Sessions: sessions})
}
