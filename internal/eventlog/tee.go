package eventlog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/capitalize-ai/call-controller/internal/model"
	"github.com/capitalize-ai/call-controller/pkg/metrics"
)

// DefaultMirrorTimeout bounds a single mirror append.
const DefaultMirrorTimeout = 2 * time.Second

// TeeLog appends every record to a primary sink and a set of mirrors.
type TeeLog struct {
	sinks         []Log
	mirrorTimeout time.Duration
}

// Tee combines sinks. The primary is written first; mirrors are written even
// when the primary fails.
func Tee(primary Log, mirrors ...Log) *TeeLog {
	sinks := make([]Log, 0, 1+len(mirrors))
	sinks = append(sinks, primary)
	for _, m := range mirrors {
		if m != nil {
			sinks = append(sinks, m)
		}
	}
	return &TeeLog{sinks: sinks, mirrorTimeout: DefaultMirrorTimeout}
}

// WithMirrorTimeout sets the per-mirror append deadline. Non-positive values
// keep the current one.
func (t *TeeLog) WithMirrorTimeout(d time.Duration) *TeeLog {
	if d > 0 {
		t.mirrorTimeout = d
	}
	return t
}

// Name implements Named.
func (t *TeeLog) Name() string { return "tee" }

// Append implements Log. The primary is written first; mirrors are then
// written concurrently, each under its own deadline, so a stalled broker
// delays the caller by at most the mirror timeout. Errors are joined.
func (t *TeeLog) Append(ctx context.Context, stream Stream, rec model.Record) error {
	errs := make([]error, len(t.sinks))
	errs[0] = appendTo(ctx, t.sinks[0], stream, rec)

	var wg sync.WaitGroup
	for i := 1; i < len(t.sinks); i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			mctx, cancel := context.WithTimeout(ctx, t.mirrorTimeout)
			defer cancel()
			errs[i] = appendTo(mctx, t.sinks[i], stream, rec)
		}(i)
	}
	wg.Wait()

	return errors.Join(errs...)
}

func appendTo(ctx context.Context, sink Log, stream Stream, rec model.Record) error {
	name := sinkName(sink)
	start := time.Now()
	err := sink.Append(ctx, stream, rec)
	metrics.RecordAppend(name, string(stream), err, time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// Close closes every sink and joins their errors.
func (t *TeeLog) Close() error {
	var errs []error
	for _, sink := range t.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", sinkName(sink), err))
		}
	}
	return errors.Join(errs...)
}
