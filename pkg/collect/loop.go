// Package collect drives a resumable collection loop over a checkpoint
// store. The actual per-item data acquisition (network calls, parsing) is
// supplied by the caller as a Fetcher; this package only sequences resume,
// accumulation and periodic flushing.
package collect

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/trialpipe/trialpipe/pkg/checkpoint"
	"github.com/trialpipe/trialpipe/pkg/dataset"
)

// Fetcher produces the result record for one unit of work. Index is the
// zero-based position within the run.
type Fetcher func(ctx context.Context, index int) (dataset.Row, error)

// Loop resumes a phase from its latest checkpoint and advances it to
// completion, flushing a snapshot every store interval and once at the end.
type Loop struct {
	store  *checkpoint.Store
	phase  checkpoint.Phase
	logger *slog.Logger
}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) { l.logger = logger }
}

// NewLoop creates a collection loop for one phase.
func NewLoop(store *checkpoint.Store, phase checkpoint.Phase, opts ...Option) *Loop {
	l := &Loop{
		store:  store,
		phase:  phase,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Run processes items [cursor, total) where cursor comes from the latest
// checkpoint (0 on a fresh run). The accumulated payload is returned on
// success. A fetch error or context cancellation flushes the work completed
// so far and returns the cause; the next Run resumes after the last fully
// processed item. Retries are the caller's responsibility.
func (l *Loop) Run(ctx context.Context, total int, fetch Fetcher) (*dataset.Dataset, error) {
	payload, counters, start, err := l.resume()
	if err != nil {
		return nil, err
	}

	counters.TotalExpected = total

	for index := start; index < total; index++ {
		err = ctx.Err()
		if err != nil {
			return payload, l.abort(index, payload, counters, fmt.Errorf("collection cancelled: %w", err))
		}

		row, fetchErr := fetch(ctx, index)
		if fetchErr != nil {
			return payload, l.abort(index, payload, counters, fmt.Errorf("fetch item %d: %w", index, fetchErr))
		}

		payload.Append(row)

		if l.store.ShouldFlush(index) {
			err = l.store.Save(l.phase, index+1, payload, counters)
			if err != nil {
				return payload, fmt.Errorf("flush checkpoint: %w", err)
			}
		}
	}

	err = l.store.Save(l.phase, total, payload, counters)
	if err != nil {
		return payload, fmt.Errorf("final checkpoint: %w", err)
	}

	l.logger.Info("collection complete", "phase", l.phase, "records", payload.Len())

	return payload, nil
}

// resume restores state from the latest checkpoint, or starts fresh.
func (l *Loop) resume() (*dataset.Dataset, checkpoint.Counters, int, error) {
	snapshot, err := l.store.LoadLatest(l.phase)
	if err != nil {
		return nil, checkpoint.Counters{}, 0, fmt.Errorf("resume %s: %w", l.phase, err)
	}

	if snapshot == nil {
		return dataset.New(), checkpoint.Counters{}, 0, nil
	}

	payload := snapshot.Payload

	return &payload, snapshot.Counters, snapshot.Cursor, nil
}

// abort flushes completed work at the given cursor before surfacing cause.
// The flush error, if any, is secondary to the original cause.
func (l *Loop) abort(cursor int, payload *dataset.Dataset, counters checkpoint.Counters, cause error) error {
	saveErr := l.store.Save(l.phase, cursor, payload, counters)
	if saveErr != nil {
		l.logger.Warn("abort flush failed", "phase", l.phase, "cursor", cursor, "error", saveErr)
	}

	return cause
}
