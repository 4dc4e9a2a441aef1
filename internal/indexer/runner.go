package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/matrixise/geb-ledger/internal/event"
	"github.com/matrixise/geb-ledger/internal/metrics"
)

// Source delivers decoded events in consensus order.
type Source interface {
	HeadBlock(ctx context.Context) (uint64, error)
	FetchEvents(ctx context.Context, from, to uint64) ([]event.Event, error)
}

// RunnerConfig bounds the block ranges a Runner scans.
type RunnerConfig struct {
	StartBlock    uint64
	BatchSize     uint64
	Confirmations uint64
}

// Summary describes one Run.
type Summary struct {
	From    uint64
	To      uint64
	Applied int
	Skipped int
}

// Runner scans from the cursor to the confirmed head in fixed windows.
type Runner struct {
	source     Source
	dispatcher *Dispatcher
	cfg        RunnerConfig
}

func NewRunner(source Source, dispatcher *Dispatcher, cfg RunnerConfig) *Runner {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 500
	}
	return &Runner{source: source, dispatcher: dispatcher, cfg: cfg}
}

// Run applies every event up to the confirmed head. It stops at the first
// failing event; a later Run resumes from the cursor.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	defer func() {
		metrics.RunDuration.Observe(time.Since(start).Seconds())
	}()

	summary, err := r.run(ctx)
	if err != nil {
		metrics.RunFailures.Inc()
		slog.Error("Indexer run stopped", "error", err, "applied", summary.Applied)
		return summary, err
	}

	slog.Info("Indexer run completed",
		"from", summary.From,
		"to", summary.To,
		"applied", summary.Applied,
		"skipped", summary.Skipped,
		"duration", time.Since(start).Round(time.Millisecond).String())
	return summary, nil
}

func (r *Runner) run(ctx context.Context) (Summary, error) {
	cursor, err := r.dispatcher.Cursor(ctx)
	if err != nil {
		return Summary{}, err
	}
	next := max(cursor.NextBlock, r.cfg.StartBlock)
	summary := Summary{From: next}

	head, err := r.source.HeadBlock(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to get head block: %w", err)
	}
	if head < r.cfg.Confirmations {
		return summary, nil
	}
	target := head - r.cfg.Confirmations
	if next > target {
		slog.Debug("Nothing to scan", "next_block", next, "target", target)
		return summary, nil
	}

	for from := next; from <= target; {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		to := min(from+r.cfg.BatchSize-1, target)

		events, err := r.source.FetchEvents(ctx, from, to)
		if err != nil {
			return summary, fmt.Errorf("failed to fetch events [%d, %d]: %w", from, to, err)
		}
		slog.Debug("Window fetched", "from", from, "to", to, "events", len(events))

		for _, ev := range events {
			applied, err := r.dispatcher.Apply(ctx, ev)
			if err != nil {
				return summary, err
			}
			if applied {
				summary.Applied++
			} else {
				summary.Skipped++
			}
		}

		if err := r.dispatcher.MarkScanned(ctx, to+1); err != nil {
			return summary, err
		}
		metrics.NextBlock.Set(float64(to + 1))
		summary.To = to
		from = to + 1
	}
	return summary, nil
}
