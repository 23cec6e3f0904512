// Package pipeline wires ingest -> normalize -> matcher -> aggregate into
// the single entry point the CLI and HTTP server both call (spec.md §4.5).
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"degiro-returns/internal/aggregate"
	"degiro-returns/internal/ingest"
	"degiro-returns/internal/matcher"
	"degiro-returns/internal/metrics"
	"degiro-returns/internal/normalize"
	"degiro-returns/internal/trade"
)

// Window restricts the realized result to triggering trades settled
// strictly between Start and End, both exclusive (spec.md §4.3 step 2,
// §4.4: `value_date ∈ (start_date, end_date)`). Matching itself always
// runs over the full trade history — a sell near the start of the window
// may need lots bought before it — and only the final aggregation is
// windowed.
type Window struct {
	Start time.Time // zero value means unbounded
	End   time.Time
}

func (w Window) includes(d time.Time) bool {
	if !w.Start.IsZero() && !d.After(w.Start) {
		return false
	}
	if !w.End.IsZero() && !d.Before(w.End) {
		return false
	}
	return true
}

// ErrKind classifies a pipeline failure for the HTTP boundary's status
// code mapping (spec.md §7).
type ErrKind string

const (
	ErrKindFileNotFound ErrKind = "FILE_NOT_FOUND"
	ErrKindParse        ErrKind = "PARSE_ERROR"
	ErrKindISINChange   ErrKind = "ISIN_CHANGE_MISMATCH"
	ErrKindFXMissing    ErrKind = "FX_MISSING"
	ErrKindAmbiguous    ErrKind = "AMBIGUOUS_ORDER"
	ErrKindInternal     ErrKind = "INTERNAL"
)

// Classify maps a pipeline error to its external error kind (spec.md §7
// ERROR HANDLING DESIGN). ErrEmptyDataset is deliberately absent — callers
// check for it with errors.Is before calling Classify, since it isn't a
// failure at all (an empty dataset returns an empty Summary).
func Classify(err error) ErrKind {
	switch {
	case errors.Is(err, ingest.ErrFileNotFound):
		return ErrKindFileNotFound
	case errors.Is(err, trade.ErrISINChangeMismatch):
		return ErrKindISINChange
	case errors.Is(err, trade.ErrFXMissing):
		return ErrKindFXMissing
	case errors.Is(err, trade.ErrAmbiguousOrder):
		return ErrKindAmbiguous
	case errors.Is(err, trade.ErrParse), errors.Is(err, ingest.ErrParse), errors.Is(err, trade.ErrOrphanWithoutMother):
		return ErrKindParse
	default:
		return ErrKindInternal
	}
}

// ComputeReturns runs the full pipeline against one CSV file and returns
// the windowed summary.
func ComputeReturns(ctx context.Context, log *zap.Logger, csvPath string, window Window) (aggregate.Summary, error) {
	if log == nil {
		log = zap.NewNop()
	}

	start := time.Now()
	defer func() {
		metrics.ComputeDuration.Observe(time.Since(start).Seconds())
	}()

	recordErr := func(err error) error {
		metrics.PipelineErrors.WithLabelValues(string(Classify(err))).Inc()
		return err
	}

	raws, err := ingest.ReadFile(csvPath)
	if err != nil {
		if errors.Is(err, trade.ErrEmptyDataset) {
			return aggregate.Summary{}, nil
		}
		return aggregate.Summary{}, recordErr(fmt.Errorf("ingest: %w", err))
	}

	result, err := normalize.Normalize(log, raws)
	if err != nil {
		if errors.Is(err, trade.ErrEmptyDataset) {
			return aggregate.Summary{}, nil
		}
		return aggregate.Summary{}, recordErr(fmt.Errorf("normalize: %w", err))
	}

	metrics.TradesProcessed.Observe(float64(len(result.Trades)))

	lots, err := matcher.Match(ctx, result.Trades, result.ISINChangePairs)
	if err != nil {
		return aggregate.Summary{}, recordErr(fmt.Errorf("match: %w", err))
	}
	lots = matcher.ApplyTwoMonthRule(lots, result.Trades)
	for _, l := range lots {
		if l.Suppressed {
			metrics.TwoMonthSuppressions.Inc()
		}
	}

	windowed := lots[:0:0]
	for _, l := range lots {
		if window.includes(l.TriggerDate) {
			windowed = append(windowed, l)
		}
	}

	summary := aggregate.Aggregate(windowed, result.Trades)

	log.Info("computed returns",
		zap.String("csv_path", csvPath),
		zap.Int("trades", len(result.Trades)),
		zap.Int("realized_lots", len(windowed)),
		zap.String("global_return", summary.GlobalReturn.String()),
	)

	return summary, nil
}
