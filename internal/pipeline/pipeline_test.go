package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"degiro-returns/internal/ingest"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func TestComputeReturns_EndToEndUnbounded(t *testing.T) {
	summary, err := ComputeReturns(context.Background(), zap.NewNop(), "testdata/sample.csv", Window{})
	require.NoError(t, err)
	require.Len(t, summary.ISINs, 1)

	isin := summary.ISINs[0]
	assert.Equal(t, "US0000000001", isin.ISIN)
	assert.Equal(t, "ACME CORP", isin.Product)
	// buy: 10 @ 10,00 funded with a 2,00 commission -> cost basis 102.
	// sell: 10 @ 16,00 -> proceeds 160. Realized gain 58.
	assert.True(t, isin.RealizedPnL.Equal(decimal.RequireFromString("58")), "got %s", isin.RealizedPnL)
	assert.True(t, isin.Dividends.Equal(decimal.RequireFromString("5")), "got %s", isin.Dividends)
	// Dividends are tag-only and must not inflate global_return (spec.md §1 Non-goals).
	assert.True(t, summary.GlobalReturn.Equal(decimal.RequireFromString("58")), "got %s", summary.GlobalReturn)
	assert.True(t, summary.TotalDividends.Equal(decimal.RequireFromString("5")), "got %s", summary.TotalDividends)
}

func TestComputeReturns_WindowExcludesSellOutsideRange(t *testing.T) {
	window := Window{Start: mustDate(t, "2024-01-01"), End: mustDate(t, "2024-02-01")}
	summary, err := ComputeReturns(context.Background(), zap.NewNop(), "testdata/sample.csv", window)
	require.NoError(t, err)
	require.Len(t, summary.ISINs, 1)

	isin := summary.ISINs[0]
	assert.True(t, isin.RealizedPnL.IsZero(), "sell settled in June should be excluded by the window")
	// Dividends are not windowed (spec.md §4.4 sums every dividend cash flow).
	assert.True(t, isin.Dividends.Equal(decimal.RequireFromString("5")))
}

func TestComputeReturns_MissingFileReturnsFileNotFound(t *testing.T) {
	_, err := ComputeReturns(context.Background(), zap.NewNop(), "testdata/does-not-exist.csv", Window{})
	require.Error(t, err)
	assert.Equal(t, ErrKindFileNotFound, Classify(err))
	assert.ErrorIs(t, err, ingest.ErrFileNotFound)
}
