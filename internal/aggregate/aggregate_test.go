package aggregate

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"degiro-returns/internal/matcher"
	"degiro-returns/internal/trade"
)

func TestAggregate_SumsRealizedAndSuppressedSeparately(t *testing.T) {
	lots := []matcher.RealizedLot{
		{ISIN: "US1", PnL: decimal.RequireFromString("100")},
		{ISIN: "US1", PnL: decimal.RequireFromString("-30"), Suppressed: true},
		{ISIN: "US2", PnL: decimal.RequireFromString("20")},
	}
	trades := []trade.Trade{
		{ISIN: "US1", Product: "ACME"},
		{ISIN: "US2", Product: "OTHER"},
	}

	summary := Aggregate(lots, trades)
	require.Len(t, summary.ISINs, 2)

	byISIN := map[string]ISINSummary{}
	for _, s := range summary.ISINs {
		byISIN[s.ISIN] = s
	}

	assert.True(t, byISIN["US1"].RealizedPnL.Equal(decimal.RequireFromString("100")))
	assert.True(t, byISIN["US1"].SuppressedLoss.Equal(decimal.RequireFromString("-30")))
	assert.True(t, byISIN["US2"].RealizedPnL.Equal(decimal.RequireFromString("20")))
	assert.True(t, summary.GlobalReturn.Equal(decimal.RequireFromString("120")))
}

func TestAggregate_TagsDividendsWithoutAffectingGlobalReturn(t *testing.T) {
	trades := []trade.Trade{
		{ISIN: "US1", Product: "ACME", Category: trade.CategoryDividend, Var: decimal.RequireFromString("10"), CurrRate: decimal.NewFromInt(1)},
	}
	summary := Aggregate(nil, trades)
	require.Len(t, summary.ISINs, 1)
	assert.True(t, summary.ISINs[0].Dividends.Equal(decimal.RequireFromString("10")))
	assert.True(t, summary.TotalDividends.Equal(decimal.RequireFromString("10")))
	assert.True(t, summary.GlobalReturn.IsZero(), "dividends are tag-only and must not contribute to global_return")
}

func TestAggregate_EmptyInputReturnsZero(t *testing.T) {
	summary := Aggregate(nil, nil)
	assert.Empty(t, summary.ISINs)
	assert.True(t, summary.GlobalReturn.IsZero())
}
