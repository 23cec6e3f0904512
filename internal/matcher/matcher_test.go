package matcher

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"degiro-returns/internal/trade"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func stockTrade(t *testing.T, isin string, action trade.Action, number float64, eurVar string, valueDate string, rowIndex int) trade.Trade {
	t.Helper()
	return trade.Trade{
		ISIN:         isin,
		Action:       action,
		Number:       number,
		Var:          decimal.RequireFromString(eurVar),
		VarCurrency:  "EUR",
		CashCurrency: "EUR",
		CurrRate:     decimal.NewFromInt(1),
		Category:     trade.CategoryStock,
		ValueDate:    mustDate(t, valueDate),
		RowIndex:     rowIndex,
	}
}

func TestMatch_FIFOBasicGain(t *testing.T) {
	trades := []trade.Trade{
		stockTrade(t, "US1", trade.ActionBuy, 10, "-100", "2024-01-01", 1),
		stockTrade(t, "US1", trade.ActionSell, 10, "150", "2024-06-01", 2),
	}

	lots, err := Match(context.Background(), trades, nil)
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.Equal(t, 10.0, lots[0].Quantity)
	assert.True(t, lots[0].PnL.Equal(decimal.RequireFromString("50")))
}

func TestMatch_FIFOPartialConsumptionOrder(t *testing.T) {
	trades := []trade.Trade{
		stockTrade(t, "US1", trade.ActionBuy, 5, "-50", "2024-01-01", 1),  // unit cost 10
		stockTrade(t, "US1", trade.ActionBuy, 5, "-100", "2024-02-01", 2), // unit cost 20
		stockTrade(t, "US1", trade.ActionSell, 6, "120", "2024-03-01", 3), // unit proceeds 20
	}

	lots, err := Match(context.Background(), trades, nil)
	require.NoError(t, err)
	require.Len(t, lots, 1)
	// 5 shares at cost 10 + 1 share at cost 20 = 70 cost basis; proceeds 120.
	assert.True(t, lots[0].CostBasis.Equal(decimal.RequireFromString("70")))
	assert.True(t, lots[0].PnL.Equal(decimal.RequireFromString("50")))
}

func TestMatch_ISINChangeAdmitsOldLots(t *testing.T) {
	trades := []trade.Trade{
		stockTrade(t, "OLD1", trade.ActionBuy, 10, "-100", "2024-01-01", 1),
	}
	// Mark a later sell under the new ISIN as linked to the old one, as
	// stage (i) of the normalizer would.
	sell := stockTrade(t, "NEW1", trade.ActionSell, 10, "200", "2024-06-01", 2)
	sell.ISINChange = "OLD1"
	trades = append(trades, sell)

	pairs := map[string]string{"NEW1": "OLD1"}
	lots, err := Match(context.Background(), trades, pairs)
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.True(t, lots[0].ISINChanged)
	assert.True(t, lots[0].PnL.Equal(decimal.RequireFromString("100")))
}

func TestMatch_ShortSaleThenCoverRealizesSymmetrically(t *testing.T) {
	trades := []trade.Trade{
		// Sells 10 shares with no prior buy lots: opens a 10-share short at
		// proceeds 15/share.
		stockTrade(t, "US1", trade.ActionSell, 10, "150", "2024-01-01", 1),
		// Covers the short at cost 10/share: realizes a 50 gain.
		stockTrade(t, "US1", trade.ActionBuy, 10, "-100", "2024-03-01", 2),
	}

	lots, err := Match(context.Background(), trades, nil)
	require.NoError(t, err)
	require.Len(t, lots, 1)

	lot := lots[0]
	assert.Equal(t, trade.ActionBuy, lot.TriggerAction)
	assert.Equal(t, 10.0, lot.Quantity)
	assert.True(t, lot.Proceeds.Equal(decimal.RequireFromString("150")))
	assert.True(t, lot.CostBasis.Equal(decimal.RequireFromString("100")))
	assert.True(t, lot.PnL.Equal(decimal.RequireFromString("50")))
}

func TestMatch_PartialShortCoverLeavesShortOpen(t *testing.T) {
	trades := []trade.Trade{
		stockTrade(t, "US1", trade.ActionSell, 10, "150", "2024-01-01", 1), // short 10 @ 15
		stockTrade(t, "US1", trade.ActionBuy, 4, "-40", "2024-03-01", 2),   // covers 4 @ 10
	}

	lots, err := Match(context.Background(), trades, nil)
	require.NoError(t, err)
	require.Len(t, lots, 1)

	lot := lots[0]
	assert.Equal(t, 4.0, lot.Quantity)
	assert.True(t, lot.Proceeds.Equal(decimal.RequireFromString("60")))
	assert.True(t, lot.CostBasis.Equal(decimal.RequireFromString("40")))
	assert.True(t, lot.PnL.Equal(decimal.RequireFromString("20")))
}

func TestApplyTwoMonthRule_SuppressesLossWithBuyWithinWindow(t *testing.T) {
	trades := []trade.Trade{
		stockTrade(t, "US1", trade.ActionBuy, 10, "-100", "2024-01-01", 1),
		stockTrade(t, "US1", trade.ActionSell, 10, "80", "2024-03-01", 2),
		stockTrade(t, "US1", trade.ActionBuy, 10, "-90", "2024-03-20", 3),
	}
	lots, err := Match(context.Background(), trades[:2], nil)
	require.NoError(t, err)
	require.Len(t, lots, 1)
	require.True(t, lots[0].PnL.IsNegative())

	out := ApplyTwoMonthRule(lots, trades)
	require.Len(t, out, 1)
	assert.True(t, out[0].Suppressed)
}

func TestApplyTwoMonthRule_DoesNotSuppressOutsideWindow(t *testing.T) {
	trades := []trade.Trade{
		stockTrade(t, "US1", trade.ActionBuy, 10, "-100", "2024-01-01", 1),
		stockTrade(t, "US1", trade.ActionSell, 10, "80", "2024-03-01", 2),
		stockTrade(t, "US1", trade.ActionBuy, 10, "-90", "2024-06-01", 3),
	}
	lots, err := Match(context.Background(), trades[:2], nil)
	require.NoError(t, err)

	out := ApplyTwoMonthRule(lots, trades)
	require.Len(t, out, 1)
	assert.False(t, out[0].Suppressed)
}
