// Package aggregate rolls FIFO-matched lots up into the per-ISIN and
// portfolio-wide summary the API returns (spec.md §4.4).
package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"

	"degiro-returns/internal/matcher"
	"degiro-returns/internal/trade"
)

// ISINSummary is the realized result for one instrument. Dividends is
// tag-only (spec.md §1 Non-goals: "only category = 'stock' participates
// in return computation … no support for … dividends beyond tagging
// them") — it is reported for visibility but never folded into
// RealizedPnL or GlobalReturn.
type ISINSummary struct {
	ISIN           string          `json:"isin"`
	Product        string          `json:"product"`
	RealizedPnL    decimal.Decimal `json:"realized_pnl"`
	SuppressedLoss decimal.Decimal `json:"suppressed_loss"` // losses discarded by the two-month rule, for transparency
	Dividends      decimal.Decimal `json:"dividends"`       // tagged only, excluded from realized_pnl/global_return
	LotCount       int             `json:"lot_count"`
}

// Summary is the top-level return computation result.
type Summary struct {
	ISINs        []ISINSummary   `json:"isins"`
	GlobalReturn decimal.Decimal `json:"global_return"`
	TotalDividends decimal.Decimal `json:"total_dividends"`
}

// Aggregate implements spec.md §4.4: sum realized stock lots per ISIN
// into global_return = Σ total_return (excluding two-month-suppressed
// losses from the realized total but reporting them separately).
// Dividend cash flows are tagged per ISIN for visibility only — §1's
// Non-goals keep them out of the realized-return sum entirely.
func Aggregate(lots []matcher.RealizedLot, trades []trade.Trade) Summary {
	product := map[string]string{}
	order := []string{}
	bucket := map[string]*ISINSummary{}

	ensure := func(isin string) *ISINSummary {
		s, ok := bucket[isin]
		if !ok {
			s = &ISINSummary{ISIN: isin, Product: product[isin], RealizedPnL: decimal.Zero, SuppressedLoss: decimal.Zero, Dividends: decimal.Zero}
			bucket[isin] = s
			order = append(order, isin)
		}
		return s
	}

	for _, t := range trades {
		if t.ISIN != "" {
			if _, ok := product[t.ISIN]; !ok {
				product[t.ISIN] = t.Product
			}
		}
	}

	for _, l := range lots {
		s := ensure(l.ISIN)
		s.Product = product[l.ISIN]
		if l.Suppressed {
			s.SuppressedLoss = s.SuppressedLoss.Add(l.PnL)
			continue
		}
		s.RealizedPnL = s.RealizedPnL.Add(l.PnL)
		s.LotCount++
	}

	for _, t := range trades {
		if t.Category != trade.CategoryDividend {
			continue
		}
		s := ensure(t.ISIN)
		s.Product = product[t.ISIN]
		s.Dividends = s.Dividends.Add(t.EUR(t.Var))
	}

	sort.Strings(order)
	summary := Summary{GlobalReturn: decimal.Zero, TotalDividends: decimal.Zero}
	for _, isin := range order {
		s := *bucket[isin]
		summary.ISINs = append(summary.ISINs, s)
		summary.GlobalReturn = summary.GlobalReturn.Add(s.RealizedPnL)
		summary.TotalDividends = summary.TotalDividends.Add(s.Dividends)
	}
	return summary
}
