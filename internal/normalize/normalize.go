// Package normalize turns the raw, positionally-bound CSV rows ingest
// produces into the canonical Trade table the matcher consumes: orphan
// rows are folded into their mother row, multi-fill orders are collapsed
// into one row per order id, commission and FX sub-rows are attached to
// the fill they fund, and CAMBIO DE ISIN corporate actions are linked
// across the ISIN they replace (spec.md §4.2).
package normalize

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"degiro-returns/internal/trade"
)

// Normalize runs every stage of spec.md §4.2 in order and returns the
// canonical trade table. log may be nil, in which case anomalies that are
// tolerated rather than fatal are simply not reported.
func Normalize(log *zap.Logger, raws []trade.RawRow) (Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if len(raws) == 0 {
		return Result{}, trade.ErrEmptyDataset
	}

	rows, err := buildWorkRows(raws)
	if err != nil {
		return Result{}, err
	}

	rows, err = mergeOrphans(rows)
	if err != nil {
		return Result{}, err
	}

	commission, fx, err := fxTables(rows)
	if err != nil {
		return Result{}, err
	}

	rows, err = mergeOrders(rows)
	if err != nil {
		return Result{}, err
	}

	trades := make([]trade.Trade, 0, len(rows))
	dropped := 0
	for _, w := range rows {
		if w.action == trade.ActionNone && w.OrderID != "" {
			// Commission/FX/Divisa leg, already attached above; it is not
			// itself an executed trade.
			dropped++
			continue
		}

		unintended := (w.action == trade.ActionBuy || w.action == trade.ActionSell) && w.OrderID == ""
		isIntendedFill := (w.action == trade.ActionBuy || w.action == trade.ActionSell) && !unintended

		var rate decimal.Decimal
		if isIntendedFill {
			orderFX, haveFX := fx[w.OrderID]
			rate, err = resolveCurrRate(w.CashCur, w.CurrRate, orderFX, haveFX)
		} else {
			rate, err = resolveCurrRate(w.CashCur, w.CurrRate, decimal.Zero, false)
		}
		if err != nil {
			return Result{}, fmt.Errorf("row %d: %w", w.RowIndex, err)
		}

		t := trade.Trade{
			Timestamp:     w.timestamp,
			ValueDate:     w.valueDate,
			Product:       w.Product,
			ISIN:          w.ISIN,
			Description:   w.Desc,
			Action:        w.action,
			Number:        w.number,
			Price:         w.price,
			PriceCurrency: w.priceCur,
			Var:           w.varAmount,
			VarCurrency:   w.VarCur,
			Cash:          w.cashAmount,
			CashCurrency:  w.CashCur,
			CurrRate:      rate,
			OrderID:       w.OrderID,
			Category:      categorize(w.Desc, w.action),
			Unintended:    unintended,
			RowIndex:      w.RowIndex,
		}

		if isIntendedFill {
			sum := commission[w.OrderID]
			t.Commission = &sum
		}

		trades = append(trades, t)
	}

	pairs, err := linkISINChanges(trades)
	if err != nil {
		return Result{}, err
	}

	out := dedupAndSort(trades)
	if len(out) < len(trades) {
		dropped += len(trades) - len(out)
	}

	log.Debug("normalize complete",
		zap.Int("input_rows", len(raws)),
		zap.Int("output_trades", len(out)),
		zap.Int("dropped", dropped),
		zap.Int("isin_change_pairs", len(pairs)),
	)

	return Result{Trades: out, ISINChangePairs: pairs, Dropped: dropped}, nil
}
