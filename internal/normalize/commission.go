package normalize

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"degiro-returns/internal/trade"
)

// commissionCarrier reports whether w is a fee sub-row: order-linked, no
// side of its own, and not itself a currency-conversion ("Divisa") leg
// (spec.md §4.2(g)). Carrier rows are consumed during attachment and never
// become standalone Trades.
func commissionCarrier(w workRow) bool {
	return w.action == trade.ActionNone && w.OrderID != "" && !strings.Contains(w.Desc, "Divisa")
}

// fxTables builds the per-order commission sum and FX rate lookups from
// the post-orphan-merge raw table (stage (g) operates on the raw table,
// not the order-merged one, since commission/FX legs are separate rows
// from the fill they fund).
func fxTables(rows []workRow) (commission map[string]decimal.Decimal, fx map[string]decimal.Decimal, err error) {
	commission = map[string]decimal.Decimal{}
	fx = map[string]decimal.Decimal{}

	for _, w := range rows {
		if commissionCarrier(w) {
			commission[w.OrderID] = commission[w.OrderID].Add(w.varAmount)
		}
		if w.OrderID == "" || w.CurrRate == "" {
			continue
		}
		if _, seen := fx[w.OrderID]; seen {
			continue // first non-empty curr_rate per order id wins
		}
		rate, _, err := parseLocaleDecimal(w.CurrRate)
		if err != nil {
			return nil, nil, fmt.Errorf("order %s: %w", w.OrderID, err)
		}
		fx[w.OrderID] = rate
	}
	return commission, fx, nil
}

// resolveCurrRate implements the FX side of stage (g): prefer an
// order-linked FX rate, fall back to the row's own curr_rate field, and
// force 1.0 whenever the cash currency is already EUR. A non-EUR row with
// no FX rate anywhere is a fatal FX_MISSING error (spec.md §4.2 Failure
// modes, §6).
func resolveCurrRate(cashCur string, ownCurrRate string, orderFX decimal.Decimal, haveOrderFX bool) (decimal.Decimal, error) {
	if cashCur == "EUR" || cashCur == "" {
		return decimal.NewFromInt(1), nil
	}
	if haveOrderFX {
		return orderFX, nil
	}
	if ownCurrRate != "" {
		rate, _, err := parseLocaleDecimal(ownCurrRate)
		if err != nil {
			return decimal.Zero, err
		}
		return rate, nil
	}
	return decimal.Zero, fmt.Errorf("%w: no FX rate for %s cash leg", trade.ErrFXMissing, cashCur)
}
