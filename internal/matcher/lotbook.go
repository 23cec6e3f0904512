// Package matcher runs per-ISIN FIFO lot matching over a normalized trade
// table, producing one realized lot per closing trade and applying
// the Spanish two-month loss-suppression rule (spec.md §4.3).
package matcher

import (
	"time"

	"github.com/shopspring/decimal"
)

// lot is one open position waiting to be consumed by a later, opposing
// trade, grounded on the FIFO queue-of-lots pattern (oldest lot always at
// the front, partial consumption shrinks it in place rather than
// replacing it). The same struct backs both directions spec.md §4.3
// describes symmetrically: a buy lot's unitValue is its cost basis per
// share (consumed by a later sell); a short lot's unitValue is the
// original sale's proceeds per share (consumed by a later covering buy).
type lot struct {
	qty       float64
	unitValue decimal.Decimal // EUR per share: cost for a buy lot, proceeds for a short lot
	valueDate time.Time
	isin      string // the ISIN the lot was actually opened under — may differ from the book it lives in after an ISIN change admits it
}

// lotBook is one FIFO queue — either the open buy lots or the open short
// lots — for a single ISIN.
type lotBook struct {
	lots []lot
}

func (b *lotBook) push(l lot) {
	if l.qty <= 0 {
		return
	}
	b.lots = append(b.lots, l)
}

func (b *lotBook) available() float64 {
	total := 0.0
	for _, l := range b.lots {
		total += l.qty
	}
	return total
}

// consume removes up to qty shares oldest-first and returns the shares
// actually consumed plus their weighted total EUR value (cost basis for a
// buy book, proceeds for a short book). If the book runs dry, it returns
// fewer shares than requested — the caller decides how to treat the
// shortfall.
func (b *lotBook) consume(qty float64) (consumed float64, value decimal.Decimal) {
	value = decimal.Zero
	for qty > 1e-9 && len(b.lots) > 0 {
		head := &b.lots[0]
		take := head.qty
		if take > qty {
			take = qty
		}
		value = value.Add(head.unitValue.Mul(decimal.NewFromFloat(take)))
		head.qty -= take
		qty -= take
		consumed += take
		if head.qty <= 1e-9 {
			b.lots = b.lots[1:]
		}
	}
	return consumed, value
}
