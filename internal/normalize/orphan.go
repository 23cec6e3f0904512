package normalize

import (
	"fmt"

	"degiro-returns/internal/trade"
)

// buildWorkRows applies stages (a)-(c) to every raw row independently.
// Orphan rows (empty RegDate) are flagged rather than rejected here; stage
// (d) decides what to do with them.
func buildWorkRows(raws []trade.RawRow) ([]workRow, error) {
	rows := make([]workRow, len(raws))
	for i, raw := range raws {
		w := workRow{RawRow: raw}
		if raw.RegDate == "" {
			w.orphan = true
			rows[i] = w
			continue
		}

		ts, vd, ok, err := combineTimestamp(raw.RegDate, raw.ValueDate, raw.RegHour)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", raw.RowIndex, err)
		}
		w.timestamp, w.valueDate, w.hasDate = ts, vd, ok

		if err := coerceTypes(&w); err != nil {
			return nil, fmt.Errorf("row %d: %w", raw.RowIndex, err)
		}

		action, number, price, priceCur, ok := parseDescription(raw.Desc)
		w.action, w.number, w.price, w.priceCur = action, number, price, priceCur
		_ = ok // a false here means "no fill encoded", which is a valid, tolerated outcome

		rows[i] = w
	}
	return rows, nil
}

// mergeOrphans implements stage (d): a row with no RegDate is the tail of
// the previous row. Its string columns are appended to the mother row
// (separator: empty string) and the orphan is then dropped. This is the
// explicit forward pass spec.md §9 prescribes in place of the Python
// original's row-shift-and-join.
func mergeOrphans(rows []workRow) ([]workRow, error) {
	if len(rows) == 0 {
		return rows, nil
	}
	if rows[0].orphan {
		return nil, fmt.Errorf("row %d: %w", rows[0].RowIndex, trade.ErrOrphanWithoutMother)
	}

	merged := make([]workRow, 0, len(rows))
	mother := -1 // index into merged of the current mother row
	for _, r := range rows {
		if !r.orphan {
			merged = append(merged, r)
			mother = len(merged) - 1
			continue
		}
		if mother < 0 {
			return nil, fmt.Errorf("row %d: %w", r.RowIndex, trade.ErrOrphanWithoutMother)
		}
		m := &merged[mother]
		m.Product += r.Product
		m.ISIN += r.ISIN
		m.Desc += r.Desc
		m.VarCur += r.VarCur
		m.CashCur += r.CashCur
		m.OrderID += r.OrderID
		m.CurrRate += r.CurrRate
		// Numeric/enum fields (Action, Number, Price, PriceCurrency,
		// Var/Cash amounts, timestamps) are never touched by an orphan
		// merge: the mother row's own description already parsed
		// whatever fill it encodes, and the orphan's continuation text
		// is, by construction, not itself a parseable fill.
	}
	return merged, nil
}
