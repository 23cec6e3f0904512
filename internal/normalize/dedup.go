package normalize

import (
	"sort"

	"degiro-returns/internal/trade"
)

// dedupKey identifies an exact-duplicate trade row. Two rows are duplicates
// only if every economically meaningful field matches; RowIndex is
// deliberately excluded since CSV exports occasionally repeat a line
// verbatim at a different position (spec.md §4.2(j)).
type dedupKey struct {
	ts       int64
	isin     string
	action   trade.Action
	number   float64
	price    float64
	cash     string
	orderID  string
}

// dedupAndSort implements stage (j): drop exact duplicates and return the
// table sorted ascending by value_date, breaking ties by RowIndex, which is
// the order the matcher and the two-month rule both require.
func dedupAndSort(trades []trade.Trade) []trade.Trade {
	seen := map[dedupKey]bool{}
	out := make([]trade.Trade, 0, len(trades))
	for _, t := range trades {
		k := dedupKey{
			ts:      t.Timestamp.UnixNano(),
			isin:    t.ISIN,
			action:  t.Action,
			number:  t.Number,
			price:   t.Price,
			cash:    t.Cash.String(),
			orderID: t.OrderID,
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, t)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].ValueDate.Equal(out[j].ValueDate) {
			return out[i].ValueDate.Before(out[j].ValueDate)
		}
		return out[i].RowIndex < out[j].RowIndex
	})
	return out
}
