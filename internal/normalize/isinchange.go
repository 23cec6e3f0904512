package normalize

import (
	"fmt"
	"strings"
	"time"

	"degiro-returns/internal/trade"
)

func isISINChangeRow(desc string) bool {
	return strings.HasPrefix(desc, "CAMBIO DE ISIN")
}

type isinChangeEvent struct {
	oldISIN, newISIN string
	date             time.Time
}

// linkISINChanges implements stage (i): pair the two unintended CAMBIO DE
// ISIN rows a corporate action produces (spec.md §3, §4.2(i)), link them
// symmetrically via Trade.ISINChange, and propagate the link forward onto
// every later intended sell of the new ISIN so the matcher can admit
// old-ISIN buy lots against it (spec.md §4.3).
func linkISINChanges(trades []trade.Trade) (map[string]string, error) {
	byDate := map[time.Time][]int{}
	for i, t := range trades {
		if t.Unintended && isISINChangeRow(t.Description) {
			byDate[t.ValueDate] = append(byDate[t.ValueDate], i)
		}
	}

	pairs := map[string]string{} // new ISIN -> old ISIN
	var events []isinChangeEvent

	for date, idxs := range byDate {
		if len(idxs) != 2 {
			return nil, fmt.Errorf("%w: %d unintended ISIN-change rows on %s, want 2",
				trade.ErrISINChangeMismatch, len(idxs), date.Format("2006-01-02"))
		}
		sellIdx, buyIdx := idxs[0], idxs[1]
		if trades[sellIdx].Action != trade.ActionSell {
			sellIdx, buyIdx = buyIdx, sellIdx
		}
		if trades[sellIdx].Action != trade.ActionSell || trades[buyIdx].Action != trade.ActionBuy {
			return nil, fmt.Errorf("%w: ISIN-change pair on %s is not one sell + one buy",
				trade.ErrISINChangeMismatch, date.Format("2006-01-02"))
		}

		oldISIN, newISIN := trades[sellIdx].ISIN, trades[buyIdx].ISIN
		trades[sellIdx].ISINChange = newISIN
		trades[buyIdx].ISINChange = oldISIN
		pairs[newISIN] = oldISIN
		events = append(events, isinChangeEvent{oldISIN: oldISIN, newISIN: newISIN, date: date})
	}

	for i, t := range trades {
		if t.Unintended || !t.IsFill() || t.Action != trade.ActionSell {
			continue
		}
		for _, ev := range events {
			if t.ISIN == ev.newISIN && t.ValueDate.After(ev.date) {
				trades[i].ISINChange = ev.oldISIN
				break
			}
		}
	}

	return pairs, nil
}
