package matcher

import (
	"degiro-returns/internal/trade"
)

const twoMonthWindowDays = 60

// ApplyTwoMonthRule implements the Spanish "two-month rule" (spec.md §4.3
// step 6, §8 P5): a realized loss is discarded entirely if an opposing
// fill on the same ISIN lands strictly within the 60 days following the
// triggering trade — a repurchase after a loss-making sell, or
// symmetrically a re-short after a loss-making short cover (§4.3 step 6
// compares opp_df generically, not just buys). The window is exclusive
// at both ends: a fill on the trigger date itself or exactly 60 days
// later does not trigger suppression.
func ApplyTwoMonthRule(lots []RealizedLot, trades []trade.Trade) []RealizedLot {
	datesByISINAndAction := map[string]map[trade.Action][]int64{}
	for _, t := range trades {
		if t.Category != trade.CategoryStock || !t.IsFill() {
			continue
		}
		byAction, ok := datesByISINAndAction[t.ISIN]
		if !ok {
			byAction = map[trade.Action][]int64{}
			datesByISINAndAction[t.ISIN] = byAction
		}
		byAction[t.Action] = append(byAction[t.Action], t.ValueDate.Unix())
	}

	out := make([]RealizedLot, len(lots))
	for i, l := range lots {
		out[i] = l
		if l.PnL.Sign() >= 0 {
			continue
		}
		triggerUnix := l.TriggerDate.Unix()
		// The opposing side to watch for: a sell-closed long looks for a
		// later buy (repurchase); a buy-closed short looks for a later sell
		// (re-short).
		opposing := trade.ActionBuy
		if l.TriggerAction == trade.ActionBuy {
			opposing = trade.ActionSell
		}
		for _, otherUnix := range datesByISINAndAction[l.ISIN][opposing] {
			daysAfter := (otherUnix - triggerUnix) / 86400
			if daysAfter > 0 && daysAfter < twoMonthWindowDays {
				out[i].Suppressed = true
				break
			}
		}
	}
	return out
}
