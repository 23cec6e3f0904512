package normalize

import (
	"strings"

	"degiro-returns/internal/trade"
)

// optionMonthTokens classify a description as an option fill (spec.md
// §4.2(h)).
var optionMonthTokens = []string{
	"JAN2", "FEB2", "MAR2", "APR2", "JUN2", "JUL2", "AUG2", "SEP2", "OCT2", "NOV2", "DEC2",
}

// descActionWords maps the Spanish fill verbs to canonical actions
// (spec.md §4.2(c)).
var descActionWords = map[string]trade.Action{
	"Compra": trade.ActionBuy,
	"Venta":  trade.ActionSell,
}

// parseDescription implements stage (c): extract action/number/price/
// price-currency from the free-text description. Malformed or
// unrecognized descriptions are tolerated — they yield an all-null fill
// (trade.ActionNone), the row is retained (spec.md §4.2 Failure modes).
func parseDescription(desc string) (action trade.Action, number, price float64, priceCur string, ok bool) {
	switch {
	case strings.HasPrefix(desc, "Compra"), strings.HasPrefix(desc, "Venta"):
		return splitFill(desc)
	case strings.HasPrefix(desc, "ESCISI"):
		if i := strings.Index(desc, ": "); i >= 0 {
			return splitFill(desc[i+2:])
		}
	case strings.HasPrefix(desc, "VENCIMIENTO"):
		if i := strings.Index(desc, ": "); i >= 0 {
			return splitFill(desc[i+2:])
		}
	case strings.HasPrefix(desc, "CAMBIO DE ISIN"):
		if i := strings.Index(desc, ": "); i >= 0 {
			return splitFill(desc[i+2:])
		}
	}
	return trade.ActionNone, 0, 0, "", false
}

// splitFill parses "Compra N @ P CCY" / "Venta N @ P CCY" (spec.md
// §4.2(c)).
func splitFill(s string) (action trade.Action, number, price float64, priceCur string, ok bool) {
	parts := strings.SplitN(s, "@", 2)
	if len(parts) != 2 {
		return trade.ActionNone, 0, 0, "", false
	}
	lhs := strings.Fields(parts[0])
	rhs := strings.Fields(parts[1])
	if len(lhs) < 2 || len(rhs) < 2 {
		return trade.ActionNone, 0, 0, "", false
	}
	act, known := descActionWords[lhs[0]]
	if !known {
		return trade.ActionNone, 0, 0, "", false
	}
	n, err := parseDescriptionNumber(lhs[1])
	if err != nil {
		return trade.ActionNone, 0, 0, "", false
	}
	p, err := parseDescriptionNumber(rhs[0])
	if err != nil {
		return trade.ActionNone, 0, 0, "", false
	}
	return act, n, p, rhs[1], true
}

// containsOptionToken reports whether desc encodes an option expiry month.
func containsOptionToken(desc string) bool {
	for _, tok := range optionMonthTokens {
		if strings.Contains(desc, tok) {
			return true
		}
	}
	return false
}

// categorize implements stage (h).
func categorize(desc string, action trade.Action) trade.Category {
	switch {
	case containsOptionToken(desc):
		return trade.CategoryOption
	case action == trade.ActionBuy || action == trade.ActionSell:
		return trade.CategoryStock
	case desc == "Dividendo":
		return trade.CategoryDividend
	default:
		return trade.CategoryNone
	}
}
