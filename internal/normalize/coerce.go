package normalize

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"degiro-returns/internal/trade"
)

// parseLocaleDecimal coerces a locale-formatted number (decimal separator
// ",") to a decimal.Decimal by replacing the first "," with "."; a "."
// is not treated as a thousands separator here. An empty string
// coerces to zero with ok=false, letting the caller distinguish "no value"
// from "zero value".
func parseLocaleDecimal(s string) (decimal.Decimal, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false, nil
	}
	d, err := decimal.NewFromString(strings.Replace(s, ",", ".", 1))
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("%w: invalid decimal %q", trade.ErrParse, s)
	}
	return d, true, nil
}

// parseDescriptionNumber coerces a description-embedded number, which uses
// "." as a thousands separator in addition to "," as the decimal separator
// (spec.md §4.2(c)): "1.234,56" -> 1234.56.
func parseDescriptionNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid description number %q", trade.ErrParse, s)
	}
	f, _ := d.Float64()
	return f, nil
}

// coerceTypes implements stage (b): parse Var/Cash (comma decimal), keep
// curr_rate as a raw string for now (locales sometimes leave it blank
// rather than a clean numeric literal, and stage (g) decides what that
// means once FX attachment runs).
func coerceTypes(w *workRow) error {
	v, ok, err := parseLocaleDecimal(w.Var)
	if err != nil {
		return err
	}
	w.varAmount = v
	c, _, err := parseLocaleDecimal(w.Cash)
	if err != nil {
		return err
	}
	w.cashAmount = c
	w.hasVarCash = ok
	return nil
}
