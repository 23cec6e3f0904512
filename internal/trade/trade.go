// Package trade holds the canonical data model shared by every pipeline
// stage: the raw CSV row, the normalized Trade, and the small enums that
// classify them.
package trade

import (
	"time"

	"github.com/shopspring/decimal"
)

// Action is the side of a fill.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
	ActionNone Action = "none"
)

// Opposite returns the other side of a buy/sell pair. Panics if called on
// ActionNone — callers only ask for the opposite of a real fill.
func (a Action) Opposite() Action {
	switch a {
	case ActionBuy:
		return ActionSell
	case ActionSell:
		return ActionBuy
	default:
		panic("trade: Opposite called on " + string(a))
	}
}

// Category classifies what a row represents economically.
type Category string

const (
	CategoryStock    Category = "stock"
	CategoryOption   Category = "option"
	CategoryDividend Category = "dividend"
	CategoryNone     Category = "none"
)

// RawRow is one line of the brokerage CSV before normalization, with
// columns bound by position to their canonical names (spec.md §4.1, §6).
// Every field is the literal string from the export; numeric/date parsing
// happens in the normalizer.
type RawRow struct {
	RegDate     string
	RegHour     string
	ValueDate   string
	Product     string
	ISIN        string
	Desc        string
	CurrRate    string
	VarCur      string
	Var         string
	CashCur     string
	Cash        string
	OrderID     string
	RowIndex    int // position in the original CSV, for orphan-merge and tie-break diagnostics
}

// Trade is the canonical transaction record produced by the normalizer
// (spec.md §3 DATA MODEL). Trades are immutable once constructed; the Lot
// Matcher derives short-lived annotated copies for its own per-ISIN scope.
type Trade struct {
	Timestamp   time.Time // value_date + reg_hour
	ValueDate   time.Time // date-only key used for ordering and the 60-day window
	Product     string
	ISIN        string
	Description string

	Action Action
	Number float64 // shares, >= 0

	Price         float64
	PriceCurrency string

	Var         decimal.Decimal // signed cash impact in VarCurrency
	VarCurrency string

	Cash         decimal.Decimal
	CashCurrency string

	CurrRate decimal.Decimal // FX to EUR; 1.0 if CashCurrency == "EUR"

	Commission   *decimal.Decimal // EUR, signed like a fee sub-row's var (a debit); nil for unintended fills with no attached fee rows
	OrderID      string           // empty for unintended/corporate-action fills
	Category     Category
	Unintended   bool // true iff Action is buy/sell and OrderID is empty
	ISINChange   string // non-empty: the counterpart ISIN of a CAMBIO DE ISIN pair

	RowIndex int // original CSV row order, used to break value_date ties (spec.md §4.3 "Ordering guarantee")
}

// IsFill reports whether the trade represents an executed buy/sell
// (as opposed to a dividend, option-tag-only, or unclassified row).
func (t Trade) IsFill() bool {
	return t.Action == ActionBuy || t.Action == ActionSell
}

// EUR converts an amount in t's variation currency to EUR using CurrRate.
func (t Trade) EUR(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(t.CurrRate)
}
