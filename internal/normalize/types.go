package normalize

import (
	"time"

	"github.com/shopspring/decimal"

	"degiro-returns/internal/trade"
)

// workRow is the Normalizer's internal working representation: a RawRow
// plus every field derived by stages (a)-(c), before orphan merge folds
// continuation rows in and order merge collapses multi-fill orders.
// It never leaves this package.
type workRow struct {
	trade.RawRow

	// (a) combined timestamp; zero Time only for an orphan row (empty
	// RegDate), which is discarded in stage (d). An unparseable date or
	// hour is a fatal parse error instead.
	timestamp time.Time
	valueDate time.Time
	hasDate   bool

	// (b) type coercion
	varAmount   decimal.Decimal
	cashAmount  decimal.Decimal
	hasVarCash  bool

	// (c) description parse
	action   trade.Action
	number   float64
	price    float64
	priceCur string

	orphan bool // true iff RegDate was empty in the source record
}

// Result is everything the Normalizer produces: the canonical trade table
// plus the ISIN-change pair map surfaced for diagnostics (SPEC_FULL.md §12,
// grounded on the Python original's `Dataset.change_isin` property).
type Result struct {
	Trades []trade.Trade
	// ISINChangePairs maps new ISIN -> old ISIN for every CAMBIO DE ISIN
	// event found during stage (i).
	ISINChangePairs map[string]string
	// Dropped counts rows removed from the table (consumed commission/FX
	// legs, exact duplicates removed in stage (j)) for observability. Rows
	// with a malformed description are retained and not counted here.
	Dropped int
}
