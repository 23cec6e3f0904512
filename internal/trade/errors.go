package trade

import "errors"

// Error kinds from spec.md §7 ERROR HANDLING DESIGN. These are sentinel
// values, never language-specific exception types, so callers compare with
// errors.Is against a wrapped instance.
var (
	// ErrParse marks a malformed row. Fatal when it blocks ingest entirely;
	// a malformed description alone is NOT this error — it is tolerated
	// (null fill fields, row retained) per §4.2(c).
	ErrParse = errors.New("parse error")

	// ErrOrphanWithoutMother: an orphan row (no reg_date) with no
	// preceding row to merge into. Always fatal.
	ErrOrphanWithoutMother = errors.New("orphan row has no preceding mother row")

	// ErrFXMissing: a non-EUR order with no attached FX rate. Always fatal.
	ErrFXMissing = errors.New("missing FX rate for non-EUR order")

	// ErrISINChangeMismatch: an ISIN-change sell is not fully covered by
	// the combined old+new ISIN buy lots (spec.md §4.3 "ISIN-change
	// handling").
	ErrISINChangeMismatch = errors.New("ISIN change mismatch: sold shares do not equal combined buy lots")

	// ErrAmbiguousOrder: the order-merge stage (§4.2(f)) found a column
	// that is supposed to be unique per order id but isn't. Fail-closed
	// per spec.md's Open Question decision (see SPEC_FULL.md).
	ErrAmbiguousOrder = errors.New("order merge: non-unique column within order id group")

	// ErrEmptyDataset: non-fatal; the caller gets an empty Summary with
	// global_return = 0.
	ErrEmptyDataset = errors.New("empty dataset")
)
