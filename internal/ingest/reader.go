// Package ingest implements the CSV Reader & Column Binder (spec.md §4.1):
// it reads the brokerage export and binds positional columns to their
// canonical names. Header labels are localized and may drift — binding is
// always by position, never by label.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"degiro-returns/internal/trade"
)

// Column positions are fixed by the brokerage export format (spec.md §6).
const (
	colRegDate = iota
	colRegHour
	colValueDate
	colProduct
	colISIN
	colDesc
	colCurrRate
	colVarCur
	colVar
	colCashCur
	colCash
	colIDOrder

	numColumns
)

// ReadFile opens path and parses it into RawRows, skipping the header row.
// Returns ErrParse wrapped with the offending row number when the CSV
// reader rejects a record. Records of any width are accepted.
func ReadFile(path string) ([]trade.RawRow, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrFileNotFound)
		}
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses r into RawRows, binding columns by position (spec.md §4.1).
// The brokerage export is irregular — orphan continuation rows may have
// fewer populated fields — so the reader is tolerant of short records and
// leaves reconciliation (orphan merge) to the normalizer.
func Read(r io.Reader) ([]trade.RawRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // irregular row widths: orphan rows, trailing commission rows
	cr.LazyQuotes = true

	// Header row: positions are fixed, labels are not canonical, so it is
	// discarded rather than bound.
	if _, err := cr.Read(); err != nil {
		if err == io.EOF {
			return nil, trade.ErrEmptyDataset
		}
		return nil, fmt.Errorf("reading header: %w: %v", ErrParse, err)
	}

	var rows []trade.RawRow
	lineNo := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w: %v", lineNo+1, ErrParse, err)
		}
		lineNo++

		row, err := bindRow(record, lineNo)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, trade.ErrEmptyDataset
	}
	return rows, nil
}

// bindRow maps a CSV record's positional fields onto a RawRow. An orphan
// row may supply only a handful of trailing fields (the continuation of a
// free-text description); bindRow accepts any record of at least one
// column and leaves absent positions as the empty string — the normalizer
// decides whether that emptiness means "orphan row" or "fatal".
func bindRow(record []string, rowIndex int) (trade.RawRow, error) {
	if len(record) == 0 {
		return trade.RawRow{}, fmt.Errorf("row %d: %w: empty record", rowIndex, ErrParse)
	}

	get := func(i int) string {
		if i < len(record) {
			return record[i]
		}
		return ""
	}

	return trade.RawRow{
		RegDate:   get(colRegDate),
		RegHour:   get(colRegHour),
		ValueDate: get(colValueDate),
		Product:   get(colProduct),
		ISIN:      get(colISIN),
		Desc:      get(colDesc),
		CurrRate:  get(colCurrRate),
		VarCur:    get(colVarCur),
		Var:       get(colVar),
		CashCur:   get(colCashCur),
		Cash:      get(colCash),
		OrderID:   get(colIDOrder),
		RowIndex:  rowIndex,
	}, nil
}
