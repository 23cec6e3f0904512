package normalize

import (
	"fmt"

	"degiro-returns/internal/trade"
)

// uniqueGroupColumns are the string columns order merge requires to be
// identical across every fill in an order_id group. A mismatch means the
// CSV encodes two distinct orders under one id, which spec.md's Open
// Question decision treats as fatal rather than guessed at (SPEC_FULL.md).
func uniqueGroupColumns(w workRow) [5]string {
	return [5]string{w.Product, w.ISIN, w.priceCur, w.VarCur, w.CashCur}
}

// mergeOrders implements stage (f): collapse every intended fill
// (action buy/sell, order_id set) sharing an order_id into one canonical
// row, summing size and cash columns and averaging price. Rows with no
// order_id (unintended fills) and non-fill rows pass through untouched.
func mergeOrders(rows []workRow) ([]workRow, error) {
	var out []workRow
	groups := map[string][]workRow{}
	var order []string

	for _, w := range rows {
		isIntendedFill := (w.action == trade.ActionBuy || w.action == trade.ActionSell) && w.OrderID != ""
		if !isIntendedFill {
			out = append(out, w)
			continue
		}
		if _, seen := groups[w.OrderID]; !seen {
			order = append(order, w.OrderID)
		}
		groups[w.OrderID] = append(groups[w.OrderID], w)
	}

	for _, id := range order {
		merged, err := mergeOrderGroup(id, groups[id])
		if err != nil {
			return nil, err
		}
		out = append(out, merged)
	}
	return out, nil
}

func mergeOrderGroup(orderID string, group []workRow) (workRow, error) {
	head := group[0]
	want := uniqueGroupColumns(head)

	merged := head
	merged.number = 0
	merged.varAmount = merged.varAmount.Sub(merged.varAmount) // zero, keep decimal.Decimal's scale conventions
	merged.cashAmount = merged.cashAmount.Sub(merged.cashAmount)
	priceSum := 0.0
	rowIndex := head.RowIndex

	for _, w := range group {
		if w.action != head.action {
			return workRow{}, fmt.Errorf("order %s: %w (mixed buy/sell)", orderID, trade.ErrAmbiguousOrder)
		}
		if uniqueGroupColumns(w) != want {
			return workRow{}, fmt.Errorf("order %s: %w", orderID, trade.ErrAmbiguousOrder)
		}
		if !w.valueDate.Equal(head.valueDate) {
			return workRow{}, fmt.Errorf("order %s: %w (value_date differs across fills)", orderID, trade.ErrAmbiguousOrder)
		}
		merged.number += w.number
		merged.varAmount = merged.varAmount.Add(w.varAmount)
		merged.cashAmount = merged.cashAmount.Add(w.cashAmount)
		priceSum += w.price
		if w.RowIndex < rowIndex {
			rowIndex = w.RowIndex
		}
	}

	merged.price = priceSum / float64(len(group))
	merged.RowIndex = rowIndex
	return merged, nil
}
