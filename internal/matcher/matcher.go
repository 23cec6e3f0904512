package matcher

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"degiro-returns/internal/trade"
)

// RealizedLot is one closing trade's FIFO match: the covered part of a
// closing trade matched against every prior opposing lot (or part of one)
// it consumed, oldest first (spec.md §4.3) — a sell closing a long
// position, or symmetrically a buy closing
// a short one (§1 "and symmetrically for short covers").
type RealizedLot struct {
	ISIN            string
	TriggerAction   trade.Action // Sell (closes a long) or Buy (closes a short)
	TriggerDate     time.Time    // the closing trade's value_date; windowing and the two-month rule key off this
	TriggerRowIndex int
	Quantity        float64
	Proceeds        decimal.Decimal // EUR, net of commission, from the sell leg of the pair
	CostBasis       decimal.Decimal // EUR, net of commission, from the buy leg of the pair
	PnL             decimal.Decimal // Proceeds - CostBasis
	ISINChanged     bool            // true iff this lot crossed an ISIN-change boundary
	Suppressed      bool            // true iff the two-month rule zeroed this loss out
}

// netCashEUR is the trade's cash impact converted to EUR, with its
// attached commission folded in (spec.md §4.3 "row_res = t.var +
// t.commission"). Commission carries the same sign as the fee sub-row's
// own var — a debit — so addition is correct on both sides: it deepens a
// buy's cost and shrinks a sell's proceeds.
func netCashEUR(t trade.Trade) decimal.Decimal {
	v := t.EUR(t.Var)
	if t.Commission != nil {
		v = v.Add(*t.Commission)
	}
	return v
}

// Match runs FIFO lot matching across every stock fill in trades, grouping
// ISINs connected by a CAMBIO DE ISIN event into one shared matching chain
// (an ISIN-change sell may need to fall back to the old ISIN's lots) and
// running independent chains concurrently (spec.md §5).
func Match(ctx context.Context, trades []trade.Trade, isinChangePairs map[string]string) ([]RealizedLot, error) {
	chains := groupByChain(trades, isinChangePairs)

	results := make([][]RealizedLot, len(chains))
	g, _ := errgroup.WithContext(ctx)
	for i, chain := range chains {
		i, chain := i, chain
		g.Go(func() error {
			lots, err := matchChain(chain)
			if err != nil {
				return err
			}
			results[i] = lots
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []RealizedLot
	for _, r := range results {
		all = append(all, r...)
	}
	return all, nil
}

// chain is every stock fill belonging to a set of ISINs linked by ISIN
// changes, sorted chronologically across ISINs.
type chain struct {
	isins  []string
	trades []trade.Trade
}

func groupByChain(trades []trade.Trade, isinChangePairs map[string]string) []chain {
	parent := map[string]string{}
	var find func(string) string
	find = func(x string) string {
		if p, ok := parent[x]; ok && p != x {
			parent[x] = find(p)
			return parent[x]
		}
		parent[x] = x
		return x
	}
	union := func(a, b string) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}

	for _, t := range trades {
		if t.Category != trade.CategoryStock {
			continue
		}
		find(t.ISIN)
	}
	for newISIN, oldISIN := range isinChangePairs {
		find(newISIN)
		find(oldISIN)
		union(newISIN, oldISIN)
	}

	groups := map[string][]trade.Trade{}
	var order []string
	for _, t := range trades {
		if t.Category != trade.CategoryStock || !t.IsFill() {
			continue
		}
		root := find(t.ISIN)
		if _, ok := groups[root]; !ok {
			order = append(order, root)
		}
		groups[root] = append(groups[root], t)
	}

	chains := make([]chain, 0, len(order))
	for _, root := range order {
		ts := groups[root]
		sort.SliceStable(ts, func(i, j int) bool {
			if !ts[i].ValueDate.Equal(ts[j].ValueDate) {
				return ts[i].ValueDate.Before(ts[j].ValueDate)
			}
			return ts[i].RowIndex < ts[j].RowIndex
		})
		isinSet := map[string]bool{}
		var isins []string
		for _, t := range ts {
			if !isinSet[t.ISIN] {
				isinSet[t.ISIN] = true
				isins = append(isins, t.ISIN)
			}
		}
		chains = append(chains, chain{isins: isins, trades: ts})
	}
	return chains
}

// matchChain runs FIFO matching over one chain's trades. It keeps two
// books per ISIN in the chain: an open-buy-lot book (consumed by sells
// that close a long position) and an open-short-lot book (consumed by
// buys that close a short one), so a sell that oversells its own buy
// lots opens a short rather than being forced to net to zero, and a
// later buy realizes that short's P&L — spec.md §1/§4.3 step 2's "buy
// with net_position_before < 0 → realize short". The ISIN-change
// admission rule (§4.3 "ISIN-change handling") only ever applies to the
// buy side, since a CAMBIO DE ISIN event relabels a held position, not an
// open short.
func matchChain(c chain) ([]RealizedLot, error) {
	buyBooks := make(map[string]*lotBook, len(c.isins))
	shortBooks := make(map[string]*lotBook, len(c.isins))
	for _, isin := range c.isins {
		buyBooks[isin] = &lotBook{}
		shortBooks[isin] = &lotBook{}
	}

	var out []RealizedLot
	for _, t := range c.trades {
		if t.Number <= 0 {
			continue
		}
		buyBook, shortBook := buyBooks[t.ISIN], shortBooks[t.ISIN]

		switch t.Action {
		case trade.ActionBuy:
			buyCost := netCashEUR(t).Neg()
			unitCost := buyCost.Div(decimal.NewFromFloat(t.Number))

			// Close any open short first (§4.3 step 2 "buy with
			// net_position_before < 0 → realize short").
			remaining := t.Number
			coveredQty, proceeds := shortBook.consume(remaining)
			if coveredQty > 1e-9 {
				remaining -= coveredQty
				coveredCost := unitCost.Mul(decimal.NewFromFloat(coveredQty))
				out = append(out, RealizedLot{
					ISIN:            t.ISIN,
					TriggerAction:   trade.ActionBuy,
					TriggerDate:     t.ValueDate,
					TriggerRowIndex: t.RowIndex,
					Quantity:        coveredQty,
					Proceeds:        proceeds,
					CostBasis:       coveredCost,
					PnL:             proceeds.Sub(coveredCost),
				})
			}

			// Any remainder beyond what was needed to cover a short opens
			// (or extends) a new long position.
			if remaining > 1e-9 {
				buyBook.push(lot{
					qty:       remaining,
					unitValue: unitCost,
					valueDate: t.ValueDate,
					isin:      t.ISIN,
				})
			}

		case trade.ActionSell:
			proceeds := netCashEUR(t)
			unitProceeds := proceeds.Div(decimal.NewFromFloat(t.Number))

			remaining := t.Number
			crossedISIN := false

			consumedQty, costBasis := buyBook.consume(remaining)
			remaining -= consumedQty

			// ISIN-change admission: if this ISIN's own lots run short and
			// it is linked to a predecessor ISIN, draw the rest from there.
			if remaining > 1e-9 && t.ISINChange != "" {
				if prior, ok := buyBooks[t.ISINChange]; ok {
					q2, c2 := prior.consume(remaining)
					consumedQty += q2
					costBasis = costBasis.Add(c2)
					remaining -= q2
					crossedISIN = q2 > 0
				}
				if remaining > 1e-9 {
					return nil, fmt.Errorf("%w: %s sold %.6f more shares than held across the ISIN change",
						trade.ErrISINChangeMismatch, t.ISIN, remaining)
				}
			}

			if consumedQty > 1e-9 {
				out = append(out, RealizedLot{
					ISIN:            t.ISIN,
					TriggerAction:   trade.ActionSell,
					TriggerDate:     t.ValueDate,
					TriggerRowIndex: t.RowIndex,
					Quantity:        consumedQty,
					Proceeds:        unitProceeds.Mul(decimal.NewFromFloat(consumedQty)),
					CostBasis:       costBasis,
					PnL:             unitProceeds.Mul(decimal.NewFromFloat(consumedQty)).Sub(costBasis),
					ISINChanged:     crossedISIN,
				})
			}

			// Any remainder beyond the covered buy lots opens (or extends)
			// a short, to be realized by a later covering buy.
			if remaining > 1e-9 {
				shortBook.push(lot{
					qty:       remaining,
					unitValue: unitProceeds,
					valueDate: t.ValueDate,
					isin:      t.ISIN,
				})
			}
		}
	}
	return out, nil
}
