package position

import "riskcore/internal/schema"

// PriceSource supplies fixed-point prices per asset. The second return
// reports whether a feed is configured for the asset.
type PriceSource interface {
	Price(asset string) (schema.Price, bool)
}

// UnrealizedPnl sums current value minus entry value across a right's
// positions. Positions whose asset has no configured price are skipped,
// not treated as zero-valued.
func (l *Ledger) UnrealizedPnl(rightID schema.RightID, prices PriceSource) schema.Notional {
	var total schema.Notional
	for _, p := range l.byRight[rightID] {
		price, ok := prices.Price(p.Asset)
		if !ok {
			continue
		}
		current, err := schema.PriceValue(p.Size, price)
		if err != nil {
			continue
		}
		total += current - p.EntryValueUsd
	}
	return total
}

// Value returns the current notional of a single position, false when the
// asset has no configured price.
func (l *Ledger) Value(id string, prices PriceSource) (schema.Notional, bool) {
	ref, ok := l.index[id]
	if !ok {
		return 0, false
	}
	p := l.byRight[ref.rightID][ref.slot]
	price, ok := prices.Price(p.Asset)
	if !ok {
		return 0, false
	}
	current, err := schema.PriceValue(p.Size, price)
	if err != nil {
		return 0, false
	}
	return current, true
}
