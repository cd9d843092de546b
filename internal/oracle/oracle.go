// Package oracle provides the read-only price feed the engine consults for
// valuation. A missing feed is reported to the caller, never an error: PnL
// aggregation skips the asset instead of aborting.
package oracle

import "riskcore/internal/schema"

// Static is an in-memory price feed keyed by asset symbol.
type Static struct {
	prices map[string]schema.Price
}

// NewStatic creates a feed seeded with the given fixed-point prices.
func NewStatic(seed map[string]schema.Price) *Static {
	prices := make(map[string]schema.Price, len(seed))
	for asset, price := range seed {
		if price > 0 {
			prices[asset] = price
		}
	}
	return &Static{prices: prices}
}

// Price returns the configured price for an asset and whether a feed
// exists for it.
func (s *Static) Price(asset string) (schema.Price, bool) {
	price, ok := s.prices[asset]
	return price, ok
}

// SetPrice configures or updates an asset's feed. A non-positive price
// removes the feed.
func (s *Static) SetPrice(asset string, price schema.Price) {
	if price <= 0 {
		delete(s.prices, asset)
		return
	}
	s.prices[asset] = price
}
