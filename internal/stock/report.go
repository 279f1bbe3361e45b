package stock

import "github.com/fjod/go_cart/storefront/internal/domain"

// Verdict is the fulfillability of one cart line against fresh stock. Known
// is false when the product's lookup failed.
type Verdict struct {
	Known       bool `json:"known"`
	Tracked     bool `json:"tracked"`
	OOS         bool `json:"isOOS"`
	MaxQuantity int  `json:"maxQuantity"`
}

type LineVerdict struct {
	Line    domain.CartLine `json:"line"`
	Verdict Verdict         `json:"verdict"`
}

// Report is the outcome of one reconciliation pass. Snapshots are keyed by
// product, so colour variants of one product share a stock count.
type Report struct {
	lines     []domain.CartLine
	snapshots map[string]domain.StockSnapshot
}

func (r Report) Snapshot(productID string) (domain.StockSnapshot, bool) {
	snap, ok := r.snapshots[productID]
	return snap, ok
}

func (r Report) Line(key domain.CartLineKey) Verdict {
	for _, l := range r.lines {
		if l.Key() == key {
			return r.verdict(l)
		}
	}
	return Verdict{}
}

func (r Report) verdict(l domain.CartLine) Verdict {
	snap, ok := r.snapshots[l.ProductID]
	if !ok {
		return Verdict{}
	}
	return Verdict{
		Known:       true,
		Tracked:     snap.StockTrackingEnabled,
		OOS:         !snap.Covers(l.Quantity),
		MaxQuantity: snap.CountInStock,
	}
}

func (r Report) IsOOS(key domain.CartLineKey) bool {
	return r.Line(key).OOS
}

// HasBlockingItems is the checkout gate: true iff any line is out of stock.
func (r Report) HasBlockingItems() bool {
	for _, l := range r.lines {
		if r.verdict(l).OOS {
			return true
		}
	}
	return false
}

func (r Report) BlockingLines() []domain.CartLine {
	var out []domain.CartLine
	for _, l := range r.lines {
		if r.verdict(l).OOS {
			out = append(out, l)
		}
	}
	return out
}

// MaxIncrementable bounds the quantity control of a line. ok is false when
// the product is untracked or its stock is unknown.
func (r Report) MaxIncrementable(key domain.CartLineKey) (int, bool) {
	v := r.Line(key)
	if !v.Known || !v.Tracked {
		return 0, false
	}
	return v.MaxQuantity, true
}

func (r Report) CanIncrement(l domain.CartLine) bool {
	limit, ok := r.MaxIncrementable(l.Key())
	if !ok {
		return true
	}
	return l.Quantity < limit
}

func (r Report) Lines() []LineVerdict {
	out := make([]LineVerdict, 0, len(r.lines))
	for _, l := range r.lines {
		out = append(out, LineVerdict{Line: l, Verdict: r.verdict(l)})
	}
	return out
}
