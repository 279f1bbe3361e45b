package domain

import "github.com/shopspring/decimal"

type Product struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Image          string          `json:"image"`
	Price          decimal.Decimal `json:"price"`
	DiscountPrice  decimal.Decimal `json:"discountPrice"`
	CountInStock   int             `json:"countInStock"`
	IsStockEnabled bool            `json:"isStockEnabled"`
	Colors         []string        `json:"colors,omitempty"`
}

// EffectivePrice is the discount price when one is set, the list price otherwise.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.DiscountPrice.GreaterThan(decimal.Zero) {
		return p.DiscountPrice
	}
	return p.Price
}

func (p Product) IsSoldOut() bool {
	return p.IsStockEnabled && p.CountInStock == 0
}

func (p Product) RequiresColor() bool {
	return len(p.Colors) > 0
}

func (p Product) Stock() StockSnapshot {
	return StockSnapshot{
		ProductID:            p.ID,
		CountInStock:         p.CountInStock,
		StockTrackingEnabled: p.IsStockEnabled,
	}
}

// StockSnapshot is the authoritative stock of one product at fetch time.
// It is keyed by product only; colour variants share it.
type StockSnapshot struct {
	ProductID            string
	CountInStock         int
	StockTrackingEnabled bool
}

// Covers reports whether the snapshot can fulfil quantity units.
func (s StockSnapshot) Covers(quantity int) bool {
	if !s.StockTrackingEnabled {
		return true
	}
	return s.CountInStock >= quantity
}
