package domain

import (
	"github.com/shopspring/decimal"
)

// CartLineKey identifies a cart line. An absent colour and an empty colour are the same key.
type CartLineKey struct {
	ProductID string
	Color     string
}

type CartLine struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Color     string          `json:"color,omitempty"`
}

func (l CartLine) Key() CartLineKey {
	return CartLineKey{ProductID: l.ProductID, Color: l.Color}
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is an immutable snapshot of the local cart. Lines must not be modified in place.
type Cart struct {
	Lines []CartLine `json:"items"`
}

func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

func (c Cart) Count() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

func (c Cart) Find(key CartLineKey) (CartLine, bool) {
	for _, l := range c.Lines {
		if l.Key() == key {
			return l, true
		}
	}
	return CartLine{}, false
}

func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// ProductIDs returns the distinct product ids referenced by the cart, in first-seen order.
func (c Cart) ProductIDs() []string {
	seen := make(map[string]struct{}, len(c.Lines))
	ids := make([]string, 0, len(c.Lines))
	for _, l := range c.Lines {
		if _, ok := seen[l.ProductID]; ok {
			continue
		}
		seen[l.ProductID] = struct{}{}
		ids = append(ids, l.ProductID)
	}
	return ids
}
