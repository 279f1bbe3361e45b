package cart

import "github.com/fjod/go_cart/storefront/internal/domain"

// Local mutations never touch the previous snapshot; they return a new one.

func fromLines(lines []domain.CartLine) domain.Cart {
	if len(lines) == 0 {
		return domain.Cart{}
	}
	out := make([]domain.CartLine, len(lines))
	copy(out, lines)
	return domain.Cart{Lines: out}
}

func withoutLine(c domain.Cart, key domain.CartLineKey) domain.Cart {
	out := make([]domain.CartLine, 0, len(c.Lines))
	for _, l := range c.Lines {
		if l.Key() == key {
			continue
		}
		out = append(out, l)
	}
	return domain.Cart{Lines: out}
}

func withQuantity(c domain.Cart, key domain.CartLineKey, quantity int) domain.Cart {
	out := make([]domain.CartLine, len(c.Lines))
	copy(out, c.Lines)
	for i := range out {
		if out[i].Key() == key {
			out[i].Quantity = quantity
		}
	}
	return domain.Cart{Lines: out}
}
