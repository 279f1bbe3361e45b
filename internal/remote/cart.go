package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// AddCartRequest is the body of POST /cart/add. Price is already discount-resolved.
type AddCartRequest struct {
	ProductID    string          `json:"productId"`
	Quantity     int             `json:"quantity"`
	Name         string          `json:"name"`
	Image        string          `json:"image"`
	Price        decimal.Decimal `json:"price"`
	CountInStock int             `json:"countInStock"`
	Color        string          `json:"color"`
}

// MarshalJSON sends the price as an exact JSON number.
func (r AddCartRequest) MarshalJSON() ([]byte, error) {
	type plain AddCartRequest
	return json.Marshal(struct {
		plain
		Price json.Number `json:"price"`
	}{plain: plain(r), Price: json.Number(r.Price.String())})
}

type updateCartRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Color     string `json:"color"`
}

// cartPayload accepts either a bare array of lines or an object wrapping them.
type cartPayload struct {
	Lines []domain.CartLine
}

func (p *cartPayload) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, &p.Lines)
	}
	var wrapped struct {
		Items     []domain.CartLine `json:"items"`
		CartItems []domain.CartLine `json:"cartItems"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return err
	}
	p.Lines = wrapped.Items
	if p.Lines == nil {
		p.Lines = wrapped.CartItems
	}
	return nil
}

func (c *Client) FetchCart(ctx context.Context) ([]domain.CartLine, error) {
	var payload cartPayload
	if err := c.do(ctx, http.MethodGet, "/cart", nil, nil, &payload); err != nil {
		return nil, fmt.Errorf("fetch cart: %w", err)
	}
	return payload.Lines, nil
}

func (c *Client) AddToCart(ctx context.Context, req AddCartRequest) ([]domain.CartLine, error) {
	var payload cartPayload
	if err := c.do(ctx, http.MethodPost, "/cart/add", nil, req, &payload); err != nil {
		return nil, fmt.Errorf("add to cart: %w", err)
	}
	return payload.Lines, nil
}

func (c *Client) RemoveFromCart(ctx context.Context, productID, color string) error {
	query := url.Values{"color": []string{color}}
	if err := c.do(ctx, http.MethodDelete, "/cart/remove/"+pathID(productID), query, nil, nil); err != nil {
		return fmt.Errorf("remove from cart: %w", err)
	}
	return nil
}

func (c *Client) UpdateCartQuantity(ctx context.Context, productID string, quantity int, color string) error {
	body := updateCartRequest{ProductID: productID, Quantity: quantity, Color: color}
	if err := c.do(ctx, http.MethodPut, "/cart/update", nil, body, nil); err != nil {
		return fmt.Errorf("update cart quantity: %w", err)
	}
	return nil
}

func (c *Client) ClearCart(ctx context.Context) error {
	if err := c.do(ctx, http.MethodDelete, "/cart/clear", nil, nil, nil); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
