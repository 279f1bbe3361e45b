package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

func (c *Client) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	var product domain.Product
	if err := c.do(ctx, http.MethodGet, "/products/"+pathID(productID), nil, nil, &product); err != nil {
		return domain.Product{}, fmt.Errorf("get product %s: %w", productID, err)
	}
	if product.ID == "" {
		product.ID = productID
	}
	return product, nil
}

// GetStock fetches the stock fields of one product.
func (c *Client) GetStock(ctx context.Context, productID string) (domain.StockSnapshot, error) {
	product, err := c.GetProduct(ctx, productID)
	if err != nil {
		return domain.StockSnapshot{}, err
	}
	return product.Stock(), nil
}

func (c *Client) GetSetting(ctx context.Context, key string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/settings/"+pathID(key), nil, nil, &raw); err != nil {
		return nil, fmt.Errorf("get setting %s: %w", key, err)
	}
	return raw, nil
}
