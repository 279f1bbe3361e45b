package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/stock"
	"github.com/fjod/go_cart/storefront/internal/validate"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// Products resolves the catalog entry a cart line is added from.
type Products interface {
	GetProduct(ctx context.Context, productID string) (domain.Product, error)
}

type CartHandler struct {
	sessions Sessions
	products Products
	timeout  time.Duration
	log      *logger.Logger
}

func NewCartHandler(sessions Sessions, products Products, timeout time.Duration, log *logger.Logger) *CartHandler {
	return &CartHandler{
		sessions: sessions,
		products: products,
		timeout:  timeout,
		log:      log,
	}
}

type AddItemRequestDTO struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"omitempty,min=1"`
	Color     string `json:"color"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CartResponse struct {
	Items []domain.CartLine `json:"items"`
	Total decimal.Decimal   `json:"total"`
	Count int               `json:"count"`
}

type ReconcileLineDTO struct {
	stock.LineVerdict
	CanIncrement bool `json:"canIncrement"`
}

type ReconcileResponse struct {
	HasBlockingItems bool               `json:"hasBlockingItems"`
	Lines            []ReconcileLineDTO `json:"lines"`
}

func newCartResponse(c domain.Cart) CartResponse {
	items := c.Lines
	if items == nil {
		items = []domain.CartLine{}
	}
	return CartResponse{Items: items, Total: c.Total(), Count: c.Count()}
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, err := currentSession(ctx, h.sessions)
	if err != nil {
		respondError(ctx, h.log, w, err)
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(sess.Cart.Snapshot()))
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess, err := currentSession(ctx, h.sessions)
	if err != nil {
		respondError(ctx, h.log, w, err)
		return
	}

	var req AddItemRequestDTO
	if err := validate.DecodeJSONBody(r, &req); err != nil {
		respondError(ctx, h.log, w, err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	product, err := h.products.GetProduct(ctx, req.ProductID)
	if err != nil {
		respondError(ctx, h.log, w, err)
		return
	}
	if err := sess.Cart.AddLine(ctx, product, req.Quantity, req.Color); err != nil {
		respondError(ctx, h.log, w, err)
		return
	}

	respondJSON(w, http.StatusCreated, newCartResponse(sess.Cart.Snapshot()))
}

// PUT /api/v1/cart/items/{product_id}?color=
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess, err := currentSession(ctx, h.sessions)
	if err != nil {
		respondError(ctx, h.log, w, err)
		return
	}

	var req UpdateQuantityRequestDTO
	if err := validate.DecodeJSONBody(r, &req); err != nil {
		respondError(ctx, h.log, w, err)
		return
	}

	productID := chi.URLParam(r, "product_id")
	color := r.URL.Query().Get("color")
	if err := sess.Cart.UpdateQuantity(ctx, productID, req.Quantity, color); err != nil {
		respondError(ctx, h.log, w, err)
		return
	}

	respondJSON(w, http.StatusOK, newCartResponse(sess.Cart.Snapshot()))
}

// DELETE /api/v1/cart/items/{product_id}?color=
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess, err := currentSession(ctx, h.sessions)
	if err != nil {
		respondError(ctx, h.log, w, err)
		return
	}

	productID := chi.URLParam(r, "product_id")
	color := r.URL.Query().Get("color")
	if err := sess.Cart.RemoveLine(ctx, productID, color); err != nil {
		respondError(ctx, h.log, w, err)
		return
	}

	respondJSON(w, http.StatusOK, newCartResponse(sess.Cart.Snapshot()))
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess, err := currentSession(ctx, h.sessions)
	if err != nil {
		respondError(ctx, h.log, w, err)
		return
	}
	if err := sess.Cart.Clear(ctx); err != nil {
		respondError(ctx, h.log, w, err)
		return
	}

	respondJSON(w, http.StatusOK, newCartResponse(sess.Cart.Snapshot()))
}

// GET /api/v1/cart/reconcile
func (h *CartHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess, err := currentSession(ctx, h.sessions)
	if err != nil {
		respondError(ctx, h.log, w, err)
		return
	}

	report := sess.Stock.Reconcile(ctx, sess.Cart.Snapshot().Lines)
	verdicts := report.Lines()
	lines := make([]ReconcileLineDTO, 0, len(verdicts))
	for _, v := range verdicts {
		lines = append(lines, ReconcileLineDTO{LineVerdict: v, CanIncrement: report.CanIncrement(v.Line)})
	}

	respondJSON(w, http.StatusOK, ReconcileResponse{
		HasBlockingItems: report.HasBlockingItems(),
		Lines:            lines,
	})
}
