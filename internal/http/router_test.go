package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/clock"
	"github.com/fjod/go_cart/storefront/internal/domain"
	pkgerrors "github.com/fjod/go_cart/storefront/internal/errors"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/orders"
	"github.com/fjod/go_cart/storefront/internal/remote"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Wednesday
var testNow = time.Date(2026, time.October, 14, 15, 0, 0, 0, time.UTC)

// fakeStore is an in-memory store API shared by every token.
type fakeStore struct {
	mu           sync.Mutex
	cart         []domain.CartLine
	products     map[string]domain.Product
	stock        map[string]domain.StockSnapshot
	orders       map[string]domain.Order
	adds         int
	orderFetches int
	pickups      map[string]time.Time
	filed        []domain.Complaint
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products: map[string]domain.Product{},
		stock:    map[string]domain.StockSnapshot{},
		orders:   map[string]domain.Order{},
		pickups:  map[string]time.Time{},
	}
}

func (s *fakeStore) dial(string) session.Remote { return s }

func (s *fakeStore) FetchCart(context.Context) ([]domain.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.CartLine(nil), s.cart...), nil
}

func (s *fakeStore) AddToCart(_ context.Context, req remote.AddCartRequest) ([]domain.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adds++
	s.cart = append(s.cart, domain.CartLine{
		ProductID: req.ProductID,
		Name:      req.Name,
		Price:     req.Price,
		Quantity:  req.Quantity,
		Color:     req.Color,
	})
	return append([]domain.CartLine(nil), s.cart...), nil
}

func (s *fakeStore) RemoveFromCart(_ context.Context, productID, color string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.cart[:0]
	for _, l := range s.cart {
		if l.ProductID != productID || l.Color != color {
			kept = append(kept, l)
		}
	}
	s.cart = kept
	return nil
}

func (s *fakeStore) UpdateCartQuantity(_ context.Context, productID string, quantity int, color string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.cart {
		if s.cart[i].ProductID == productID && s.cart[i].Color == color {
			s.cart[i].Quantity = quantity
		}
	}
	return nil
}

func (s *fakeStore) ClearCart(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = nil
	return nil
}

func (s *fakeStore) GetProduct(_ context.Context, productID string) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return domain.Product{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return p, nil
}

func (s *fakeStore) GetStock(_ context.Context, productID string) (domain.StockSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.stock[productID]
	if !ok {
		return domain.StockSnapshot{}, pkgerrors.New(pkgerrors.CodeNetworkUnknown, "stock unavailable")
	}
	return snap, nil
}

func (s *fakeStore) GetOrder(_ context.Context, orderID string) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orderFetches++
	o, ok := s.orders[orderID]
	if !ok {
		return domain.Order{}, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return o, nil
}

func (s *fakeStore) CancelOrder(context.Context, string) error { return nil }

func (s *fakeStore) ReturnEligibility(_ context.Context, orderID string) ([]domain.ReturnEligibility, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ReturnEligibility
	for _, l := range s.orders[orderID].Items {
		out = append(out, domain.ReturnEligibility{ItemID: l.ID, IsEligible: true})
	}
	return out, nil
}

func (s *fakeStore) RequestReturn(context.Context, string, domain.ReturnRequest) error { return nil }

func (s *fakeStore) SchedulePickup(_ context.Context, returnRequestID string, date time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pickups[returnRequestID] = date
	return nil
}

func (s *fakeStore) CreateComplaint(_ context.Context, complaint domain.Complaint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filed = append(s.filed, complaint)
	return nil
}

type fakeSettings struct {
	values map[string]json.RawMessage
	err    error
}

func (f fakeSettings) Get(_ context.Context, key string) (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.values[key]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "setting not found")
	}
	return v, nil
}

func newTestRouter(t *testing.T, store *fakeStore, settings Settings) http.Handler {
	t.Helper()
	manager := session.NewManager(store.dial, session.Options{
		Clock:  clock.NewFixed(testNow),
		Logger: logger.Nop(),
	})
	if settings == nil {
		settings = fakeSettings{}
	}
	return NewRouter(RouterConfig{
		Sessions:       manager,
		Products:       store,
		Settings:       settings,
		Logger:         logger.Nop(),
		RequestTimeout: 5 * time.Second,
		Location:       time.UTC,
	})
}

func doRequest(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("X-User-ID", "alice")
	req.Header.Set("Authorization", "Bearer tok-a")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func establish(t *testing.T, h http.Handler) {
	t.Helper()
	rec := doRequest(t, h, http.MethodPost, "/api/v1/session", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestHealth(t *testing.T) {
	h := newTestRouter(t, newFakeStore(), nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestGetCart_Unauthorized(t *testing.T) {
	h := newTestRouter(t, newFakeStore(), nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeUnauthenticated), decodeError(t, rec).Code)
}

func TestGetCart_WithoutSessionIsUnauthorized(t *testing.T) {
	h := newTestRouter(t, newFakeStore(), nil)

	rec := doRequest(t, h, http.MethodGet, "/api/v1/cart", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetCart_OtherTokenIsUnauthorized(t *testing.T) {
	h := newTestRouter(t, newFakeStore(), nil)
	establish(t, h)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("X-User-ID", "alice")
	req.Header.Set("Authorization", "Bearer tok-b")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestEstablish_ReturnsLoadedCart(t *testing.T) {
	store := newFakeStore()
	store.cart = []domain.CartLine{{ProductID: "p1", Price: decimal.NewFromInt(10), Quantity: 2}}
	h := newTestRouter(t, store, nil)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/session", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp CartResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 2, resp.Count)
	assert.True(t, decimal.NewFromInt(20).Equal(resp.Total))
}

func TestEndSession(t *testing.T) {
	h := newTestRouter(t, newFakeStore(), nil)
	establish(t, h)

	rec := doRequest(t, h, http.MethodDelete, "/api/v1/session", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/api/v1/cart", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAddItem_UsesDiscountPrice(t *testing.T) {
	store := newFakeStore()
	store.products["p1"] = domain.Product{
		ID:             "p1",
		Name:           "Lamp",
		Price:          decimal.NewFromInt(10),
		DiscountPrice:  decimal.NewFromInt(8),
		CountInStock:   5,
		IsStockEnabled: true,
	}
	h := newTestRouter(t, store, nil)
	establish(t, h)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ProductID: "p1", Quantity: 2})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp CartResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 2, resp.Count)
	assert.True(t, decimal.NewFromInt(16).Equal(resp.Total))
}

func TestAddItem_DefaultsQuantityToOne(t *testing.T) {
	store := newFakeStore()
	store.products["p1"] = domain.Product{ID: "p1", Price: decimal.NewFromInt(10)}
	h := newTestRouter(t, store, nil)
	establish(t, h)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/cart/items", map[string]any{"productId": "p1"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp CartResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 1, resp.Count)
}

func TestAddItem_LargeQuantityIsLeftToStore(t *testing.T) {
	store := newFakeStore()
	store.products["p1"] = domain.Product{ID: "p1", Price: decimal.NewFromInt(2)}
	h := newTestRouter(t, store, nil)
	establish(t, h)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ProductID: "p1", Quantity: 150})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp CartResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 150, resp.Count)
}

func TestAddItem_NegativeQuantityIsRejected(t *testing.T) {
	store := newFakeStore()
	store.products["p1"] = domain.Product{ID: "p1", Price: decimal.NewFromInt(2)}
	h := newTestRouter(t, store, nil)
	establish(t, h)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ProductID: "p1", Quantity: -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, store.adds)
}

func TestAddItem_SoldOutNeverReachesStore(t *testing.T) {
	store := newFakeStore()
	store.products["p1"] = domain.Product{ID: "p1", Price: decimal.NewFromInt(10), IsStockEnabled: true}
	h := newTestRouter(t, store, nil)
	establish(t, h)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ProductID: "p1", Quantity: 1})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeValidation), decodeError(t, rec).Code)
	assert.Equal(t, 0, store.adds)
}

func TestAddItem_RejectsUnknownFields(t *testing.T) {
	h := newTestRouter(t, newFakeStore(), nil)
	establish(t, h)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/cart/items", map[string]any{"productId": "p1", "sku": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateAndRemoveItem(t *testing.T) {
	store := newFakeStore()
	store.cart = []domain.CartLine{
		{ProductID: "p1", Price: decimal.NewFromInt(10), Quantity: 1, Color: "red"},
		{ProductID: "p2", Price: decimal.NewFromInt(5), Quantity: 1},
	}
	h := newTestRouter(t, store, nil)
	establish(t, h)

	rec := doRequest(t, h, http.MethodPut, "/api/v1/cart/items/p1?color=red", UpdateQuantityRequestDTO{Quantity: 3})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doRequest(t, h, http.MethodDelete, "/api/v1/cart/items/p2", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp CartResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 3, resp.Count)
	assert.True(t, decimal.NewFromInt(30).Equal(resp.Total))
}

func TestClearCart(t *testing.T) {
	store := newFakeStore()
	store.cart = []domain.CartLine{{ProductID: "p1", Price: decimal.NewFromInt(10), Quantity: 1}}
	h := newTestRouter(t, store, nil)
	establish(t, h)

	rec := doRequest(t, h, http.MethodDelete, "/api/v1/cart", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp CartResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Empty(t, resp.Items)
	assert.Equal(t, 0, resp.Count)
}

func TestReconcile_FlagsShortfall(t *testing.T) {
	store := newFakeStore()
	store.cart = []domain.CartLine{
		{ProductID: "p1", Price: decimal.NewFromInt(10), Quantity: 3},
		{ProductID: "p2", Price: decimal.NewFromInt(5), Quantity: 1},
	}
	store.stock["p1"] = domain.StockSnapshot{ProductID: "p1", CountInStock: 2, StockTrackingEnabled: true}
	store.stock["p2"] = domain.StockSnapshot{ProductID: "p2", CountInStock: 9, StockTrackingEnabled: true}
	h := newTestRouter(t, store, nil)
	establish(t, h)

	rec := doRequest(t, h, http.MethodGet, "/api/v1/cart/reconcile", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ReconcileResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.HasBlockingItems)
	require.Len(t, resp.Lines, 2)

	byProduct := map[string]ReconcileLineDTO{}
	for _, l := range resp.Lines {
		byProduct[l.Line.ProductID] = l
	}
	assert.True(t, byProduct["p1"].Verdict.OOS)
	assert.False(t, byProduct["p1"].CanIncrement)
	assert.False(t, byProduct["p2"].Verdict.OOS)
	assert.True(t, byProduct["p2"].CanIncrement)
}

func TestGetOrder_OffersCancelWhilePending(t *testing.T) {
	store := newFakeStore()
	store.orders["o1"] = domain.Order{ID: "o1", Status: domain.OrderStatusPending, Items: []domain.OrderLine{{ID: "i1", Quantity: 1}}}
	h := newTestRouter(t, store, nil)
	establish(t, h)

	rec := doRequest(t, h, http.MethodGet, "/api/v1/orders/o1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var state orders.State
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&state))
	assert.Contains(t, state.Actions, orders.ActionCancel)
	assert.False(t, state.Progress.Cancelled)
}

func TestGetOrder_NotFound(t *testing.T) {
	h := newTestRouter(t, newFakeStore(), nil)
	establish(t, h)

	rec := doRequest(t, h, http.MethodGet, "/api/v1/orders/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelOrder(t *testing.T) {
	store := newFakeStore()
	store.orders["o1"] = domain.Order{ID: "o1", Status: domain.OrderStatusProcessing}
	store.orders["o2"] = domain.Order{ID: "o2", Status: domain.OrderStatusShipped}
	h := newTestRouter(t, store, nil)
	establish(t, h)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/orders/o1/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var state orders.State
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&state))
	assert.True(t, state.Order.IsCancelled)
	assert.True(t, state.Progress.Cancelled)
	assert.Empty(t, state.Actions)

	rec = doRequest(t, h, http.MethodPost, "/api/v1/orders/o2/cancel", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeStateConflict), decodeError(t, rec).Code)
}

func deliveredOrder(status domain.ReturnStatus) domain.Order {
	return domain.Order{
		ID:          "o1",
		Status:      domain.OrderStatusDelivered,
		IsPaid:      true,
		IsDelivered: true,
		Items: []domain.OrderLine{{
			ID:              "i1",
			ProductID:       "p1",
			Quantity:        1,
			ReturnStatus:    status,
			ReturnRequestID: "rr-1",
		}},
	}
}

func TestRequestReturn(t *testing.T) {
	store := newFakeStore()
	store.orders["o1"] = deliveredOrder(domain.ReturnStatusNone)
	h := newTestRouter(t, store, nil)
	establish(t, h)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/orders/o1/returns", domain.ReturnRequest{ItemID: "i1", Reason: "damaged"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var state orders.State
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&state))
	require.Len(t, state.Lines, 1)
	assert.Equal(t, domain.ReturnStatusRequested, state.Lines[0].ReturnStatus)
}

func TestRequestReturn_MissingReason(t *testing.T) {
	store := newFakeStore()
	store.orders["o1"] = deliveredOrder(domain.ReturnStatusNone)
	h := newTestRouter(t, store, nil)
	establish(t, h)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/orders/o1/returns", map[string]any{"itemId": "i1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSchedulePickup(t *testing.T) {
	store := newFakeStore()
	store.orders["o1"] = deliveredOrder(domain.ReturnStatusApproved)
	h := newTestRouter(t, store, nil)
	establish(t, h)

	rec := doRequest(t, h, http.MethodPut, "/api/v1/orders/o1/returns/i1/pickup", SchedulePickupRequestDTO{PickupDate: "2026-10-16"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var state orders.State
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&state))
	assert.Equal(t, domain.ReturnStatusPickupScheduled, state.Lines[0].ReturnStatus)
	assert.Equal(t, time.Date(2026, time.October, 16, 0, 0, 0, 0, time.UTC), store.pickups["rr-1"])
}

func TestSchedulePickup_InvalidDates(t *testing.T) {
	store := newFakeStore()
	store.orders["o1"] = deliveredOrder(domain.ReturnStatusApproved)
	h := newTestRouter(t, store, nil)
	establish(t, h)

	for _, date := range []string{"16/10/2026", "2026-10-13", "2026-10-18", "2026-10-22"} {
		rec := doRequest(t, h, http.MethodPut, "/api/v1/orders/o1/returns/i1/pickup", SchedulePickupRequestDTO{PickupDate: date})
		assert.Equal(t, http.StatusBadRequest, rec.Code, date)
	}
	assert.Empty(t, store.pickups)
}

func TestLocalOrderRules_RejectBeforeFetchingOrder(t *testing.T) {
	store := newFakeStore()
	h := newTestRouter(t, store, nil)
	establish(t, h)

	// Sunday, for an order the store does not know
	rec := doRequest(t, h, http.MethodPut, "/api/v1/orders/ghost/returns/i1/pickup", SchedulePickupRequestDTO{PickupDate: "2026-10-18"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeValidation), decodeError(t, rec).Code)

	rec = doRequest(t, h, http.MethodPut, "/api/v1/orders/ghost/returns/i1/pickup", SchedulePickupRequestDTO{PickupDate: "2026-10-22"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, h, http.MethodPost, "/api/v1/orders/ghost/complaints", ComplaintRequestDTO{
		Subject: "Broken",
		Images:  []string{"img-1"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeValidation), decodeError(t, rec).Code)

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, 0, store.orderFetches)
}

func TestFileComplaint(t *testing.T) {
	store := newFakeStore()
	store.orders["o1"] = deliveredOrder(domain.ReturnStatusNone)
	h := newTestRouter(t, store, nil)
	establish(t, h)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/orders/o1/complaints", ComplaintRequestDTO{
		Subject: "Broken",
		Images:  []string{"img-1"},
		Video:   "vid-1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, store.filed, 1)
	assert.Equal(t, "o1", store.filed[0].OrderID)
}

func TestFileComplaint_ValidationDetails(t *testing.T) {
	store := newFakeStore()
	store.orders["o1"] = deliveredOrder(domain.ReturnStatusNone)
	h := newTestRouter(t, store, nil)
	establish(t, h)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/orders/o1/complaints", ComplaintRequestDTO{
		Subject: "Broken",
		Images:  []string{"img-1"},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decodeError(t, rec)
	details, ok := resp.Details.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, details, "video")
	assert.Empty(t, store.filed)
}

func TestGetSetting(t *testing.T) {
	settings := fakeSettings{values: map[string]json.RawMessage{
		"store": json.RawMessage(`{"currency":"USD","codEnabled":true,"returnWindowDays":14}`),
	}}
	h := newTestRouter(t, newFakeStore(), settings)

	rec := doRequest(t, h, http.MethodGet, "/api/v1/settings/store", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"currency":"USD","codEnabled":true,"returnWindowDays":14}`, rec.Body.String())
}

func TestGetSetting_Unreachable(t *testing.T) {
	settings := fakeSettings{err: pkgerrors.New(pkgerrors.CodeNetworkUnknown, "unreachable")}
	h := newTestRouter(t, newFakeStore(), settings)

	rec := doRequest(t, h, http.MethodGet, "/api/v1/settings/store", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeNetworkUnknown), decodeError(t, rec).Code)
}
