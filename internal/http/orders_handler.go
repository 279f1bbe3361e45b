package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	pkgerrors "github.com/fjod/go_cart/storefront/internal/errors"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/orders"
	"github.com/fjod/go_cart/storefront/internal/validate"
	"github.com/go-chi/chi/v5"
)

const pickupDateLayout = "2006-01-02"

type OrdersHandler struct {
	sessions Sessions
	timeout  time.Duration
	location *time.Location
	log      *logger.Logger
}

func NewOrdersHandler(sessions Sessions, timeout time.Duration, location *time.Location, log *logger.Logger) *OrdersHandler {
	if location == nil {
		location = time.Local
	}
	return &OrdersHandler{
		sessions: sessions,
		timeout:  timeout,
		location: location,
		log:      log,
	}
}

type SchedulePickupRequestDTO struct {
	PickupDate string `json:"pickupDate" validate:"required"`
}

type ComplaintRequestDTO struct {
	Subject     string   `json:"subject"`
	Description string   `json:"description"`
	Images      []string `json:"images"`
	Video       string   `json:"video"`
}

// withView opens the order named in the path for the current shopper, runs fn
// and responds with the resulting view state.
func (h *OrdersHandler) withView(w http.ResponseWriter, r *http.Request, status int, fn func(ctx context.Context, view *orders.View) error) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess, err := currentSession(ctx, h.sessions)
	if err != nil {
		respondError(ctx, h.log, w, err)
		return
	}

	orderID := chi.URLParam(r, "order_id")
	if orderID == "" {
		respondError(ctx, h.log, w, pkgerrors.New(pkgerrors.CodeValidation, "order_id is required"))
		return
	}
	ctx = h.log.WithField(ctx, "order_id", orderID)

	view, err := sess.Orders.Open(ctx, orderID)
	if err != nil {
		respondError(ctx, h.log, w, err)
		return
	}
	defer view.Close()

	if fn != nil {
		if err := fn(ctx, view); err != nil {
			respondError(ctx, h.log, w, err)
			return
		}
	}
	respondJSON(w, status, view.State())
}

// GET /api/v1/orders/{order_id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	h.withView(w, r, http.StatusOK, nil)
}

// POST /api/v1/orders/{order_id}/cancel
func (h *OrdersHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	h.withView(w, r, http.StatusOK, func(ctx context.Context, view *orders.View) error {
		return view.Cancel(ctx)
	})
}

// POST /api/v1/orders/{order_id}/returns
func (h *OrdersHandler) RequestReturn(w http.ResponseWriter, r *http.Request) {
	var req domain.ReturnRequest
	if err := validate.DecodeJSONBody(r, &req); err != nil {
		respondError(r.Context(), h.log, w, err)
		return
	}
	h.withView(w, r, http.StatusCreated, func(ctx context.Context, view *orders.View) error {
		return view.RequestReturn(ctx, req)
	})
}

// PUT /api/v1/orders/{order_id}/returns/{item_id}/pickup
func (h *OrdersHandler) SchedulePickup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req SchedulePickupRequestDTO
	if err := validate.DecodeJSONBody(r, &req); err != nil {
		respondError(ctx, h.log, w, err)
		return
	}
	date, err := time.ParseInLocation(pickupDateLayout, req.PickupDate, h.location)
	if err != nil {
		respondError(ctx, h.log, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "pickup date must look like 2006-01-02").
			WithDetails(map[string]string{"pickupDate": "is invalid"}))
		return
	}

	// the date rule is local; check it before the order is fetched
	sess, err := currentSession(ctx, h.sessions)
	if err != nil {
		respondError(ctx, h.log, w, err)
		return
	}
	if err := sess.Orders.CheckPickupDate(date); err != nil {
		respondError(ctx, h.log, w, err)
		return
	}

	itemID := chi.URLParam(r, "item_id")
	h.withView(w, r, http.StatusOK, func(ctx context.Context, view *orders.View) error {
		return view.SchedulePickup(ctx, itemID, date)
	})
}

// POST /api/v1/orders/{order_id}/complaints
func (h *OrdersHandler) FileComplaint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req ComplaintRequestDTO
	if err := validate.DecodeJSONBody(r, &req); err != nil {
		respondError(ctx, h.log, w, err)
		return
	}
	if _, err := currentSession(ctx, h.sessions); err != nil {
		respondError(ctx, h.log, w, err)
		return
	}

	complaint := domain.Complaint{
		OrderID:     chi.URLParam(r, "order_id"),
		Subject:     req.Subject,
		Description: req.Description,
		Images:      req.Images,
		Video:       req.Video,
	}
	if err := orders.ValidateComplaint(complaint); err != nil {
		respondError(ctx, h.log, w, err)
		return
	}

	h.withView(w, r, http.StatusCreated, func(ctx context.Context, view *orders.View) error {
		return view.FileComplaint(ctx, complaint)
	})
}
