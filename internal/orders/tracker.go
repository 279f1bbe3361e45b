package orders

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/clock"
	"github.com/fjod/go_cart/storefront/internal/domain"
	pkgerrors "github.com/fjod/go_cart/storefront/internal/errors"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/metrics"
	"github.com/fjod/go_cart/storefront/internal/validate"
)

// Remote is the part of the store API order views depend on.
type Remote interface {
	GetOrder(ctx context.Context, orderID string) (domain.Order, error)
	CancelOrder(ctx context.Context, orderID string) error
	ReturnEligibility(ctx context.Context, orderID string) ([]domain.ReturnEligibility, error)
	RequestReturn(ctx context.Context, orderID string, req domain.ReturnRequest) error
	SchedulePickup(ctx context.Context, returnRequestID string, date time.Time) error
	CreateComplaint(ctx context.Context, complaint domain.Complaint) error
}

type Tracker struct {
	remote           Remote
	clock            clock.Clock
	pickupWindowDays int
	log              *logger.Logger
	metrics          *metrics.Metrics
}

func NewTracker(client Remote, clk clock.Clock, pickupWindowDays int, log *logger.Logger, m *metrics.Metrics) *Tracker {
	if clk == nil {
		clk = clock.NewSystem(nil)
	}
	if pickupWindowDays <= 0 {
		pickupWindowDays = DefaultPickupWindowDays
	}
	return &Tracker{
		remote:           client,
		clock:            clk,
		pickupWindowDays: pickupWindowDays,
		log:              log,
		metrics:          m,
	}
}

// View is an open order page: the last known order, its return eligibility,
// and the actions it offers. Responses arriving after Close are dropped.
type View struct {
	tracker *Tracker
	orderID string

	mu          sync.RWMutex
	order       domain.Order
	eligibility map[string]domain.ReturnEligibility
	closed      bool
}

type LineState struct {
	ItemID       string              `json:"itemId"`
	ReturnStatus domain.ReturnStatus `json:"returnStatus"`
	IsEligible   bool                `json:"isEligible"`
	Reasons      []string            `json:"reasons,omitempty"`
	Actions      []Action            `json:"actions"`
}

type State struct {
	Order    domain.Order `json:"order"`
	Progress Progress     `json:"progress"`
	Actions  []Action     `json:"actions"`
	Lines    []LineState  `json:"lines"`
}

// Open loads orderID and its return eligibility.
func (t *Tracker) Open(ctx context.Context, orderID string) (*View, error) {
	v := &View{tracker: t, orderID: orderID}
	if err := v.Refresh(ctx); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
}

func (v *View) Order() domain.Order {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.order
}

func (v *View) Progress() Progress {
	return Derive(v.Order())
}

func (v *View) Eligibility(itemID string) (domain.ReturnEligibility, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	e, ok := v.eligibility[itemID]
	return e, ok
}

func (v *View) State() State {
	v.mu.RLock()
	defer v.mu.RUnlock()

	lines := make([]LineState, 0, len(v.order.Items))
	for _, l := range v.order.Items {
		e := v.eligibility[l.ID]
		lines = append(lines, LineState{
			ItemID:       l.ID,
			ReturnStatus: l.ReturnStatus,
			IsEligible:   e.IsEligible,
			Reasons:      e.Reasons,
			Actions:      LineActions(v.order, l, e.IsEligible),
		})
	}
	return State{
		Order:    v.order,
		Progress: Derive(v.order),
		Actions:  Actions(v.order),
		Lines:    lines,
	}
}

// Refresh re-fetches the order. Fetched return statuses are merged with the
// known ones so a stale read never moves a line backwards.
func (v *View) Refresh(ctx context.Context) error {
	t := v.tracker
	ctx = t.log.WithField(ctx, "order_id", v.orderID)

	order, err := t.remote.GetOrder(ctx, v.orderID)
	if err != nil {
		return fmt.Errorf("load order: %w", err)
	}

	eligibility := map[string]domain.ReturnEligibility{}
	if order.HasDelivered() && !order.IsCancelled {
		items, err := t.remote.ReturnEligibility(ctx, v.orderID)
		if err != nil {
			t.log.Warn(ctx, "return eligibility unavailable, no line is returnable", err)
		}
		for _, e := range items {
			eligibility[e.ItemID] = e
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return v.discard(ctx)
	}
	for i := range order.Items {
		if prev, ok := v.order.Line(order.Items[i].ID); ok {
			order.Items[i].ReturnStatus = domain.Advance(prev.ReturnStatus, order.Items[i].ReturnStatus)
		}
	}
	v.order = order
	v.eligibility = eligibility
	return nil
}

// RequestReturn asks for a return of one delivered, eligible line.
func (v *View) RequestReturn(ctx context.Context, req domain.ReturnRequest) error {
	if err := validate.Struct(req); err != nil {
		return err
	}
	if err := v.require(req.ItemID, ActionRequestReturn); err != nil {
		return err
	}

	if err := v.tracker.remote.RequestReturn(ctx, v.orderID, req); err != nil {
		return fmt.Errorf("request return: %w", err)
	}
	return v.advanceLine(ctx, req.ItemID, domain.ReturnStatusRequested)
}

// CheckPickupDate applies the pickup date rule with the tracker's clock and
// window. It makes no network call.
func (t *Tracker) CheckPickupDate(date time.Time) error {
	return ValidatePickupDate(t.clock, date, t.pickupWindowDays)
}

// SchedulePickup books the pickup of an approved return. The date is checked
// locally first.
func (v *View) SchedulePickup(ctx context.Context, itemID string, date time.Time) error {
	t := v.tracker
	if err := t.CheckPickupDate(date); err != nil {
		return err
	}
	if err := v.require(itemID, ActionSchedulePickup); err != nil {
		return err
	}
	line, _ := v.line(itemID)
	if line.ReturnRequestID == "" {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "return request is not known yet, refresh the order")
	}

	if err := t.remote.SchedulePickup(ctx, line.ReturnRequestID, date); err != nil {
		return fmt.Errorf("schedule pickup: %w", err)
	}
	return v.advanceLine(ctx, itemID, domain.ReturnStatusPickupScheduled)
}

func (v *View) Cancel(ctx context.Context) error {
	if !offers(Actions(v.Order()), ActionCancel) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be cancelled")
	}
	if err := v.tracker.remote.CancelOrder(ctx, v.orderID); err != nil {
		return fmt.Errorf("cancel order: %w", err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return v.discard(ctx)
	}
	now := v.tracker.clock.Now()
	v.order.IsCancelled = true
	v.order.Status = domain.OrderStatusCancelled
	v.order.CancelledAt = &now
	return nil
}

// FileComplaint validates and submits a complaint about this order.
func (v *View) FileComplaint(ctx context.Context, complaint domain.Complaint) error {
	complaint.OrderID = v.orderID
	if err := ValidateComplaint(complaint); err != nil {
		return err
	}
	if !offers(Actions(v.Order()), ActionFileComplaint) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "complaints cannot be filed for a cancelled order")
	}

	if err := v.tracker.remote.CreateComplaint(ctx, complaint); err != nil {
		return fmt.Errorf("file complaint: %w", err)
	}
	if !v.open() {
		return v.discard(ctx)
	}
	return nil
}

func (v *View) line(itemID string) (domain.OrderLine, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.order.Line(itemID)
}

// require checks that the line exists and offers action.
func (v *View) require(itemID string, action Action) error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	line, ok := v.order.Line(itemID)
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("order line %s not found", itemID))
	}
	eligible := v.eligibility[itemID].IsEligible
	if !offers(LineActions(v.order, line, eligible), action) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "action is not available for this item").
			WithDetails(map[string]string{"returnStatus": line.ReturnStatus.String()})
	}
	return nil
}

// advanceLine records a client-initiated transition after the store accepted it.
func (v *View) advanceLine(ctx context.Context, itemID string, to domain.ReturnStatus) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return v.discard(ctx)
	}
	items := make([]domain.OrderLine, len(v.order.Items))
	copy(items, v.order.Items)
	for i := range items {
		if items[i].ID == itemID && domain.ClientInitiated(items[i].ReturnStatus, to) {
			items[i].ReturnStatus = to
		}
	}
	v.order.Items = items
	return nil
}

func (v *View) open() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return !v.closed
}

func (v *View) discard(ctx context.Context) error {
	v.tracker.metrics.Discarded("order_view")
	v.tracker.log.Debug(ctx, "discarding order response for a closed view")
	return pkgerrors.New(pkgerrors.CodeSessionChanged, "order view was closed while the request was in flight")
}
