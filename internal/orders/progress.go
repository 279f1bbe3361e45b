package orders

import "github.com/fjod/go_cart/storefront/internal/domain"

type StepKind string

const (
	StepPlaced          StepKind = "PLACED"
	StepConfirmed       StepKind = "CONFIRMED"
	StepShipped         StepKind = "SHIPPED"
	StepOutForDelivery  StepKind = "OUT_FOR_DELIVERY"
	StepDelivered       StepKind = "DELIVERED"
	StepReturnApproved  StepKind = "RETURN_APPROVED"
	StepPickupScheduled StepKind = "PICKUP_SCHEDULED"
	StepPickedUp        StepKind = "PICKED_UP"
	StepRefunded        StepKind = "REFUNDED"
	StepReturned        StepKind = "RETURNED"
)

var stepLabels = map[StepKind]string{
	StepPlaced:          "Order Placed",
	StepConfirmed:       "Order Confirmed",
	StepShipped:         "Shipped",
	StepOutForDelivery:  "Out for Delivery",
	StepDelivered:       "Delivered",
	StepReturnApproved:  "Return Approved",
	StepPickupScheduled: "Pickup Scheduled",
	StepPickedUp:        "Picked Up",
	StepRefunded:        "Refunded",
	StepReturned:        "Returned",
}

type Step struct {
	Kind      StepKind `json:"kind"`
	Label     string   `json:"label"`
	Completed bool     `json:"completed"`
}

// Progress is the checklist shown for an order. A cancelled order has no steps.
type Progress struct {
	Cancelled bool   `json:"cancelled"`
	Steps     []Step `json:"steps"`
}

// Completed returns the kinds of the completed steps, in order.
func (p Progress) Completed() []StepKind {
	var out []StepKind
	for _, s := range p.Steps {
		if s.Completed {
			out = append(out, s.Kind)
		}
	}
	return out
}

// Pending returns the kinds of the steps not yet completed, in order.
func (p Progress) Pending() []StepKind {
	var out []StepKind
	for _, s := range p.Steps {
		if !s.Completed {
			out = append(out, s.Kind)
		}
	}
	return out
}

func step(kind StepKind, completed bool) Step {
	return Step{Kind: kind, Label: stepLabels[kind], Completed: completed}
}

// Derive computes the progress checklist of an order. Each step is evaluated
// on its own from the order fields, since the store encodes the lifecycle
// redundantly across status, isPaid and isDelivered.
func Derive(o domain.Order) Progress {
	if o.IsCancelled {
		return Progress{Cancelled: true}
	}

	returned := o.IsReturned()
	shipped := o.Status == domain.OrderStatusShipped ||
		o.Status == domain.OrderStatusOutForDelivery ||
		o.Status == domain.OrderStatusDelivered
	outForDelivery := o.Status == domain.OrderStatusOutForDelivery ||
		o.Status == domain.OrderStatusDelivered

	steps := []Step{
		step(StepPlaced, true),
		step(StepConfirmed, o.PaymentMethod == domain.PaymentMethodCOD || o.IsPaid),
		step(StepShipped, shipped || o.IsDelivered || returned),
		step(StepOutForDelivery, outForDelivery || o.IsDelivered || returned),
		step(StepDelivered, o.HasDelivered() || returned),
	}

	present := returnStatuses(o)
	if len(present) == 0 {
		if returned {
			steps = append(steps, step(StepReturned, true))
		}
		return Progress{Steps: steps}
	}

	if returned || present.any(domain.ReturnStatusApproved, domain.ReturnStatusPickupScheduled,
		domain.ReturnStatusPickedUp, domain.ReturnStatusRefunded) {
		steps = append(steps, step(StepReturnApproved, true))
	}
	if present.any(domain.ReturnStatusPickupScheduled, domain.ReturnStatusPickedUp, domain.ReturnStatusRefunded) {
		steps = append(steps, step(StepPickupScheduled, true))
	}
	if present.any(domain.ReturnStatusPickedUp, domain.ReturnStatusRefunded) {
		steps = append(steps, step(StepPickedUp, true))
	}
	if present.any(domain.ReturnStatusRefunded) {
		steps = append(steps, step(StepRefunded, true))
	}
	return Progress{Steps: steps}
}

type statusSet map[domain.ReturnStatus]struct{}

func (s statusSet) any(statuses ...domain.ReturnStatus) bool {
	for _, st := range statuses {
		if _, ok := s[st]; ok {
			return true
		}
	}
	return false
}

// returnStatuses collects the distinct in-progress return statuses of o's lines.
func returnStatuses(o domain.Order) statusSet {
	set := statusSet{}
	for _, l := range o.Items {
		if l.ReturnStatus.InProgress() {
			set[l.ReturnStatus] = struct{}{}
		}
	}
	return set
}
