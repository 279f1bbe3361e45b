package orders

import (
	"slices"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

type Action string

const (
	ActionCancel         Action = "CANCEL"
	ActionPrintInvoice   Action = "PRINT_INVOICE"
	ActionFileComplaint  Action = "FILE_COMPLAINT"
	ActionRequestReturn  Action = "REQUEST_RETURN"
	ActionSchedulePickup Action = "SCHEDULE_PICKUP"
)

// Actions lists the order-level actions offered for o.
func Actions(o domain.Order) []Action {
	if o.IsCancelled {
		return nil
	}
	var out []Action
	if cancellable(o) {
		out = append(out, ActionCancel)
	}
	return append(out, ActionPrintInvoice, ActionFileComplaint)
}

func cancellable(o domain.Order) bool {
	if o.IsCancelled || o.HasDelivered() {
		return false
	}
	return o.Status == domain.OrderStatusPending || o.Status == domain.OrderStatusProcessing
}

// LineActions lists the return actions offered for one line. eligible is the
// store's verdict for the line; it only matters before a return is requested.
func LineActions(o domain.Order, line domain.OrderLine, eligible bool) []Action {
	if o.IsCancelled || line.ReturnStatus.IsTerminal() {
		return nil
	}
	switch line.ReturnStatus {
	case domain.ReturnStatusNone, "":
		if o.HasDelivered() && eligible {
			return []Action{ActionRequestReturn}
		}
	case domain.ReturnStatusApproved:
		return []Action{ActionSchedulePickup}
	}
	return nil
}

func offers(actions []Action, a Action) bool {
	return slices.Contains(actions, a)
}
