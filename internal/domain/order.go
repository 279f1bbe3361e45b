package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "PENDING"
	OrderStatusProcessing     OrderStatus = "PROCESSING"
	OrderStatusShipped        OrderStatus = "SHIPPED"
	OrderStatusOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	OrderStatusDelivered      OrderStatus = "DELIVERED"
	OrderStatusReturned       OrderStatus = "RETURNED"
	OrderStatusCancelled      OrderStatus = "CANCELLED"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
	OrderStatusReturned,
	OrderStatusCancelled,
}

func (s OrderStatus) String() string {
	return string(s)
}

func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}

const PaymentMethodCOD = "COD"

type OrderLine struct {
	ID              string          `json:"id"`
	ProductID       string          `json:"productId"`
	Name            string          `json:"name"`
	Image           string          `json:"image"`
	Price           decimal.Decimal `json:"price"`
	Quantity        int             `json:"quantity"`
	Color           string          `json:"color,omitempty"`
	ReturnStatus    ReturnStatus    `json:"returnStatus"`
	ReturnRequestID string          `json:"returnRequestId,omitempty"`
}

// Order is the server's view of a placed order. Status is encoded redundantly
// across Status, IsPaid and IsDelivered.
type Order struct {
	ID            string      `json:"id"`
	Items         []OrderLine `json:"items"`
	Status        OrderStatus `json:"status"`
	IsPaid        bool        `json:"isPaid"`
	IsDelivered   bool        `json:"isDelivered"`
	IsCancelled   bool        `json:"isCancelled"`
	PaymentMethod string      `json:"paymentMethod"`
	CreatedAt     time.Time   `json:"createdAt"`
	PaidAt        *time.Time  `json:"paidAt,omitempty"`
	DeliveredAt   *time.Time  `json:"deliveredAt,omitempty"`
	CancelledAt   *time.Time  `json:"cancelledAt,omitempty"`
}

func (o Order) Line(itemID string) (OrderLine, bool) {
	for _, l := range o.Items {
		if l.ID == itemID {
			return l, true
		}
	}
	return OrderLine{}, false
}

func (o Order) IsReturned() bool {
	return o.Status == OrderStatusReturned
}

// HasDelivered is true when either delivery flag says so.
func (o Order) HasDelivered() bool {
	return o.IsDelivered || o.Status == OrderStatusDelivered
}

func (o Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range o.Items {
		total = total.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

// ReturnEligibility is computed by the server per order line and never stored.
type ReturnEligibility struct {
	ItemID     string   `json:"itemId"`
	IsEligible bool     `json:"isEligible"`
	Reasons    []string `json:"reasons"`
}

type ReturnRequest struct {
	ItemID   string `json:"itemId" validate:"required"`
	Reason   string `json:"reason" validate:"required"`
	Comments string `json:"comments"`
}
