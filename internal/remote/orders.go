package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

const pickupDateLayout = "2006-01-02"

type schedulePickupRequest struct {
	PickupDate string `json:"pickupDate"`
}

type eligibilityPayload struct {
	Items []domain.ReturnEligibility
}

func (p *eligibilityPayload) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, &p.Items)
	}
	var wrapped struct {
		Items []domain.ReturnEligibility `json:"items"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return err
	}
	p.Items = wrapped.Items
	return nil
}

func (c *Client) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	var order domain.Order
	if err := c.do(ctx, http.MethodGet, "/orders/"+pathID(orderID), nil, nil, &order); err != nil {
		return domain.Order{}, fmt.Errorf("get order %s: %w", orderID, err)
	}
	for i := range order.Items {
		if order.Items[i].ReturnStatus == "" {
			order.Items[i].ReturnStatus = domain.ReturnStatusNone
		}
	}
	return order, nil
}

func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	if err := c.do(ctx, http.MethodPut, "/orders/"+pathID(orderID)+"/cancel", nil, nil, nil); err != nil {
		return fmt.Errorf("cancel order %s: %w", orderID, err)
	}
	return nil
}

func (c *Client) ReturnEligibility(ctx context.Context, orderID string) ([]domain.ReturnEligibility, error) {
	var payload eligibilityPayload
	if err := c.do(ctx, http.MethodGet, "/returns/eligibility/"+pathID(orderID), nil, nil, &payload); err != nil {
		return nil, fmt.Errorf("return eligibility for %s: %w", orderID, err)
	}
	return payload.Items, nil
}

func (c *Client) RequestReturn(ctx context.Context, orderID string, req domain.ReturnRequest) error {
	if err := c.do(ctx, http.MethodPost, "/returns/request/"+pathID(orderID), nil, req, nil); err != nil {
		return fmt.Errorf("request return on %s: %w", orderID, err)
	}
	return nil
}

func (c *Client) SchedulePickup(ctx context.Context, returnRequestID string, date time.Time) error {
	body := schedulePickupRequest{PickupDate: date.Format(pickupDateLayout)}
	if err := c.do(ctx, http.MethodPut, "/returns/"+pathID(returnRequestID)+"/schedule", nil, body, nil); err != nil {
		return fmt.Errorf("schedule pickup for %s: %w", returnRequestID, err)
	}
	return nil
}

func (c *Client) CreateComplaint(ctx context.Context, complaint domain.Complaint) error {
	if err := c.do(ctx, http.MethodPost, "/complaints", nil, complaint, nil); err != nil {
		return fmt.Errorf("create complaint on %s: %w", complaint.OrderID, err)
	}
	return nil
}
