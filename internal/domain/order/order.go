// Package order defines the order entity held by the order store and the
// order-specific cancel mutation.
package order

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jsamuelsen11/storefeed/internal/domain"
	"github.com/jsamuelsen11/storefeed/internal/domain/event"
)

// KindCancel cancels an order that has not been delivered.
const KindCancel event.Kind = "cancel"

// Status represents the fulfilment state of an Order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// IsValid returns true if the status is one of the defined constants.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	default:
		return false
	}
}

// Order is a customer purchase. Amounts are in minor units.
type Order struct {
	ID           string `json:"id"`
	CustomerID   string `json:"customerId,omitempty"`
	TotalCents   int64  `json:"totalCents"`
	Status       Status `json:"status"`
	CancelReason string `json:"cancelReason,omitempty"`
}

// EntityID returns the order identifier.
func (o Order) EntityID() string { return o.ID }

// EntityStatus returns the order status as a plain string.
func (o Order) EntityStatus() string { return string(o.Status) }

// EntityAmount returns the order total, zero for cancelled orders.
func (o Order) EntityAmount() int64 {
	if o.Status == StatusCancelled {
		return 0
	}
	return o.TotalCents
}

// Validate checks business rules for the Order entity.
func (o Order) Validate() error {
	fields := make(map[string]string)

	if strings.TrimSpace(o.ID) == "" {
		fields["id"] = domain.MsgRequired
	}
	if !o.Status.IsValid() {
		fields["status"] = fmt.Sprintf("invalid: %q", o.Status)
	}
	if o.TotalCents < 0 {
		fields["totalCents"] = fmt.Sprintf("must not be negative, got %d", o.TotalCents)
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

type cancelPayload struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// Cancel applies a cancel event. Cancelling an already cancelled order is a
// no-op; cancelling a delivered order is a conflict.
func Cancel(current Order, exists bool, payload json.RawMessage) (Order, error) {
	var p cancelPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return current, &domain.ValidationError{Fields: map[string]string{"payload": "invalid JSON"}}
	}
	if !exists {
		return current, fmt.Errorf("cancel order %q: %w", p.ID, domain.ErrNotFound)
	}

	switch current.Status {
	case StatusCancelled:
		return current, nil
	case StatusDelivered:
		return current, fmt.Errorf("cancel delivered order %q: %w", current.ID, domain.ErrConflict)
	}

	next := current
	next.Status = StatusCancelled
	next.CancelReason = p.Reason
	return next, nil
}
