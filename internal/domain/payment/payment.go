// Package payment defines the payment entity held by the payment store and
// the payment-specific refund mutation.
package payment

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jsamuelsen11/storefeed/internal/domain"
	"github.com/jsamuelsen11/storefeed/internal/domain/event"
)

// KindRefund records a (partial) refund against an existing payment.
const KindRefund event.Kind = "refund"

// Status represents the processing state of a Payment.
type Status string

const (
	StatusPending    Status = "pending"
	StatusAuthorized Status = "authorized"
	StatusCaptured   Status = "captured"
	StatusFailed     Status = "failed"
	StatusRefunded   Status = "refunded"
)

// IsValid returns true if the status is one of the defined constants.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusAuthorized, StatusCaptured, StatusFailed, StatusRefunded:
		return true
	default:
		return false
	}
}

// Payment is money moved against an invoice. Amounts are in minor units.
type Payment struct {
	ID            string `json:"id"`
	InvoiceID     string `json:"invoiceId,omitempty"`
	CustomerID    string `json:"customerId,omitempty"`
	AmountCents   int64  `json:"amountCents"`
	RefundedCents int64  `json:"refundedCents"`
	Currency      string `json:"currency,omitempty"`
	Status        Status `json:"status"`
}

// EntityID returns the payment identifier.
func (p Payment) EntityID() string { return p.ID }

// EntityStatus returns the payment status as a plain string.
func (p Payment) EntityStatus() string { return string(p.Status) }

// EntityAmount returns the net settled amount. Only captured or (partially)
// refunded payments count toward the total.
func (p Payment) EntityAmount() int64 {
	switch p.Status {
	case StatusCaptured, StatusRefunded:
		return p.AmountCents - p.RefundedCents
	default:
		return 0
	}
}

// Validate checks business rules for the Payment entity.
func (p Payment) Validate() error {
	fields := make(map[string]string)

	if strings.TrimSpace(p.ID) == "" {
		fields["id"] = domain.MsgRequired
	}
	if !p.Status.IsValid() {
		fields["status"] = fmt.Sprintf("invalid: %q", p.Status)
	}
	if p.AmountCents < 0 {
		fields["amountCents"] = fmt.Sprintf("must not be negative, got %d", p.AmountCents)
	}
	if p.RefundedCents < 0 || p.RefundedCents > p.AmountCents {
		fields["refundedCents"] = fmt.Sprintf("must be 0-%d, got %d", p.AmountCents, p.RefundedCents)
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

// refundPayload is the payload of a refund event.
type refundPayload struct {
	ID          string `json:"id"`
	AmountCents int64  `json:"amountCents"`
}

// Refund applies a refund event to the current payment. The payment must
// exist and be captured; a refund reaching the full amount moves it to
// refunded. Refunds accumulate, so redelivery protection relies on the
// store's dedup window.
func Refund(current Payment, exists bool, payload json.RawMessage) (Payment, error) {
	var p refundPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return current, &domain.ValidationError{Fields: map[string]string{"payload": "invalid JSON"}}
	}
	if p.AmountCents <= 0 {
		return current, &domain.ValidationError{
			Fields: map[string]string{"amountCents": fmt.Sprintf("must be positive, got %d", p.AmountCents)},
		}
	}
	if !exists {
		return current, fmt.Errorf("refund of payment %q: %w", p.ID, domain.ErrNotFound)
	}
	if current.Status != StatusCaptured && current.Status != StatusRefunded {
		return current, fmt.Errorf("refund of %s payment %q: %w", current.Status, current.ID, domain.ErrConflict)
	}

	next := current
	next.RefundedCents += p.AmountCents
	if next.RefundedCents >= next.AmountCents {
		next.RefundedCents = next.AmountCents
		next.Status = StatusRefunded
	}
	return next, nil
}
