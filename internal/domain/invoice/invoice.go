// Package invoice defines the invoice entity held by the invoice store.
package invoice

import (
	"fmt"
	"strings"

	"github.com/jsamuelsen11/storefeed/internal/domain"
)

// Status represents the settlement state of an Invoice.
type Status string

const (
	StatusDraft   Status = "draft"
	StatusIssued  Status = "issued"
	StatusOverdue Status = "overdue"
	StatusPaid    Status = "paid"
	StatusVoid    Status = "void"
)

// IsValid returns true if the status is one of the defined constants.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusIssued, StatusOverdue, StatusPaid, StatusVoid:
		return true
	default:
		return false
	}
}

// Invoice is a bill issued to a customer. Amounts are in minor units.
type Invoice struct {
	ID          string `json:"id"`
	CustomerID  string `json:"customerId,omitempty"`
	AmountCents int64  `json:"amountCents"`
	Currency    string `json:"currency,omitempty"`
	Status      Status `json:"status"`
}

// EntityID returns the invoice identifier.
func (i Invoice) EntityID() string { return i.ID }

// EntityStatus returns the invoice status as a plain string.
func (i Invoice) EntityStatus() string { return string(i.Status) }

// EntityAmount returns the invoiced amount in minor units.
func (i Invoice) EntityAmount() int64 { return i.AmountCents }

// Validate checks business rules for the Invoice entity.
func (i Invoice) Validate() error {
	fields := make(map[string]string)

	if strings.TrimSpace(i.ID) == "" {
		fields["id"] = domain.MsgRequired
	}
	if !i.Status.IsValid() {
		fields["status"] = fmt.Sprintf("invalid: %q", i.Status)
	}
	if i.AmountCents < 0 {
		fields["amountCents"] = fmt.Sprintf("must not be negative, got %d", i.AmountCents)
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}
