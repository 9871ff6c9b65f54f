// Package customer defines the customer entity held by the customer store.
package customer

import (
	"fmt"
	"strings"

	"github.com/jsamuelsen11/storefeed/internal/domain"
)

// Status represents the account state of a Customer.
type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
)

// IsValid returns true if the status is one of the defined constants.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusSuspended:
		return true
	default:
		return false
	}
}

// Customer is a billing account holder.
type Customer struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	Status Status `json:"status"`
}

// EntityID returns the customer identifier.
func (c Customer) EntityID() string { return c.ID }

// EntityStatus returns the customer status as a plain string.
func (c Customer) EntityStatus() string { return string(c.Status) }

// Validate checks business rules for the Customer entity.
func (c Customer) Validate() error {
	fields := make(map[string]string)

	if strings.TrimSpace(c.ID) == "" {
		fields["id"] = domain.MsgRequired
	}
	if !c.Status.IsValid() {
		fields["status"] = fmt.Sprintf("invalid: %q", c.Status)
	}
	if c.Email != "" && !strings.Contains(c.Email, "@") {
		fields["email"] = fmt.Sprintf("invalid: %q", c.Email)
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}
