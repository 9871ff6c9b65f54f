// Package service defines the provisioned-service entity held by the service
// store. A service is a recurring product a customer subscribes to.
package service

import (
	"fmt"
	"strings"

	"github.com/jsamuelsen11/storefeed/internal/domain"
)

// Status represents the provisioning state of a Service.
type Status string

const (
	StatusProvisioning Status = "provisioning"
	StatusActive       Status = "active"
	StatusSuspended    Status = "suspended"
	StatusTerminated   Status = "terminated"
)

// IsValid returns true if the status is one of the defined constants.
func (s Status) IsValid() bool {
	switch s {
	case StatusProvisioning, StatusActive, StatusSuspended, StatusTerminated:
		return true
	default:
		return false
	}
}

// Service is a subscription held by a customer.
type Service struct {
	ID           string `json:"id"`
	CustomerID   string `json:"customerId,omitempty"`
	Plan         string `json:"plan,omitempty"`
	MonthlyCents int64  `json:"monthlyCents"`
	Status       Status `json:"status"`
}

// EntityID returns the service identifier.
func (s Service) EntityID() string { return s.ID }

// EntityStatus returns the service status as a plain string.
func (s Service) EntityStatus() string { return string(s.Status) }

// EntityAmount returns the recurring monthly charge, zero once terminated.
func (s Service) EntityAmount() int64 {
	if s.Status == StatusTerminated {
		return 0
	}
	return s.MonthlyCents
}

// Validate checks business rules for the Service entity.
func (s Service) Validate() error {
	fields := make(map[string]string)

	if strings.TrimSpace(s.ID) == "" {
		fields["id"] = domain.MsgRequired
	}
	if !s.Status.IsValid() {
		fields["status"] = fmt.Sprintf("invalid: %q", s.Status)
	}
	if s.MonthlyCents < 0 {
		fields["monthlyCents"] = fmt.Sprintf("must not be negative, got %d", s.MonthlyCents)
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}
