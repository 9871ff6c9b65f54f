// Package event defines the Domain Event, the wire contract between the
// external event source and the domain stores.
//
// Wire shape (JSON):
//
//	{
//	  "domainType": "invoice",
//	  "eventKind":  "status-change",
//	  "payload":    {"id": "INV-1", "status": "paid"},
//	  "occurredAt": "2026-03-01T10:00:00Z",
//	  "sourceId":   "s1"
//	}
//
// Events are immutable once decoded and are never persisted.
package event

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jsamuelsen11/storefeed/internal/domain"
)

// Domain identifies the business area an event belongs to.
type Domain string

const (
	DomainCustomer Domain = "customer"
	DomainPayment  Domain = "payment"
	DomainInvoice  Domain = "invoice"
	DomainOrder    Domain = "order"
	DomainService  Domain = "service"
)

// Domains returns the known domains in a stable order.
func Domains() []Domain {
	return []Domain{DomainCustomer, DomainPayment, DomainInvoice, DomainOrder, DomainService}
}

// IsKnown returns true if the domain is one of the defined constants.
func (d Domain) IsKnown() bool {
	switch d {
	case DomainCustomer, DomainPayment, DomainInvoice, DomainOrder, DomainService:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer.
func (d Domain) String() string {
	return string(d)
}

// Kind is the event kind. The four generic kinds are understood by every
// store; domains may register additional kinds.
type Kind string

const (
	KindCreate       Kind = "create"
	KindUpdate       Kind = "update"
	KindDelete       Kind = "delete"
	KindStatusChange Kind = "status-change"
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	return string(k)
}

// Event is a single domain notification received from the event source.
type Event struct {
	Domain     Domain          `json:"domainType"`
	Kind       Kind            `json:"eventKind"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurredAt"`
	SourceID   string          `json:"sourceId"`
}

// Key returns the redelivery identity of the event: the producer's source
// ID combined with the normalized occurrence time. Two deliveries with the
// same key are the same event.
func (e Event) Key() string {
	return e.SourceID + "|" + e.OccurredAt.UTC().Format(time.RFC3339Nano)
}

// Validate checks that the envelope fields are present. It does not check
// whether the domain is known; routing decides that.
func (e Event) Validate() error {
	fields := make(map[string]string)

	if e.Domain == "" {
		fields["domainType"] = domain.MsgRequired
	}
	if e.Kind == "" {
		fields["eventKind"] = domain.MsgRequired
	}
	if e.SourceID == "" {
		fields["sourceId"] = domain.MsgRequired
	}
	if e.OccurredAt.IsZero() {
		fields["occurredAt"] = domain.MsgRequired
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

// LogValue implements slog.LogValuer so an event can be logged with
// slog.Any("event", e) without leaking its payload.
func (e Event) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("domain", string(e.Domain)),
		slog.String("kind", string(e.Kind)),
		slog.String("source_id", e.SourceID),
		slog.Time("occurred_at", e.OccurredAt),
	)
}
