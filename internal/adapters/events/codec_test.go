package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jsamuelsen11/storefeed/internal/adapters/events"
	"github.com/jsamuelsen11/storefeed/internal/app/stores"
	"github.com/jsamuelsen11/storefeed/internal/domain"
	"github.com/jsamuelsen11/storefeed/internal/domain/event"
)

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func TestDecoder_Decode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		wantDomain event.Domain
		wantKind   event.Kind
		wantSource string
	}{
		{
			name: "plain event",
			body: `{"domainType":"invoice","eventKind":"status-change",` +
				`"payload":{"id":"INV-1","status":"paid"},"occurredAt":"2026-03-01T10:00:00Z","sourceId":"s1"}`,
			wantDomain: event.DomainInvoice,
			wantKind:   event.KindStatusChange,
			wantSource: "s1",
		},
		{
			name: "structured cloudevent",
			body: `{"specversion":"1.0","id":"s1","source":"/billing","type":"com.storefeed.invoice.status-change",` +
				`"time":"2026-03-01T10:00:00Z","data":{"id":"INV-1","status":"paid"}}`,
			wantDomain: event.DomainInvoice,
			wantKind:   event.KindStatusChange,
			wantSource: "s1",
		},
		{
			name: "cloudevent with unknown domain decodes",
			body: `{"specversion":"1.0","id":"s2","source":"/x","type":"com.storefeed.shipping.create",` +
				`"time":"2026-03-01T10:00:00Z","data":{}}`,
			wantDomain: "shipping",
			wantKind:   event.KindCreate,
			wantSource: "s2",
		},
		{
			name: "dotted kind keeps remainder",
			body: `{"specversion":"1.0","id":"s3","source":"/x","type":"com.storefeed.payment.refund.partial",` +
				`"time":"2026-03-01T10:00:00Z","data":{}}`,
			wantDomain: event.DomainPayment,
			wantKind:   "refund.partial",
			wantSource: "s3",
		},
	}

	d := events.NewDecoder("com.storefeed")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e, err := d.Decode([]byte(tt.body))
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if e.Domain != tt.wantDomain || e.Kind != tt.wantKind || e.SourceID != tt.wantSource {
				t.Errorf("Decode() = %s/%s/%s, want %s/%s/%s",
					e.Domain, e.Kind, e.SourceID, tt.wantDomain, tt.wantKind, tt.wantSource)
			}
			if !e.OccurredAt.Equal(t0) {
				t.Errorf("OccurredAt = %v, want %v", e.OccurredAt, t0)
			}
		})
	}
}

func TestDecoder_Decode_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"domainType":`},
		{"wrong specversion", `{"specversion":"0.3","id":"x","type":"com.storefeed.order.create"}`},
		{"foreign type prefix", `{"specversion":"1.0","id":"x","type":"org.other.order.create"}`},
		{"type without kind", `{"specversion":"1.0","id":"x","type":"com.storefeed.order"}`},
	}

	d := events.NewDecoder("com.storefeed.")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := d.Decode([]byte(tt.body))
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("Decode() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestDecoder_FillsMissingIDAndTime(t *testing.T) {
	t.Parallel()

	d := events.NewDecoder("com.storefeed")
	d.SetIDSource(func() string { return "generated-id" })

	e, err := d.Decode([]byte(`{"specversion":"1.0","source":"/x","type":"com.storefeed.order.create","data":{"id":"O-1"}}`))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if e.SourceID != "generated-id" {
		t.Errorf("SourceID = %q, want generated-id", e.SourceID)
	}
	if !e.OccurredAt.Equal(events.Untimed) {
		t.Errorf("OccurredAt = %v, want %v", e.OccurredAt, events.Untimed)
	}
}

func TestDecoder_UntimedRedeliveryIsAppliedOnce(t *testing.T) {
	t.Parallel()

	d := events.NewDecoder("com.storefeed")
	set := stores.New(stores.Options{DedupWindow: 16})
	ctx := context.Background()

	created := event.Event{
		Domain: event.DomainPayment, Kind: event.KindCreate, SourceID: "c1", OccurredAt: t0,
		Payload: json.RawMessage(`{"id":"P1","amountCents":1000,"status":"captured"}`),
	}
	if err := set.Payments.ApplyEvent(ctx, created); err != nil {
		t.Fatalf("ApplyEvent(create) error = %v", err)
	}

	refund := []byte(`{"specversion":"1.0","id":"r1","source":"/billing","type":"com.storefeed.payment.refund","data":{"id":"P1","amountCents":300}}`)
	var keys []string
	for range 2 {
		e, err := d.Decode(refund)
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		keys = append(keys, e.Key())
		if err := set.Payments.ApplyEvent(ctx, e); err != nil {
			t.Fatalf("ApplyEvent(refund) error = %v", err)
		}
	}

	if keys[0] != keys[1] {
		t.Errorf("redelivery keys differ: %q vs %q", keys[0], keys[1])
	}
	p, ok := set.Payments.Get("P1")
	if !ok {
		t.Fatal("payment P1 missing")
	}
	if p.RefundedCents != 300 {
		t.Errorf("RefundedCents = %d, want 300", p.RefundedCents)
	}
}

func TestDecoder_DecodeBinary(t *testing.T) {
	t.Parallel()

	d := events.NewDecoder("com.storefeed")

	e, err := d.DecodeBinary(map[string]string{
		events.HeaderSpecVersion: "1.0",
		events.HeaderID:          "s9",
		events.HeaderType:        "com.storefeed.customer.update",
		events.HeaderTime:        "2026-03-01T10:00:00Z",
	}, []byte(`{"id":"C-1","name":"Ada"}`))
	if err != nil {
		t.Fatalf("DecodeBinary() error = %v", err)
	}
	if e.Domain != event.DomainCustomer || e.Kind != event.KindUpdate || e.SourceID != "s9" {
		t.Errorf("DecodeBinary() = %+v", e)
	}
	if string(e.Payload) != `{"id":"C-1","name":"Ada"}` {
		t.Errorf("Payload = %s", e.Payload)
	}

	if _, err := d.DecodeBinary(map[string]string{
		events.HeaderSpecVersion: "1.0",
		events.HeaderType:        "com.storefeed.customer.update",
		events.HeaderTime:        "yesterday",
	}, []byte(`{}`)); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("DecodeBinary(bad time) error = %v, want ErrValidation", err)
	}

	// Without ce_ headers the body is decoded as a regular message.
	plain, err := d.DecodeBinary(nil, []byte(`{"domainType":"order","eventKind":"create","sourceId":"s1",`+
		`"occurredAt":"2026-03-01T10:00:00Z","payload":{"id":"O-1"}}`))
	if err != nil {
		t.Fatalf("DecodeBinary(plain) error = %v", err)
	}
	if plain.Domain != event.DomainOrder {
		t.Errorf("Domain = %q, want order", plain.Domain)
	}
}

func TestDecoder_ToCloudEventRoundTrip(t *testing.T) {
	t.Parallel()

	d := events.NewDecoder("com.storefeed")
	in := event.Event{
		Domain:     event.DomainPayment,
		Kind:       "refund",
		Payload:    json.RawMessage(`{"id":"P-1","amountCents":100}`),
		OccurredAt: t0,
		SourceID:   "s1",
	}

	raw, err := json.Marshal(d.ToCloudEvent(in, "/storefeed"))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	out, err := d.Decode(raw)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if out.Key() != in.Key() || out.Domain != in.Domain || out.Kind != in.Kind {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}
