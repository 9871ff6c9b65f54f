// Package events decodes inbound domain events for the event source
// adapters. Two wire shapes are accepted:
//
//   - the plain domain event JSON ({"domainType", "eventKind", ...})
//   - a CloudEvents 1.0 envelope, structured (JSON body) or binary
//     (ce_* headers plus a data body), whose type is
//     "<prefix>.<domain>.<kind>"
//
// For CloudEvents the id becomes the event's source ID and time its
// occurrence time. An envelope without time is stamped with the Unix epoch,
// so every delivery of it carries the same deduplication key.
package events

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jsamuelsen11/storefeed/internal/domain"
	"github.com/jsamuelsen11/storefeed/internal/domain/event"
)

// SpecVersion is the only CloudEvents version accepted.
const SpecVersion = "1.0"

// Binary-mode header names, as used by the Kafka protocol binding.
const (
	HeaderSpecVersion = "ce_specversion"
	HeaderID          = "ce_id"
	HeaderType        = "ce_type"
	HeaderTime        = "ce_time"
	HeaderSource      = "ce_source"
)

// CloudEvent is a structured-mode CloudEvents envelope.
type CloudEvent struct {
	SpecVersion     string          `json:"specversion"`
	ID              string          `json:"id"`
	Source          string          `json:"source"`
	Type            string          `json:"type"`
	Time            *time.Time      `json:"time,omitempty"`
	DataContentType string          `json:"datacontenttype,omitempty"`
	Data            json.RawMessage `json:"data"`
}

// Untimed is the occurrence time given to CloudEvents that carry no time.
var Untimed = time.Unix(0, 0).UTC()

// Decoder turns raw messages into domain events.
type Decoder struct {
	typePrefix string
	newID      func() string
}

// NewDecoder creates a Decoder. typePrefix is stripped from CloudEvents
// types (e.g. "com.storefeed" for "com.storefeed.invoice.update").
func NewDecoder(typePrefix string) *Decoder {
	return &Decoder{
		typePrefix: strings.TrimSuffix(typePrefix, "."),
		newID:      uuid.NewString,
	}
}

// Decode decodes a JSON body in either the plain or the structured
// CloudEvents shape. The envelope is not validated beyond what is needed to
// decode it; routing decides what to do with an incomplete event.
func (d *Decoder) Decode(raw []byte) (event.Event, error) {
	raw = bytes.TrimSpace(raw)

	var probe struct {
		SpecVersion *string `json:"specversion"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return event.Event{}, d.invalid("body", fmt.Sprintf("malformed JSON: %v", err))
	}

	if probe.SpecVersion == nil {
		var e event.Event
		if err := json.Unmarshal(raw, &e); err != nil {
			return event.Event{}, d.invalid("body", fmt.Sprintf("malformed event: %v", err))
		}
		return e, nil
	}

	var ce CloudEvent
	if err := json.Unmarshal(raw, &ce); err != nil {
		return event.Event{}, d.invalid("body", fmt.Sprintf("malformed cloudevent: %v", err))
	}
	return d.FromCloudEvent(ce)
}

// DecodeBinary decodes a binary-mode CloudEvent: attributes in headers,
// data as the message body. If headers carry no specversion, body is
// decoded with Decode.
func (d *Decoder) DecodeBinary(headers map[string]string, body []byte) (event.Event, error) {
	sv, ok := headers[HeaderSpecVersion]
	if !ok {
		return d.Decode(body)
	}

	ce := CloudEvent{
		SpecVersion: sv,
		ID:          headers[HeaderID],
		Source:      headers[HeaderSource],
		Type:        headers[HeaderType],
		Data:        json.RawMessage(bytes.TrimSpace(body)),
	}
	if ts := headers[HeaderTime]; ts != "" {
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return event.Event{}, d.invalid(HeaderTime, fmt.Sprintf("not RFC 3339: %q", ts))
		}
		ce.Time = &t
	}
	return d.FromCloudEvent(ce)
}

// FromCloudEvent maps a CloudEvents envelope onto a domain event. A missing
// id is replaced by a random UUID. A missing time becomes Untimed, never the
// receive time, so redeliveries of one id still deduplicate.
func (d *Decoder) FromCloudEvent(ce CloudEvent) (event.Event, error) {
	if ce.SpecVersion != SpecVersion {
		return event.Event{}, d.invalid("specversion", fmt.Sprintf("unsupported: %q", ce.SpecVersion))
	}

	dom, kind, err := d.splitType(ce.Type)
	if err != nil {
		return event.Event{}, err
	}

	e := event.Event{
		Domain:   dom,
		Kind:     kind,
		Payload:  ce.Data,
		SourceID: ce.ID,
	}
	if e.SourceID == "" {
		e.SourceID = d.newID()
	}
	if ce.Time != nil {
		e.OccurredAt = *ce.Time
	} else {
		e.OccurredAt = Untimed
	}
	return e, nil
}

// ToCloudEvent wraps e in a structured-mode envelope. Used when the service
// republishes an event onto a broker.
func (d *Decoder) ToCloudEvent(e event.Event, source string) CloudEvent {
	t := e.OccurredAt
	return CloudEvent{
		SpecVersion:     SpecVersion,
		ID:              e.SourceID,
		Source:          source,
		Type:            d.typePrefix + "." + string(e.Domain) + "." + string(e.Kind),
		Time:            &t,
		DataContentType: "application/json",
		Data:            e.Payload,
	}
}

// splitType parses "<prefix>.<domain>.<kind>". The kind is everything after
// the domain, so kinds may contain dots.
func (d *Decoder) splitType(typ string) (event.Domain, event.Kind, error) {
	rest, ok := strings.CutPrefix(typ, d.typePrefix+".")
	if !ok {
		return "", "", d.invalid("type", fmt.Sprintf("%q does not start with %q", typ, d.typePrefix+"."))
	}
	dom, kind, ok := strings.Cut(rest, ".")
	if !ok || dom == "" || kind == "" {
		return "", "", d.invalid("type", fmt.Sprintf("%q is not <prefix>.<domain>.<kind>", typ))
	}
	return event.Domain(dom), event.Kind(kind), nil
}

func (d *Decoder) invalid(field, msg string) error {
	return &domain.ValidationError{Fields: map[string]string{field: msg}}
}
