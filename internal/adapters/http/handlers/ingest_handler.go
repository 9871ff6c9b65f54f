package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jsamuelsen11/storefeed/internal/adapters/events"
	"github.com/jsamuelsen11/storefeed/internal/adapters/http/dto"
	"github.com/jsamuelsen11/storefeed/internal/domain/event"
	"github.com/jsamuelsen11/storefeed/internal/platform/logging"
	"github.com/jsamuelsen11/storefeed/internal/ports"
)

// HTTP binding prefix for binary-mode CloudEvents attributes.
const cloudEventsHTTPPrefix = "ce-"

// IngestHandler accepts domain events over HTTP and hands them to the
// configured event publisher. Events are routed asynchronously: a 202 means
// the event was published, not that a store applied it.
type IngestHandler struct {
	publisher ports.EventPublisher
	decoder   *events.Decoder
}

// NewIngestHandler creates an IngestHandler.
func NewIngestHandler(publisher ports.EventPublisher, decoder *events.Decoder) *IngestHandler {
	return &IngestHandler{publisher: publisher, decoder: decoder}
}

// PublishEvent handles POST /api/v1/events.
//
// The body is either a plain domain event, a structured CloudEvent, or the
// data of a binary-mode CloudEvent whose attributes arrive as ce-* headers.
// Envelopes missing required fields are rejected with 400. Unknown domains
// are accepted and dropped by the router.
func (h *IngestHandler) PublishEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := readBody(w, r)
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	var e event.Event
	if headers := cloudEventHeaders(r.Header); len(headers) > 0 {
		e, err = h.decoder.DecodeBinary(headers, body)
	} else {
		e, err = h.decoder.Decode(body)
	}
	if err == nil {
		err = e.Validate()
	}
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	if err := h.publisher.Publish(ctx, e); err != nil {
		logging.FromContext(ctx).ErrorContext(ctx, "failed to publish event",
			slog.String("operation", "PublishEvent"),
			slog.Any("event", e),
			slog.Any("error", err),
		)
		dto.WriteErrorResponse(w, r, fmt.Errorf("publishing event: %w", err))
		return
	}

	writeJSON(w, http.StatusAccepted, dto.ToEventAcceptedResponse(e))
}

// cloudEventHeaders maps ce-* HTTP headers onto the codec's attribute keys.
// Returns nil when the request carries no ce-specversion header.
func cloudEventHeaders(h http.Header) map[string]string {
	if h.Get(cloudEventsHTTPPrefix+"specversion") == "" {
		return nil
	}

	out := make(map[string]string)
	for name, values := range h {
		lower := strings.ToLower(name)
		if !strings.HasPrefix(lower, cloudEventsHTTPPrefix) || len(values) == 0 {
			continue
		}
		out["ce_"+strings.TrimPrefix(lower, cloudEventsHTTPPrefix)] = values[0]
	}
	return out
}
