package dto

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"

	"github.com/jsamuelsen11/storefeed/internal/domain"
)

// problemTypeBase prefixes the type URI of every mapped problem. Unmapped
// errors use "about:blank".
const problemTypeBase = "/problems/"

// ErrorResponse represents an RFC 9457 Problem Details response.
type ErrorResponse struct {
	Type     string        `json:"type"`
	Title    string        `json:"title"`
	Status   int           `json:"status"`
	Detail   string        `json:"detail,omitempty"`
	Instance string        `json:"instance,omitempty"`
	Errors   []ErrorDetail `json:"errors,omitempty"`
}

// ErrorDetail represents a single field-level validation error within
// an ErrorResponse.
type ErrorDetail struct {
	Location string `json:"location"`
	Message  string `json:"message"`
	Value    any    `json:"value,omitempty"`
}

// problem binds a sentinel to its HTTP status and type slug.
type problem struct {
	target error
	status int
	slug   string
}

// problems is matched in order with errors.Is; the first hit wins.
var problems = []problem{
	{domain.ErrValidation, http.StatusBadRequest, "validation"},
	{domain.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
	{domain.ErrUnknownDomain, http.StatusNotFound, "unknown-domain"},
	{domain.ErrNotFound, http.StatusNotFound, "not-found"},
	{domain.ErrAlreadyInitialized, http.StatusConflict, "already-initialized"},
	{domain.ErrConflict, http.StatusConflict, "conflict"},
	{domain.ErrSessionPending, http.StatusServiceUnavailable, "session-pending"},
	{domain.ErrUnavailable, http.StatusServiceUnavailable, "unavailable"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout"},
}

// NewErrorResponse creates an RFC 9457 ErrorResponse from a domain error.
// The request is used to populate the instance field with the request URI.
func NewErrorResponse(r *http.Request, err error) ErrorResponse {
	p := lookupProblem(err)

	resp := ErrorResponse{
		Type:     "about:blank",
		Title:    http.StatusText(p.status),
		Status:   p.status,
		Detail:   err.Error(),
		Instance: r.RequestURI,
	}
	if p.slug != "" {
		resp.Type = problemTypeBase + p.slug
	}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		resp.Errors = validationFieldsToDetails(verr.Fields)
	}

	return resp
}

// WriteErrorResponse writes err as application/problem+json with the mapped
// status code.
func WriteErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	resp := NewErrorResponse(r, err)

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(resp.Status)

	if encErr := json.NewEncoder(w).Encode(resp); encErr != nil {
		slog.ErrorContext(r.Context(), "failed to encode error response",
			slog.Any("error", encErr),
		)
	}
}

func lookupProblem(err error) problem {
	for _, p := range problems {
		if errors.Is(err, p.target) {
			return p
		}
	}
	return problem{status: http.StatusInternalServerError}
}

// validationFieldsToDetails converts domain validation fields to ErrorDetail
// entries sorted by location.
func validationFieldsToDetails(fields map[string]string) []ErrorDetail {
	details := make([]ErrorDetail, 0, len(fields))
	for field, msg := range fields {
		details = append(details, ErrorDetail{
			Location: "body." + field,
			Message:  msg,
		})
	}
	sort.Slice(details, func(i, j int) bool {
		return details[i].Location < details[j].Location
	})
	return details
}
