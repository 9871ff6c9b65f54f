// Package dto provides HTTP request/response data transfer objects and
// RFC 9457 Problem Details error responses for the inbound HTTP adapter layer.
package dto

import (
	"sort"

	"github.com/jsamuelsen11/storefeed/internal/domain/event"
	"github.com/jsamuelsen11/storefeed/internal/domain/session"
	"github.com/jsamuelsen11/storefeed/internal/ports"
)

// StoreSummary is one row of the store index.
type StoreSummary struct {
	Domain  string `json:"domain"`
	Count   int    `json:"count"`
	Version uint64 `json:"version"`
}

// StoreListResponse wraps the store index.
type StoreListResponse struct {
	Stores []StoreSummary `json:"stores"`
}

// StoreResponse is the full read view of one store.
type StoreResponse struct {
	Domain     string         `json:"domain"`
	Entities   map[string]any `json:"entities"`
	Count      int            `json:"count"`
	ByStatus   map[string]int `json:"byStatus"`
	TotalCents int64          `json:"totalCents"`
	Version    uint64         `json:"version"`
}

// EntityResponse wraps a single entity looked up by ID.
type EntityResponse struct {
	Domain string `json:"domain"`
	ID     string `json:"id"`
	Entity any    `json:"entity"`
}

// EventAcceptedResponse acknowledges an ingested event.
type EventAcceptedResponse struct {
	Domain   string `json:"domainType"`
	Kind     string `json:"eventKind"`
	SourceID string `json:"sourceId"`
	Key      string `json:"key"`
}

// SessionResponse reports the session and listener state.
type SessionResponse struct {
	Status        string `json:"status"`
	Authenticated bool   `json:"authenticated"`
	Listeners     int    `json:"listeners"`
}

// LoginResponse carries the URL a client should open to authenticate.
type LoginResponse struct {
	LoginURL string `json:"loginUrl,omitempty"`
}

// ToStoreSummaries converts views into an index sorted by domain.
func ToStoreSummaries(views []ports.StoreView) StoreListResponse {
	out := make([]StoreSummary, 0, len(views))
	for _, v := range views {
		out = append(out, StoreSummary{Domain: string(v.Domain), Count: v.Count, Version: v.Version})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Domain < out[j].Domain })
	return StoreListResponse{Stores: out}
}

// ToStoreResponse converts a store view. Nil maps become empty objects.
func ToStoreResponse(v ports.StoreView) StoreResponse {
	entities := v.Entities
	if entities == nil {
		entities = map[string]any{}
	}
	byStatus := v.ByStatus
	if byStatus == nil {
		byStatus = map[string]int{}
	}
	return StoreResponse{
		Domain:     string(v.Domain),
		Entities:   entities,
		Count:      v.Count,
		ByStatus:   byStatus,
		TotalCents: v.TotalCents,
		Version:    v.Version,
	}
}

// ToEventAcceptedResponse acknowledges e.
func ToEventAcceptedResponse(e event.Event) EventAcceptedResponse {
	return EventAcceptedResponse{
		Domain:   string(e.Domain),
		Kind:     string(e.Kind),
		SourceID: e.SourceID,
		Key:      e.Key(),
	}
}

// ToSessionResponse builds the session report.
func ToSessionResponse(st session.Status, listeners int) SessionResponse {
	return SessionResponse{
		Status:        st.String(),
		Authenticated: st == session.StatusAuthenticated,
		Listeners:     listeners,
	}
}

// PageResponse is served for a navigation the session gate allowed.
type PageResponse struct {
	Path    string `json:"path"`
	Session string `json:"session"`
}

// Readiness states.
const (
	ReadinessReady    = "ready"
	ReadinessNotReady = "not_ready"

	checkOK    = "ok"
	checkError = "error"
)

// ReadinessResponse reports the outcome of every health check.
type ReadinessResponse struct {
	Status string                 `json:"status"`
	Checks map[string]CheckResult `json:"checks"`
}

// CheckResult is one checker's outcome.
type CheckResult struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ToReadinessResponse folds checker results into a response. Ready is true
// only when every check passed.
func ToReadinessResponse(results map[string]error) (resp ReadinessResponse, ready bool) {
	resp = ReadinessResponse{Status: ReadinessReady, Checks: make(map[string]CheckResult, len(results))}
	for name, err := range results {
		if err == nil {
			resp.Checks[name] = CheckResult{Status: checkOK}
			continue
		}
		resp.Checks[name] = CheckResult{Status: checkError, Error: err.Error()}
		resp.Status = ReadinessNotReady
	}
	return resp, resp.Status == ReadinessReady
}
