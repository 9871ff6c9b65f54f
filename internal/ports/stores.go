package ports

import (
	"github.com/jsamuelsen11/storefeed/internal/domain/event"
)

// StoreView is a read-only, JSON-ready copy of a store's state.
type StoreView struct {
	Domain     event.Domain   `json:"domain"`
	Entities   map[string]any `json:"entities"`
	Count      int            `json:"count"`
	ByStatus   map[string]int `json:"byStatus"`
	TotalCents int64          `json:"totalCents"`
	Version    uint64         `json:"version"`
}

// StoreReader is the read surface a domain store exposes to inbound
// adapters. There is deliberately no mutation method here: stores change
// only through event dispatch.
type StoreReader interface {
	// Domain returns the domain the store owns.
	Domain() event.Domain

	// View returns a copy of the current state and aggregates.
	View() StoreView

	// Lookup returns a single entity by ID.
	// Returns domain.ErrNotFound if the entity does not exist.
	Lookup(id string) (any, error)
}
