package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jsamuelsen11/storefeed/internal/adapters/http/dto"
	"github.com/jsamuelsen11/storefeed/internal/domain"
	"github.com/jsamuelsen11/storefeed/internal/domain/event"
	"github.com/jsamuelsen11/storefeed/internal/ports"
)

// StoreDirectory resolves the read surface of a domain store.
type StoreDirectory interface {
	Reader(d event.Domain) (ports.StoreReader, bool)
}

// StoreHandler serves read-only views of the domain stores.
type StoreHandler struct {
	stores StoreDirectory
}

// NewStoreHandler creates a StoreHandler over stores.
func NewStoreHandler(stores StoreDirectory) *StoreHandler {
	return &StoreHandler{stores: stores}
}

// ListStores handles GET /api/v1/stores.
func (h *StoreHandler) ListStores(w http.ResponseWriter, _ *http.Request) {
	views := make([]ports.StoreView, 0, len(event.Domains()))
	for _, d := range event.Domains() {
		if reader, ok := h.stores.Reader(d); ok {
			views = append(views, reader.View())
		}
	}
	writeJSON(w, http.StatusOK, dto.ToStoreSummaries(views))
}

// GetStore handles GET /api/v1/stores/{domain}.
func (h *StoreHandler) GetStore(w http.ResponseWriter, r *http.Request) {
	reader, err := h.reader(r)
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToStoreResponse(reader.View()))
}

// GetEntity handles GET /api/v1/stores/{domain}/{id}.
func (h *StoreHandler) GetEntity(w http.ResponseWriter, r *http.Request) {
	reader, err := h.reader(r)
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	id := chi.URLParam(r, "id")
	entity, err := reader.Lookup(id)
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntityResponse{
		Domain: string(reader.Domain()),
		ID:     id,
		Entity: entity,
	})
}

func (h *StoreHandler) reader(r *http.Request) (ports.StoreReader, error) {
	d := event.Domain(chi.URLParam(r, "domain"))
	reader, ok := h.stores.Reader(d)
	if !ok {
		return nil, fmt.Errorf("store %q: %w", d, domain.ErrUnknownDomain)
	}
	return reader, nil
}
