package handlers

import (
	"context"
	"net/http"

	"github.com/jsamuelsen11/storefeed/internal/adapters/http/dto"
	"github.com/jsamuelsen11/storefeed/internal/domain/session"
)

// SessionReporter exposes the session state and the login trigger.
type SessionReporter interface {
	Status() session.Status
	Login(ctx context.Context) (string, error)
}

// ListenerCounter reports how many store listeners are attached.
type ListenerCounter interface {
	Active() int
}

// SessionHandler reports the identity session and starts logins.
type SessionHandler struct {
	session   SessionReporter
	listeners ListenerCounter
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(s SessionReporter, listeners ListenerCounter) *SessionHandler {
	return &SessionHandler{session: s, listeners: listeners}
}

// GetSession handles GET /api/v1/session.
func (h *SessionHandler) GetSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, dto.ToSessionResponse(h.session.Status(), h.listeners.Active()))
}

// Login handles POST /api/v1/session/login.
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	url, err := h.session.Login(r.Context())
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.LoginResponse{LoginURL: url})
}

// Page handles GET /app/*. It runs behind the session gate middleware, so
// reaching it means the navigation was allowed.
func (h *SessionHandler) Page(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.PageResponse{
		Path:    r.URL.Path,
		Session: h.session.Status().String(),
	})
}
