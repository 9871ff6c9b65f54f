package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"

	"github.com/jsamuelsen11/storefeed/internal/adapters/http/dto"
	"github.com/jsamuelsen11/storefeed/internal/app/gate"
	"github.com/jsamuelsen11/storefeed/internal/domain"
)

// headerPrerender carries the shared prerender token of a server-side
// render.
const headerPrerender = "X-Prerender"

var errNavigationCancelled = errors.New("navigation cancelled")

// Navigator decides whether a navigation may proceed.
type Navigator interface {
	Check(ctx context.Context, nav gate.Navigation) (gate.Result, error)
}

// SessionGate returns middleware that runs each request through the
// navigation policy before the handler:
//
//   - Proceed serves the request
//   - Redirect answers 302 to the login URL, or 401 when the provider
//     gave no URL
//   - Cancel answers 503 without invoking the handler
//
// A request is a prerender only when its X-Prerender header equals
// prerenderToken. An empty token disables the exemption.
func SessionGate(nav Navigator, prerenderToken string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := nav.Check(r.Context(), gate.Navigation{
				Path:      r.URL.Path,
				Prerender: isPrerender(r, prerenderToken),
			})

			switch res.Decision {
			case gate.Proceed:
				next.ServeHTTP(w, r)

			case gate.Redirect:
				if res.LoginURL == "" {
					dto.WriteErrorResponse(w, r, fmt.Errorf("login required: %w", domain.ErrUnauthenticated))
					return
				}
				http.Redirect(w, r, res.LoginURL, http.StatusFound)

			default:
				if err == nil {
					err = errNavigationCancelled
				}
				dto.WriteErrorResponse(w, r, fmt.Errorf("%w: %w", domain.ErrUnavailable, err))
			}
		})
	}
}

func isPrerender(r *http.Request, token string) bool {
	if token == "" {
		return false
	}
	got := r.Header.Get(headerPrerender)
	return subtle.ConstantTimeCompare([]byte(got), []byte(token)) == 1
}
