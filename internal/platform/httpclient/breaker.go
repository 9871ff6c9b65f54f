package httpclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/sony/gobreaker/v2"
)

// ErrBreakerTripped is reported by HealthCheck while the breaker is not
// closed.
var ErrBreakerTripped = errors.New("circuit breaker not closed")

// HealthCheck maps the breaker state onto readiness without calling the
// downstream.
func (c *Client) HealthCheck(context.Context) error {
	switch st := c.breaker.State(); st {
	case gobreaker.StateClosed:
		return nil
	case gobreaker.StateHalfOpen, gobreaker.StateOpen:
		return fmt.Errorf("%s %s: %w", c.peer, st, ErrBreakerTripped)
	default:
		return fmt.Errorf("%s: breaker in unknown state %v", c.peer, st)
	}
}
