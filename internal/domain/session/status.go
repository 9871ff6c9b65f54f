// Package session holds the identity session status shared between the auth
// provider adapters and the session gate.
package session

// Status is the lifecycle state of the identity session.
type Status string

const (
	StatusPending       Status = "pending"
	StatusAuthenticated Status = "authenticated"
	StatusError         Status = "error"
)

// IsValid returns true if the status is one of the defined constants.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusAuthenticated, StatusError:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is expected.
func (s Status) IsTerminal() bool {
	return s == StatusAuthenticated || s == StatusError
}

// String implements fmt.Stringer.
func (s Status) String() string {
	return string(s)
}
