// Package domain contains shared domain types used across entity sub-packages.
// Entity-specific types live in sub-packages (domain/customer, domain/invoice,
// and so on); the event wire type lives in domain/event and the session
// status in domain/session. This root package holds sentinel errors and the
// validation error type shared by all of them.
package domain
