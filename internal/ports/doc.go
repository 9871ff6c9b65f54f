// Package ports defines interfaces between layers in the hexagonal architecture.
// Inbound ports (EventHandler, StoreReader) are implemented by the application
// layer and called by adapters. Outbound ports (EventSource, AuthProvider) are
// implemented by adapters and called by the application layer.
package ports
