// Package middleware provides HTTP middleware for the inbound request pipeline.
//
// The middleware chain processes requests in this order:
//
//	Recovery → RequestID → CorrelationID → OpenTelemetry → Logging → Handler
//
// API routes add Timeout; gated page routes add SessionGate. Each
// middleware is a func(http.Handler) http.Handler registered with chi's Use
// or With.
package middleware

import "net/http"

// statusRecorder captures the status code and body size of a response.
// Recovery, OpenTelemetry and Logging share one recorder per request.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	wrote   bool
	written int64
}

// recordStatus wraps w, or returns w itself when an outer middleware has
// already wrapped it.
func recordStatus(w http.ResponseWriter) *statusRecorder {
	if rec, ok := w.(*statusRecorder); ok {
		return rec
	}
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

// WriteHeader records the first status code; later calls are ignored.
func (rec *statusRecorder) WriteHeader(code int) {
	if rec.wrote {
		return
	}
	rec.status = code
	rec.wrote = true
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	rec.wrote = true
	n, err := rec.ResponseWriter.Write(b)
	rec.written += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rec *statusRecorder) Unwrap() http.ResponseWriter {
	return rec.ResponseWriter
}
