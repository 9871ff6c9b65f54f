package config

const (
	defaultServerPort = 8080

	defaultRetryMaxAttempts = 3
	defaultRetryMultiplier  = 2.0

	defaultCircuitBreakerMaxFailures = 5
	defaultCircuitBreakerHalfOpen    = 1

	defaultRateLimitBurst = 10

	defaultDedupWindow = 1024
)

// defaults returns the default configuration values.
// These are loaded first and can be overridden by base.yaml, profile YAML, and env vars.
func defaults() map[string]any {
	return map[string]any{
		"server.host":            "0.0.0.0",
		"server.port":            defaultServerPort,
		"server.read_timeout":    "5s",
		"server.write_timeout":   "10s",
		"server.idle_timeout":    "120s",
		"server.request_timeout": "8s",

		"log.level":  "info",
		"log.format": "json",

		"client.base_url":                        "http://localhost:8081",
		"client.timeout":                         "30s",
		"client.retry.max_attempts":              defaultRetryMaxAttempts,
		"client.retry.initial_interval":          "100ms",
		"client.retry.max_interval":              "10s",
		"client.retry.multiplier":                defaultRetryMultiplier,
		"client.circuit_breaker.max_failures":    defaultCircuitBreakerMaxFailures,
		"client.circuit_breaker.timeout":         "30s",
		"client.circuit_breaker.half_open_limit": defaultCircuitBreakerHalfOpen,
		"client.rate_limit.requests_per_second":  0,
		"client.rate_limit.burst_size":           defaultRateLimitBurst,

		"telemetry.enabled":      false,
		"telemetry.exporter":     "stdout",
		"telemetry.endpoint":     "",
		"telemetry.service_name": "storefeed",

		"auth.provider":      AuthProviderStatic,
		"auth.login_url":     "/login",
		"auth.session_path":  "/session",
		"auth.ready_timeout": "10s",
		"auth.poll_interval": "250ms",
		"auth.static_status": "authenticated",

		"auth.prerender_token": "",

		"events.source":                  EventSourceMemory,
		"events.cloudevents_type_prefix": "com.storefeed",
		"events.kafka.brokers":           []string{},
		"events.kafka.group_id":          "storefeed",
		"events.kafka.max_wait":          "500ms",
		"events.redis.channel":           "storefeed.events",

		"stores.dedup_window": defaultDedupWindow,

		"health.check_timeout": "2s",
	}
}
