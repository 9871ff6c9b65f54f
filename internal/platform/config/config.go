// Package config provides configuration loading and validation for the service.
// Configuration is loaded from YAML files with environment variable overrides
// using a layered system: defaults -> base.yaml -> {profile}.yaml -> env vars.
package config

import "time"

// Auth provider names.
const (
	AuthProviderHTTP   = "http"
	AuthProviderJWT    = "jwt"
	AuthProviderStatic = "static"
)

// Event source names.
const (
	EventSourceMemory = "memory"
	EventSourceKafka  = "kafka"
	EventSourceRedis  = "redis"
)

// Config holds all configuration for the service.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Log       LogConfig       `koanf:"log"`
	Client    ClientConfig    `koanf:"client"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Auth      AuthConfig      `koanf:"auth"`
	Events    EventsConfig    `koanf:"events"`
	Stores    StoresConfig    `koanf:"stores"`
	Health    HealthConfig    `koanf:"health"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `koanf:"host"`
	Port         int           `koanf:"port"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`
	// RequestTimeout bounds /api/v1 handlers. It must be shorter than
	// WriteTimeout so the 504 still reaches the client.
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

// LogConfig holds structured logging settings.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// ClientConfig holds settings for the outbound HTTP client used by the
// session auth provider.
type ClientConfig struct {
	BaseURL        string               `koanf:"base_url"`
	Timeout        time.Duration        `koanf:"timeout"`
	Retry          RetryConfig          `koanf:"retry"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuit_breaker"`
	RateLimit      RateLimitConfig      `koanf:"rate_limit"`
}

// RetryConfig holds retry policy settings with exponential backoff.
type RetryConfig struct {
	MaxAttempts     int           `koanf:"max_attempts"`
	InitialInterval time.Duration `koanf:"initial_interval"`
	MaxInterval     time.Duration `koanf:"max_interval"`
	Multiplier      float64       `koanf:"multiplier"`
}

// CircuitBreakerConfig holds circuit breaker settings.
type CircuitBreakerConfig struct {
	MaxFailures   int           `koanf:"max_failures"`
	Timeout       time.Duration `koanf:"timeout"`
	HalfOpenLimit int           `koanf:"half_open_limit"`
}

// RateLimitConfig caps outbound request rate. Zero RequestsPerSecond
// disables limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	BurstSize         int     `koanf:"burst_size"`
}

// TelemetryConfig holds OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled     bool   `koanf:"enabled"`
	Exporter    string `koanf:"exporter"`
	Endpoint    string `koanf:"endpoint"`
	ServiceName string `koanf:"service_name"`
}

// AuthConfig selects and configures the identity session provider.
type AuthConfig struct {
	Provider string `koanf:"provider"`
	// LoginURL is where unauthenticated navigations are redirected.
	LoginURL string `koanf:"login_url"`
	// SessionPath is polled on client.base_url by the http provider.
	SessionPath  string        `koanf:"session_path"`
	ReadyTimeout time.Duration `koanf:"ready_timeout"`
	PollInterval time.Duration `koanf:"poll_interval"`
	// StaticStatus is the fixed session status reported by the static
	// provider (pending, authenticated or error).
	StaticStatus string `koanf:"static_status"`
	// PrerenderToken is the X-Prerender value that lets a server-side
	// render through the gate. Empty disables the exemption.
	PrerenderToken string    `koanf:"prerender_token"`
	JWT            JWTConfig `koanf:"jwt"`
}

// JWTConfig configures the jwt provider. Token is the service credential
// verified at startup.
type JWTConfig struct {
	Secret   string `koanf:"secret"`
	Issuer   string `koanf:"issuer"`
	Audience string `koanf:"audience"`
	Token    string `koanf:"token"`
}

// EventsConfig selects and configures the event source.
type EventsConfig struct {
	Source string `koanf:"source"`
	// CloudEventsTypePrefix is stripped from a CloudEvents type before it
	// is split into domain and kind.
	CloudEventsTypePrefix string      `koanf:"cloudevents_type_prefix"`
	Kafka                 KafkaConfig `koanf:"kafka"`
	Redis                 RedisConfig `koanf:"redis"`
}

// KafkaConfig configures the Kafka consumer.
type KafkaConfig struct {
	Brokers []string      `koanf:"brokers"`
	Topic   string        `koanf:"topic"`
	GroupID string        `koanf:"group_id"`
	MaxWait time.Duration `koanf:"max_wait"`
}

// RedisConfig configures the Redis pub/sub subscriber.
type RedisConfig struct {
	URL     string `koanf:"url"`
	Channel string `koanf:"channel"`
}

// StoresConfig configures the domain stores.
type StoresConfig struct {
	// DedupWindow is how many recent event keys each store remembers.
	// Zero selects the built-in default; negative disables deduplication.
	DedupWindow int `koanf:"dedup_window"`
}

// HealthConfig configures readiness probing.
type HealthConfig struct {
	// CheckTimeout bounds each checker on a readiness probe.
	CheckTimeout time.Duration `koanf:"check_timeout"`
}
