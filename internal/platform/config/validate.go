package config

import (
	"errors"
	"fmt"
)

// Validate checks all configuration values and returns aggregated errors.
func (c *Config) Validate() error {
	return errors.Join(
		c.Server.validate(),
		c.Log.validate(),
		c.Client.validate(),
		c.Telemetry.validate(),
		c.Auth.validate(),
		c.Events.validate(),
	)
}

func (s *ServerConfig) validate() error {
	var errs []error

	if s.Port < 1 || s.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", s.Port))
	}
	if s.ReadTimeout <= 0 {
		errs = append(errs, errors.New("server.read_timeout must be positive"))
	}
	if s.WriteTimeout <= 0 {
		errs = append(errs, errors.New("server.write_timeout must be positive"))
	}
	if s.RequestTimeout <= 0 || s.RequestTimeout >= s.WriteTimeout {
		errs = append(errs, fmt.Errorf("server.request_timeout must be positive and below server.write_timeout, got %s",
			s.RequestTimeout))
	}

	return errors.Join(errs...)
}

func (l *LogConfig) validate() error {
	var errs []error

	switch l.Level {
	case "debug", "info", "warn", "error":
		// Valid levels.
	default:
		errs = append(errs, fmt.Errorf("log.level must be one of: debug, info, warn, error; got %q", l.Level))
	}

	switch l.Format {
	case "json", "text":
		// Valid formats.
	default:
		errs = append(errs, fmt.Errorf("log.format must be one of: json, text; got %q", l.Format))
	}

	return errors.Join(errs...)
}

func (cl *ClientConfig) validate() error {
	var errs []error

	if cl.BaseURL == "" {
		errs = append(errs, errors.New("client.base_url must not be empty"))
	}
	if cl.Timeout <= 0 {
		errs = append(errs, errors.New("client.timeout must be positive"))
	}
	if cl.Retry.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("client.retry.max_attempts must be >= 1, got %d", cl.Retry.MaxAttempts))
	}
	if cl.Retry.Multiplier <= 0 {
		errs = append(errs, fmt.Errorf("client.retry.multiplier must be positive, got %f", cl.Retry.Multiplier))
	}
	if cl.CircuitBreaker.MaxFailures < 1 {
		errs = append(errs, fmt.Errorf("client.circuit_breaker.max_failures must be >= 1, got %d",
			cl.CircuitBreaker.MaxFailures))
	}
	if cl.RateLimit.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("client.rate_limit.requests_per_second must not be negative, got %f",
			cl.RateLimit.RequestsPerSecond))
	}
	if cl.RateLimit.RequestsPerSecond > 0 && cl.RateLimit.BurstSize < 1 {
		errs = append(errs, fmt.Errorf("client.rate_limit.burst_size must be >= 1 when limiting, got %d",
			cl.RateLimit.BurstSize))
	}

	return errors.Join(errs...)
}

func (t *TelemetryConfig) validate() error {
	if !t.Enabled {
		return nil
	}

	var errs []error

	switch t.Exporter {
	case "stdout", "otlp":
		// Valid exporters.
	default:
		errs = append(errs, fmt.Errorf("telemetry.exporter must be one of: stdout, otlp; got %q", t.Exporter))
	}

	if t.Exporter == "otlp" && t.Endpoint == "" {
		errs = append(errs, errors.New("telemetry.endpoint must not be empty when exporter is otlp"))
	}

	return errors.Join(errs...)
}

func (a *AuthConfig) validate() error {
	var errs []error

	if a.ReadyTimeout <= 0 {
		errs = append(errs, errors.New("auth.ready_timeout must be positive"))
	}

	switch a.Provider {
	case AuthProviderHTTP:
		if a.SessionPath == "" {
			errs = append(errs, errors.New("auth.session_path must not be empty when provider is http"))
		}
		if a.PollInterval <= 0 {
			errs = append(errs, errors.New("auth.poll_interval must be positive when provider is http"))
		}
	case AuthProviderJWT:
		if a.JWT.Secret == "" {
			errs = append(errs, errors.New("auth.jwt.secret must not be empty when provider is jwt"))
		}
	case AuthProviderStatic:
		switch a.StaticStatus {
		case "pending", "authenticated", "error":
			// Valid statuses.
		default:
			errs = append(errs, fmt.Errorf(
				"auth.static_status must be one of: pending, authenticated, error; got %q", a.StaticStatus))
		}
	default:
		errs = append(errs, fmt.Errorf("auth.provider must be one of: http, jwt, static; got %q", a.Provider))
	}

	return errors.Join(errs...)
}

func (e *EventsConfig) validate() error {
	var errs []error

	if e.CloudEventsTypePrefix == "" {
		errs = append(errs, errors.New("events.cloudevents_type_prefix must not be empty"))
	}

	switch e.Source {
	case EventSourceMemory:
		// No settings.
	case EventSourceKafka:
		if len(e.Kafka.Brokers) == 0 {
			errs = append(errs, errors.New("events.kafka.brokers must not be empty when source is kafka"))
		}
		if e.Kafka.Topic == "" {
			errs = append(errs, errors.New("events.kafka.topic must not be empty when source is kafka"))
		}
	case EventSourceRedis:
		if e.Redis.URL == "" {
			errs = append(errs, errors.New("events.redis.url must not be empty when source is redis"))
		}
		if e.Redis.Channel == "" {
			errs = append(errs, errors.New("events.redis.channel must not be empty when source is redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("events.source must be one of: memory, kafka, redis; got %q", e.Source))
	}

	return errors.Join(errs...)
}
