package logging

import (
	"log/slog"
	"regexp"
	"slices"
	"strings"

	"github.com/m-mizutani/masq"
)

// sensitiveHeaders carry credentials for the identity API, the static
// provider and browser sessions. Keys are lowercase.
var sensitiveHeaders = []string{
	"authorization",
	"proxy-authorization",
	"cookie",
	"set-cookie",
	"x-api-key",
	"x-identity-token",
	"x-prerender",
}

// sensitiveFields are attribute keys that always hold secrets, matching the
// koanf names of the secret config values.
var sensitiveFields = []string{
	"password",
	"secret",
	"token",
	"static_token",
	"prerender_token",
	"sasl_password",
}

var (
	bearerValue = regexp.MustCompile(`(?i)bearer\s+[a-z0-9\-._~+/]+=*`)
	// Three base64url segments of ten or more characters, so version
	// strings and hostnames do not match.
	jwtValue = regexp.MustCompile(`[a-zA-Z0-9\-_]{10,}\.[a-zA-Z0-9\-_]{10,}\.[a-zA-Z0-9\-_]{10,}`)
)

// IsSensitiveHeader reports whether the named HTTP header must not be
// logged verbatim.
func IsSensitiveHeader(name string) bool {
	return slices.Contains(sensitiveHeaders, strings.ToLower(name))
}

// redactor masks secrets by attribute name and, as a backstop, by value.
func redactor() func([]string, slog.Attr) slog.Attr {
	opts := make([]masq.Option, 0, len(sensitiveHeaders)+len(sensitiveFields)+3)
	for _, name := range sensitiveHeaders {
		opts = append(opts, masq.WithFieldName(name))
	}
	for _, name := range sensitiveFields {
		opts = append(opts, masq.WithFieldName(name))
	}
	opts = append(opts,
		masq.WithFieldPrefix("secret_"),
		masq.WithRegex(bearerValue),
		masq.WithRegex(jwtValue),
	)
	return masq.New(opts...)
}
