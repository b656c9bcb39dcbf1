package logging

import (
	"log/slog"
	"strings"
)

// RedactedValue replaces string attributes whose key is not allowlisted.
const RedactedValue = "[REDACTED]"

// Keys emitted verbatim. Any other string attribute, such as an
// authorization header or token, is masked by the handler.
var allowedKeys = map[string]struct{}{
	"service":  {},
	"env":      {},
	"error":    {},
	"op":       {},
	"pool":     {},
	"actor":    {},
	"method":   {},
	"route":    {},
	"path":     {},
	"addr":     {},
	"client":   {},
	"type":     {},
	"severity": {},
}

// IsAllowlisted reports whether key is logged without masking.
func IsAllowlisted(key string) bool {
	_, ok := allowedKeys[strings.ToLower(strings.TrimSpace(key))]
	return ok
}

// MaskField builds a string attribute, masking the value unless key is
// allowlisted. Empty values are kept as is.
func MaskField(key, value string) slog.Attr {
	return redact(slog.String(key, value))
}

// redact masks non-allowlisted string attributes. Numeric, boolean, duration
// and error values pass through.
func redact(attr slog.Attr) slog.Attr {
	if attr.Value.Kind() != slog.KindString || IsAllowlisted(attr.Key) {
		return attr
	}
	if strings.TrimSpace(attr.Value.String()) == "" {
		return attr
	}
	return slog.String(attr.Key, RedactedValue)
}
