package shared

import (
	"encoding/base64"
	"strings"
)

// DefaultPageSize bounds paginated listings when callers pass no limit.
const DefaultPageSize = 50

// EncodeCursor turns the last seen row key into an opaque pagination token.
func EncodeCursor(lastKey string) string {
	if lastKey == "" {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString([]byte(lastKey))
}

// DecodeCursor reverses EncodeCursor. Malformed tokens decode to the empty
// cursor so a sweep can always restart from the beginning instead of failing.
func DecodeCursor(token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return ""
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return ""
	}
	return string(raw)
}

// ClampLimit normalises a requested page size.
func ClampLimit(limit int) int {
	if limit <= 0 || limit > 200 {
		return DefaultPageSize
	}
	return limit
}
