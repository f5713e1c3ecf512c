package idempotency

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const Header = "Idempotency-Key"

// Key extracts the request's idempotency key, empty when absent.
func Key(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(Header))
}

// NewKey generates a fresh key for a single submission attempt.
func NewKey() string {
	return uuid.NewString()
}

// Set attaches the key to an outgoing request when non-empty.
func Set(r *http.Request, key string) {
	if key != "" {
		r.Header.Set(Header, key)
	}
}
