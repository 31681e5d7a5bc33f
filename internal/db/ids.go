package db

import (
	"github.com/google/uuid"
	"github.com/hazyhaar/pkg/idgen"
)

// NewID generates a UUIDv4 primary key. Callback payloads reference rows by
// these ids, so they must round-trip through the agent unchanged.
func NewID() string {
	return uuid.NewString()
}

// NewSessionID generates an opaque agent session handle.
func NewSessionID() string {
	return "ses_" + idgen.New()
}

// ValidID reports whether s is a syntactically valid row identifier.
func ValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
