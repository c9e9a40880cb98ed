package bridge

import "github.com/google/uuid"

// TokenGenerator generates dispatch tokens.
// Implemented by UUIDv7Generator (production) and testutil.FixedTokenGenerator.
type TokenGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 dispatch tokens, so the
// dispatch log sorts by attempt time when read by token.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
