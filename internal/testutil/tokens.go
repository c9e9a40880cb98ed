package testutil

import (
	"fmt"
	"sync"
)

// FixedTokenGenerator returns predetermined dispatch tokens for testing.
//
// Tokens are handed out in order; once exhausted it continues with
// "<prefix>-<n>" so long scenarios stay deterministic without listing every
// token up front.
//
// Thread-safety: FixedTokenGenerator is safe for concurrent use via internal mutex.
type FixedTokenGenerator struct {
	mu     sync.Mutex
	prefix string
	tokens []string
	n      int
}

// NewFixedTokenGenerator creates a generator that returns tokens in order,
// then prefix-1, prefix-2, ... counting from the first generated token.
//
// If prefix is empty, "tok" is used.
func NewFixedTokenGenerator(prefix string, tokens ...string) *FixedTokenGenerator {
	if prefix == "" {
		prefix = "tok"
	}
	return &FixedTokenGenerator{prefix: prefix, tokens: tokens}
}

// Generate returns the next token.
//
// Implements bridge.TokenGenerator.
func (g *FixedTokenGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.n++
	if g.n <= len(g.tokens) {
		return g.tokens[g.n-1]
	}
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
