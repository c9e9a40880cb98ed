package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/xbridge/internal/ir"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// update runs fn in a transaction and fails the test on error.
func update(t *testing.T, s *Store, fn func(tx *Tx) error) {
	t.Helper()
	if err := s.Update(context.Background(), fn); err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
}

// createTestMessage creates a message with minimal required fields.
func createTestMessage(from, to, data string) ir.Message {
	return ir.Message{
		FromChain: from,
		ToChain:   to,
		Sender:    "sender",
		Signer:    "sender",
		QoS:       ir.DefaultQoS,
		Content:   ir.Content{Contract: "greeting", Action: "greet", Data: data},
		Session:   ir.Session{ResType: 1, ID: 42},
	}
}
