package bridge

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/xbridge/internal/ir"
	"github.com/roach88/xbridge/internal/store"
	"github.com/roach88/xbridge/internal/testutil"
)

const admin = "admin"

// setupBridge creates a bridge over a temp ledger with one custodian
// ("admin"), one locker ("locker") and the given validators.
func setupBridge(t *testing.T, validators ...string) (*Bridge, *testutil.RecordingInvoker) {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "bridge.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	inv := testutil.NewRecordingInvoker()
	b := New(s, inv,
		WithChain("xbridge"),
		WithTokenGenerator(testutil.NewFixedTokenGenerator("tok")),
	)

	ctx := context.Background()
	require.NoError(t, b.Bootstrap(ctx, []string{admin}))
	_, err = b.RegisterLocker(ctx, admin, "locker")
	require.NoError(t, err)
	for _, v := range validators {
		_, err := b.RegisterValidator(ctx, admin, v)
		require.NoError(t, err)
	}
	return b, inv
}

// inbound builds a message observed on chain with the given payload.
func inbound(chain, data string) ir.Message {
	return ir.Message{
		FromChain: chain,
		ToChain:   "xbridge",
		Sender:    "alice",
		Signer:    "alice",
		QoS:       ir.DefaultQoS,
		Content:   ir.Content{Contract: "greeting", Action: "greet", Data: data},
		Session:   ir.Session{ResType: 0, ID: 7},
	}
}

// attest submits an attestation and fails the test on error.
func attest(t *testing.T, b *Bridge, validator string, id uint64, msg ir.Message) Receipt {
	t.Helper()
	r, err := b.ReceiveMessage(context.Background(), validator, id, msg)
	require.NoError(t, err, "attestation by %s of id %d", validator, id)
	return r
}

// promote drives msg at id to the executable set with every validator.
func promote(t *testing.T, b *Bridge, id uint64, msg ir.Message, validators ...string) {
	t.Helper()
	var last Receipt
	for _, v := range validators {
		last = attest(t, b, v, id, msg)
	}
	require.True(t, last.Promoted)
}
