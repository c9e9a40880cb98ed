package bridge

import (
	"context"
	"testing"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/xbridge/internal/ir"
)

// Scenario B: three sends to one destination.
func TestSendMessage_Sequence(t *testing.T) {
	b, _ := setupBridge(t)
	ctx := context.Background()

	var sent []ir.SentEntry
	for i, data := range []string{`["a"]`, `["b"]`, `["c"]`} {
		content := ir.Content{Contract: "greeting", Action: "greet", Data: data}
		entry, err := b.SendMessage(ctx, "locker", "chainY", content, ir.Session{ResType: 1, ID: uint64(i)})
		require.NoError(t, err)
		assert.Equal(t, uint64(i+1), entry.Key.ID)
		sent = append(sent, entry)
	}

	count, err := b.SentMessageCount(ctx, "chainY")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)

	second, err := b.SentMessageByID(ctx, "chainY", 2)
	require.NoError(t, err)
	assert.Equal(t, sent[1].Message, second)
	assert.Equal(t, "xbridge", second.FromChain)
	assert.Equal(t, "chainY", second.ToChain)
	assert.Equal(t, "locker", second.Sender)
	assert.Equal(t, "locker", second.Signer)
	assert.Equal(t, ir.DefaultQoS, second.QoS)
	assert.Equal(t, `["b"]`, second.Content.Data)

	assert.Equal(t, float64(3), promtest.ToFloat64(b.metrics.outbound))
}

func TestSendMessage_LockerOnly(t *testing.T) {
	b, _ := setupBridge(t, "v1")
	ctx := context.Background()

	_, err := b.SendMessage(ctx, "v1", "chainY", ir.Content{}, ir.Session{})
	assert.Equal(t, ErrCodeUnauthorized, CodeOf(err))

	count, err := b.SentMessageCount(ctx, "chainY")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestSendMessage_EmptyDestination(t *testing.T) {
	b, _ := setupBridge(t)

	_, err := b.SendMessage(context.Background(), "locker", "", ir.Content{}, ir.Session{})
	assert.Equal(t, ErrCodeInvalidArgument, CodeOf(err))
}

func TestSendMessage_SessionIDOutOfRange(t *testing.T) {
	b, _ := setupBridge(t)
	ctx := context.Background()

	_, err := b.SendMessage(ctx, "locker", "chainY", ir.Content{}, ir.Session{ID: MaxID + 1})
	assert.Equal(t, ErrCodeInvalidArgument, CodeOf(err))

	count, err := b.SentMessageCount(ctx, "chainY")
	require.NoError(t, err)
	assert.Zero(t, count)

	entry, err := b.SendMessage(ctx, "locker", "chainY", ir.Content{}, ir.Session{ID: MaxID})
	require.NoError(t, err)
	assert.Equal(t, uint64(MaxID), entry.Message.Session.ID)
}

func TestSendMessage_IndependentCounters(t *testing.T) {
	b, _ := setupBridge(t)
	ctx := context.Background()

	for _, chain := range []string{"chainY", "chainZ", "chainY"} {
		_, err := b.SendMessage(ctx, "locker", chain, ir.Content{}, ir.Session{})
		require.NoError(t, err)
	}

	all, err := b.SentMessages(ctx)
	require.NoError(t, err)
	keys := make([]ir.SlotKey, len(all))
	for i, e := range all {
		keys[i] = e.Key
	}
	assert.Equal(t, []ir.SlotKey{
		{Chain: "chainY", ID: 1},
		{Chain: "chainY", ID: 2},
		{Chain: "chainZ", ID: 1},
	}, keys)

	toZ, err := b.SentMessagesTo(ctx, "chainZ")
	require.NoError(t, err)
	assert.Len(t, toZ, 1)
}

func TestSentMessageByID_NotFound(t *testing.T) {
	b, _ := setupBridge(t)

	_, err := b.SentMessageByID(context.Background(), "chainY", 1)
	assert.Equal(t, ErrCodeNotFound, CodeOf(err))
}
