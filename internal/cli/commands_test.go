package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/xbridge/internal/api"
	"github.com/roach88/xbridge/internal/bridge"
	"github.com/roach88/xbridge/internal/ir"
	"github.com/roach88/xbridge/internal/store"
	"github.com/roach88/xbridge/internal/testutil"
)

type testNode struct {
	bridge  *bridge.Bridge
	invoker *testutil.RecordingInvoker
	url     string
}

// startNode serves a bridge with custodian "admin", locker "locker" and the
// given validators.
func startNode(t *testing.T, chain string, validators ...string) *testNode {
	t.Helper()
	ctx := context.Background()

	s, err := store.Open(filepath.Join(t.TempDir(), chain+".db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	reg := prometheus.NewRegistry()
	inv := testutil.NewRecordingInvoker()
	b := bridge.New(s, inv,
		bridge.WithChain(chain),
		bridge.WithMetrics(bridge.NewMetrics(reg)),
		bridge.WithTokenGenerator(testutil.NewFixedTokenGenerator("tok")),
	)
	require.NoError(t, b.Bootstrap(ctx, []string{"admin"}))
	_, err = b.RegisterLocker(ctx, "admin", "locker")
	require.NoError(t, err)
	for _, v := range validators {
		_, err := b.RegisterValidator(ctx, "admin", v)
		require.NoError(t, err)
	}

	srv := httptest.NewServer(api.NewRouter(b, reg))
	t.Cleanup(srv.Close)
	return &testNode{bridge: b, invoker: inv, url: srv.URL}
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func inboundMessage(from, to, data string) ir.Message {
	return ir.Message{
		FromChain: from,
		ToChain:   to,
		Sender:    "alice",
		Signer:    "alice",
		QoS:       ir.DefaultQoS,
		Content:   ir.Content{Contract: "greeting", Action: "greet", Data: data},
		Session:   ir.Session{ResType: 0, ID: 7},
	}
}

func decodeData(t *testing.T, out string, data any) {
	t.Helper()
	resp := struct {
		Status string `json:"status"`
		Data   any    `json:"data"`
	}{Data: data}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	require.Equal(t, "ok", resp.Status)
}

func TestSend_JSON(t *testing.T) {
	n := startNode(t, "chainA")

	out, err := execute(t, "send", "chainB",
		"--node", n.url, "--as", "locker", "--format", "json",
		"--contract", "greeting", "--action", "greet", "--data", `["hi"]`,
		"--res-type", "1", "--session-id", "9")
	require.NoError(t, err)

	var entry ir.SentEntry
	decodeData(t, out, &entry)
	assert.Equal(t, ir.SlotKey{Chain: "chainB", ID: 1}, entry.Key)
	assert.Equal(t, "chainA", entry.Message.FromChain)
	assert.Equal(t, "locker", entry.Message.Sender)
	assert.Equal(t, ir.Session{ResType: 1, ID: 9}, entry.Message.Session)

	count, err := n.bridge.SentMessageCount(context.Background(), "chainB")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestSend_Text(t *testing.T) {
	n := startNode(t, "chainA")

	out, err := execute(t, "send", "chainB", "--node", n.url, "--as", "locker",
		"--contract", "greeting", "--action", "greet")
	require.NoError(t, err)
	assert.Equal(t, "sent chainB #1 (greeting.greet)\n", out)
}

func TestSend_Unauthorized(t *testing.T) {
	n := startNode(t, "chainA")

	out, err := execute(t, "send", "chainB", "--node", n.url, "--as", "mallory",
		"--contract", "greeting", "--action", "greet")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, bridge.IsCode(err, bridge.ErrCodeUnauthorized))
	assert.Contains(t, out, "Error [UNAUTHORIZED]")
}

func TestSend_MissingFlags(t *testing.T) {
	_, err := execute(t, "send", "chainB")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestSend_NodeUnreachable(t *testing.T) {
	srv := httptest.NewServer(nil)
	url := srv.URL
	srv.Close()

	_, err := execute(t, "send", "chainB", "--node", url, "--as", "locker",
		"--contract", "greeting", "--action", "greet")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestExecute_DispatchesAndLogs(t *testing.T) {
	n := startNode(t, "xbridge", "v1")
	ctx := context.Background()
	_, err := n.bridge.ReceiveMessage(ctx, "v1", 1, inboundMessage("chainA", "xbridge", `["hi"]`))
	require.NoError(t, err)

	out, err := execute(t, "executable", "--node", n.url)
	require.NoError(t, err)
	assert.Contains(t, out, "chainA")
	assert.Contains(t, out, "greeting.greet")

	out, err = execute(t, "execute", "chainA", "1", "--node", n.url)
	require.NoError(t, err)
	assert.Equal(t, "chainA #1 executed (token tok-1)\n", out)
	require.Len(t, n.invoker.Calls(), 1)

	out, err = execute(t, "execute", "chainA", "1", "--node", n.url, "--log", "--format", "json")
	require.NoError(t, err)
	var records []ir.DispatchRecord
	decodeData(t, out, &records)
	require.Len(t, records, 2)
	assert.Equal(t, ir.OutcomeClaimed, records[0].Outcome)
	assert.Equal(t, ir.OutcomeExecuted, records[1].Outcome)

	_, err = execute(t, "execute", "chainA", "1", "--node", n.url)
	require.Error(t, err)
	assert.True(t, bridge.IsCode(err, bridge.ErrCodeNotFound))
}

func TestExecute_InvalidID(t *testing.T) {
	_, err := execute(t, "execute", "chainA", "one")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid id "one"`)
}

func TestPending_ListsGroups(t *testing.T) {
	n := startNode(t, "xbridge", "v1", "v2")
	_, err := n.bridge.ReceiveMessage(context.Background(), "v1", 1, inboundMessage("chainA", "xbridge", `["hi"]`))
	require.NoError(t, err)

	out, err := execute(t, "pending", "--node", n.url, "--format", "json")
	require.NoError(t, err)
	var slots []ir.PendingSlot
	decodeData(t, out, &slots)
	require.Len(t, slots, 1)
	assert.Equal(t, ir.SlotKey{Chain: "chainA", ID: 1}, slots[0].Key)
	require.Len(t, slots[0].Groups, 1)
	assert.Equal(t, []string{"v1"}, slots[0].Groups[0].Validators)

	out, err = execute(t, "pending", "--node", n.url)
	require.NoError(t, err)
	assert.Contains(t, out, "VALIDATORS")
	assert.Contains(t, out, "v1")
}

func TestSent_Variants(t *testing.T) {
	n := startNode(t, "chainA")
	ctx := context.Background()
	for _, to := range []string{"chainB", "chainB", "chainC"} {
		_, err := n.bridge.SendMessage(ctx, "locker", to,
			ir.Content{Contract: "greeting", Action: "greet", Data: `["x"]`}, ir.Session{})
		require.NoError(t, err)
	}

	out, err := execute(t, "sent", "--node", n.url, "--format", "json")
	require.NoError(t, err)
	var all []ir.SentEntry
	decodeData(t, out, &all)
	assert.Len(t, all, 3)

	out, err = execute(t, "sent", "chainB", "--node", n.url, "--format", "json")
	require.NoError(t, err)
	var toB []ir.SentEntry
	decodeData(t, out, &toB)
	assert.Len(t, toB, 2)

	out, err = execute(t, "sent", "chainB", "--count", "--node", n.url)
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)

	out, err = execute(t, "sent", "chainC", "--id", "1", "--node", n.url, "--format", "json")
	require.NoError(t, err)
	var msg ir.Message
	decodeData(t, out, &msg)
	assert.Equal(t, "chainC", msg.ToChain)

	_, err = execute(t, "sent", "chainC", "--id", "2", "--node", n.url)
	require.Error(t, err)
	assert.True(t, bridge.IsCode(err, bridge.ErrCodeNotFound))

	_, err = execute(t, "sent", "--count", "--node", n.url)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRole_AddListRemove(t *testing.T) {
	n := startNode(t, "xbridge")

	_, err := execute(t, "role", "add", "validator", "v9", "--node", n.url, "--as", "admin")
	require.NoError(t, err)

	out, err := execute(t, "role", "list", "validator", "--node", n.url, "--format", "json")
	require.NoError(t, err)
	var members []string
	decodeData(t, out, &members)
	assert.Equal(t, []string{"v9"}, members)

	_, err = execute(t, "role", "add", "validator", "v9", "--node", n.url, "--as", "admin")
	require.Error(t, err)
	assert.True(t, bridge.IsCode(err, bridge.ErrCodeAlreadyRegistered))

	out, err = execute(t, "role", "remove", "v9", "--node", n.url, "--as", "admin")
	require.NoError(t, err)
	assert.Equal(t, "v9 unregistered\n", out)

	_, err = execute(t, "role", "add", "custodian", "x", "--node", n.url, "--as", "admin")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "role", "list", "wizard", "--node", n.url)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRole_AddRequiresCustodian(t *testing.T) {
	n := startNode(t, "xbridge")

	_, err := execute(t, "role", "add", "locker", "l2", "--node", n.url, "--as", "locker")
	require.Error(t, err)
	assert.True(t, bridge.IsCode(err, bridge.ErrCodeUnauthorized))
}

func TestWatermark(t *testing.T) {
	n := startNode(t, "xbridge", "v1", "v2")
	ctx := context.Background()
	msg := inboundMessage("chainA", "xbridge", `["hi"]`)
	_, err := n.bridge.ReceiveMessage(ctx, "v1", 1, msg)
	require.NoError(t, err)

	out, err := execute(t, "watermark", "chainA", "--node", n.url)
	require.NoError(t, err)
	assert.Equal(t, "0\n", out)

	out, err = execute(t, "watermark", "chainA", "v1", "--node", n.url)
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)

	out, err = execute(t, "watermark", "chainA", "v2", "--task", "--node", n.url)
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)

	_, err = n.bridge.ReceiveMessage(ctx, "v2", 1, msg)
	require.NoError(t, err)

	out, err = execute(t, "watermark", "chainA", "--node", n.url, "--format", "json")
	require.NoError(t, err)
	var id map[string]uint64
	decodeData(t, out, &id)
	assert.Equal(t, uint64(1), id["id"])

	_, err = execute(t, "watermark", "chainA", "--task", "--node", n.url)
	require.Error(t, err)
}

func TestClear(t *testing.T) {
	n := startNode(t, "xbridge", "v1", "v2")
	ctx := context.Background()
	_, err := n.bridge.ReceiveMessage(ctx, "v1", 1, inboundMessage("chainA", "xbridge", `["hi"]`))
	require.NoError(t, err)
	_, err = n.bridge.SendMessage(ctx, "locker", "chainB", ir.Content{Contract: "c", Action: "a"}, ir.Session{})
	require.NoError(t, err)

	_, err = execute(t, "clear", "received", "chainA", "--node", n.url, "--as", "locker")
	require.Error(t, err)
	assert.True(t, bridge.IsCode(err, bridge.ErrCodeUnauthorized))

	out, err := execute(t, "clear", "received", "chainA", "--node", n.url, "--as", "admin")
	require.NoError(t, err)
	assert.Equal(t, "cleared received messages of chainA\n", out)
	pending, err := n.bridge.PendingMessages(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, err = execute(t, "clear", "sent", "chainB", "--node", n.url, "--as", "admin")
	require.NoError(t, err)
	count, err := n.bridge.SentMessageCount(ctx, "chainB")
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = execute(t, "clear", "everything", "chainB", "--node", n.url, "--as", "admin")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
