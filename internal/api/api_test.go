package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/xbridge/internal/bridge"
	"github.com/roach88/xbridge/internal/ir"
	"github.com/roach88/xbridge/internal/store"
	"github.com/roach88/xbridge/internal/testutil"
)

type testNode struct {
	srv     *httptest.Server
	invoker *testutil.RecordingInvoker
}

func (n *testNode) client(caller string) *Client {
	return NewClient(n.srv.URL, caller, 5*time.Second)
}

func startNode(t *testing.T) *testNode {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "node.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	reg := prometheus.NewRegistry()
	inv := testutil.NewRecordingInvoker()
	b := bridge.New(s, inv,
		bridge.WithChain("xbridge"),
		bridge.WithMetrics(bridge.NewMetrics(reg)),
		bridge.WithTokenGenerator(testutil.NewFixedTokenGenerator("tok")),
	)
	require.NoError(t, b.Bootstrap(context.Background(), []string{"admin"}))

	srv := httptest.NewServer(NewRouter(b, reg))
	t.Cleanup(srv.Close)
	return &testNode{srv: srv, invoker: inv}
}

func message(chain, data string) ir.Message {
	return ir.Message{
		FromChain: chain,
		ToChain:   "xbridge",
		Sender:    "alice",
		Signer:    "alice",
		QoS:       ir.DefaultQoS,
		Content:   ir.Content{Contract: "greeting", Action: "greet", Data: data},
		Session:   ir.Session{ID: 1},
	}
}

func TestAPI_Roles(t *testing.T) {
	node := startNode(t)
	ctx := context.Background()
	admin := node.client("admin")

	ok, err := admin.RegisterValidator(ctx, "v1")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = admin.RegisterValidator(ctx, "v1")
	assert.True(t, bridge.IsCode(err, bridge.ErrCodeAlreadyRegistered))

	_, err = node.client("mallory").RegisterLocker(ctx, "l1")
	assert.True(t, bridge.IsCode(err, bridge.ErrCodeUnauthorized))

	validators, err := admin.Roles(ctx, ir.RoleValidator)
	require.NoError(t, err)
	assert.Equal(t, []string{"v1"}, validators)

	ok, err = admin.UnregisterValidator(ctx, "v1")
	require.NoError(t, err)
	assert.True(t, ok)

	custodians, err := admin.Roles(ctx, ir.RoleCustodian)
	require.NoError(t, err)
	assert.Equal(t, []string{"admin"}, custodians)

	_, err = admin.Roles(ctx, "nobody")
	assert.True(t, bridge.IsCode(err, bridge.ErrCodeNotFound))
}

func TestAPI_InboundLifecycle(t *testing.T) {
	node := startNode(t)
	ctx := context.Background()
	admin := node.client("admin")
	for _, v := range []string{"v1", "v2"} {
		_, err := admin.RegisterValidator(ctx, v)
		require.NoError(t, err)
	}
	msg := message("chainX", `["hi"]`)

	receipt, err := node.client("v1").ReceiveMessage(ctx, 1, msg)
	require.NoError(t, err)
	assert.Equal(t, 1, receipt.Attesters)
	assert.False(t, receipt.Promoted)

	pending, err := admin.PendingMessages(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, msg, pending[0].Groups[0].Message)

	task, err := admin.MsgPortingTask(ctx, "chainX", "v2")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), task)

	receipt, err = node.client("v2").ReceiveMessage(ctx, 1, msg)
	require.NoError(t, err)
	assert.True(t, receipt.Promoted)

	executable, err := admin.ExecutableMessages(ctx)
	require.NoError(t, err)
	require.Len(t, executable, 1)

	rec, err := node.client("anyone").ExecuteMessage(ctx, "chainX", 1)
	require.NoError(t, err)
	assert.Equal(t, ir.OutcomeExecuted, rec.Outcome)
	assert.Len(t, node.invoker.Calls(), 1)

	_, err = admin.ExecuteMessage(ctx, "chainX", 1)
	assert.True(t, bridge.IsCode(err, bridge.ErrCodeNotFound))

	log, err := admin.DispatchLog(ctx, "chainX", 1)
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, "tok-1", log[0].Token)

	latest, err := admin.LatestMessageID(ctx, "chainX")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), latest)

	fv, err := admin.FinalReceivedMessageID(ctx, "chainX", "v2")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), fv)
}

func TestAPI_SequenceErrorsCarrySlot(t *testing.T) {
	node := startNode(t)
	ctx := context.Background()
	_, err := node.client("admin").RegisterValidator(ctx, "v1")
	require.NoError(t, err)

	_, err = node.client("v1").ReceiveMessage(ctx, 4, message("chainX", ""))
	var be *bridge.Error
	require.True(t, errors.As(err, &be))
	assert.Equal(t, bridge.ErrCodeFatalSequenceGap, be.Code)
	assert.Equal(t, "chainX", be.Chain)
	assert.Equal(t, uint64(4), be.ID)
	assert.Equal(t, "v1", be.Validator)

	_, err = node.client("stranger").ReceiveMessage(ctx, 1, message("chainX", ""))
	assert.True(t, bridge.IsCode(err, bridge.ErrCodeNotValidator))
}

func TestAPI_Outbound(t *testing.T) {
	node := startNode(t)
	ctx := context.Background()
	admin := node.client("admin")
	_, err := admin.RegisterLocker(ctx, "locker")
	require.NoError(t, err)
	locker := node.client("locker")

	for i := 1; i <= 2; i++ {
		entry, err := locker.SendMessage(ctx, "chainY", ir.Content{Contract: "c", Action: "a"}, ir.Session{ID: uint64(i)})
		require.NoError(t, err)
		assert.Equal(t, uint64(i), entry.Key.ID)
	}

	count, err := admin.SentMessageCount(ctx, "chainY")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	msg, err := admin.SentMessageByID(ctx, "chainY", 2)
	require.NoError(t, err)
	assert.Equal(t, "xbridge", msg.FromChain)
	assert.Equal(t, uint64(2), msg.Session.ID)

	_, err = admin.SentMessageByID(ctx, "chainY", 3)
	assert.True(t, bridge.IsCode(err, bridge.ErrCodeNotFound))

	all, err := admin.SentMessages(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	ok, err := admin.ClearSentMessage(ctx, []string{"chainY"})
	require.NoError(t, err)
	assert.True(t, ok)

	toY, err := admin.SentMessages(ctx, "chainY")
	require.NoError(t, err)
	assert.Empty(t, toY)
}

func TestAPI_ClearReceived(t *testing.T) {
	node := startNode(t)
	ctx := context.Background()
	admin := node.client("admin")

	_, err := node.client("v1").ClearReceivedMessage(ctx, []string{"chainX"})
	assert.True(t, bridge.IsCode(err, bridge.ErrCodeUnauthorized))

	ok, err := admin.ClearReceivedMessage(ctx, []string{"chainX"})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAPI_RawErrors(t *testing.T) {
	node := startNode(t)

	resp, err := http.Post(node.srv.URL+"/v1/outbound", "application/json", strings.NewReader(`{"bogus":1}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"code":"INVALID_ARGUMENT"`)

	resp2, err := http.Get(node.srv.URL + "/v1/sent/chainY/1")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}

func TestAPI_InfoAndMetrics(t *testing.T) {
	node := startNode(t)

	info, err := node.client("").Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "xbridge", info.Chain)
	assert.Equal(t, ir.NodeVersion, info.Version)

	resp, err := http.Get(node.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "xbridge_validators")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code bridge.ErrorCode
		want int
	}{
		{bridge.ErrCodeUnauthorized, http.StatusUnauthorized},
		{bridge.ErrCodeNotValidator, http.StatusForbidden},
		{bridge.ErrCodeNotFound, http.StatusNotFound},
		{bridge.ErrCodeAlreadyRegistered, http.StatusConflict},
		{bridge.ErrCodeFatalSequenceGap, http.StatusConflict},
		{bridge.ErrCodeDuplicateAttestation, http.StatusConflict},
		{bridge.ErrCodeInvalidPayload, http.StatusUnprocessableEntity},
		{bridge.ErrCodeExecuteMessageFailed, http.StatusBadGateway},
		{bridge.ErrCodeInvalidArgument, http.StatusBadRequest},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.code))
		})
	}
}
