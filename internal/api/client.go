package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"

	"github.com/roach88/xbridge/internal/bridge"
	"github.com/roach88/xbridge/internal/ir"
)

// Client calls a bridge node's HTTP API as one identity.
// Failed calls that the node answered return *bridge.Error.
type Client struct {
	base   string
	caller string
	http   *http.Client
}

// NewClient creates a client for the node at base acting as caller.
func NewClient(base, caller string, timeout time.Duration) *Client {
	c := cleanhttp.DefaultPooledClient()
	if timeout > 0 {
		c.Timeout = timeout
	}
	return &Client{
		base:   strings.TrimRight(base, "/"),
		caller: caller,
		http:   c,
	}
}

// Caller returns the identity the client acts as.
func (c *Client) Caller() string {
	return c.caller
}

// Info returns the node description.
func (c *Client) Info(ctx context.Context) (InfoResponse, error) {
	var out InfoResponse
	err := c.do(ctx, http.MethodGet, "/v1/info", nil, &out)
	return out, err
}

// Roles lists the identities holding role.
func (c *Client) Roles(ctx context.Context, role ir.Role) ([]string, error) {
	var out []string
	err := c.do(ctx, http.MethodGet, path("roles", string(role)), nil, &out)
	return out, err
}

// RegisterLocker grants the locker role to identity.
func (c *Client) RegisterLocker(ctx context.Context, identity string) (bool, error) {
	var out OKResponse
	err := c.do(ctx, http.MethodPost, path("roles", string(ir.RoleLocker)), RoleRequest{Identity: identity}, &out)
	return out.OK, err
}

// RegisterValidator adds identity to the validator set.
func (c *Client) RegisterValidator(ctx context.Context, identity string) (bool, error) {
	var out OKResponse
	err := c.do(ctx, http.MethodPost, path("roles", string(ir.RoleValidator)), RoleRequest{Identity: identity}, &out)
	return out.OK, err
}

// UnregisterValidator removes identity from the validator set.
func (c *Client) UnregisterValidator(ctx context.Context, identity string) (bool, error) {
	var out OKResponse
	err := c.do(ctx, http.MethodDelete, path("roles", string(ir.RoleValidator), identity), nil, &out)
	return out.OK, err
}

// ReceiveMessage attests msg as message id of its source chain.
func (c *Client) ReceiveMessage(ctx context.Context, id uint64, msg ir.Message) (bridge.Receipt, error) {
	var out bridge.Receipt
	err := c.do(ctx, http.MethodPost, path("inbound", uintStr(id)), msg, &out)
	return out, err
}

// SendMessage enqueues an outbound message.
func (c *Client) SendMessage(ctx context.Context, toChain string, content ir.Content, session ir.Session) (ir.SentEntry, error) {
	var out ir.SentEntry
	err := c.do(ctx, http.MethodPost, "/v1/outbound", SendRequest{ToChain: toChain, Content: content, Session: session}, &out)
	return out, err
}

// ExecuteMessage dispatches the executable message at (chain, id).
func (c *Client) ExecuteMessage(ctx context.Context, chain string, id uint64) (ir.DispatchRecord, error) {
	var out ir.DispatchRecord
	err := c.do(ctx, http.MethodPost, path("executable", chain, uintStr(id), "execute"), nil, &out)
	return out, err
}

// PendingMessages lists open slots.
func (c *Client) PendingMessages(ctx context.Context) ([]ir.PendingSlot, error) {
	var out []ir.PendingSlot
	err := c.do(ctx, http.MethodGet, "/v1/pending", nil, &out)
	return out, err
}

// ExecutableMessages lists messages awaiting dispatch.
func (c *Client) ExecutableMessages(ctx context.Context) ([]ir.ExecutableEntry, error) {
	var out []ir.ExecutableEntry
	err := c.do(ctx, http.MethodGet, "/v1/executable", nil, &out)
	return out, err
}

// DispatchLog lists dispatch attempts on (chain, id).
func (c *Client) DispatchLog(ctx context.Context, chain string, id uint64) ([]ir.DispatchRecord, error) {
	var out []ir.DispatchRecord
	err := c.do(ctx, http.MethodGet, path("dispatch", chain, uintStr(id)), nil, &out)
	return out, err
}

// SentMessages lists the outbound log, optionally of one destination.
func (c *Client) SentMessages(ctx context.Context, chain string) ([]ir.SentEntry, error) {
	p := "/v1/sent"
	if chain != "" {
		p = path("sent", chain)
	}
	var out []ir.SentEntry
	err := c.do(ctx, http.MethodGet, p, nil, &out)
	return out, err
}

// SentMessageByID returns outbound message id for chain.
func (c *Client) SentMessageByID(ctx context.Context, chain string, id uint64) (ir.Message, error) {
	var out ir.Message
	err := c.do(ctx, http.MethodGet, path("sent", chain, uintStr(id)), nil, &out)
	return out, err
}

// SentMessageCount returns the number of messages sent to chain.
func (c *Client) SentMessageCount(ctx context.Context, chain string) (uint64, error) {
	var out CountResponse
	err := c.do(ctx, http.MethodGet, path("sent", chain, "count"), nil, &out)
	return out.Count, err
}

// LatestMessageID returns the global watermark of chain.
func (c *Client) LatestMessageID(ctx context.Context, chain string) (uint64, error) {
	var out IDResponse
	err := c.do(ctx, http.MethodGet, path("watermarks", chain), nil, &out)
	return out.ID, err
}

// FinalReceivedMessageID returns validator's watermark on chain.
func (c *Client) FinalReceivedMessageID(ctx context.Context, chain, validator string) (uint64, error) {
	var out IDResponse
	err := c.do(ctx, http.MethodGet, path("watermarks", chain, validator), nil, &out)
	return out.ID, err
}

// MsgPortingTask returns the next id validator should attest for chain.
func (c *Client) MsgPortingTask(ctx context.Context, chain, validator string) (uint64, error) {
	var out IDResponse
	err := c.do(ctx, http.MethodGet, path("tasks", chain, validator), nil, &out)
	return out.ID, err
}

// ClearReceivedMessage purges inbound state.
func (c *Client) ClearReceivedMessage(ctx context.Context, chains []string) (bool, error) {
	var out OKResponse
	err := c.do(ctx, http.MethodPost, "/v1/maintenance/clear-received", ChainsRequest{Chains: chains}, &out)
	return out.OK, err
}

// ClearSentMessage purges outbound state.
func (c *Client) ClearSentMessage(ctx context.Context, chains []string) (bool, error) {
	var out OKResponse
	err := c.do(ctx, http.MethodPost, "/v1/maintenance/clear-sent", ChainsRequest{Chains: chains}, &out)
	return out.OK, err
}

func (c *Client) do(ctx context.Context, method, p string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+p, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(CallerHeader, c.caller)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, p, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var eb ErrorBody
		if err := json.NewDecoder(resp.Body).Decode(&eb); err != nil || eb.Code == "" {
			return fmt.Errorf("%s %s: status %d", method, p, resp.StatusCode)
		}
		return eb.toError()
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, p, err)
	}
	return nil
}

// path joins escaped segments under /v1.
func path(segments ...string) string {
	var b strings.Builder
	b.WriteString("/v1")
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}

func uintStr(v uint64) string {
	return strconv.FormatUint(v, 10)
}
