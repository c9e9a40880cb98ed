// Package invoke performs the outbound contract call of a dispatch.
//
// A contract id resolves to a base URL from configuration; calling action on
// it is a POST of the canonical JSON argument list to <base>/<action>.
// Any 2xx response is success. There are no retries: the dispatcher promises
// exactly one attempt.
package invoke

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-cleanhttp"

	"github.com/roach88/xbridge/internal/ir"
)

// DefaultTimeout bounds one outbound call.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of a failed response is quoted in the error.
const maxErrorBody = 512

// ContractHeader carries the target contract id on every call.
const ContractHeader = "X-Bridge-Contract"

// HTTPInvoker calls contracts over HTTP.
//
// Thread-safety: safe for concurrent use.
type HTTPInvoker struct {
	contracts map[string]string
	client    *http.Client
}

// NewHTTPInvoker creates an invoker resolving contract ids through
// contracts (id -> base URL). A zero timeout uses DefaultTimeout.
func NewHTTPInvoker(contracts map[string]string, timeout time.Duration) *HTTPInvoker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := cleanhttp.DefaultPooledClient()
	client.Timeout = timeout

	resolved := make(map[string]string, len(contracts))
	for id, base := range contracts {
		resolved[id] = base
	}
	return &HTTPInvoker{contracts: resolved, client: client}
}

// Invoke implements bridge.Invoker.
func (h *HTTPInvoker) Invoke(ctx context.Context, contract, action string, args ir.Array) error {
	base, ok := h.contracts[contract]
	if !ok {
		return fmt.Errorf("unknown contract %q", contract)
	}
	target, err := url.JoinPath(base, action)
	if err != nil {
		return fmt.Errorf("build url for %s/%s: %w", contract, action, err)
	}

	body, err := ir.MarshalExact(args)
	if err != nil {
		return fmt.Errorf("encode args: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(ContractHeader, contract)

	start := time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("call %s/%s: %w", contract, action, err)
	}
	defer resp.Body.Close()

	slog.Debug("contract call returned",
		"contract", contract,
		"action", action,
		"status", resp.StatusCode,
		"elapsed", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("call %s/%s: status %d: %s", contract, action, resp.StatusCode, bytes.TrimSpace(snippet))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
