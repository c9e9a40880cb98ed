package api

import "github.com/roach88/xbridge/internal/ir"

// RoleRequest registers an identity under a role.
type RoleRequest struct {
	Identity string `json:"identity"`
}

// SendRequest enqueues an outbound message.
type SendRequest struct {
	ToChain string     `json:"to_chain"`
	Content ir.Content `json:"content"`
	Session ir.Session `json:"session"`
}

// ChainsRequest names the chains of a maintenance purge.
type ChainsRequest struct {
	Chains []string `json:"chains"`
}

// OKResponse carries a boolean operation result.
type OKResponse struct {
	OK bool `json:"ok"`
}

// IDResponse carries a sequence id or watermark.
type IDResponse struct {
	ID uint64 `json:"id"`
}

// CountResponse carries an outbound counter.
type CountResponse struct {
	Count uint64 `json:"count"`
}

// InfoResponse describes the node.
type InfoResponse struct {
	Chain   string `json:"chain_name"`
	Version string `json:"version"`
	Schema  string `json:"schema_version"`
}
