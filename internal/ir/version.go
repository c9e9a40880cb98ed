package ir

// Version constants for the ledger schema and the node.
const (
	// SchemaVersion is the ledger schema version.
	SchemaVersion = "1"

	// NodeVersion is the bridge node version.
	NodeVersion = "0.1.0"
)
