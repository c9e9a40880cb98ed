// Package bridge implements the cross-chain message lifecycle.
//
// A Bridge owns one ledger (internal/store) and exposes the operations a node
// serves: role registration, inbound attestation, outbound enqueue, dispatch,
// maintenance and the read model.
//
// Inbound messages move through three states:
//
//	receiveMessage -> pending slot -> (quorum) -> executable -> (dispatch) -> gone
//
// Sequencing (sequencing.go) decides whether a validator may attest a slot at
// all. The aggregator (aggregator.go) groups attestations by content hash and
// promotes a group once its distinct attester count reaches the size of the
// validator set read at that moment. The dispatcher (dispatcher.go) claims an
// executable entry, performs exactly one outbound call through an Invoker and
// removes the entry whatever the call returned.
//
// CONCURRENCY:
//
// Every operation runs its reads and writes in one store transaction while
// holding the Bridge mutex, so each operation is atomic and a failed check
// leaves no partial mutation behind. The only point where other operations
// may interleave is the outbound call inside ExecuteMessage. The entry is
// claimed before that call, so a concurrent dispatch of the same slot sees
// NOT_FOUND.
package bridge
