// Package harness runs end-to-end bridge scenarios.
//
// A scenario sets up a role registry, drives the bridge through a list of
// operations, checks each operation's expected outcome, and evaluates
// assertions against the final ledger. Every operation is recorded in a
// trace that can be compared with a golden file.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: quorum_promotion
//	description: "Three validators agree on message 1 of chainA"
//	validators: [v1, v2, v3]
//	fail:
//	  - {contract: greeting, action: greet}
//	steps:
//	  - op: receive
//	    as: v1
//	    id: 1
//	    message: {from: chainA, data: '["hi"]'}
//	    expect: {promoted: false, attesters: 1}
//	  - op: execute
//	    chain: chainA
//	    id: 1
//	    expect: {error: EXECUTE_MESSAGE_FAILED}
//	assertions:
//	  - {type: watermark, chain: chainA, id: 1}
//	  - {type: executable, chain: chainA, id: 1, present: false}
//
// The custodian "admin" and the locker "locker" always exist. Operations
// are register, unregister, receive, send, execute, clear_received and
// clear_sent.
//
// # Assertion Types
//
//   - watermark: the global watermark of chain, or the watermark of
//     validator when given, equals id
//   - pending: slot (chain, id) holds groups with exactly these validators
//   - executable: slot (chain, id) is or is not in the executable set
//   - sent_count: the outbound counter of chain equals count
//   - invocations: the number of contract calls (optionally of one
//     contract.action) equals count
//   - dispatch_log: the recorded outcomes of slot (chain, id) are outcomes
//
// # Deterministic Testing
//
// Each scenario runs on a fresh in-memory ledger with fixed dispatch tokens
// (tok-1, tok-2, ...) and a recording invoker, so traces are identical
// across runs. Regenerate golden files with:
//
//	go test ./internal/harness -update
package harness
