// Package store provides the SQLite-backed ledger for the bridge.
//
// The ledger holds every piece of bridge state:
//   - Roles: custodian, locker and validator identity sets
//   - Sent messages: outbound log keyed by (destination chain, id) with a
//     per-destination counter
//   - Pending groups and attesters: competing content hashes per inbound slot
//     with the ordered list of validators that attested each
//   - Executable messages: quorum-approved inbound messages awaiting dispatch
//   - Watermarks: the global per-chain watermark and per-validator pointers
//   - Dispatch log: one row per dispatch attempt
//
// # Transactions
//
// All access goes through Update or View. One bridge operation maps to one
// transaction, so a rejected operation leaves no partial mutation behind.
//
// # Deterministic Query Results
//
// List queries order by (chain ASC, id ASC) and then by hash or attester
// position, so two reads of the same state render identically.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
