// Package ir provides the canonical data model for the bridge.
//
// This package contains type definitions, the canonical encoding and the
// content hash. All other internal packages import ir; ir imports nothing
// internal.
//
// Key design constraints:
//   - NO float types anywhere - sequence ids and flags are integers
//   - Messages are immutable once built; copy before mutating
//   - All JSON tags use snake_case
//   - The content hash is computed over MarshalExact; strings are never
//     normalized before hashing
package ir
