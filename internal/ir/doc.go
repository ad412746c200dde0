// Package ir provides the signal descriptor model and value types for RILL.
//
// This package contains the foundational types shared by every other
// internal package. ir imports nothing internal, so the descriptor model
// stays the bottom layer with no circular dependencies.
//
// Key design constraints:
//   - Nodes are immutable after construction and safe to share across goroutines
//   - Every node carries a content digest computed once, at construction
//   - Two nodes are equal iff they are structurally identical (digest first, structure second)
//   - Values form a closed set: Uint64, Int64, Bool, String (no floats)
//   - InputRefs are process-unique and never reused
package ir
