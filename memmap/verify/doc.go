// Package verify provides validation functions for memory map block sequences.
//
// # Overview
//
// The checks mirror the invariants documented in package memmap. They are
// used by tests after every mutation and by pkg/memsim when invariant
// checking is switched on.
//
// Validation categories:
//   - Bounds: first block starts at 0, last ends at the total
//   - Layout: positive sizes, sorted, gapless, sizes sum to the total
//   - Coalescing: no two adjacent free blocks
//   - Ownership: each process owns at most one block
//
// # Quick Start
//
//	if err := verify.Blocks(m.Blocks(), m.Total()); err != nil {
//	    fmt.Printf("Validation failed: %v\n", err)
//	}
//
// # ValidationError
//
// All validation functions return *ValidationError on failure:
//
//	type ValidationError struct {
//	    Type    string         // Error category (e.g., "Layout")
//	    Message string         // Human-readable description
//	    Index   int            // Block index where the error occurred (-1 if N/A)
//	    Details map[string]any // Additional context
//	}
package verify
