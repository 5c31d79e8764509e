// Package memmap models a single contiguous address space partitioned into
// free and process-owned blocks.
//
// # Overview
//
// A Map starts as one free block spanning [0, total). Allocation carves an
// owned block off the front of a free block, release hands a block back and
// coalesces it with its free neighbours, and compaction slides every owned
// block towards address 0 so that all free space ends up in one trailing
// block.
//
// The block sequence always satisfies:
//
//   - blocks are sorted by Start and gapless: b[i].End == b[i+1].Start
//   - the first block starts at 0 and the last one ends at Total()
//   - every block has a positive size
//   - no two adjacent blocks are both free
//   - a process owns at most one block
//
// The memmap/verify package checks these invariants from the outside.
//
// # Choosing a block
//
// Map does not decide where an allocation goes. Callers list the holes with
// FreeBlocks, pick one (see memmap/fit for first, best and worst fit) and
// hand the chosen index to SplitOrConsume:
//
//	m, _ := memmap.New(1000)
//	idx, err := fit.Select(400, fit.First, m.FreeBlocks())
//	if err != nil {
//	    return err
//	}
//	blk, err := m.SplitOrConsume(idx, 400, "P1")
//
// # Thread Safety
//
// Map is not safe for concurrent use. pkg/memsim wraps it with a mutex.
package memmap
