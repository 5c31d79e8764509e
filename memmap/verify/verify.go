package verify

import (
	"fmt"

	"github.com/joshuapare/memsim/memmap"
)

// ValidationError describes the first invariant a block sequence breaks.
type ValidationError struct {
	Type    string
	Message string
	Index   int
	Details map[string]any
}

func (e *ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s at block %d: %s", e.Type, e.Index, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Blocks validates all invariants in one call.
// Returns the first error encountered, or nil if all checks pass.
func Blocks(blocks []memmap.Block, total int64) error {
	if err := Bounds(blocks, total); err != nil {
		return err
	}
	if err := Layout(blocks, total); err != nil {
		return err
	}
	if err := Coalesced(blocks); err != nil {
		return err
	}
	return Ownership(blocks)
}

// Map validates the current state of m.
func Map(m *memmap.Map) error {
	if err := Blocks(m.Blocks(), m.Total()); err != nil {
		return err
	}
	return Index(m)
}

// Bounds checks that the sequence covers exactly [0, total).
func Bounds(blocks []memmap.Block, total int64) error {
	if total <= 0 {
		return &ValidationError{
			Type:    "Bounds",
			Message: fmt.Sprintf("total must be positive, got %d", total),
			Index:   -1,
		}
	}
	if len(blocks) == 0 {
		return &ValidationError{
			Type:    "Bounds",
			Message: "no blocks",
			Index:   -1,
		}
	}
	if blocks[0].Start != 0 {
		return &ValidationError{
			Type:    "Bounds",
			Message: fmt.Sprintf("first block starts at %d, expected 0", blocks[0].Start),
			Index:   0,
		}
	}
	last := len(blocks) - 1
	if blocks[last].End != total {
		return &ValidationError{
			Type:    "Bounds",
			Message: fmt.Sprintf("last block ends at %d, expected %d", blocks[last].End, total),
			Index:   last,
		}
	}
	return nil
}

// Layout checks sizes, ordering and adjacency.
func Layout(blocks []memmap.Block, total int64) error {
	var sum int64
	for i, b := range blocks {
		if b.Size() <= 0 {
			return &ValidationError{
				Type:    "Layout",
				Message: fmt.Sprintf("non-positive size %d for %s", b.Size(), b),
				Index:   i,
			}
		}
		if i > 0 {
			prev := blocks[i-1]
			if b.Start <= prev.Start {
				return &ValidationError{
					Type:    "Layout",
					Message: fmt.Sprintf("not sorted: start %d after %d", b.Start, prev.Start),
					Index:   i,
				}
			}
			if prev.End != b.Start {
				kind := "gap"
				if prev.End > b.Start {
					kind = "overlap"
				}
				return &ValidationError{
					Type:    "Layout",
					Message: fmt.Sprintf("%s between %s and %s", kind, prev, b),
					Index:   i,
				}
			}
		}
		sum += b.Size()
	}
	if sum != total {
		return &ValidationError{
			Type:    "Layout",
			Message: fmt.Sprintf("sizes sum to %d, expected %d", sum, total),
			Index:   -1,
			Details: map[string]any{
				"sum":   sum,
				"total": total,
			},
		}
	}
	return nil
}

// Coalesced checks that no two neighbouring blocks are both free.
func Coalesced(blocks []memmap.Block) error {
	for i := 1; i < len(blocks); i++ {
		if blocks[i-1].Free() && blocks[i].Free() {
			return &ValidationError{
				Type:    "Coalescing",
				Message: fmt.Sprintf("adjacent free blocks %s and %s", blocks[i-1], blocks[i]),
				Index:   i,
			}
		}
	}
	return nil
}

// Ownership checks that every owned block has a process id and no process
// owns two blocks.
func Ownership(blocks []memmap.Block) error {
	seen := make(map[memmap.ProcessID]int)
	for i, b := range blocks {
		pid, ok := b.Owner.Process()
		if !ok {
			continue
		}
		if pid == "" {
			return &ValidationError{
				Type:    "Ownership",
				Message: "owned block without process id",
				Index:   i,
			}
		}
		if first, dup := seen[pid]; dup {
			return &ValidationError{
				Type:    "Ownership",
				Message: fmt.Sprintf("process %q owns blocks %d and %d", pid, first, i),
				Index:   i,
				Details: map[string]any{"pid": string(pid)},
			}
		}
		seen[pid] = i
	}
	return nil
}

// Index checks that LocateOwned agrees with the block sequence.
func Index(m *memmap.Map) error {
	owned := 0
	for i, b := range m.Blocks() {
		pid, ok := b.Owner.Process()
		if !ok {
			continue
		}
		owned++
		got, found := m.LocateOwned(pid)
		if !found || got != i {
			return &ValidationError{
				Type:    "Index",
				Message: fmt.Sprintf("process %q indexed at %d (found=%v), block is at %d", pid, got, found, i),
				Index:   i,
			}
		}
	}
	if owned != m.Processes() {
		return &ValidationError{
			Type:    "Index",
			Message: fmt.Sprintf("%d processes indexed, %d blocks owned", m.Processes(), owned),
			Index:   -1,
		}
	}
	return nil
}
