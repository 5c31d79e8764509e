package memmap

import (
	"fmt"
	"slices"
)

// Map is the ordered partition of [0, total) into blocks.
type Map struct {
	total  int64
	blocks []Block

	// owners maps a process to the index of its block in blocks.
	// Rebuilt by reindex after every structural change.
	owners map[ProcessID]int
}

// New creates a map holding a single free block [0, total).
func New(total int64) (*Map, error) {
	if total <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrBadTotal, total)
	}
	m := &Map{total: total}
	m.Reset()
	return m, nil
}

// Total returns the size of the address space.
func (m *Map) Total() int64 { return m.total }

// Len returns the number of blocks.
func (m *Map) Len() int { return len(m.blocks) }

// Blocks returns a copy of the block sequence in address order.
func (m *Map) Blocks() []Block {
	return slices.Clone(m.blocks)
}

// Block returns the block at index i.
func (m *Map) Block(i int) Block { return m.blocks[i] }

// Processes returns the number of processes holding a block.
func (m *Map) Processes() int { return len(m.owners) }

// Reset discards all allocations.
func (m *Map) Reset() {
	m.blocks = append(m.blocks[:0], Block{Start: 0, End: m.total})
	m.owners = make(map[ProcessID]int)
}

// FreeBlocks lists every free block in address order.
func (m *Map) FreeBlocks() []Candidate {
	var out []Candidate
	for i, b := range m.blocks {
		if b.Free() {
			out = append(out, Candidate{Index: i, Block: b})
		}
	}
	return out
}

// LocateOwned returns the index of the block owned by pid.
func (m *Map) LocateOwned(pid ProcessID) (int, bool) {
	i, ok := m.owners[pid]
	return i, ok
}

// SplitOrConsume hands size addresses of the free block at index to pid.
//
// An exact fit converts the block in place. Otherwise the block is split into
// an owned head of the requested size and a free tail holding the remainder.
// The owned block is returned.
func (m *Map) SplitOrConsume(index int, size int64, pid ProcessID) (Block, error) {
	if index < 0 || index >= len(m.blocks) {
		return Block{}, fmt.Errorf("%w: index %d out of range [0,%d)", ErrPrecondition, index, len(m.blocks))
	}
	if pid == "" {
		return Block{}, fmt.Errorf("%w: empty process id", ErrPrecondition)
	}
	if _, dup := m.owners[pid]; dup {
		return Block{}, fmt.Errorf("%w: process %q already owns a block", ErrPrecondition, pid)
	}
	b := m.blocks[index]
	if !b.Free() {
		return Block{}, fmt.Errorf("%w: block %s is not free", ErrPrecondition, b)
	}
	if size <= 0 || size > b.Size() {
		return Block{}, fmt.Errorf("%w: cannot take %d from block %s", ErrPrecondition, size, b)
	}

	owned := Block{Start: b.Start, End: b.Start + size, Owner: OwnedBy(pid)}
	if size == b.Size() {
		m.blocks[index] = owned
		m.owners[pid] = index
		return owned, nil
	}

	tail := Block{Start: owned.End, End: b.End}
	m.blocks[index] = owned
	m.blocks = slices.Insert(m.blocks, index+1, tail)
	m.reindex(index)
	return owned, nil
}

// MergeAt coalesces the free block at index with any free neighbours and
// returns the index of the resulting block. Non-free blocks are left alone.
func (m *Map) MergeAt(index int) int {
	if index < 0 || index >= len(m.blocks) || !m.blocks[index].Free() {
		return index
	}
	if next := index + 1; next < len(m.blocks) && m.blocks[next].Free() {
		m.blocks[index].End = m.blocks[next].End
		m.blocks = slices.Delete(m.blocks, next, next+1)
	}
	if prev := index - 1; prev >= 0 && m.blocks[prev].Free() {
		m.blocks[prev].End = m.blocks[index].End
		m.blocks = slices.Delete(m.blocks, index, index+1)
		index = prev
	}
	m.reindex(index)
	return index
}

// Release frees the block owned by pid and coalesces it with free
// neighbours. It returns the range that was released.
func (m *Map) Release(pid ProcessID) (Block, error) {
	i, ok := m.owners[pid]
	if !ok {
		return Block{}, fmt.Errorf("%w: %q", ErrNotOwned, pid)
	}
	released := m.blocks[i]
	m.blocks[i].Owner = Unowned
	delete(m.owners, pid)
	m.MergeAt(i)
	return released, nil
}

// Compact slides every owned block towards address 0, keeping their order,
// and gathers all free space into one trailing block. It returns the blocks
// that changed position.
func (m *Map) Compact() []Move {
	var moves []Move
	out := m.blocks[:0]
	var cursor int64
	for _, b := range m.blocks {
		if b.Free() {
			continue
		}
		size := b.Size()
		if b.Start != cursor {
			moves = append(moves, Move{PID: b.PID(), From: b.Start, To: cursor, Size: size})
		}
		out = append(out, Block{Start: cursor, End: cursor + size, Owner: b.Owner})
		cursor += size
	}
	if cursor < m.total {
		out = append(out, Block{Start: cursor, End: m.total})
	}
	m.blocks = out
	m.reindex(0)
	return moves
}

// reindex refreshes owner positions for blocks at or after from.
func (m *Map) reindex(from int) {
	for i := from; i < len(m.blocks); i++ {
		if pid, ok := m.blocks[i].Owner.Process(); ok {
			m.owners[pid] = i
		}
	}
}
