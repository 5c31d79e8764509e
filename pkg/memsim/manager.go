package memsim

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/joshuapare/memsim/memmap"
	"github.com/joshuapare/memsim/memmap/fit"
	"github.com/joshuapare/memsim/memmap/verify"
)

// DefaultTotalMemory is the region size used when Options.TotalMemory is 0.
const DefaultTotalMemory = 1 << 20

// Options configures a Manager.
type Options struct {
	// TotalMemory is the size of the simulated region in bytes.
	// Default: DefaultTotalMemory
	TotalMemory int64

	// Logger receives one record per operation. Nil discards.
	Logger *slog.Logger

	// Verify re-checks every map invariant after each mutation and panics
	// on a violation. Meant for tests and debugging.
	Verify bool
}

// Snapshot is a consistent copy of the map taken under the manager lock.
type Snapshot struct {
	Blocks []memmap.Block
	Total  int64
}

// Lookup returns the block owned by pid.
func (s Snapshot) Lookup(pid memmap.ProcessID) (memmap.Block, bool) {
	for _, b := range s.Blocks {
		if p, ok := b.Owner.Process(); ok && p == pid {
			return b, true
		}
	}
	return memmap.Block{}, false
}

// Counters tallies operations since the manager was created.
// Resets are counted but do not clear the counters.
type Counters struct {
	Allocs          int `json:"allocs"`
	AllocFailures   int `json:"alloc_failures"`
	Releases        int `json:"releases"`
	ReleaseFailures int `json:"release_failures"`
	Compactions     int `json:"compactions"`
	Moves           int `json:"moves"` // Blocks relocated by compaction
	Resets          int `json:"resets"`
}

// Manager serialises access to one memory map.
type Manager struct {
	mu       sync.Mutex
	mm       *memmap.Map
	log      *slog.Logger
	verify   bool
	counters Counters
}

// New creates a manager whose map is a single free block.
func New(opts Options) (*Manager, error) {
	total := opts.TotalMemory
	if total == 0 {
		total = DefaultTotalMemory
	}
	mm, err := memmap.New(total)
	if err != nil {
		return nil, fmt.Errorf("create memory map: %w", err)
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{mm: mm, log: log, verify: opts.Verify}, nil
}

// Total returns the size of the region.
func (m *Manager) Total() int64 {
	// total is fixed at construction
	return m.mm.Total()
}

// Allocate gives pid size contiguous bytes using strategy s.
func (m *Manager) Allocate(pid memmap.ProcessID, size int64, s fit.Strategy) (Snapshot, error) {
	if err := validateAllocate(pid, size, s); err != nil {
		return Snapshot{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, held := m.mm.LocateOwned(pid); held {
		m.counters.AllocFailures++
		m.log.Info("allocation rejected", "pid", pid, "size", size, "strategy", s.String(), "reason", "duplicate")
		return Snapshot{}, fmt.Errorf("%w: %s must release before requesting again", ErrDuplicateProcess, pid)
	}

	idx, err := fit.Select(size, s, m.mm.FreeBlocks())
	if errors.Is(err, fit.ErrNoFit) {
		m.counters.AllocFailures++
		m.log.Info("allocation failed", "pid", pid, "size", size, "strategy", s.String(), "reason", "no fit")
		return Snapshot{}, fmt.Errorf("%w for %d bytes using %s", ErrInsufficientSpace, size, s.Name())
	}
	if err != nil {
		return Snapshot{}, err
	}

	blk, err := m.mm.SplitOrConsume(idx, size, pid)
	if err != nil {
		// Select only returns free blocks that fit.
		panic(fmt.Sprintf("memsim: split after select: %v", err))
	}
	m.counters.Allocs++
	m.log.Debug("allocated", "pid", pid, "size", size, "strategy", s.String(), "start", blk.Start, "end", blk.End)
	m.check("allocate")
	return m.snapshot(), nil
}

// Release frees the block held by pid and merges it with free neighbours.
func (m *Manager) Release(pid memmap.ProcessID) (Snapshot, error) {
	if pid == "" {
		return Snapshot{}, &ValidationError{Field: "process_id", Reason: "must not be empty"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	blk, err := m.mm.Release(pid)
	if errors.Is(err, memmap.ErrNotOwned) {
		m.counters.ReleaseFailures++
		m.log.Info("release failed", "pid", pid, "reason", "not found")
		return Snapshot{}, fmt.Errorf("%w: %s holds no memory", ErrProcessNotFound, pid)
	}
	if err != nil {
		return Snapshot{}, err
	}
	m.counters.Releases++
	m.log.Debug("released", "pid", pid, "start", blk.Start, "end", blk.End)
	m.check("release")
	return m.snapshot(), nil
}

// Compact moves every owned block to the low end of the region and returns
// the relocations it made.
func (m *Manager) Compact() (Snapshot, []memmap.Move) {
	m.mu.Lock()
	defer m.mu.Unlock()

	moves := m.mm.Compact()
	m.counters.Compactions++
	m.counters.Moves += len(moves)
	for _, mv := range moves {
		m.log.Debug("relocated", "pid", mv.PID, "from", mv.From, "to", mv.To, "size", mv.Size)
	}
	m.log.Debug("compacted", "moves", len(moves))
	m.check("compact")
	return m.snapshot(), moves
}

// Reset returns the region to a single free block.
func (m *Manager) Reset() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.mm.Reset()
	m.counters.Resets++
	m.log.Debug("reset", "total", m.mm.Total())
	m.check("reset")
	return m.snapshot()
}

// Status returns the current blocks without changing anything.
func (m *Manager) Status() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot()
}

// Stats returns usage figures for the current map.
func (m *Manager) Stats() memmap.Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mm.Stats()
}

// Report is the map, its statistics and the counters, all taken together.
type Report struct {
	Snapshot Snapshot
	Stats    memmap.Stats
	Counters Counters
}

// Report returns a consistent view of the manager under one lock.
func (m *Manager) Report() Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Report{Snapshot: m.snapshot(), Stats: m.mm.Stats(), Counters: m.counters}
}

// Counters returns the operation tallies.
func (m *Manager) Counters() Counters {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters
}

func (m *Manager) snapshot() Snapshot {
	return Snapshot{Blocks: m.mm.Blocks(), Total: m.mm.Total()}
}

// check panics if invariant checking is on and the map is corrupt.
// Callers must hold mu.
func (m *Manager) check(op string) {
	if !m.verify {
		return
	}
	if err := verify.Map(m.mm); err != nil {
		m.log.Error("invariant violated", "op", op, "error", err)
		panic(fmt.Sprintf("memsim: %s broke map invariants: %v", op, err))
	}
}

func validateAllocate(pid memmap.ProcessID, size int64, s fit.Strategy) error {
	if pid == "" {
		return &ValidationError{Field: "process_id", Reason: "must not be empty"}
	}
	if size <= 0 {
		return &ValidationError{Field: "size", Reason: fmt.Sprintf("must be greater than 0, got %d", size)}
	}
	if !s.Valid() {
		return &ValidationError{Field: "strategy", Reason: fmt.Sprintf("unknown strategy %s (want F, B or W)", s)}
	}
	return nil
}
