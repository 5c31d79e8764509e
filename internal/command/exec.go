package command

import (
	"fmt"

	"github.com/joshuapare/memsim/memmap"
	"github.com/joshuapare/memsim/pkg/memsim"
)

// Result is what a successful command produced.
type Result struct {
	Message  string
	Snapshot memsim.Snapshot
	Moves    []memmap.Move // Set by Compact

	// Stats and Counters are set by Stat.
	Stats    memmap.Stats
	Counters memsim.Counters
}

// Exec applies cmd to m. Exit is a no-op here; Run handles it.
func Exec(m *memsim.Manager, cmd Command) (Result, error) {
	switch cmd.Verb {
	case Request:
		snap, err := m.Allocate(cmd.PID, cmd.Size, cmd.Strategy)
		if err != nil {
			return Result{}, err
		}
		blk, _ := snap.Lookup(cmd.PID)
		return Result{
			Message:  fmt.Sprintf("Allocated [%d:%d] to %s", blk.Start, blk.End-1, cmd.PID),
			Snapshot: snap,
		}, nil

	case Release:
		snap, err := m.Release(cmd.PID)
		if err != nil {
			return Result{}, err
		}
		return Result{Message: fmt.Sprintf("Released memory held by %s", cmd.PID), Snapshot: snap}, nil

	case Compact:
		snap, moves := m.Compact()
		return Result{Message: fmt.Sprintf("Compacted memory, %d block(s) moved", len(moves)), Snapshot: snap, Moves: moves}, nil

	case Stat:
		rep := m.Report()
		return Result{Snapshot: rep.Snapshot, Stats: rep.Stats, Counters: rep.Counters}, nil

	case Reset:
		return Result{Message: "Memory reset", Snapshot: m.Reset()}, nil

	case Exit:
		return Result{}, nil
	}
	return Result{}, fmt.Errorf("%w %s", ErrUnknownVerb, cmd.Verb)
}
