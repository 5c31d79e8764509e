package memmap

import "fmt"

// ProcessID identifies the process that owns a block.
type ProcessID string

// Owner records who holds a block. The zero value is a free block.
type Owner struct {
	pid   ProcessID
	owned bool
}

// Unowned is the owner of a free block.
var Unowned = Owner{}

// OwnedBy returns the owner for a block held by pid.
func OwnedBy(pid ProcessID) Owner {
	return Owner{pid: pid, owned: true}
}

// Free reports whether the block is unused.
func (o Owner) Free() bool { return !o.owned }

// Process returns the owning process, or false for a free block.
func (o Owner) Process() (ProcessID, bool) {
	return o.pid, o.owned
}

func (o Owner) String() string {
	if !o.owned {
		return "Unused"
	}
	return "Process " + string(o.pid)
}

// Block is a contiguous address range [Start, End).
type Block struct {
	Start int64
	End   int64 // exclusive
	Owner Owner
}

// Size returns the number of addresses covered by the block.
func (b Block) Size() int64 { return b.End - b.Start }

// Free reports whether no process owns the block.
func (b Block) Free() bool { return b.Owner.Free() }

// PID returns the owning process, or "" for a free block.
func (b Block) PID() ProcessID {
	pid, _ := b.Owner.Process()
	return pid
}

func (b Block) String() string {
	return fmt.Sprintf("[%d:%d) %s", b.Start, b.End, b.Owner)
}

// Candidate is a free block together with its position in the map.
type Candidate struct {
	Index int
	Block Block
}

// Move describes one relocation performed by compaction.
type Move struct {
	PID  ProcessID
	From int64
	To   int64
	Size int64
}
