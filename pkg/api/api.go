// Package api defines the JSON shapes exchanged with memory manager clients.
//
// Field names follow the allocator service the simulator grew out of:
// memory_state, total_memory, process_id and so on.
package api

import (
	"fmt"
	"strings"

	"github.com/joshuapare/memsim/memmap"
	"github.com/joshuapare/memsim/memmap/fit"
	"github.com/joshuapare/memsim/pkg/memsim"
)

// AllocateRequest asks for size bytes for ProcessID using a strategy code.
type AllocateRequest struct {
	ProcessID string `json:"process_id"`
	Size      int64  `json:"size"`
	Strategy  string `json:"strategy"`
}

// ReleaseRequest asks for the block held by ProcessID to be freed.
type ReleaseRequest struct {
	ProcessID string `json:"process_id"`
}

// BlockStatus is one entry of memory_state.
type BlockStatus struct {
	Start     int64   `json:"start"`
	End       int64   `json:"end"`
	Size      int64   `json:"size"`
	Status    string  `json:"status"`
	ProcessID *string `json:"process_id"`
}

// StatusResponse answers GET /status.
type StatusResponse struct {
	MemoryState []BlockStatus `json:"memory_state"`
	TotalMemory int64         `json:"total_memory"`
}

// GeneralResponse answers every mutating call. The memory fields are only
// set on success.
type GeneralResponse struct {
	Success     bool          `json:"success"`
	Message     string        `json:"message"`
	MemoryState []BlockStatus `json:"memory_state,omitempty"`
	TotalMemory *int64        `json:"total_memory,omitempty"`
}

// StatsResponse answers GET /stats.
type StatsResponse struct {
	TotalMemory   int64           `json:"total_memory"`
	UsedMemory    int64           `json:"used_memory"`
	FreeMemory    int64           `json:"free_memory"`
	Blocks        int             `json:"blocks"`
	Holes         int             `json:"holes"`
	Processes     int             `json:"processes"`
	LargestHole   int64           `json:"largest_hole"`
	Fragmentation float64         `json:"fragmentation"`
	Operations    memsim.Counters `json:"operations"`
}

// FieldError points at one bad request field.
type FieldError struct {
	Loc []string `json:"loc"`
	Msg string   `json:"msg"`
}

// ValidationResponse is returned with 422 for malformed requests.
type ValidationResponse struct {
	Detail []FieldError `json:"detail"`
}

// FieldErrors collects every problem found in a request.
type FieldErrors []FieldError

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for _, e := range fe {
		parts = append(parts, strings.Join(e.Loc, ".")+": "+e.Msg)
	}
	return "invalid request: " + strings.Join(parts, "; ")
}

func bodyField(name, msg string) FieldError {
	return FieldError{Loc: []string{"body", name}, Msg: msg}
}

// wireStrategies are the only strategy codes accepted over the wire. The
// command language is more lenient and goes through fit.ParseStrategy.
var wireStrategies = map[string]fit.Strategy{"F": fit.First, "B": fit.Best, "W": fit.Worst}

// processIDError describes what is wrong with a process id, or "" if nothing.
// Ids are stored as sent, so surrounding whitespace is refused rather than
// trimmed.
func processIDError(id string) string {
	switch {
	case strings.TrimSpace(id) == "":
		return "field required"
	case strings.TrimSpace(id) != id:
		return "must not start or end with whitespace"
	}
	return ""
}

// Validate checks every field and returns FieldErrors, or nil.
func (r AllocateRequest) Validate() error {
	var errs FieldErrors
	if msg := processIDError(r.ProcessID); msg != "" {
		errs = append(errs, bodyField("process_id", msg))
	}
	if r.Size <= 0 {
		errs = append(errs, bodyField("size", "ensure this value is greater than 0"))
	}
	if _, ok := wireStrategies[r.Strategy]; !ok {
		errs = append(errs, bodyField("strategy", "unexpected value; permitted: 'F', 'B', 'W'"))
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Parsed returns the typed request. It fails for anything Validate rejects.
func (r AllocateRequest) Parsed() (memmap.ProcessID, int64, fit.Strategy, error) {
	if err := r.Validate(); err != nil {
		return "", 0, 0, err
	}
	return memmap.ProcessID(r.ProcessID), r.Size, wireStrategies[r.Strategy], nil
}

// Validate checks the process id.
func (r ReleaseRequest) Validate() error {
	if msg := processIDError(r.ProcessID); msg != "" {
		return FieldErrors{bodyField("process_id", msg)}
	}
	return nil
}

// PID returns the process id as sent.
func (r ReleaseRequest) PID() memmap.ProcessID {
	return memmap.ProcessID(r.ProcessID)
}

// Blocks converts map blocks to their wire form.
func Blocks(blocks []memmap.Block) []BlockStatus {
	out := make([]BlockStatus, 0, len(blocks))
	for _, b := range blocks {
		bs := BlockStatus{
			Start:  b.Start,
			End:    b.End,
			Size:   b.Size(),
			Status: b.Owner.String(),
		}
		if pid, ok := b.Owner.Process(); ok {
			s := string(pid)
			bs.ProcessID = &s
		}
		out = append(out, bs)
	}
	return out
}

// NewStatusResponse wraps a snapshot.
func NewStatusResponse(s memsim.Snapshot) StatusResponse {
	return StatusResponse{MemoryState: Blocks(s.Blocks), TotalMemory: s.Total}
}

// Succeeded builds a successful GeneralResponse.
func Succeeded(s memsim.Snapshot, format string, args ...any) GeneralResponse {
	total := s.Total
	return GeneralResponse{
		Success:     true,
		Message:     fmt.Sprintf(format, args...),
		MemoryState: Blocks(s.Blocks),
		TotalMemory: &total,
	}
}

// Failed builds a GeneralResponse for a domain error.
func Failed(err error) GeneralResponse {
	return GeneralResponse{Success: false, Message: Message(err)}
}

// Message strips package prefixes from err for display.
func Message(err error) string {
	msg := err.Error()
	for _, prefix := range []string{"memsim: ", "memmap: ", "fit: "} {
		msg = strings.ReplaceAll(msg, prefix, "")
	}
	return msg
}

// NewStatsResponse merges map statistics with operation counters.
func NewStatsResponse(s memmap.Stats, c memsim.Counters) StatsResponse {
	return StatsResponse{
		TotalMemory:   s.Total,
		UsedMemory:    s.Used,
		FreeMemory:    s.Free,
		Blocks:        s.Blocks,
		Holes:         s.Holes,
		Processes:     s.Processes,
		LargestHole:   s.LargestHole,
		Fragmentation: s.Fragmentation,
		Operations:    c,
	}
}
