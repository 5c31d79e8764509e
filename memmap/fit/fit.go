// Package fit chooses which hole satisfies an allocation request.
//
// Selection is a pure function of the request and the free-block list, so
// the same map and request always produce the same choice. Ties are broken
// by the lowest start address.
package fit

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joshuapare/memsim/memmap"
)

var (
	// ErrNoFit indicates no free block is large enough for the request.
	ErrNoFit = errors.New("fit: no free block large enough")

	// ErrUnknownStrategy indicates a strategy code other than F, B or W.
	ErrUnknownStrategy = errors.New("fit: unknown strategy")
)

// Strategy selects a placement policy.
type Strategy uint8

const (
	// First picks the lowest-addressed hole that fits.
	First Strategy = iota + 1
	// Best picks the smallest hole that fits.
	Best
	// Worst picks the largest hole.
	Worst
)

// ParseStrategy accepts the one-letter codes F, B and W as well as the long
// names first, best and worst, in any case.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "f", "first":
		return First, nil
	case "b", "best":
		return Best, nil
	case "w", "worst":
		return Worst, nil
	}
	return 0, fmt.Errorf("%w: %q (want F, B or W)", ErrUnknownStrategy, s)
}

// Valid reports whether s is one of First, Best or Worst.
func (s Strategy) Valid() bool { return s >= First && s <= Worst }

// String returns the one-letter code.
func (s Strategy) String() string {
	switch s {
	case First:
		return "F"
	case Best:
		return "B"
	case Worst:
		return "W"
	}
	return fmt.Sprintf("Strategy(%d)", uint8(s))
}

// Name returns the long name, e.g. "first-fit".
func (s Strategy) Name() string {
	switch s {
	case First:
		return "first-fit"
	case Best:
		return "best-fit"
	case Worst:
		return "worst-fit"
	}
	return s.String()
}

// Select returns the map index of the hole chosen for size bytes.
// free must be in address order, as returned by Map.FreeBlocks.
func Select(size int64, s Strategy, free []memmap.Candidate) (int, error) {
	if !s.Valid() {
		return 0, fmt.Errorf("%w: %s", ErrUnknownStrategy, s)
	}
	chosen := -1
	var chosenSize int64
	for _, c := range free {
		sz := c.Block.Size()
		if sz < size {
			continue
		}
		if chosen < 0 {
			chosen, chosenSize = c.Index, sz
			if s == First {
				break
			}
			continue
		}
		// Strict comparisons keep the earlier (lower address) block on ties.
		switch s {
		case Best:
			if sz < chosenSize {
				chosen, chosenSize = c.Index, sz
			}
		case Worst:
			if sz > chosenSize {
				chosen, chosenSize = c.Index, sz
			}
		}
	}
	if chosen < 0 {
		return 0, ErrNoFit
	}
	return chosen, nil
}
