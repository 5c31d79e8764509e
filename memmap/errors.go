package memmap

import "errors"

var (
	// ErrBadTotal indicates a map was requested with a non-positive size.
	ErrBadTotal = errors.New("memmap: total memory must be positive")

	// ErrPrecondition indicates a caller broke the contract of a map operation,
	// for example splitting a block that is owned or too small.
	ErrPrecondition = errors.New("memmap: precondition violated")

	// ErrNotOwned indicates that no block is owned by the given process.
	ErrNotOwned = errors.New("memmap: process owns no block")
)
