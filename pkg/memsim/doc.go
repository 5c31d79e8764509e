// Package memsim is the entry point for driving a simulated contiguous
// memory region.
//
// A Manager owns one memmap.Map and serialises every operation on it:
//
//	mgr, err := memsim.New(memsim.Options{TotalMemory: 1000})
//	if err != nil {
//	    return err
//	}
//	snap, err := mgr.Allocate("P1", 400, fit.First)
//	switch {
//	case errors.Is(err, memsim.ErrInsufficientSpace):
//	    // no hole is large enough; the map is unchanged
//	case err != nil:
//	    return err
//	}
//	for _, b := range snap.Blocks {
//	    fmt.Println(b)
//	}
//
// Every operation either commits fully or leaves the map as it was. Failed
// requests return immediately; nothing waits for memory to be released.
package memsim
