package memmap

// Stats summarises how the address space is used.
type Stats struct {
	Total       int64 // Size of the address space
	Used        int64 // Bytes owned by processes
	Free        int64 // Bytes in holes
	Blocks      int   // Number of blocks
	Holes       int   // Number of free blocks
	Processes   int   // Number of owned blocks
	LargestHole int64 // Size of the largest free block

	// Fragmentation is 1 - LargestHole/Free: 0 when all free space is one
	// hole (or there is none), approaching 1 as it splinters.
	Fragmentation float64
}

// Stats walks the block sequence and returns usage figures.
func (m *Map) Stats() Stats {
	s := Stats{Total: m.total, Blocks: len(m.blocks)}
	for _, b := range m.blocks {
		if b.Free() {
			s.Holes++
			s.Free += b.Size()
			s.LargestHole = max(s.LargestHole, b.Size())
			continue
		}
		s.Processes++
		s.Used += b.Size()
	}
	if s.Free > 0 {
		s.Fragmentation = 1 - float64(s.LargestHole)/float64(s.Free)
	}
	return s
}
