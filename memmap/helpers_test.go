package memmap_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/memsim/memmap"
	"github.com/joshuapare/memsim/memmap/verify"
)

// seg describes one block of a test layout. Free blocks have an empty pid.
type seg struct {
	pid  memmap.ProcessID
	size int64
}

// newTestMap builds a map whose blocks match layout, front to back.
// Every segment is first allocated (free ones under a scratch id) and the
// scratch ids are released afterwards, so the result went through the same
// split and merge paths as production code.
func newTestMap(t *testing.T, layout ...seg) *memmap.Map {
	t.Helper()

	var total int64
	for _, s := range layout {
		total += s.size
	}
	m, err := memmap.New(total)
	require.NoError(t, err)

	var scratch []memmap.ProcessID
	for i, s := range layout {
		pid := s.pid
		if pid == "" {
			pid = memmap.ProcessID(fmt.Sprintf("scratch-%d", i))
			scratch = append(scratch, pid)
		}
		free := m.FreeBlocks()
		require.NotEmpty(t, free)
		last := free[len(free)-1]
		_, err := m.SplitOrConsume(last.Index, s.size, pid)
		require.NoError(t, err)
	}
	for _, pid := range scratch {
		_, err := m.Release(pid)
		require.NoError(t, err)
	}

	assertInvariants(t, m)
	return m
}

// assertInvariants fails the test if m breaks any block invariant.
func assertInvariants(t *testing.T, m *memmap.Map) {
	t.Helper()
	require.NoError(t, verify.Map(m))
}

// blk is shorthand for an expected block.
func blk(start, end int64, pid memmap.ProcessID) memmap.Block {
	b := memmap.Block{Start: start, End: end}
	if pid != "" {
		b.Owner = memmap.OwnedBy(pid)
	}
	return b
}
