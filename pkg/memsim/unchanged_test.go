package memsim

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/joshuapare/memsim/memmap"
	"github.com/joshuapare/memsim/memmap/fit"
)

// ownerEqual lets cmp compare memmap.Owner, whose fields are unexported.
var ownerEqual = cmp.Comparer(func(a, b memmap.Owner) bool { return a == b })

func TestFailedOperationsLeaveMapUnchanged(t *testing.T) {
	m := newTestManager(t, 1000)
	for _, step := range []struct {
		pid  memmap.ProcessID
		size int64
	}{{"A", 100}, {"B", 300}, {"C", 100}} {
		if _, err := m.Allocate(step.pid, step.size, fit.First); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := m.Release("B"); err != nil {
		t.Fatal(err)
	}
	before := m.Status()

	failures := []struct {
		name string
		op   func() error
	}{
		{"too large", func() error { _, err := m.Allocate("D", 600, fit.Best); return err }},
		{"duplicate", func() error { _, err := m.Allocate("A", 10, fit.First); return err }},
		{"zero size", func() error { _, err := m.Allocate("D", 0, fit.First); return err }},
		{"bad strategy", func() error { _, err := m.Allocate("D", 10, fit.Strategy(9)); return err }},
		{"unknown release", func() error { _, err := m.Release("Z"); return err }},
		{"empty release", func() error { _, err := m.Release(""); return err }},
	}
	for _, f := range failures {
		t.Run(f.name, func(t *testing.T) {
			if err := f.op(); err == nil {
				t.Fatal("expected an error")
			}
			if diff := cmp.Diff(before, m.Status(), ownerEqual); diff != "" {
				t.Fatalf("map changed (-before +after):\n%s", diff)
			}
		})
	}
}
