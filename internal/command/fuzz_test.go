package command

import (
	"errors"
	"testing"

	"github.com/joshuapare/memsim/memmap/verify"
	"github.com/joshuapare/memsim/pkg/memsim"
)

// FuzzParse checks that Parse never panics and that every accepted line
// executes without corrupting the map.
func FuzzParse(f *testing.F) {
	for _, seed := range []string{
		"RQ P1 100 F", "rq p2 64K b", "RL P1", "C", "STAT", "RESET", "X",
		"# comment", "", "RQ P1 -5 W", "RQ P1 1EiB F", "RL", "BOGUS 1 2",
	} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, line string) {
		cmd, err := Parse(line)
		if err != nil {
			if !errors.Is(err, ErrBlank) && !errors.Is(err, ErrUnknownVerb) && !errors.Is(err, ErrUsage) {
				t.Fatalf("Parse(%q) returned unclassified error: %v", line, err)
			}
			return
		}

		m, err := memsim.New(memsim.Options{TotalMemory: 4096, Verify: true})
		if err != nil {
			t.Fatal(err)
		}
		_, _ = Exec(m, cmd)
		if err := verify.Blocks(m.Status().Blocks, m.Total()); err != nil {
			t.Fatalf("%q left an invalid map: %v", line, err)
		}
	})
}
