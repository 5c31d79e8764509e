package command

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/transform"

	"github.com/joshuapare/memsim/memmap"
	"github.com/joshuapare/memsim/pkg/memsim"
)

// DefaultPrompt is shown before each line in interactive shells.
const DefaultPrompt = "allocator> "

// Options controls Run.
type Options struct {
	// Prompt is written before each read. Empty disables it.
	Prompt string

	// Quiet suppresses success messages. STAT output and errors still print.
	Quiet bool

	// Strict stops at the first failing line and returns its error.
	Strict bool

	// Printer formats numbers in STAT totals. Default: English grouping.
	Printer *message.Printer
}

// LineError reports a failed line when Options.Strict is set.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %q: %v", e.Line, e.Text, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// Summary counts what Run processed.
type Summary struct {
	Commands int // Lines that parsed as commands
	Failed   int // Commands or lines that failed
}

// Run reads commands from r until EOF, X, or ctx is cancelled, writing
// output to w. Failures are printed and do not stop the loop unless
// opts.Strict is set.
func Run(ctx context.Context, r io.Reader, w io.Writer, m *memsim.Manager, opts Options) (Summary, error) {
	p := opts.Printer
	if p == nil {
		p = message.NewPrinter(language.English)
	}

	// Scripts saved by Windows editors often carry a BOM or are UTF-16.
	sc := bufio.NewScanner(transform.NewReader(r, unicode.BOMOverride(transform.Nop)))
	var sum Summary
	lineNo := 0
	for {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		if opts.Prompt != "" {
			fmt.Fprint(w, opts.Prompt)
		}
		if !sc.Scan() {
			break
		}
		lineNo++
		line := sc.Text()

		cmd, err := Parse(line)
		if errors.Is(err, ErrBlank) {
			continue
		}
		if err != nil {
			sum.Failed++
			fmt.Fprintf(w, "error: %s\n", displayErr(err))
			if opts.Strict {
				return sum, &LineError{Line: lineNo, Text: strings.TrimSpace(line), Err: err}
			}
			continue
		}
		sum.Commands++
		if cmd.Verb == Exit {
			return sum, nil
		}

		res, err := Exec(m, cmd)
		if err != nil {
			sum.Failed++
			fmt.Fprintf(w, "error: %s\n", displayErr(err))
			if opts.Strict {
				return sum, &LineError{Line: lineNo, Text: strings.TrimSpace(line), Err: err}
			}
			continue
		}

		if cmd.Verb == Stat {
			WriteStatus(w, p, res.Snapshot, res.Stats, res.Counters)
			continue
		}
		if !opts.Quiet {
			fmt.Fprintln(w, res.Message)
		}
	}
	if opts.Prompt != "" {
		fmt.Fprintln(w)
	}
	return sum, sc.Err()
}

// WriteStatus prints the block listing with inclusive end addresses,
// followed by totals and operation counters.
func WriteStatus(w io.Writer, p *message.Printer, snap memsim.Snapshot, st memmap.Stats, c memsim.Counters) {
	WriteBlocks(w, snap.Blocks)
	p.Fprintf(w, "Total %d bytes: %d used by %d process(es), %d free in %d hole(s), largest hole %d, fragmentation %.1f%%\n",
		st.Total, st.Used, st.Processes, st.Free, st.Holes, st.LargestHole, st.Fragmentation*100)
	p.Fprintf(w, "Operations: %d allocated (%d failed), %d released (%d failed), %d compactions moving %d block(s), %d resets\n",
		c.Allocs, c.AllocFailures, c.Releases, c.ReleaseFailures, c.Compactions, c.Moves, c.Resets)
}

// WriteBlocks prints one "Addresses [start:end] owner" line per block.
func WriteBlocks(w io.Writer, blocks []memmap.Block) {
	for _, b := range blocks {
		fmt.Fprintf(w, "Addresses [%d:%d] %s\n", b.Start, b.End-1, b.Owner)
	}
}

func displayErr(err error) string {
	msg := err.Error()
	for _, prefix := range []string{"memsim: ", "memmap: ", "fit: ", "command: "} {
		msg = strings.ReplaceAll(msg, prefix, "")
	}
	return msg
}
