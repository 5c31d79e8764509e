// Package command implements the line-oriented allocator command language:
//
//	RQ <pid> <size> <F|B|W>   request size bytes for pid
//	RL <pid>                  release pid's block
//	C                         compact
//	STAT                      print the memory map and totals
//	RESET                     return to a single free block
//	X                         quit
//
// Verbs are case-insensitive. Blank lines and lines starting with # are
// skipped.
package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joshuapare/memsim/internal/config"
	"github.com/joshuapare/memsim/memmap"
	"github.com/joshuapare/memsim/memmap/fit"
)

var (
	// ErrBlank is returned by Parse for empty and comment lines.
	ErrBlank = errors.New("command: blank line")

	// ErrUnknownVerb indicates the first word is not a command.
	ErrUnknownVerb = errors.New("command: unknown command")

	// ErrUsage indicates the verb is known but its arguments are wrong.
	ErrUsage = errors.New("command: bad arguments")
)

// Verb identifies a command.
type Verb uint8

const (
	Request Verb = iota + 1
	Release
	Compact
	Stat
	Reset
	Exit
)

var verbNames = map[Verb]string{
	Request: "RQ",
	Release: "RL",
	Compact: "C",
	Stat:    "STAT",
	Reset:   "RESET",
	Exit:    "X",
}

var usage = map[Verb]string{
	Request: "RQ <process> <size> <F|B|W>",
	Release: "RL <process>",
	Compact: "C",
	Stat:    "STAT",
	Reset:   "RESET",
	Exit:    "X",
}

func (v Verb) String() string {
	if s, ok := verbNames[v]; ok {
		return s
	}
	return fmt.Sprintf("Verb(%d)", uint8(v))
}

// Command is one parsed line. Only the fields the verb uses are set.
type Command struct {
	Verb     Verb
	PID      memmap.ProcessID
	Size     int64
	Strategy fit.Strategy
}

func (c Command) String() string {
	switch c.Verb {
	case Request:
		return fmt.Sprintf("RQ %s %d %s", c.PID, c.Size, c.Strategy)
	case Release:
		return fmt.Sprintf("RL %s", c.PID)
	default:
		return c.Verb.String()
	}
}

func lookupVerb(word string) (Verb, bool) {
	for v, name := range verbNames {
		if strings.EqualFold(word, name) {
			return v, true
		}
	}
	return 0, false
}

// Parse turns one input line into a Command.
func Parse(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return Command{}, ErrBlank
	}

	fields := strings.Fields(line)
	verb, ok := lookupVerb(fields[0])
	if !ok {
		return Command{}, fmt.Errorf("%w %q", ErrUnknownVerb, fields[0])
	}
	args := fields[1:]

	cmd := Command{Verb: verb}
	switch verb {
	case Request:
		if len(args) != 3 {
			return Command{}, usageErr(verb, "expected 3 arguments, got %d", len(args))
		}
		size, err := config.ParseSize(args[1])
		if err != nil {
			return Command{}, usageErr(verb, "%v", err)
		}
		s, err := fit.ParseStrategy(args[2])
		if err != nil {
			return Command{}, usageErr(verb, "%v", err)
		}
		cmd.PID, cmd.Size, cmd.Strategy = memmap.ProcessID(args[0]), size, s
	case Release:
		if len(args) != 1 {
			return Command{}, usageErr(verb, "expected 1 argument, got %d", len(args))
		}
		cmd.PID = memmap.ProcessID(args[0])
	default:
		if len(args) != 0 {
			return Command{}, usageErr(verb, "takes no arguments")
		}
	}
	return cmd, nil
}

func usageErr(v Verb, format string, args ...any) error {
	return fmt.Errorf("%w: %s (usage: %s)", ErrUsage, fmt.Sprintf(format, args...), usage[v])
}
