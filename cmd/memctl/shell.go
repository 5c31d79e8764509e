package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/memsim/internal/command"
	"github.com/joshuapare/memsim/internal/term"
)

func init() {
	rootCmd.AddCommand(newShellCmd())
}

func newShellCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Run allocator commands interactively",
		Long: `The shell command reads allocator commands from standard input, one
per line:

  RQ <process> <size> <F|B|W>   request memory (first, best or worst fit)
  RL <process>                  release a process's memory
  C                             compact
  STAT                          show the memory map
  RESET                         start over with one free block
  X                             quit

The prompt is only shown when standard input is a terminal, so commands can
also be piped in.

Example:
  memctl shell --size 1MiB
  printf 'RQ P1 64K F\nSTAT\n' | memctl shell`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd.Context(), os.Stdin)
		},
	}
	return cmd
}

func runShell(ctx context.Context, in *os.File) error {
	mgr, err := newManager()
	if err != nil {
		return err
	}

	opts := command.Options{Quiet: quiet, Printer: printer}
	if term.IsTerminal(in) {
		opts.Prompt = command.DefaultPrompt
		printInfo("Managing %d bytes. Type X to quit.\n", mgr.Total())
	}

	sum, err := command.Run(ctx, in, os.Stdout, mgr, opts)
	printVerbose("%d command(s), %d failed\n", sum.Commands, sum.Failed)
	return err
}
