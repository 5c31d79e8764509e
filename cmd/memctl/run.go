package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/memsim/internal/command"
	"github.com/joshuapare/memsim/pkg/api"
)

var (
	runStrict bool
)

func init() {
	cmd := newRunCmd()
	cmd.Flags().BoolVar(&runStrict, "strict", false, "Stop at the first failing line")
	rootCmd.AddCommand(cmd)
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <script>",
		Short: "Execute a file of allocator commands",
		Long: `The run command executes allocator commands from a file (see
'memctl shell --help' for the language) and then prints the final memory map.

Failed commands are reported and skipped unless --strict is given.

Example:
  memctl run scenario.txt
  memctl run scenario.txt --size 1000 --strict
  memctl run scenario.txt --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(cmd.Context(), args)
		},
	}
	return cmd
}

// runReport is the --json output of run.
type runReport struct {
	Script   string             `json:"script"`
	Commands int                `json:"commands"`
	Failed   int                `json:"failed"`
	Status   api.StatusResponse `json:"status"`
	Stats    api.StatsResponse  `json:"stats"`
}

func runScript(ctx context.Context, args []string) error {
	path := args[0]
	printVerbose("Running script: %s\n", path)

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open script: %w", err)
	}
	defer f.Close()

	mgr, err := newManager()
	if err != nil {
		return err
	}

	// Per-command output would corrupt the JSON document, so it goes to
	// stderr instead.
	var out io.Writer = os.Stdout
	if jsonOut {
		out = os.Stderr
	}
	sum, err := command.Run(ctx, f, out, mgr, command.Options{
		Quiet:   quiet || jsonOut,
		Strict:  runStrict,
		Printer: printer,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	rep := mgr.Report()
	if jsonOut {
		return printJSON(runReport{
			Script:   path,
			Commands: sum.Commands,
			Failed:   sum.Failed,
			Status:   api.NewStatusResponse(rep.Snapshot),
			Stats:    api.NewStatsResponse(rep.Stats, rep.Counters),
		})
	}

	if sum.Failed > 0 {
		printError("%d of %d command(s) failed\n", sum.Failed, sum.Commands)
	}
	if quiet {
		return nil
	}
	printInfo("\nFinal memory state:\n")
	command.WriteStatus(os.Stdout, printer, rep.Snapshot, rep.Stats, rep.Counters)
	return nil
}
