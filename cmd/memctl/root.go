package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/memsim/internal/config"
	"github.com/joshuapare/memsim/internal/logger"
	"github.com/joshuapare/memsim/pkg/memsim"
)

var (
	// Global flags
	verbose bool
	quiet   bool
	jsonOut bool

	cfg    = config.Default()
	envErr error

	logCloser io.Closer
	printer   = message.NewPrinter(language.English)
)

var rootCmd = &cobra.Command{
	Use:   "memctl",
	Short: "Simulate contiguous memory allocation",
	Long: `memctl simulates a contiguous memory region shared by processes.
Processes request blocks using first-, best- or worst-fit placement, release
them (adjacent holes merge immediately), and the region can be compacted or
reset at any time.

Settings can also come from MEMSIM_* environment variables; flags win.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	envErr = cfg.FromEnv()

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output and debug logging")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	cfg.BindFlags(rootCmd.PersistentFlags())
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup validates settings and starts logging before any subcommand runs.
func setup(cmd *cobra.Command, _ []string) error {
	if envErr != nil {
		return fmt.Errorf("environment: %w", envErr)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	if verbose {
		level = slog.LevelDebug
	}

	// The server always logs; the interactive commands only when asked.
	logCloser, err = logger.Init(logger.Options{
		Enabled: cmd.Name() == "serve" || verbose || cfg.LogDir != "",
		Level:   level,
		JSON:    cfg.LogJSON,
		LogDir:  cfg.LogDir,
	})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	logger.Debug("config", "total", cfg.TotalMemory, "verify", cfg.Verify, "command", cmd.Name())
	return nil
}

func teardown(*cobra.Command, []string) error {
	if logCloser == nil {
		return nil
	}
	return logCloser.Close()
}

// newManager builds a manager from the global config.
func newManager() (*memsim.Manager, error) {
	return memsim.New(memsim.Options{
		TotalMemory: cfg.TotalMemory,
		Logger:      logger.L,
		Verify:      cfg.Verify,
	})
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...interface{}) {
	if !quiet {
		printer.Fprintf(os.Stdout, format, args...)
	}
}

// printError prints an error message
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if verbose && !quiet {
		printer.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
