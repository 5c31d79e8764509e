package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/joshuapare/memsim/internal/config"
	"github.com/joshuapare/memsim/internal/logger"
	"github.com/joshuapare/memsim/internal/server"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

func init() {
	cmd := newServeCmd()
	cfg.BindServeFlags(cmd.Flags())
	rootCmd.AddCommand(cmd)
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the allocator over HTTP",
		Long: `The serve command exposes one memory region over HTTP/JSON:

  GET  /status    current blocks
  GET  /stats     usage figures and operation counters
  POST /request   {"process_id": "P1", "size": 100, "strategy": "F"}
  POST /release   {"process_id": "P1"}
  POST /compact
  POST /reset

SIGINT or SIGTERM shuts the server down gracefully.

Example:
  memctl serve
  memctl serve --listen 127.0.0.1:9000 --size 64K`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, nil)
		},
	}
	return cmd
}

// runServe serves until ctx is done. onListen, if set, receives the bound
// address once the listener is open.
func runServe(ctx context.Context, onListen func(net.Addr)) error {
	mgr, err := newManager()
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Listen, err)
	}
	srv := &http.Server{
		Handler:           server.New(mgr, logger.L).Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	printInfo("Serving %s of memory on %s\n", config.FormatSize(mgr.Total()), ln.Addr())
	logger.Info("server started", "addr", ln.Addr().String(), "total", mgr.Total())
	if onListen != nil {
		onListen(ln.Addr())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
