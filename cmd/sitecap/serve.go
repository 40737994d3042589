package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sitecap/internal/infrastructure/httpapi"
	"sitecap/internal/infrastructure/logger"
	"sitecap/internal/infrastructure/store"

	"github.com/spf13/cobra"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve recorded capabilities over HTTP",
		Long: `Serve exposes the capability store as a read-only JSON API:

  GET /healthz
  GET /api/v1/capabilities
  GET /api/v1/capabilities/{domain}

Consumers such as task-execution agents read recorded capabilities from
here instead of opening the store directly.`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().StringP("addr", "a", ":8787", "Listen address")
	cmd.Flags().String("store", "", "Capability store: a directory, a .db file or a sqlite: locator")
	cmd.Flags().Bool("json-log", false, "Write request logs as JSON")

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	addr, err := cmd.Flags().GetString("addr")
	if err != nil {
		return err
	}
	target, err := cmd.Flags().GetString("store")
	if err != nil {
		return err
	}
	jsonLog, err := cmd.Flags().GetBool("json-log")
	if err != nil {
		return err
	}

	st, err := store.Open(target, logger.NewNop())
	if err != nil {
		return err
	}
	defer st.Close()

	server := httpapi.NewServer(httpapi.Config{
		Addr:    addr,
		Store:   st,
		JSONLog: jsonLog,
		Verbose: getVerboseFlag(cmd),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()
	fmt.Printf("Serving capabilities on %s\n", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	fmt.Println("\nShutting down...")
	return server.Shutdown(shutdownCtx)
}
