package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/seqconsole/seqconsole"
	"github.com/seqconsole/seqconsole/servers/sequence"
	"github.com/seqconsole/seqconsole/servers/workbench"
)

// Version information (set at build time via ldflags)
var version = "dev"

var (
	serveAddr        string
	serveCallTimeout time.Duration
	serveLogLevel    string
)

var rootCmd = &cobra.Command{
	Use:   "seqconsole",
	Short: "Multi-transport MCP gateway for the seqconsole workbench",
	Long: `seqconsole serves the workbench's sequence-analysis tools to MCP clients
over three concurrent transports:

  GET  /sse       SSE stream (companion POST endpoint: /message)
  GET  /ws        WebSocket, one JSON-RPC envelope per text frame
  POST /mcp       one JSON-RPC envelope per request

The workbench application attaches itself on GET /executor to execute
client-side tools; GET /health reports liveness outside the protocol.`,
	Version: version,
	RunE:    runServe,
}

func init() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.Flags().StringVarP(&serveAddr, "addr", "a", ":8640", "Address to listen on")
	rootCmd.Flags().DurationVar(&serveCallTimeout, "call-timeout", 30*time.Second,
		"Bound on client-side tool calls awaiting the workbench")
	rootCmd.Flags().StringVarP(&serveLogLevel, "log-level", "l", "info", "Log level (debug, info, warn, error)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger, err := newLogger(serveLogLevel)
	if err != nil {
		return err
	}

	descriptors := append(
		sequence.Descriptors(sequence.NewServer()),
		workbench.Descriptors()...,
	)
	catalog, err := gateway.NewCatalog(descriptors...)
	if err != nil {
		return fmt.Errorf("failed to build tool catalog: %w", err)
	}

	bridge := gateway.NewWorkbenchBridge(logger)
	gw := gateway.New(
		gateway.Info{Name: "seqconsole", Version: version},
		catalog,
		bridge,
		gateway.WithLogger(logger),
		gateway.WithCallTimeout(serveCallTimeout),
	)
	bridge.OnReply(gw.ResolveReply)

	sseAdapter := gateway.NewSSEAdapter(gw, "/message")
	wsAdapter := gateway.NewWSAdapter(gw)
	httpAdapter := gateway.NewHTTPAdapter(gw)

	mux := http.NewServeMux()
	mux.Handle("/sse", sseAdapter.HandleConnect())
	mux.Handle("/message", sseAdapter.HandleMessage())
	mux.Handle("/ws", wsAdapter.Handler())
	mux.Handle("/mcp", httpAdapter.Handler())
	mux.Handle("/executor", bridge.Handler())
	mux.Handle("/health", httpAdapter.HandleHealth())

	srv := &http.Server{
		Addr:              serveAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("listening", slog.String("addr", serveAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		_ = gw.Shutdown(shutdownCtx)
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
