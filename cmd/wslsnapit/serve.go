package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/peterparker57/WSLSnapit-MCP/internal/config"
	"github.com/peterparker57/WSLSnapit-MCP/internal/server"
	"github.com/peterparker57/WSLSnapit-MCP/internal/tools"
	"github.com/peterparker57/WSLSnapit-MCP/internal/workerpool"
)

var transportFlag string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the tool server",
	Run: func(cmd *cobra.Command, args []string) {
		runServe()
	},
}

func init() {
	serveCmd.Flags().StringVar(&transportFlag, "transport", "", "transport to serve on: stdio or ws (overrides config)")
}

func runServe() {
	cfg := mustLoadConfig()
	if err := setupLogging(cfg); err != nil {
		die(err)
	}
	tb, err := buildToolbox(cfg)
	if err != nil {
		die(err)
	}

	transport := cfg.Transport
	if transportFlag != "" {
		transport = transportFlag
	}

	switch transport {
	case "stdio":
		runStdio(tb)
	case "ws":
		runWS(cfg, tb)
	default:
		fmt.Fprintf(os.Stderr, "unknown transport %q (use stdio or ws)\n", transport)
		os.Exit(1)
	}
}

// runStdio serves until stdin closes or a signal arrives. stdout
// belongs to the protocol, so shutdown chatter goes to stderr.
func runStdio(tb *tools.Toolbox) {
	host := server.NewStdio(tb, server.Info{Name: appName, Version: version})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- host.Serve(ctx) }()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		fmt.Fprintf(os.Stderr, "\nReceived %s, shutting down\n", sig)
		cancel()
	case err := <-done:
		if err != nil {
			die(err)
		}
	}
}

func runWS(cfg *config.Config, tb *tools.Toolbox) {
	pool := workerpool.New(cfg.MaxConcurrentRequests, cfg.RequestQueueSize)
	host := server.NewWS(tb, pool, cfg.Listen)

	errChan := make(chan error, 1)
	go func() { errChan <- host.ListenAndServe() }()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			die(err)
		}
	case <-sigChan:
		fmt.Fprintln(os.Stderr, "\nShutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := host.Shutdown(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "shutdown: %v\n", err)
		}
	}
}
