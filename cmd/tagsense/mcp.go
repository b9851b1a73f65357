package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/standardbeagle/tagsense/internal/debug"
	"github.com/standardbeagle/tagsense/internal/mcp"
	"github.com/standardbeagle/tagsense/internal/workspace"
	"github.com/urfave/cli/v2"
)

func mcpCommand(c *cli.Context) error {
	// Nothing but protocol frames may reach stdout
	debug.SetMCPMode(true)

	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return debug.Fatal("failed to load config: %v\n", err)
	}
	if addr := c.String("metrics-addr"); addr != "" {
		cfg.Server.MetricsAddr = addr
	}
	if c.Bool("no-watch") {
		cfg.Watch.Enabled = false
	}

	mcpServer, err := mcp.NewServer(workspace.New(cfg))
	if err != nil {
		return debug.Fatal("failed to create MCP server: %v\n", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		debug.LogMCP("Starting MCP server with stdio transport...\n")
		errChan <- mcpServer.Start(ctx)
	}()

	shutdown := func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := mcpServer.Shutdown(shutdownCtx); err != nil {
			debug.LogMCP("shutdown: %v\n", err)
		}
	}

	select {
	case err := <-errChan:
		shutdown()
		if err != nil {
			return debug.Fatal("MCP server error: %v\n", err)
		}
		return nil
	case sig := <-sigChan:
		debug.LogMCP("Received signal %v, shutting down gracefully...\n", sig)
		cancel()

		shutdownTimer := time.NewTimer(2 * time.Second)
		defer shutdownTimer.Stop()

		select {
		case err := <-errChan:
			debug.LogMCP("Server shutdown completed\n")
			shutdown()
			return err
		case <-shutdownTimer.C:
			debug.LogMCP("Graceful shutdown timeout, closing stdin\n")
			// Breaks the stdio transport's read loop
			os.Stdin.Close()
			shutdown()
			return nil
		}
	}
}
