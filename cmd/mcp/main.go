package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/povarna/generative-ai-agents/process-agent/internal/mcpadapter"
	"github.com/povarna/generative-ai-agents/process-agent/internal/setup"
	"github.com/povarna/generative-ai-agents/process-agent/internal/setup/logger"
)

const version = "1.0.0"

func main() {
	// Load env
	_ = godotenv.Load()

	// Load Config
	cfg := setup.LoadConfig()

	// stdout carries the MCP protocol, so logs always go to stderr
	log := logger.NewWithWriter(cfg.LogLevel, "console", os.Stderr)

	// Graceful shutdown on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Wire dependencies
	deps, err := setup.Wire(ctx, cfg, &log)
	if err != nil {
		log.Error().Err(err).Msg("Unable to load dependencies")
		os.Exit(1)
	}

	server := mcpadapter.NewServer(deps.Processor, version)

	// Run over stdio
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		// EOF / "server is closing" is expected when stdin closes
		if errors.Is(err, io.EOF) || strings.Contains(err.Error(), "server is closing") {
			log.Debug().Err(err).Msg("MCP server stopped")
			return
		}
		log.Error().Err(err).Msg("Failed to run mcp server")
		os.Exit(1)
	}
}
