package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"gocode-navigator/internal/server"
	"gocode-navigator/internal/telemetry"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	telemetry.Init(zerolog.InfoLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New()
	defer srv.Close()

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "gocode-navigator",
			Title:   "Go Code Navigator",
			Version: "v1.0.0",
		},
		&mcp.ServerOptions{
			Instructions: strings.TrimSpace(`
You are Go Code Navigator, a semantic code-intelligence service for Go workspaces.

Capabilities
- Resolve symbols and walk type hierarchies with go/types, not text search
- Find references, callers, and usages across a whole module
- Rename, extract interfaces, generate interface stubs, and change signatures
- Detect dead code and structural code smells

Usage
- Pass "path" as a Go module root directory or a single .go file
- Results are plain text, one finding per line, paths relative to the solution root
- Prefer these tools over grep for anything that depends on type identity
            `),
		},
	)

	srv.Register(mcpServer)

	log.Info().Msg("gocode-navigator MCP server started (press Ctrl+C to stop)")

	go func() {
		err := mcpServer.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Fatal().Err(err).Msg("server terminated with error")
		} else {
			log.Info().Msg("server stopped cleanly")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("gocode-navigator MCP server stopped gracefully")

	time.Sleep(200 * time.Millisecond)
	os.Stderr.Sync()
}
