// Package server exposes a shared roster to agents over MCP and to operators
// over a small HTTP debug surface.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/mj1618/winsync/internal/store"
	"github.com/mj1618/winsync/internal/version"
)

// Config holds MCP server configuration.
type Config struct {
	Transport string
	Port      int
	Key       string
	// Location names the store in tool output.
	Location string
	CacheTTL time.Duration
	// WaitInterval is the polling interval used by the wait tool.
	WaitInterval time.Duration
	Logger       *slog.Logger
}

// Server wraps the MCP server with the shared store and roster cache.
type Server struct {
	store  store.Store
	cache  *RosterCache
	cfg    Config
	logger *slog.Logger
	mcp    *mcpserver.MCPServer
}

// New creates an MCP server with the roster tools registered.
func New(s store.Store, cfg Config) *Server {
	if cfg.Key == "" {
		cfg.Key = "windows"
	}
	if cfg.WaitInterval <= 0 {
		cfg.WaitInterval = 250 * time.Millisecond
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	srv := &Server{
		store:  s,
		cache:  NewRosterCache(s, cfg.Key, cfg.CacheTTL),
		cfg:    cfg,
		logger: logger,
	}
	srv.mcp = mcpserver.NewMCPServer(
		"winsync",
		version.Version,
		mcpserver.WithToolCapabilities(false),
	)
	srv.registerTools()
	return srv
}

// Serve runs the configured transport until it fails or ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	switch s.cfg.Transport {
	case "", "stdio":
		s.logger.Info("serving MCP over stdio", "key", s.cfg.Key)
		return mcpserver.ServeStdio(s.mcp)
	case "streamable-http":
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		addr := fmt.Sprintf(":%d", s.cfg.Port)
		errCh := make(chan error, 1)
		go func() {
			errCh <- httpServer.Start(addr)
		}()
		s.logger.Info("serving MCP over streamable HTTP", "addr", addr, "key", s.cfg.Key)

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		}
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", s.cfg.Transport)
	}
}
