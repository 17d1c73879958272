package cmd

import (
	"fmt"
	"time"

	"github.com/mj1618/winsync/internal/logging"
	"github.com/mj1618/winsync/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an MCP server exposing the roster",
	Long: `Start a Model Context Protocol (MCP) server that exposes the shared roster
as tools: list, wait, clear and layout. AI agents can inspect and manage
running windows without shell overhead.

Supported transports:
  stdio             Standard I/O (default, for MCP clients)
  streamable-http   Streamable HTTP transport (for remote agents)

Examples:
  winsync serve --dir /tmp/roster
  winsync serve --store s3://rosters/demo --transport streamable-http --port 8080
  winsync serve --cache-ttl 0`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("transport", "stdio", "Transport: stdio, streamable-http")
	serveCmd.Flags().Int("port", 8080, "HTTP port for streamable-http transport")
	serveCmd.Flags().Int("cache-ttl", 500, "Roster cache TTL in milliseconds (0 to disable)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	transport, _ := cmd.Flags().GetString("transport")
	port, _ := cmd.Flags().GetInt("port")
	cacheTTLMs, _ := cmd.Flags().GetInt("cache-ttl")

	s, closer, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closer.Close()

	srv := server.New(s, server.Config{
		Transport: transport,
		Port:      port,
		Key:       activeConfig.Key,
		Location:  activeConfig.Store,
		CacheTTL:  time.Duration(cacheTTLMs) * time.Millisecond,
		Logger:    logging.FromContext(ctx),
	})
	if err := srv.Serve(ctx); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
