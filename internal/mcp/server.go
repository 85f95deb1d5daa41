// Package mcp provides an MCP (Model Context Protocol) server for lvlup.
package mcp

import (
	"context"
	"errors"
	"log/slog"
	"os"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/lvlup/internal/logging"
	"github.com/nvandessel/lvlup/internal/progression"
	"github.com/nvandessel/lvlup/internal/ratelimit"
)

// Server wraps the MCP SDK server and exposes the progression engine as tools.
type Server struct {
	server      *sdk.Server
	engine      *progression.Engine
	limits      ratelimit.Limits
	auditLogger *AuditLogger
	logger      *slog.Logger
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "lvlup")
	Version string // Server version

	// Engine applies and reads stat changes. Required.
	Engine *progression.Engine

	// DataDir receives the audit log. Empty disables auditing.
	DataDir string

	// Limits throttles tool calls. Nil disables limiting.
	Limits ratelimit.Limits

	Logger *slog.Logger
}

// NewServer creates a new MCP server with lvlup tools.
func NewServer(cfg *Config) (*Server, error) {
	if cfg.Engine == nil {
		return nil, errors.New("mcp server requires an engine")
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	s := &Server{
		server: mcpServer,
		engine: cfg.Engine,
		limits: cfg.Limits,
		logger: logging.OrDiscard(cfg.Logger),
	}
	if cfg.DataDir != "" {
		s.auditLogger = NewAuditLogger(cfg.DataDir)
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Run starts the MCP server over stdio transport.
// This blocks until the client disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	s.logger.Debug("mcp server starting on stdio")
	return s.server.Run(ctx, &sdk.StdioTransport{})
}

// Close releases the audit log. The engine's store is owned by the caller.
func (s *Server) Close() error {
	return s.auditLogger.Close()
}
