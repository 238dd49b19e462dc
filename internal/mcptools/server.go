// Package mcptools adapts the resolver (C6) into Model Context Protocol
// tools, following the teacher's internal/mcp_data and internal/mcp_meta
// Server-plus-handlers shape but with typed result records (spec §9
// Design Notes: "dynamic JSON shapes... replace with typed result
// records per capability; serialization happens at the boundary only").
package mcptools

import (
	"log/slog"

	mcp_server "github.com/mark3labs/mcp-go/server"

	"github.com/maverick-mcp/maverick-mcp-go/internal/resolver"
)

// Server holds the shared state every tool handler needs: just the
// resolver and a logger, since every other dependency (cache, store,
// breakers, providers) is already reachable through it.
type Server struct {
	Resolver *resolver.Resolver
	Logger   *slog.Logger
}

// New builds a tool server over an already-wired resolver.
func New(r *resolver.Resolver, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{Resolver: r, Logger: logger}
}

// Register adds every capability tool to mcpServer, mirroring the
// teacher's RegisterDataTools/RegisterMetaTools split but as one call
// since this service's tool set is small enough not to warrant
// per-capability grouping files at the registration layer.
func (s *Server) Register(mcpServer *mcp_server.MCPServer) {
	s.registerBarsTool(mcpServer)
	s.registerRateTool(mcpServer)
	s.registerTranscriptTool(mcpServer)
	s.registerSummaryTool(mcpServer)
	s.registerSentimentTool(mcpServer)
	s.registerNewsTool(mcpServer)
	s.registerRAGTool(mcpServer)
}
