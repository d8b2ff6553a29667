// Package mcp exposes the portfolio and session note corpus over the
// Model Context Protocol using the official mcp-go library.
//
// The server speaks stdio so that MCP clients can launch the binary
// directly. Every tool handler reports user-input problems as tool-level
// errors rather than protocol errors, so a client can surface them to the
// model instead of failing the call.
package mcp

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"

	"dollhouse/internal/config"
	"dollhouse/internal/index"
	"dollhouse/internal/logging"
	"dollhouse/internal/notes"
	"dollhouse/internal/portfolio"
)

const serverInstructions = `Dollhouse manages a local portfolio of AI customization elements
(personas, skills, templates, agents, memories, ensembles) plus a corpus of
dated session notes.

Typical workflow:
  1. list_elements to see what the portfolio holds.
  2. get_element to read one element's full content.
  3. create_element / delete_element to change the portfolio.
  4. search_portfolio for keyword lookup across element metadata.
  5. sync_portfolio to pull from or push to configured GitHub repositories.
  6. list_session_notes / search_session_notes to explore past sessions,
     including lookups by GitHub issue number or element name.

Memory elements carry a trust level. Quarantined memories are hidden from
every listing unless include_quarantined is set explicitly.`

// Server wires the portfolio, session notes, and search index into an MCP
// stdio server.
type Server struct {
	mcpServer *server.MCPServer
	cfg       *config.Config
	portfolio *portfolio.Portfolio
	notes     *notes.Collection
	index     *index.DB
	logger    *logging.AppLogger
}

// NewServer builds the MCP server and registers all tools.
//
// Parameters:
//   - cfg: loaded application config, used for sync targets and defaults
//   - p: open portfolio
//   - c: session note collection
//   - idx: open search index
//   - logger: application logger (must not be nil)
//
// Returns the server ready for Serve.
func NewServer(cfg *config.Config, p *portfolio.Portfolio, c *notes.Collection, idx *index.DB, logger *logging.AppLogger, version string) *Server {
	mcpServer := server.NewMCPServer(
		"dollhouse",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions),
	)

	s := &Server{
		mcpServer: mcpServer,
		cfg:       cfg,
		portfolio: p,
		notes:     c,
		index:     idx,
		logger:    logger,
	}
	s.registerTools()
	return s
}

// Serve runs the server over stdio until the client disconnects.
func (s *Server) Serve() error {
	s.logger.Info("Starting MCP server on stdio")
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

func (s *Server) registerTools() {
	s.registerElementTools()
	s.registerSyncTools()
	s.registerNoteTools()
}
