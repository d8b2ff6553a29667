package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"dollhouse/internal/repository"
)

func (s *Server) registerSyncTools() {
	syncTool := mcp.NewTool("sync_portfolio",
		mcp.WithDescription("Sync configured portfolio repositories with GitHub"),
		mcp.WithString("repository",
			mcp.Description("Repository ID or name to sync (all repositories when omitted)"),
		),
		mcp.WithString("direction",
			mcp.Description("Sync direction: pull (default) or push"),
		),
		mcp.WithString("message",
			mcp.Description("Commit message to use when pushing local changes"),
		),
	)
	s.mcpServer.AddTool(syncTool, s.handleSyncPortfolio)
}

func (s *Server) handleSyncPortfolio(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	direction, err := repository.ParseSyncDirection(request.GetString("direction", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	message := request.GetString("message", "")

	repos := s.cfg.Repositories
	if target := request.GetString("repository", ""); target != "" {
		entry, ok := s.cfg.FindRepository(target)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("no configured repository matches %q", target)), nil
		}
		repos = []repository.RepositoryEntry{entry}
	}

	if len(repos) == 0 {
		return mcp.NewToolResultText("No repositories are configured; add one with 'dollhouse init'"), nil
	}

	results := repository.SyncAllRepositories(repos, direction, message, s.logger)

	var b strings.Builder
	fmt.Fprintf(&b, "Sync (%s) results for %d repositories:\n", direction, len(results))
	for _, r := range results {
		fmt.Fprintf(&b, "- %s: %s\n", r.RepositoryName, r.GetMessage())
	}
	return mcp.NewToolResultText(b.String()), nil
}
