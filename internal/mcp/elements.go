package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"dollhouse/internal/elements"
	"dollhouse/internal/portfolio"
	"dollhouse/internal/security"
)

func (s *Server) registerElementTools() {
	listTool := mcp.NewTool("list_elements",
		mcp.WithDescription("List portfolio elements, optionally filtered by type"),
		mcp.WithString("type",
			mcp.Description("Element type to filter by: persona, skill, template, agent, memory, or ensemble"),
		),
		mcp.WithBoolean("include_quarantined",
			mcp.Description("Include quarantined memory elements (default: false)"),
		),
	)
	s.mcpServer.AddTool(listTool, s.handleListElements)

	getTool := mcp.NewTool("get_element",
		mcp.WithDescription("Read the full content of a portfolio element"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Element name or identifier"),
		),
		mcp.WithString("type",
			mcp.Description("Element type (optional; all types are searched when omitted)"),
		),
		mcp.WithBoolean("include_quarantined",
			mcp.Description("Allow reading a quarantined memory (default: false)"),
		),
	)
	s.mcpServer.AddTool(getTool, s.handleGetElement)

	createTool := mcp.NewTool("create_element",
		mcp.WithDescription("Create a new portfolio element"),
		mcp.WithString("type",
			mcp.Required(),
			mcp.Description("Element type: persona, skill, template, agent, memory, or ensemble"),
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Human-readable element name"),
		),
		mcp.WithString("description",
			mcp.Required(),
			mcp.Description("Short description of what the element does"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Markdown body of the element"),
		),
		mcp.WithString("author",
			mcp.Description("Author to record on the element (defaults to the configured author)"),
		),
	)
	s.mcpServer.AddTool(createTool, s.handleCreateElement)

	deleteTool := mcp.NewTool("delete_element",
		mcp.WithDescription("Delete a portfolio element"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Element name or identifier"),
		),
		mcp.WithString("type",
			mcp.Required(),
			mcp.Description("Element type: persona, skill, template, agent, memory, or ensemble"),
		),
	)
	s.mcpServer.AddTool(deleteTool, s.handleDeleteElement)

	searchTool := mcp.NewTool("search_portfolio",
		mcp.WithDescription("Search element names, descriptions, and tags"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search terms"),
		),
		mcp.WithString("type",
			mcp.Description("Element type to restrict the search to"),
		),
	)
	s.mcpServer.AddTool(searchTool, s.handleSearchPortfolio)
}

func (s *Server) handleListElements(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	typeStr := request.GetString("type", "")
	opts := portfolio.ListOptions{
		IncludeQuarantined: request.GetBool("include_quarantined", false),
	}

	var infos []portfolio.ElementInfo
	var err error
	if typeStr != "" {
		typ, perr := elements.ParseElementType(typeStr)
		if perr != nil {
			return mcp.NewToolResultError(perr.Error()), nil
		}
		infos, err = s.portfolio.List(typ, opts)
	} else {
		infos, err = s.portfolio.ListAll(opts)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list elements: %v", err)), nil
	}

	if len(infos) == 0 {
		return mcp.NewToolResultText("The portfolio contains no elements"), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Portfolio elements (%d):\n", len(infos))
	for _, info := range infos {
		fmt.Fprintf(&b, "- %s/%s: %s", info.Type, info.Identifier, info.Name)
		if info.Description != "" {
			fmt.Fprintf(&b, " - %s", info.Description)
		}
		if info.TrustLevel != "" && info.TrustLevel != security.TrustValidated.String() {
			fmt.Fprintf(&b, " [%s]", info.TrustLevel)
		}
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleGetElement(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	typeStr := request.GetString("type", "")
	includeQuarantined := request.GetBool("include_quarantined", false)

	elem, identifier, err := s.resolveElement(typeStr, name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if elem.IsQuarantined() && !includeQuarantined {
		return mcp.NewToolResultError(fmt.Sprintf(
			"memory %q is quarantined; pass include_quarantined to read it anyway", identifier)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s (%s/%s)\n", elem.Metadata.Name, elem.Type, identifier)
	if elem.Metadata.Description != "" {
		fmt.Fprintf(&b, "%s\n", elem.Metadata.Description)
	}
	if elem.Metadata.Author != "" {
		fmt.Fprintf(&b, "Author: %s\n", elem.Metadata.Author)
	}
	if elem.Metadata.Version != "" {
		fmt.Fprintf(&b, "Version: %s\n", elem.Metadata.Version)
	}
	if elem.Type == elements.ElementTypeMemory {
		fmt.Fprintf(&b, "Trust level: %s\n", elem.Metadata.TrustLevel)
	}
	b.WriteString("\n")
	b.WriteString(elem.Content)
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleCreateElement(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	typeStr, err := request.RequireString("type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	description, err := request.RequireString("description")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := request.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	author := request.GetString("author", s.cfg.DefaultAuthor)

	typ, err := elements.ParseElementType(typeStr)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	elem, err := elements.New(typ, name, description, author, content)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid element: %v", err)), nil
	}

	identifier, err := s.portfolio.Create(elem)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create element: %v", err)), nil
	}

	if err := s.index.IndexElement(elem, identifier); err != nil {
		s.logger.Warn("Element created but not indexed", "identifier", identifier, "error", err)
	}

	s.logger.Info("Element created", "type", typ, "identifier", identifier)
	if elem.IsQuarantined() {
		return mcp.NewToolResultText(fmt.Sprintf(
			"Created %s %q, but its content failed validation and it was quarantined", typ, identifier)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Created %s %q", typ, identifier)), nil
}

func (s *Server) handleDeleteElement(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	typeStr, err := request.RequireString("type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	typ, err := elements.ParseElementType(typeStr)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	identifier, err := elements.DeriveIdentifier(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.portfolio.Delete(typ, identifier); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to delete element: %v", err)), nil
	}

	if err := s.index.DeleteElement(typ.String(), identifier); err != nil {
		s.logger.Warn("Element deleted but index not updated", "identifier", identifier, "error", err)
	}

	s.logger.Info("Element deleted", "type", typ, "identifier", identifier)
	return mcp.NewToolResultText(fmt.Sprintf("Deleted %s %q", typ, identifier)), nil
}

func (s *Server) handleSearchPortfolio(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	typeStr := request.GetString("type", "")
	if typeStr != "" {
		typ, err := elements.ParseElementType(typeStr)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		typeStr = typ.String()
	}

	records, err := s.index.SearchElements(query)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Search failed: %v", err)), nil
	}

	var b strings.Builder
	matches := 0
	for _, rec := range records {
		if typeStr != "" && rec.Type != typeStr {
			continue
		}
		if rec.TrustLevel == security.TrustQuarantined.String() {
			continue
		}
		matches++
		fmt.Fprintf(&b, "- %s/%s: %s", rec.Type, rec.Identifier, rec.Name)
		if rec.Description != "" {
			fmt.Fprintf(&b, " - %s", rec.Description)
		}
		b.WriteString("\n")
	}

	if matches == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No elements match %q", query)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Found %d elements matching %q:\n%s", matches, query, b.String())), nil
}

// resolveElement locates an element by name or identifier. When typeStr is
// empty every element type is searched, and a match in more than one type
// is an error the caller must disambiguate.
func (s *Server) resolveElement(typeStr, name string) (*elements.Element, string, error) {
	identifier, err := elements.DeriveIdentifier(name)
	if err != nil {
		return nil, "", err
	}

	if typeStr != "" {
		typ, err := elements.ParseElementType(typeStr)
		if err != nil {
			return nil, "", err
		}
		elem, err := s.portfolio.Load(typ, identifier)
		if err != nil {
			return nil, "", err
		}
		return elem, identifier, nil
	}

	var found *elements.Element
	var foundTypes []string
	for _, typ := range elements.AllElementTypes() {
		if !s.portfolio.Exists(typ, identifier) {
			continue
		}
		elem, err := s.portfolio.Load(typ, identifier)
		if err != nil {
			return nil, "", err
		}
		found = elem
		foundTypes = append(foundTypes, typ.String())
	}

	switch len(foundTypes) {
	case 0:
		return nil, "", fmt.Errorf("element %q not found in any type", identifier)
	case 1:
		return found, identifier, nil
	default:
		return nil, "", fmt.Errorf("element %q exists as multiple types (%s); specify type",
			identifier, strings.Join(foundTypes, ", "))
	}
}
