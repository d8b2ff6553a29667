package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"dollhouse/internal/index"
	"dollhouse/internal/notes"
)

const noteDateLayout = "2006-01-02"

func (s *Server) registerNoteTools() {
	listTool := mcp.NewTool("list_session_notes",
		mcp.WithDescription("List session notes, optionally restricted to a date range"),
		mcp.WithString("since",
			mcp.Description("Earliest note date to include, YYYY-MM-DD"),
		),
		mcp.WithString("until",
			mcp.Description("Latest note date to include, YYYY-MM-DD"),
		),
	)
	s.mcpServer.AddTool(listTool, s.handleListSessionNotes)

	searchTool := mcp.NewTool("search_session_notes",
		mcp.WithDescription("Search session notes by keyword, GitHub issue number, or element name"),
		mcp.WithString("query",
			mcp.Description("Full-text search terms"),
		),
		mcp.WithNumber("issue",
			mcp.Description("GitHub issue or PR number to look up (#N references)"),
		),
		mcp.WithString("element",
			mcp.Description("Element name mentioned in notes"),
		),
	)
	s.mcpServer.AddTool(searchTool, s.handleSearchSessionNotes)
}

func (s *Server) handleListSessionNotes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from, err := parseNoteDate(request.GetString("since", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid 'since' date: %v", err)), nil
	}
	to, err := parseNoteDate(request.GetString("until", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid 'until' date: %v", err)), nil
	}

	list, err := s.notes.ListRange(from, to)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list session notes: %v", err)), nil
	}

	if len(list) == 0 {
		return mcp.NewToolResultText("No session notes found in the requested range"), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Session notes (%d):\n", len(list))
	for _, note := range list {
		b.WriteString("- ")
		b.WriteString(formatNoteLine(note))
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleSearchSessionNotes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := strings.TrimSpace(request.GetString("query", ""))
	issue := request.GetInt("issue", 0)
	element := strings.TrimSpace(request.GetString("element", ""))

	var records []index.NoteRecord
	var what string
	var err error
	switch {
	case issue > 0:
		what = fmt.Sprintf("issue #%d", issue)
		records, err = s.index.NotesByIssue(issue)
	case element != "":
		what = fmt.Sprintf("element %q", element)
		records, err = s.index.NotesByElement(element)
	case query != "":
		what = fmt.Sprintf("%q", query)
		records, err = s.index.SearchNotes(query)
	default:
		return mcp.NewToolResultError("provide one of 'query', 'issue', or 'element'"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Search failed: %v", err)), nil
	}

	if len(records) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No session notes match %s", what)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d session notes matching %s:\n", len(records), what)
	for _, rec := range records {
		fmt.Fprintf(&b, "- %s", rec.Date.Format(noteDateLayout))
		if rec.Suffix != "" {
			fmt.Fprintf(&b, " (%s)", rec.Suffix)
		}
		if rec.Title != "" {
			fmt.Fprintf(&b, ": %s", rec.Title)
		}
		fmt.Fprintf(&b, " [%s]", rec.FileName)
		if len(rec.IssueRefs) > 0 {
			refs := make([]string, len(rec.IssueRefs))
			for i, n := range rec.IssueRefs {
				refs[i] = fmt.Sprintf("#%d", n)
			}
			fmt.Fprintf(&b, " refs %s", strings.Join(refs, " "))
		}
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

func formatNoteLine(note notes.SessionNote) string {
	var b strings.Builder
	b.WriteString(note.Date.Format(noteDateLayout))
	if note.Suffix != "" {
		fmt.Fprintf(&b, " (%s)", note.Suffix)
	}
	if note.Title != "" {
		fmt.Fprintf(&b, ": %s", note.Title)
	}
	fmt.Fprintf(&b, " [%s]", note.FileName)
	return b.String()
}

func parseNoteDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(noteDateLayout, s)
}
