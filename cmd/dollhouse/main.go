// Package main is the entry point for the dollhouse CLI.
//
// dollhouse manages a local portfolio of AI customization elements plus a
// corpus of session notes, and exposes both to MCP clients. The CLI wraps
// the same internal packages the MCP server uses:
//
//	dollhouse init      first-run setup (config, portfolio, notes, index)
//	dollhouse serve     run the MCP stdio server
//	dollhouse list      list portfolio elements
//	dollhouse search    search element metadata
//	dollhouse sync      pull from / push to configured repositories
//	dollhouse notes     index, search, and show session notes
//	dollhouse browse    open the TUI element browser
//	dollhouse auth      manage the GitHub token in the system keyring
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dollhouse/internal/config"
	"dollhouse/internal/index"
	"dollhouse/internal/logging"
	"dollhouse/internal/notes"
	"dollhouse/internal/portfolio"
)

var Version = "dev"

func main() {
	logger := logging.NewAppLogger()

	rootCmd := &cobra.Command{
		Use:     "dollhouse",
		Short:   "Dollhouse - portfolio manager for AI customization elements",
		Version: Version,
		Long: `Dollhouse stores personas, skills, templates, agents, memories, and
ensembles as markdown files with YAML frontmatter, keeps a searchable
index over them and over dated session notes, and serves everything to
MCP clients over stdio.`,
	}

	rootCmd.AddCommand(initCmd(logger))
	rootCmd.AddCommand(serveCmd(logger))
	rootCmd.AddCommand(listCmd(logger))
	rootCmd.AddCommand(searchCmd(logger))
	rootCmd.AddCommand(syncCmd(logger))
	rootCmd.AddCommand(notesCmd(logger))
	rootCmd.AddCommand(browseCmd(logger))
	rootCmd.AddCommand(authCmd(logger))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig loads the saved configuration, translating the first-run case
// into actionable guidance.
func loadConfig() (*config.Config, error) {
	if config.IsFirstRun() {
		return nil, fmt.Errorf("no configuration found - run 'dollhouse init' first")
	}
	return config.Load()
}

func indexPath(cfg *config.Config) string {
	if cfg.IndexPath != "" {
		return cfg.IndexPath
	}
	return config.DefaultIndexPath()
}

func openIndex(cfg *config.Config) (*index.DB, error) {
	idx, err := index.Open(indexPath(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open search index: %w", err)
	}
	return idx, nil
}

// openAll opens the portfolio, note collection, and index for a loaded
// config. The caller must close the returned portfolio and index.
func openAll(cfg *config.Config, logger *logging.AppLogger) (*portfolio.Portfolio, *notes.Collection, *index.DB, error) {
	p, err := portfolio.Open(cfg.PortfolioDir, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open portfolio: %w", err)
	}

	c, err := notes.NewCollection(cfg.NotesDir, logger)
	if err != nil {
		p.Close()
		return nil, nil, nil, fmt.Errorf("failed to open session notes: %w", err)
	}

	idx, err := index.Open(indexPath(cfg))
	if err != nil {
		p.Close()
		return nil, nil, nil, fmt.Errorf("failed to open search index: %w", err)
	}

	return p, c, idx, nil
}
