package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dollhouse/internal/config"
	"dollhouse/internal/elements"
	"dollhouse/internal/logging"
	"dollhouse/internal/mcp"
	"dollhouse/internal/portfolio"
	"dollhouse/internal/tui"
)

func initCmd(logger *logging.AppLogger) *cobra.Command {
	var portfolioDir, notesDir, author string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the configuration, portfolio, notes directory, and search index",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !config.IsFirstRun() {
				return fmt.Errorf("configuration already exists at %s", config.ConfigPath())
			}

			cfg, err := config.CreateNewConfig(portfolioDir, notesDir)
			if err != nil {
				return err
			}
			if author != "" {
				cfg.DefaultAuthor = author
				if err := cfg.Save(); err != nil {
					return err
				}
			}

			p, c, idx, err := openAll(cfg, logger)
			if err != nil {
				return err
			}
			defer p.Close()
			defer idx.Close()

			stats, err := idx.Rebuild(p, c, logger)
			if err != nil {
				return fmt.Errorf("failed to build search index: %w", err)
			}

			fmt.Printf("Initialized dollhouse\n")
			fmt.Printf("  config:    %s\n", config.ConfigPath())
			fmt.Printf("  portfolio: %s\n", cfg.PortfolioDir)
			fmt.Printf("  notes:     %s\n", cfg.NotesDir)
			fmt.Printf("  index:     %s (%d elements, %d notes)\n",
				indexPath(cfg), stats.ElementsIndexed, stats.NotesIndexed)
			return nil
		},
	}

	cmd.Flags().StringVar(&portfolioDir, "portfolio", "", "portfolio directory (default: data dir)")
	cmd.Flags().StringVar(&notesDir, "notes", "", "session notes directory (default: data dir)")
	cmd.Flags().StringVar(&author, "author", "", "default author recorded on new elements")
	return cmd
}

func serveCmd(logger *logging.AppLogger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			p, c, idx, err := openAll(cfg, logger)
			if err != nil {
				return err
			}
			defer p.Close()
			defer idx.Close()

			return mcp.NewServer(cfg, p, c, idx, logger, Version).Serve()
		},
	}
}

func listCmd(logger *logging.AppLogger) *cobra.Command {
	var typeFilter string
	var includeQuarantined bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List portfolio elements",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			p, err := portfolio.Open(cfg.PortfolioDir, logger)
			if err != nil {
				return err
			}
			defer p.Close()

			opts := portfolio.ListOptions{IncludeQuarantined: includeQuarantined}
			var infos []portfolio.ElementInfo
			if typeFilter != "" {
				typ, err := elements.ParseElementType(typeFilter)
				if err != nil {
					return err
				}
				infos, err = p.List(typ, opts)
				if err != nil {
					return err
				}
			} else {
				infos, err = p.ListAll(opts)
				if err != nil {
					return err
				}
			}

			if len(infos) == 0 {
				fmt.Println("The portfolio contains no elements.")
				return nil
			}
			for _, info := range infos {
				line := fmt.Sprintf("%s/%s\t%s", info.Type, info.Identifier, info.Name)
				if info.Description != "" {
					line += " - " + info.Description
				}
				if info.TrustLevel == "quarantined" {
					line += " [quarantined]"
				}
				fmt.Println(line)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&typeFilter, "type", "t", "", "element type to list")
	cmd.Flags().BoolVar(&includeQuarantined, "quarantined", false, "include quarantined memories")
	return cmd
}

func searchCmd(logger *logging.AppLogger) *cobra.Command {
	var typeFilter string

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search element names, descriptions, and tags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			idx, err := openIndex(cfg)
			if err != nil {
				return err
			}
			defer idx.Close()

			records, err := idx.SearchElements(args[0])
			if err != nil {
				return err
			}

			matches := 0
			for _, rec := range records {
				if typeFilter != "" && rec.Type != typeFilter {
					continue
				}
				matches++
				line := fmt.Sprintf("%s/%s\t%s", rec.Type, rec.Identifier, rec.Name)
				if rec.Description != "" {
					line += " - " + rec.Description
				}
				fmt.Println(line)
			}
			if matches == 0 {
				fmt.Printf("No elements match %q.\n", args[0])
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&typeFilter, "type", "t", "", "element type to restrict the search to")
	return cmd
}

func browseCmd(logger *logging.AppLogger) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Open the TUI element browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			p, err := portfolio.Open(cfg.PortfolioDir, logger)
			if err != nil {
				return err
			}
			defer p.Close()

			return tui.Run(cfg, p, logger)
		},
	}
}
