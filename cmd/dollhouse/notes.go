package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"dollhouse/internal/index"
	"dollhouse/internal/logging"
	"dollhouse/internal/notes"
)

func notesCmd(logger *logging.AppLogger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Work with the session note corpus",
	}

	cmd.AddCommand(notesIndexCmd(logger))
	cmd.AddCommand(notesSearchCmd(logger))
	cmd.AddCommand(notesShowCmd(logger))
	return cmd
}

func notesIndexCmd(logger *logging.AppLogger) *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Rebuild the search index from the portfolio and note files",
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

			stats, err := idx.Rebuild(p, c, logger)
			if err != nil {
				return err
			}
			fmt.Printf("Indexed %d elements and %d notes in %s.\n",
				stats.ElementsIndexed, stats.NotesIndexed, stats.Duration.Round(time.Millisecond))
			return nil
		},
	}
}

func notesSearchCmd(logger *logging.AppLogger) *cobra.Command {
	var issue int
	var element string

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search session notes by keyword, issue number, or element name",
		Args:  cobra.MaximumNArgs(1),
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

			var records []index.NoteRecord
			switch {
			case issue > 0:
				records, err = idx.NotesByIssue(issue)
			case element != "":
				records, err = idx.NotesByElement(element)
			case len(args) == 1 && strings.TrimSpace(args[0]) != "":
				records, err = idx.SearchNotes(args[0])
			default:
				return fmt.Errorf("provide a query, --issue, or --element")
			}
			if err != nil {
				return err
			}

			if len(records) == 0 {
				fmt.Println("No session notes match.")
				return nil
			}
			for _, rec := range records {
				line := rec.Date.Format("2006-01-02")
				if rec.Suffix != "" {
					line += " (" + rec.Suffix + ")"
				}
				if rec.Title != "" {
					line += "  " + rec.Title
				}
				line += "  [" + rec.FileName + "]"
				fmt.Println(line)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&issue, "issue", 0, "GitHub issue or PR number to look up")
	cmd.Flags().StringVar(&element, "element", "", "element name mentioned in notes")
	return cmd
}

func notesShowCmd(logger *logging.AppLogger) *cobra.Command {
	return &cobra.Command{
		Use:   "show [filename]",
		Short: "Print one session note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			c, err := notes.NewCollection(cfg.NotesDir, logger)
			if err != nil {
				return err
			}

			note, err := c.Get(args[0])
			if err != nil {
				return err
			}

			if note.Title != "" {
				fmt.Printf("%s (%s)\n\n", note.Title, note.Date.Format("2006-01-02"))
			}
			fmt.Println(note.Content)
			return nil
		},
	}
}
