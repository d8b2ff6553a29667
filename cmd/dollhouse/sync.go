package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"dollhouse/internal/logging"
	"dollhouse/internal/repository"
)

func syncCmd(logger *logging.AppLogger) *cobra.Command {
	var direction, repoFilter, message string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync configured repositories with GitHub",
		Long: `Pull updates from configured GitHub repositories, or push local
portfolio changes. Pull never destroys local work: repositories with
uncommitted changes are skipped. Push commits all changes first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			dir, err := repository.ParseSyncDirection(direction)
			if err != nil {
				return err
			}

			repos := cfg.Repositories
			if repoFilter != "" {
				entry, ok := cfg.FindRepository(repoFilter)
				if !ok {
					return fmt.Errorf("no configured repository matches %q", repoFilter)
				}
				repos = []repository.RepositoryEntry{entry}
			}
			if len(repos) == 0 {
				fmt.Println("No repositories are configured; add one with 'dollhouse sync add'.")
				return nil
			}

			results := repository.SyncAllRepositories(repos, dir, message, logger)

			failed := 0
			for _, r := range results {
				fmt.Printf("%s: %s\n", r.RepositoryName, r.GetMessage())
				if r.Status == repository.SyncStatusFailed {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d repositories failed to sync", failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&direction, "direction", "d", "pull", "sync direction: pull or push")
	cmd.Flags().StringVarP(&repoFilter, "repository", "r", "", "repository ID or name to sync")
	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message when pushing")

	cmd.AddCommand(syncAddCmd(logger))
	cmd.AddCommand(syncRemoveCmd())
	return cmd
}

func syncAddCmd(logger *logging.AppLogger) *cobra.Command {
	var branch, path string

	cmd := &cobra.Command{
		Use:   "add [name] [url-or-path]",
		Short: "Add a repository to the sync configuration",
		Long: `Register a sync target. A GitHub URL (https or ssh) adds a github
repository cloned under the data directory; a filesystem path adds a
local repository that sync always skips.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			name, target := args[0], args[1]

			var entry repository.RepositoryEntry
			if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") || strings.HasPrefix(target, "git@") {
				clonePath := path
				if clonePath == "" {
					clonePath, err = repository.DeriveClonePath(target)
					if err != nil {
						return err
					}
				}
				entry = repository.NewRepositoryEntry(name, repository.RepositoryTypeGitHub, clonePath)
				entry.RemoteURL = &target
				if branch != "" {
					entry.Branch = &branch
				}

				// Clone or fetch now so failures surface immediately
				localPath, err := repository.PrepareRepository(entry, logger)
				if err != nil {
					return err
				}
				fmt.Printf("Repository ready at %s\n", localPath)
			} else {
				entry = repository.NewRepositoryEntry(name, repository.RepositoryTypeLocal, target)
			}

			if err := cfg.AddRepository(entry); err != nil {
				return err
			}
			fmt.Printf("Added %s repository %q (%s)\n", entry.Type, entry.Name, entry.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&branch, "branch", "b", "", "branch to track (github repositories)")
	cmd.Flags().StringVar(&path, "path", "", "clone destination (default: data dir)")
	return cmd
}

func syncRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove [id-or-name]",
		Short: "Remove a repository from the sync configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			entry, ok := cfg.FindRepository(args[0])
			if !ok {
				return fmt.Errorf("no configured repository matches %q", args[0])
			}
			if err := cfg.RemoveRepository(entry.ID); err != nil {
				return err
			}
			fmt.Printf("Removed repository %q\n", entry.Name)
			return nil
		},
	}
}
