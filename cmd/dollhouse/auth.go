package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"dollhouse/internal/logging"
	"dollhouse/internal/repository"
)

func authCmd(logger *logging.AppLogger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the GitHub Personal Access Token in the system keyring",
	}

	cmd.AddCommand(authLoginCmd())
	cmd.AddCommand(authLogoutCmd())
	cmd.AddCommand(authStatusCmd())
	return cmd
}

func authLoginCmd() *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store a GitHub Personal Access Token",
		Long: `Store a GitHub Personal Access Token in the system keyring. The token
is used for private repositories and for pushing; public repositories
sync without one. Tokens need the 'repo' scope for private access.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				fmt.Print("GitHub Personal Access Token: ")
				reader := bufio.NewReader(os.Stdin)
				line, err := reader.ReadString('\n')
				if err != nil {
					return fmt.Errorf("failed to read token: %w", err)
				}
				token = strings.TrimSpace(line)
			}

			cm := repository.NewCredentialManager()
			if err := cm.StoreGitHubToken(token); err != nil {
				return err
			}
			fmt.Println("Token stored in the system keyring.")
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "token value (prompted when omitted)")
	return cmd
}

func authLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored GitHub token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cm := repository.NewCredentialManager()
			if err := cm.DeleteGitHubToken(); err != nil {
				return err
			}
			fmt.Println("Token removed.")
			return nil
		},
	}
}

func authStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show credential store availability and token presence",
		RunE: func(cmd *cobra.Command, args []string) error {
			cm := repository.NewCredentialManager()

			status := cm.CredentialStoreStatus()
			if avail, ok := status["available"].(bool); ok && avail {
				fmt.Println("Credential store: available")
			} else {
				fmt.Println("Credential store: unavailable")
				if errMsg, ok := status["error"].(string); ok && errMsg != "" {
					fmt.Printf("  %s\n", errMsg)
				}
			}

			if cm.HasGitHubToken() {
				fmt.Println("GitHub token: stored")
			} else {
				fmt.Println("GitHub token: not stored")
			}
			return nil
		},
	}
}
