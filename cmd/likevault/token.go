package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"likevault/pkg/secrets"
)

// tokenCmd groups secret management commands
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the bearer token in the secret store",
	Long: `Manage the feed API bearer token.

Tokens are stored in the system keychain when available, with an
encrypted file fallback. The run command can also read the token from
the environment (LIKEVAULT_SECRET_* variables) without storing it.`,
}

// tokenSetCmd stores a token
var tokenSetCmd = &cobra.Command{
	Use:   "set [name]",
	Short: "Store the bearer token under a secret name",
	Long: `Store the bearer token. The token is read from stdin when piped, or
prompted for without echo otherwise.`,
	Example: `  # Prompt for the token
  likevault token set likevault/bearer-token

  # Pipe the token in
  echo "$TOKEN" | likevault token set likevault/bearer-token`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		value, err := readToken()
		if err != nil {
			return err
		}
		if value == "" {
			return fmt.Errorf("empty token")
		}

		manager, err := secrets.NewManager()
		if err != nil {
			return fmt.Errorf("failed to open secret store: %w", err)
		}

		if err := manager.Set(name, value); err != nil {
			return err
		}

		fmt.Printf("Stored secret %q\n", name)
		return nil
	},
}

// tokenDeleteCmd removes a token
var tokenDeleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Remove a stored secret",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := secrets.NewManager()
		if err != nil {
			return fmt.Errorf("failed to open secret store: %w", err)
		}

		if err := manager.Delete(args[0]); err != nil {
			return err
		}

		fmt.Printf("Deleted secret %q\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenSetCmd)
	tokenCmd.AddCommand(tokenDeleteCmd)
}

// readToken reads the token from stdin, prompting without echo when
// attached to a terminal.
func readToken() (string, error) {
	fd := int(os.Stdin.Fd())

	if term.IsTerminal(fd) {
		fmt.Print("Bearer token: ")
		raw, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read token: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read token from stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
