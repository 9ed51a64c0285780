package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"igstat/pkg/auth"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored API keys",
	Long: `Manage the API keys igstat uses.

Keys are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (read-only fallback)

Two services are recognized:
  hikerapi    the Instagram data API
  openrouter  the LLM endpoint used by the assistant`,
}

var authSetCmd = &cobra.Command{
	Use:   "set <hikerapi|openrouter>",
	Short: "Store an API key securely",
	Example: `  # Store the data API key
  igstat auth set hikerapi

  # Store the LLM key
  igstat auth set openrouter`,
	Args: cobra.ExactArgs(1),
	RunE: runAuthSet,
}

var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored keys",
	Long:  `List stored API keys with the key material masked.`,
	RunE:  runAuthList,
}

var authDeleteCmd = &cobra.Command{
	Use:   "delete <hikerapi|openrouter>",
	Short: "Remove a stored key",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuthDelete,
}

var authClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all stored keys",
	RunE:  runAuthClear,
}

var authGuideCmd = &cobra.Command{
	Use:   "guide",
	Short: "Show how to obtain API keys",
	Run: func(cmd *cobra.Command, args []string) {
		auth.ShowSetupGuide()
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authSetCmd)
	authCmd.AddCommand(authListCmd)
	authCmd.AddCommand(authDeleteCmd)
	authCmd.AddCommand(authClearCmd)
	authCmd.AddCommand(authGuideCmd)
}

func normalizeService(arg string) (string, error) {
	switch strings.ToLower(arg) {
	case auth.ServiceDataAPI, "hiker", "data":
		return auth.ServiceDataAPI, nil
	case auth.ServiceLLM, "llm":
		return auth.ServiceLLM, nil
	default:
		return "", fmt.Errorf("unknown service %q (expected hikerapi or openrouter)", arg)
	}
}

func runAuthSet(cmd *cobra.Command, args []string) error {
	service, err := normalizeService(args[0])
	if err != nil {
		return err
	}

	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	key, err := auth.PromptForKey(service + " API key")
	if err != nil {
		return err
	}
	if key == "" {
		return fmt.Errorf("no key entered")
	}

	if err := manager.Store(&auth.Credential{Service: service, Key: key}); err != nil {
		return fmt.Errorf("failed to store key: %w", err)
	}
	fmt.Printf("Stored %s key.\n", service)
	return nil
}

func runAuthList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	creds, err := manager.List()
	if err != nil {
		return err
	}
	if len(creds) == 0 {
		fmt.Println("No stored keys. Run 'igstat auth guide' to get started.")
		return nil
	}

	for _, cred := range creds {
		masked := auth.Sanitize(cred)
		fmt.Printf("%-12s %s", masked.Service, masked.Key)
		if masked.Label != "" {
			fmt.Printf("  (%s)", masked.Label)
		}
		fmt.Println()
	}
	return nil
}

func runAuthDelete(cmd *cobra.Command, args []string) error {
	service, err := normalizeService(args[0])
	if err != nil {
		return err
	}

	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}
	if err := manager.Delete(service); err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}
	fmt.Printf("Deleted %s key.\n", service)
	return nil
}

func runAuthClear(cmd *cobra.Command, args []string) error {
	fmt.Print("Remove all stored keys? [y/N]: ")
	var answer string
	fmt.Fscanln(os.Stdin, &answer)
	if strings.ToLower(strings.TrimSpace(answer)) != "y" {
		fmt.Println("Aborted.")
		return nil
	}

	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}
	if err := manager.DeleteAll(); err != nil {
		return err
	}
	fmt.Println("All stored keys removed.")
	return nil
}
