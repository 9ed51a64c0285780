package auth

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"
)

// ShowSetupGuide displays step-by-step instructions for obtaining the
// API keys the client needs.
func ShowSetupGuide() {
	fmt.Println(strings.Repeat("=", 72))
	fmt.Println("API KEY SETUP")
	fmt.Println(strings.Repeat("=", 72))
	fmt.Println()

	fmt.Println("This tool needs two keys: one for Instagram data, one for the")
	fmt.Println("assistant. Both are stored encrypted on this machine.")
	fmt.Println()

	fmt.Println("STEP 1: Data API token (HikerAPI)")
	fmt.Println("   - Sign up at https://hikerapi.com")
	fmt.Println("   - Pick a plan and copy the access key from the dashboard")
	fmt.Println("   - Run: igstat auth set hikerapi")
	fmt.Println("   - Or export HIKERAPI_TOKEN=<key> in your shell")
	fmt.Println()

	fmt.Println("STEP 2: Assistant key (OpenRouter)")
	fmt.Println("   - Create a key at https://openrouter.ai/keys")
	fmt.Println("   - Run: igstat auth set openrouter")
	fmt.Println("   - Or export OPENROUTER_API_KEY=<key>")
	fmt.Println("   - Any OpenAI-compatible endpoint works; point")
	fmt.Println("     OPENROUTER_BASE_URL at it and set OPENROUTER_MODEL")
	fmt.Println()

	fmt.Println("NOTES:")
	fmt.Println("   - Keys never leave this machine except in request headers")
	fmt.Println("   - 'igstat auth list' shows what is stored, masked")
	fmt.Println("   - 'igstat auth clear' wipes everything")
	fmt.Println()
	fmt.Println(strings.Repeat("=", 72))
}

// PromptForKey reads a secret from the terminal without echo. It
// falls back to plain reads when stdin is not a terminal.
func PromptForKey(label string) (string, error) {
	fmt.Printf("%s: ", label)

	if term.IsTerminal(int(syscall.Stdin)) {
		raw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read key: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}

	var line string
	if _, err := fmt.Fscanln(os.Stdin, &line); err != nil {
		return "", fmt.Errorf("failed to read key: %w", err)
	}
	return strings.TrimSpace(line), nil
}
