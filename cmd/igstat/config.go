package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"igstat/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage igstat configuration.

Configuration is loaded from (highest priority first):
  - Command line flags
  - Environment variables (and a .env file if present)
  - Configuration file
  - Default values`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file is created as 'igstat.yaml' in the current directory unless a
different path is given with the --config flag.`,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the merged configuration from all sources. API keys are
masked.`,
	RunE: runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

const exampleConfig = `# igstat configuration file
#
# Environment variables override values in this file, for example
# HIKERAPI_TOKEN, OPENROUTER_API_KEY, OPENROUTER_MODEL. A .env file in
# the working directory is also loaded.

# Data API settings
api:
  # Access key for the data API. Prefer 'igstat auth set hikerapi' or
  # the HIKERAPI_TOKEN environment variable over putting it here.
  access_key: ""
  base_url: "https://api.instagrapi.com"
  timeout: 25s
  requests_per_second: 5
  burst: 5
  proxy_url: ""

# LLM endpoint used by the assistant
llm:
  # Prefer 'igstat auth set openrouter' or OPENROUTER_API_KEY.
  api_key: ""
  base_url: "https://openrouter.ai/api/v1"
  model: "google/gemini-3-flash-preview"
  timeout: 120s
  max_steps: 4

# Retry behaviour for data API calls
retry:
  enabled: true
  max_attempts: 3
  base_delay: 1s
  max_delay: 30s

# Follower sampling defaults
sampling:
  sample_size: 20
  top_n: 10
  max_pages: 2

# Where exports and downloads land
output:
  base_directory: "./igstat_output"
  exports_dir: "exports"
  downloads_dir: "downloads"

# Logging
logging:
  # debug, info, warn, error
  level: "info"
  # Log file path. Empty logs to stderr.
  file: ""
  pretty: true
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = "igstat.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	fmt.Printf("Configuration file created: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Run 'igstat auth set hikerapi' to store your data API key")
	fmt.Println("2. Run 'igstat config validate' to check the configuration")
	fmt.Println("3. Start the shell with 'igstat'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	seedCredentialsFromKeychain()

	cfg, err := config.Load(configFile, commandFlags())
	if err != nil {
		return err
	}

	display := *cfg
	display.API.AccessKey = maskKey(display.API.AccessKey)
	display.LLM.APIKey = maskKey(display.LLM.APIKey)

	data, err := yaml.Marshal(&display)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}
	fmt.Print(string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	seedCredentialsFromKeychain()

	if _, err := config.Load(configFile, commandFlags()); err != nil {
		return fmt.Errorf("configuration is invalid: %w", err)
	}
	fmt.Println("Configuration is valid.")
	return nil
}

func maskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "***"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
