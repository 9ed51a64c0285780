package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the analytics client.
type Config struct {
	// Data API credentials and endpoint
	API APIConfig `yaml:"api" json:"api"`

	// LLM endpoint used by the tool-calling agent
	LLM LLMConfig `yaml:"llm" json:"llm"`

	// Retry behaviour for data API calls
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Sampling defaults and ceilings
	Sampling SamplingConfig `yaml:"sampling" json:"sampling"`

	// Output settings for exports and downloads
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// APIConfig holds the metered data API settings.
type APIConfig struct {
	AccessKey         string        `yaml:"access_key" json:"access_key"`
	BaseURL           string        `yaml:"base_url" json:"base_url"`
	Timeout           time.Duration `yaml:"timeout" json:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second" json:"requests_per_second"`
	Burst             int           `yaml:"burst" json:"burst"`
	ProxyURL          string        `yaml:"proxy_url" json:"proxy_url"`
}

// LLMConfig holds the chat-completions endpoint settings.
type LLMConfig struct {
	APIKey      string        `yaml:"api_key" json:"api_key"`
	BaseURL     string        `yaml:"base_url" json:"base_url"`
	Model       string        `yaml:"model" json:"model"`
	HTTPReferer string        `yaml:"http_referer" json:"http_referer"`
	AppTitle    string        `yaml:"app_title" json:"app_title"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
	MaxSteps    int           `yaml:"max_steps" json:"max_steps"`
}

// RetryConfig holds retry configuration for data API calls.
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled" json:"enabled"`
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay" json:"max_delay"`
}

// SamplingConfig holds default sizes for budget-bounded sampling.
type SamplingConfig struct {
	SampleSize int `yaml:"sample_size" json:"sample_size"`
	TopN       int `yaml:"top_n" json:"top_n"`
	MaxPages   int `yaml:"max_pages" json:"max_pages"`
}

// OutputConfig holds the directory layout for exports and downloads.
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
	ExportsDir    string `yaml:"exports_dir" json:"exports_dir"`
	DownloadsDir  string `yaml:"downloads_dir" json:"downloads_dir"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	File   string `yaml:"file" json:"file"`
	Pretty bool   `yaml:"pretty" json:"pretty"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:           "https://api.instagrapi.com",
			Timeout:           25 * time.Second,
			RequestsPerSecond: 5,
			Burst:             5,
		},
		LLM: LLMConfig{
			BaseURL:  "https://openrouter.ai/api/v1",
			Model:    "google/gemini-3-flash-preview",
			Timeout:  120 * time.Second,
			MaxSteps: 4,
		},
		Retry: RetryConfig{
			Enabled:     true,
			MaxAttempts: 3,
			BaseDelay:   time.Second,
			MaxDelay:    30 * time.Second,
		},
		Sampling: SamplingConfig{
			SampleSize: 20,
			TopN:       10,
			MaxPages:   2,
		},
		Output: OutputConfig{
			BaseDirectory: "./igstat_output",
			ExportsDir:    "exports",
			DownloadsDir:  "downloads",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Pretty: true,
		},
	}
}

// LoadFromEnv overrides configuration from environment variables.
func (c *Config) LoadFromEnv() {
	if v := os.Getenv("HIKERAPI_TOKEN"); v != "" {
		c.API.AccessKey = v
	} else if v := os.Getenv("HIKERAPI_KEY"); v != "" {
		c.API.AccessKey = v
	}
	if v := os.Getenv("HIKERAPI_BASE_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("PROXY_URL"); v != "" {
		c.API.ProxyURL = v
	}
	if v := os.Getenv("OPENROUTER_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("OPENROUTER_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("OPENROUTER_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("OPENROUTER_HTTP_REFERER"); v != "" {
		c.LLM.HTTPReferer = v
	}
	if v := os.Getenv("OPENROUTER_APP_TITLE"); v != "" {
		c.LLM.AppTitle = v
	}
	if v := os.Getenv("IGSTAT_OUTPUT_DIR"); v != "" {
		c.Output.BaseDirectory = v
	}
	if v := os.Getenv("IGSTAT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("IGSTAT_SAMPLE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Sampling.SampleSize = n
		}
	}
}

// LoadFromFile loads configuration from a YAML file.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// findConfigFile looks for a config file in standard locations.
func findConfigFile() string {
	locations := []string{
		"igstat.yaml",
		".igstat.yaml",
	}
	if home, err := os.UserHomeDir(); err == nil {
		locations = append(locations,
			filepath.Join(home, ".config", "igstat", "config.yaml"),
			filepath.Join(home, ".igstat.yaml"),
		)
	}
	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}
	return ""
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	var errs []error

	if c.API.AccessKey == "" {
		errs = append(errs, errors.New("data API access key is required (set HIKERAPI_TOKEN)"))
	}
	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("data API base URL is required"))
	} else if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		errs = append(errs, fmt.Errorf("data API base URL %q must be http(s)", c.API.BaseURL))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, errors.New("API timeout must be positive"))
	}
	if c.API.RequestsPerSecond <= 0 {
		errs = append(errs, errors.New("requests per second must be positive"))
	}
	if c.LLM.BaseURL == "" {
		errs = append(errs, errors.New("LLM base URL is required"))
	}
	if c.LLM.Model == "" {
		errs = append(errs, errors.New("LLM model is required"))
	}
	if c.LLM.MaxSteps < 1 {
		errs = append(errs, errors.New("LLM max steps must be at least 1"))
	}
	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, errors.New("retry max attempts must be at least 1"))
	}
	if c.Sampling.SampleSize < 1 {
		errs = append(errs, errors.New("sample size must be at least 1"))
	}
	if c.Sampling.TopN < 1 {
		errs = append(errs, errors.New("top N must be at least 1"))
	}
	if c.Sampling.MaxPages < 1 {
		errs = append(errs, errors.New("max pages must be at least 1"))
	}
	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output base directory is required"))
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error", "fatal", "disabled":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.Logging.Level))
	}

	return errors.Join(errs...)
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// MergeCommandLineFlags applies CLI flag values, which take precedence
// over everything else.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	for key, value := range flags {
		switch key {
		case "model":
			if v, ok := value.(string); ok && v != "" {
				c.LLM.Model = v
			}
		case "output":
			if v, ok := value.(string); ok && v != "" {
				c.Output.BaseDirectory = v
			}
		case "log-level":
			if v, ok := value.(string); ok && v != "" {
				c.Logging.Level = v
			}
		case "sample-size":
			if v, ok := value.(int); ok && v > 0 {
				c.Sampling.SampleSize = v
			}
		case "quiet":
			if v, ok := value.(bool); ok && v {
				c.Logging.Level = "error"
			}
		}
	}
}

// envFileCandidates lists the .env paths probed by Load, in order.
// IGSTAT_ENV_FILE overrides the list entirely.
func envFileCandidates() []string {
	if override := os.Getenv("IGSTAT_ENV_FILE"); override != "" {
		return []string{override}
	}
	candidates := []string{".env"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "igstat", ".env"))
	}
	return candidates
}

// Load builds the effective configuration with precedence:
// flags > environment > .env file > YAML file > defaults.
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	for _, candidate := range envFileCandidates() {
		if _, err := os.Stat(candidate); err == nil {
			_ = godotenv.Load(candidate)
			break
		}
	}

	cfg := DefaultConfig()

	if configPath == "" {
		configPath = findConfigFile()
	}
	if configPath != "" {
		if err := cfg.LoadFromFile(configPath); err != nil {
			return nil, err
		}
	}

	cfg.LoadFromEnv()
	cfg.MergeCommandLineFlags(flags)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
