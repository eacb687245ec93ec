// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config command implementation for answerline.
//
// CLI: Comprehensive help and examples for all commands
//
// Command: config [subcommand]
// Short:   View and modify configuration
//
// Subcommands:
//   show (default)      Display current configuration
//   set <key> <value>   Set a configuration value
//   reset               Reset to default configuration
//   path                Show configuration file path
//
// Examples:
//   answerline config                       Show current config (default)
//   answerline config show                  Show current configuration
//   answerline config show --json           Config in JSON format
//   answerline config set endpoint http://localhost:8080
//   answerline config set api_key secret123
//   answerline config set timeout 60
//   answerline config set rps 2.5
//   answerline config set markdown false
//   answerline config reset                 Reset to defaults
//   answerline config path                  Show config file location
//
// Configuration Keys:
//   endpoint            Answer service base URL
//   api_key             Bearer token sent with requests (optional)
//   timeout             Connection timeout in seconds
//   rps                 Client-side requests per second limit (0 = off)
//   markdown            Render answers as markdown on TTY (true/false)
//   quiet               Suppress status lines and summaries (true/false)
//   verbose             Show transport detail behind errors (true/false)
//
// Flags:
//   --json              Output in JSON format
package cli

import (
	"crypto/sha256"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/answerline/internal/config"
)

// =============================================================================
// CONFIG STYLES
// =============================================================================

var (
	// Config title style
	configTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")). // Cyan
				MarginBottom(1)

	// Config section style
	configSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("255")). // White
				MarginTop(1)

	// Config key style
	configKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")). // Light gray
			Width(20)

	// Config value style
	configValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("82")) // Green

	// Config value masked (for secrets)
	configMaskedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("242")) // Dim

	// Success style
	configSuccessStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("82")).
				Bold(true)

	// Path style
	configPathStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)
)

// =============================================================================
// CONFIG WRAPPER FUNCTIONS
// =============================================================================

// Config is an alias to the main config type.
type Config = config.Config

// NewDefaultConfig returns the default configuration.
func NewDefaultConfig() *Config {
	return config.Default()
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	path, err := config.ConfigPathTOML()
	if err != nil {
		return ""
	}
	return path
}

// LoadConfig loads the configuration from the config file.
// Returns default config if file doesn't exist.
func LoadConfig() (*Config, error) {
	return config.Load()
}

// SaveConfig saves the configuration to the config file.
func SaveConfig(cfg *Config) error {
	return config.Save(cfg)
}

// =============================================================================
// HANDLE CONFIG
// =============================================================================

// HandleConfig handles the "config" command.
// Supports JSON output for scripting.
func HandleConfig(args Args) error {
	switch args.Subcommand {
	case "", "show":
		if args.JSON {
			return handleConfigShowJSON()
		}
		return handleConfigShow()

	case "set":
		return handleConfigSet(args.ConfigKey, args.ConfigVal)

	case "reset":
		return handleConfigReset()

	case "path":
		if args.JSON {
			return handleConfigPathJSON()
		}
		return handleConfigPath()

	default:
		return fmt.Errorf("unknown config subcommand: %s", args.Subcommand)
	}
}

// handleConfigShowJSON outputs configuration in JSON format.
func handleConfigShowJSON() error {
	cfg, err := LoadConfig()
	if err != nil {
		// Return error response but still try to show defaults
		cfg = NewDefaultConfig()
	}

	data := ConfigData{
		Service: ConfigServiceInfo{
			Endpoint:    cfg.Service.Endpoint,
			APIKeySet:   cfg.Service.APIKey != "",
			TimeoutSecs: cfg.Service.TimeoutSecs,
			RatePerSec:  cfg.Service.RequestsPerSecond,
		},
		Output: ConfigOutputInfo{
			Markdown: cfg.Output.Markdown,
			Quiet:    cfg.Output.Quiet,
			Verbose:  cfg.Output.Verbose,
		},
		Path: ConfigPath(),
	}

	resp := NewJSONResponse("config show", data)
	return resp.Print()
}

// handleConfigPathJSON outputs config path in JSON format.
func handleConfigPathJSON() error {
	path := ConfigPath()
	_, err := os.Stat(path)
	exists := !os.IsNotExist(err)

	data := map[string]interface{}{
		"path":   path,
		"exists": exists,
	}

	resp := NewJSONResponse("config path", data)
	return resp.Print()
}

// handleConfigShow displays the current configuration.
func handleConfigShow() error {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %s (using defaults)\n", err)
		cfg = NewDefaultConfig()
	}

	separator := strings.Repeat("=", 41)
	fmt.Println()
	fmt.Println(configTitleStyle.Render("answerline Configuration"))
	fmt.Println(SeparatorStyle.Render(separator))
	fmt.Println()

	// Service section
	fmt.Println(configSectionStyle.Render("[service]"))
	fmt.Printf("  %s%s\n",
		configKeyStyle.Render("endpoint:"),
		configValueStyle.Render(cfg.Service.Endpoint))
	fmt.Printf("  %s%s\n",
		configKeyStyle.Render("api_key:"),
		configMaskedStyle.Render(maskAPIKey(cfg.Service.APIKey)))
	fmt.Printf("  %s%s\n",
		configKeyStyle.Render("timeout:"),
		configValueStyle.Render(fmt.Sprintf("%d seconds", cfg.Service.TimeoutSecs)))
	rpsStr := "off"
	if cfg.Service.RequestsPerSecond > 0 {
		rpsStr = strconv.FormatFloat(cfg.Service.RequestsPerSecond, 'f', -1, 64)
	}
	fmt.Printf("  %s%s\n",
		configKeyStyle.Render("rps:"),
		configValueStyle.Render(rpsStr))
	fmt.Println()

	// Output section
	fmt.Println(configSectionStyle.Render("[output]"))
	fmt.Printf("  %s%s\n",
		configKeyStyle.Render("markdown:"),
		configValueStyle.Render(strconv.FormatBool(cfg.Output.Markdown)))
	fmt.Printf("  %s%s\n",
		configKeyStyle.Render("quiet:"),
		configValueStyle.Render(strconv.FormatBool(cfg.Output.Quiet)))
	fmt.Printf("  %s%s\n",
		configKeyStyle.Render("verbose:"),
		configValueStyle.Render(strconv.FormatBool(cfg.Output.Verbose)))
	fmt.Println()

	// Config file path
	fmt.Println(SeparatorStyle.Render(strings.Repeat("-", 41)))
	fmt.Printf("Config file: %s\n", configPathStyle.Render(ConfigPath()))
	fmt.Println()

	return nil
}

// handleConfigSet sets a configuration value.
func handleConfigSet(key, value string) error {
	if key == "" {
		return fmt.Errorf("no config key provided\nUsage: answerline config set <key> <value>")
	}
	if value == "" {
		return fmt.Errorf("no config value provided\nUsage: answerline config set %s <value>", key)
	}

	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %s (using defaults)\n", err)
		cfg = NewDefaultConfig()
	}

	// Normalize key (support both dot notation and underscore)
	key = strings.ToLower(key)
	key = strings.ReplaceAll(key, ".", "_")

	switch key {
	case "endpoint", "service_endpoint":
		if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
			return fmt.Errorf("invalid endpoint '%s' (must start with http:// or https://)", value)
		}
		cfg.Service.Endpoint = strings.TrimRight(value, "/")

	case "api_key", "service_api_key":
		cfg.Service.APIKey = value

	case "timeout", "timeout_secs", "service_timeout_secs":
		timeout, err := strconv.Atoi(value)
		if err != nil || timeout <= 0 {
			return fmt.Errorf("invalid timeout: %s (must be a positive integer)", value)
		}
		cfg.Service.TimeoutSecs = timeout

	case "rps", "requests_per_second", "service_requests_per_second":
		rps, err := strconv.ParseFloat(value, 64)
		if err != nil || rps < 0 {
			return fmt.Errorf("invalid rps: %s (must be a non-negative number)", value)
		}
		cfg.Service.RequestsPerSecond = rps

	case "markdown", "output_markdown":
		b, err := ParseBoolString(value)
		if err != nil {
			return err
		}
		cfg.Output.Markdown = b

	case "quiet", "output_quiet":
		b, err := ParseBoolString(value)
		if err != nil {
			return err
		}
		cfg.Output.Quiet = b

	case "verbose", "output_verbose":
		b, err := ParseBoolString(value)
		if err != nil {
			return err
		}
		cfg.Output.Verbose = b

	default:
		return fmt.Errorf("unknown config key: %s\n\nValid keys:\n"+
			"  endpoint           - Answer service base URL\n"+
			"  api_key            - Bearer token sent with requests\n"+
			"  timeout            - Connection timeout in seconds\n"+
			"  rps                - Client-side requests per second limit (0 = off)\n"+
			"  markdown           - Render answers as markdown on TTY (true/false)\n"+
			"  quiet              - Suppress status lines and summaries (true/false)\n"+
			"  verbose            - Show transport detail behind errors (true/false)", key)
	}

	// Validate the updated config before saving
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration value: %w", err)
	}

	// Save the updated config
	if err := SaveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("%s %s = %s\n",
		configSuccessStyle.Render("[OK]"),
		key,
		maskIfSecret(key, value))

	return nil
}

// handleConfigReset resets configuration to defaults.
// Asks for confirmation before discarding an existing config file;
// non-interactive callers (doctor fix, scripts) reset without asking.
func handleConfigReset() error {
	if _, err := os.Stat(ConfigPath()); err == nil && IsTTY() {
		reply := promptInput("Reset configuration to defaults? [y/N]: ")
		if !strings.EqualFold(reply, "y") && !strings.EqualFold(reply, "yes") {
			fmt.Println("Aborted")
			return nil
		}
	}

	cfg := NewDefaultConfig()

	if err := SaveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("%s Configuration reset to defaults\n", configSuccessStyle.Render("[OK]"))
	fmt.Printf("Config file: %s\n", configPathStyle.Render(ConfigPath()))

	return nil
}

// handleConfigPath shows the config file path.
func handleConfigPath() error {
	path := ConfigPath()
	fmt.Println(path)

	// Also show if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "%s (file does not exist - will be created on first use)\n",
			configMaskedStyle.Render("Note"))
	}

	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// maskAPIKey masks an API key for display using a SHA-256 fingerprint.
// This prevents key prefix exposure while still letting users confirm
// which key is configured.
func maskAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) < 8 {
		return "[invalid key]"
	}
	// Use SHA-256 hash to create a secure fingerprint
	hash := sha256.Sum256([]byte(key))
	// Show first 8 chars of hash as fingerprint (4 bytes = 8 hex chars)
	return fmt.Sprintf("sha256:%x...", hash[:4])
}

// maskIfSecret masks the value if the key is a secret field.
func maskIfSecret(key, value string) string {
	secretKeys := []string{"key", "secret", "token", "password"}
	keyLower := strings.ToLower(key)
	for _, s := range secretKeys {
		if strings.Contains(keyLower, s) {
			return maskAPIKey(value)
		}
	}
	return value
}
