// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// doctor.go - Doctor command implementation for answerline.
//
// CLI: Comprehensive help and examples for all commands
//
// Command: doctor [subcommand]
// Short:   Run health checks and diagnostics
//
// Subcommands:
//   (default)           Run all health checks
//   fix                 Run checks and attempt auto-fixes
//
// Examples:
//   answerline doctor                Run all health checks
//   answerline doctor --json         Health check results in JSON
//   answerline doctor fix            Run checks and attempt auto-fixes
//
// Health Checks Performed:
//   1. Config Valid       - Loads and validates the configuration file
//   2. Config Permissions - Warns if the config file is group/world readable
//   3. Endpoint Valid     - Verifies the service endpoint URL parses
//   4. Service Reachable  - Pings the answer service health endpoint
//   5. Config Dir Writable - Checks the config directory can be written
//   6. Terminal           - Reports terminal capabilities
//
// Status Symbols:
//   [green OK]      Pass  - Check successful
//   [yellow !!]     Warn  - Non-critical issue detected
//   [red FAIL]      Fail  - Critical issue detected
//
// Flags:
//   --json              Output in JSON format
//
// Exit Codes:
//   0   All checks passed
//   1   One or more checks failed
package cli

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/answerline/internal/config"
)

// =============================================================================
// DOCTOR STYLES
// =============================================================================

var (
	// Doctor title style
	doctorTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")). // Cyan
				MarginBottom(1)

	// Check pass style
	checkPassStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82")).
			Bold(true)

	// Check warn style
	checkWarnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Bold(true)

	// Check fail style
	checkFailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	// Check message style
	checkMsgStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	// Fix suggestion style
	fixStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true).
			PaddingLeft(2)

	// Summary style
	summaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))
)

// =============================================================================
// HEALTH CHECK TYPES
// =============================================================================

// CheckStatus represents the status of a health check.
type CheckStatus int

const (
	// CheckPass indicates the check passed successfully.
	CheckPass CheckStatus = iota
	// CheckWarn indicates the check passed with warnings.
	CheckWarn
	// CheckFail indicates the check failed.
	CheckFail
)

// String returns the string representation of the check status.
func (s CheckStatus) String() string {
	switch s {
	case CheckPass:
		return "Pass"
	case CheckWarn:
		return "Warn"
	case CheckFail:
		return "Fail"
	default:
		return "Unknown"
	}
}

// Symbol returns the styled symbol for the check status.
func (s CheckStatus) Symbol() string {
	switch s {
	case CheckPass:
		return checkPassStyle.Render("[OK]")
	case CheckWarn:
		return checkWarnStyle.Render("[!!]")
	case CheckFail:
		return checkFailStyle.Render("[FAIL]")
	default:
		return "?"
	}
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	Name    string
	Status  CheckStatus
	Message string
	Fix     string // Suggested fix command or instruction
}

// Render returns a formatted string representation of the health check.
func (c *HealthCheck) Render() string {
	result := fmt.Sprintf("%s %s", c.Status.Symbol(), checkMsgStyle.Render(c.Message))
	if c.Status != CheckPass && c.Fix != "" {
		result += "\n" + fixStyle.Render("-> "+c.Fix)
	}
	return result
}

// allowedFixCommands defines a whitelist of permitted fix commands.
// This prevents command injection by only allowing predefined commands.
var allowedFixCommands = map[string][]string{
	"answerline config reset": {"answerline", "config", "reset"},
}

// isAllowedFixCommand checks if a fix command matches a whitelisted pattern.
// Returns the safe command arguments if allowed, nil otherwise.
func isAllowedFixCommand(fixCmd string) []string {
	normalized := strings.TrimSpace(fixCmd)

	if args, ok := allowedFixCommands[normalized]; ok {
		return args
	}

	// Config set fixes contain user data and are manual only
	return nil
}

// TryFix attempts to automatically fix the issue if possible.
// Uses a whitelist approach to prevent command injection vulnerabilities.
func (c *HealthCheck) TryFix() error {
	if c.Fix == "" || c.Status == CheckPass {
		return nil
	}

	fixCmd := c.Fix
	if strings.HasPrefix(fixCmd, "Run: ") {
		fixCmd = strings.TrimPrefix(fixCmd, "Run: ")
	} else {
		// Manual instructions only
		return fmt.Errorf("manual fix required: %s", c.Fix)
	}

	fixCmd = strings.TrimSpace(fixCmd)

	args := isAllowedFixCommand(fixCmd)
	if args == nil {
		return fmt.Errorf("fix command not permitted by security policy: %s", fixCmd)
	}

	fmt.Printf("  Attempting fix: %s\n", fixCmd)

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("fix failed: %w", err)
	}

	return nil
}

// =============================================================================
// HANDLE DOCTOR
// =============================================================================

// HandleDoctor handles the "doctor" command.
// Runs health checks and optionally attempts auto-fixes.
func HandleDoctor(args Args) error {
	checks := runAllChecks(args)

	passed := 0
	warned := 0
	failed := 0
	for _, check := range checks {
		switch check.Status {
		case CheckPass:
			passed++
		case CheckWarn:
			warned++
		case CheckFail:
			failed++
		}
	}

	if args.JSON {
		return handleDoctorJSON(checks, passed, warned, failed)
	}

	separator := strings.Repeat("=", 41)
	fmt.Println()
	fmt.Println(doctorTitleStyle.Render("answerline Doctor"))
	fmt.Println(SeparatorStyle.Render(separator))
	fmt.Println()

	for _, check := range checks {
		fmt.Println(check.Render())
	}

	// Summary line
	fmt.Println()
	fmt.Println(SeparatorStyle.Render(strings.Repeat("-", 41)))

	summaryParts := []string{
		fmt.Sprintf("%d passed", passed),
	}
	if warned > 0 {
		summaryParts = append(summaryParts, checkWarnStyle.Render(fmt.Sprintf("%d warning", warned)))
	}
	if failed > 0 {
		summaryParts = append(summaryParts, checkFailStyle.Render(fmt.Sprintf("%d failed", failed)))
	}

	fmt.Println(summaryStyle.Render(strings.Join(summaryParts, ", ")))
	fmt.Println()

	// Auto-fix if requested
	if args.Subcommand == "fix" && (warned > 0 || failed > 0) {
		fmt.Println(doctorTitleStyle.Render("Attempting Auto-Fix..."))
		fmt.Println()

		for _, check := range checks {
			if check.Status != CheckPass && check.Fix != "" {
				if err := check.TryFix(); err != nil {
					fmt.Printf("  %s Could not fix %s: %s\n",
						checkWarnStyle.Render("[!!]"),
						check.Name,
						err)
				} else {
					fmt.Printf("  %s Fixed %s\n",
						checkPassStyle.Render("[OK]"),
						check.Name)
				}
			}
		}
		fmt.Println()
	}

	if failed > 0 {
		return fmt.Errorf("%d health check(s) failed", failed)
	}

	return nil
}

// handleDoctorJSON outputs doctor results in JSON format for scripting.
func handleDoctorJSON(checks []*HealthCheck, passed, warned, failed int) error {
	jsonChecks := make([]DoctorCheck, 0, len(checks))
	for _, check := range checks {
		status := "pass"
		switch check.Status {
		case CheckWarn:
			status = "warn"
		case CheckFail:
			status = "fail"
		}

		jsonChecks = append(jsonChecks, DoctorCheck{
			Name:    check.Name,
			Status:  status,
			Message: check.Message,
			Fix:     check.Fix,
		})
	}

	data := DoctorData{
		Checks: jsonChecks,
		Summary: DoctorSummary{
			Passed:  passed,
			Warned:  warned,
			Failed:  failed,
			Healthy: failed == 0,
		},
	}

	resp := NewJSONResponse("doctor", data)

	// If there are failures, mark as unsuccessful but still output data
	if failed > 0 {
		errMsg := fmt.Sprintf("%d health check(s) failed", failed)
		resp.Success = false
		resp.Error = &errMsg
	}

	return resp.Print()
}

// =============================================================================
// HEALTH CHECK FUNCTIONS
// =============================================================================

// runAllChecks runs all health checks and returns the results.
func runAllChecks(args Args) []*HealthCheck {
	var checks []*HealthCheck

	// 1. Check config valid
	checks = append(checks, checkConfigValid())

	// 2. Check config file permissions
	checks = append(checks, checkConfigPermissions())

	// 3. Check endpoint URL valid
	checks = append(checks, checkEndpointValid(args))

	// 4. Check service reachable
	checks = append(checks, checkServiceReachable(args))

	// 5. Check config directory writable
	checks = append(checks, checkConfigDirWritable())

	// 6. Check terminal capabilities
	checks = append(checks, checkTerminal())

	return checks
}

// checkConfigValid checks if the configuration file loads and validates.
func checkConfigValid() *HealthCheck {
	check := &HealthCheck{
		Name: "Config Valid",
	}

	configPath := ConfigPath()
	if configPath == "" {
		check.Status = CheckWarn
		check.Message = "Could not determine config path"
		return check
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		check.Status = CheckPass
		check.Message = "Config valid (using defaults)"
		return check
	}

	cfg, err := LoadConfig()
	if err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("Config invalid: %s", err)
		check.Fix = "Run: answerline config reset"
		return check
	}

	if err := cfg.Validate(); err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("Config invalid: %s", err)
		check.Fix = "Run: answerline config reset"
		return check
	}

	check.Status = CheckPass
	check.Message = "Config valid"
	return check
}

// checkConfigPermissions warns if a config file containing an API key
// is readable by other users.
func checkConfigPermissions() *HealthCheck {
	check := &HealthCheck{
		Name: "Config Permissions",
	}

	configPath := ConfigPath()
	info, err := os.Stat(configPath)
	if err != nil {
		check.Status = CheckPass
		check.Message = "Config file not yet created"
		return check
	}

	// Windows does not use Unix permission bits
	if runtime.GOOS == "windows" {
		check.Status = CheckPass
		check.Message = "Config permissions (not applicable on Windows)"
		return check
	}

	cfg, err := LoadConfig()
	if err != nil {
		cfg = NewDefaultConfig()
	}

	mode := info.Mode().Perm()
	if cfg.Service.APIKey != "" && mode&0o077 != 0 {
		check.Status = CheckWarn
		check.Message = fmt.Sprintf("Config file readable by other users (%04o) and contains an API key", mode)
		check.Fix = fmt.Sprintf("Restrict access: chmod 600 %s", configPath)
		return check
	}

	check.Status = CheckPass
	check.Message = "Config permissions OK"
	return check
}

// checkEndpointValid verifies the configured endpoint URL parses.
func checkEndpointValid(args Args) *HealthCheck {
	check := &HealthCheck{
		Name: "Endpoint Valid",
	}

	cfg, err := LoadConfig()
	if err != nil {
		cfg = NewDefaultConfig()
	}

	endpoint := cfg.Service.Endpoint
	if args.Endpoint != "" {
		endpoint = args.Endpoint
	}

	if endpoint == "" {
		check.Status = CheckFail
		check.Message = "No service endpoint configured"
		check.Fix = "Run: answerline config set endpoint http://127.0.0.1:8080"
		return check
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("Endpoint does not parse: %s", err)
		check.Fix = "Run: answerline config set endpoint http://127.0.0.1:8080"
		return check
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("Endpoint scheme must be http or https: %s", endpoint)
		check.Fix = "Run: answerline config set endpoint http://127.0.0.1:8080"
		return check
	}

	if u.Host == "" {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("Endpoint has no host: %s", endpoint)
		check.Fix = "Run: answerline config set endpoint http://127.0.0.1:8080"
		return check
	}

	check.Status = CheckPass
	check.Message = fmt.Sprintf("Endpoint valid: %s", endpoint)
	return check
}

// checkServiceReachable pings the answer service.
func checkServiceReachable(args Args) *HealthCheck {
	check := &HealthCheck{
		Name: "Service Reachable",
	}

	client := serviceClient(args)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.CheckReachable(ctx); err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("Answer service not reachable at %s", client.GetConfig().BaseURL)
		check.Fix = "Check the service is running, or set a new endpoint with: answerline config set endpoint <url>"
		return check
	}

	check.Status = CheckPass
	check.Message = fmt.Sprintf("Answer service reachable at %s", client.GetConfig().BaseURL)
	return check
}

// checkConfigDirWritable checks if the config directory can be written.
// Chat history and saved config both live there.
func checkConfigDirWritable() *HealthCheck {
	check := &HealthCheck{
		Name: "Config Dir Writable",
	}

	dir, err := config.ConfigDir()
	if err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("Could not determine config directory: %s", err)
		return check
	}

	if err := config.EnsureConfigDir(); err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("Could not create config directory: %s", err)
		check.Fix = fmt.Sprintf("Create manually: mkdir -p %s", dir)
		return check
	}

	testFile := filepath.Join(dir, ".write_test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("Config directory not writable: %s", err)
		check.Fix = fmt.Sprintf("Check permissions: chmod 755 %s", dir)
		return check
	}
	os.Remove(testFile)

	check.Status = CheckPass
	check.Message = "Config directory writable"
	return check
}

// checkTerminal reports terminal capabilities.
// Markdown rendering and the chat prompt both need a TTY.
func checkTerminal() *HealthCheck {
	check := &HealthCheck{
		Name: "Terminal",
	}

	caps := GetTerminalCapabilities()
	if !caps.IsTTY {
		check.Status = CheckWarn
		check.Message = "Not a TTY (markdown rendering and chat disabled)"
		check.Fix = "Run from an interactive terminal for full output"
		return check
	}

	colorDesc := "no color"
	if caps.ColorsEnabled {
		colorDesc = "color"
	}

	check.Status = CheckPass
	check.Message = fmt.Sprintf("TTY detected (%dx%d, %s)", caps.Width, caps.Height, colorDesc)
	return check
}
