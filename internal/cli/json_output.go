// json_output.go - JSON output support for scripting and log aggregation.
//
// Provides a standardized JSON output format for all CLI commands so
// answerline can be driven from scripts and its output parsed reliably.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// JSONResponse is the standardized response format for all CLI commands.
type JSONResponse struct {
	// Success indicates whether the command completed successfully
	Success bool `json:"success"`

	// Data contains the command-specific response data
	Data interface{} `json:"data"`

	// Error contains the error message if Success is false, null otherwise
	Error *string `json:"error"`

	// Timestamp is the ISO8601 timestamp when the response was generated
	Timestamp string `json:"timestamp"`

	// Command is the command that was executed
	Command string `json:"command,omitempty"`
}

// NewJSONResponse creates a new successful JSON response.
func NewJSONResponse(command string, data interface{}) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Error:     nil,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates a new error JSON response.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	errStr := err.Error()
	return &JSONResponse{
		Success:   false,
		Data:      nil,
		Error:     &errStr,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponseStr creates a new error JSON response from a string.
func NewJSONErrorResponseStr(command string, errMsg string) *JSONResponse {
	return &JSONResponse{
		Success:   false,
		Data:      nil,
		Error:     &errMsg,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Print outputs the JSON response to stdout.
// Human-readable messages should go to stderr when JSON mode is enabled.
func (r *JSONResponse) Print() error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// PrintCompact outputs the JSON response without indentation.
// Useful for piping to other tools or log aggregation.
func (r *JSONResponse) PrintCompact() error {
	return json.NewEncoder(os.Stdout).Encode(r)
}

// String returns the JSON response as a string.
func (r *JSONResponse) String() string {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"success":false,"error":"failed to marshal response: %s","timestamp":"%s"}`,
			err.Error(), time.Now().UTC().Format(time.RFC3339))
	}
	return string(data)
}

// OutputJSON is a helper function that outputs either JSON or runs a normal handler.
// If jsonMode is true, it outputs JSON and handles errors. Otherwise it runs the handler.
func OutputJSON(jsonMode bool, command string, handler func() (interface{}, error)) error {
	if !jsonMode {
		_, err := handler()
		return err
	}

	data, err := handler()
	if err != nil {
		resp := NewJSONErrorResponse(command, err)
		resp.Print()
		return err
	}

	resp := NewJSONResponse(command, data)
	return resp.Print()
}

// StderrPrint prints a message to stderr (for human-readable output in JSON mode).
func StderrPrint(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
}

// StderrPrintln prints a line to stderr (for human-readable output in JSON mode).
func StderrPrintln(msg string) {
	fmt.Fprintln(os.Stderr, msg)
}

// =============================================================================
// COMMAND-SPECIFIC DATA STRUCTURES
// =============================================================================

// AskData represents the data returned by the ask command.
type AskData struct {
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	TokenLines int    `json:"token_lines"`
	DurationMs int64  `json:"duration_ms"`
	TTFTMs     int64  `json:"ttft_ms,omitempty"`
	SessionID  string `json:"session_id,omitempty"`
}

// DoctorData represents the data returned by the doctor command.
type DoctorData struct {
	Checks  []DoctorCheck `json:"checks"`
	Summary DoctorSummary `json:"summary"`
}

// DoctorCheck represents a single health check result.
type DoctorCheck struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "pass", "warn", "fail"
	Message string `json:"message"`
	Fix     string `json:"fix,omitempty"`
}

// DoctorSummary contains the summary of health checks.
type DoctorSummary struct {
	Passed  int  `json:"passed"`
	Warned  int  `json:"warned"`
	Failed  int  `json:"failed"`
	Healthy bool `json:"healthy"`
}

// ConfigData represents the data returned by the config show command.
type ConfigData struct {
	Service ConfigServiceInfo `json:"service"`
	Output  ConfigOutputInfo  `json:"output"`
	Path    string            `json:"config_path"`
}

// ConfigServiceInfo contains answer service connection configuration.
type ConfigServiceInfo struct {
	Endpoint    string  `json:"endpoint"`
	APIKeySet   bool    `json:"api_key_configured"`
	TimeoutSecs int     `json:"timeout_secs"`
	RatePerSec  float64 `json:"rate_per_sec"`
}

// ConfigOutputInfo contains output rendering configuration.
type ConfigOutputInfo struct {
	Markdown bool `json:"markdown"`
	Quiet    bool `json:"quiet"`
	Verbose  bool `json:"verbose"`
}

// VersionData represents the data returned by the version command.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version,omitempty"`
}
