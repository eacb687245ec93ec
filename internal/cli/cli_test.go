// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line interface parsing and execution.
//
// This test file covers the CLI commands: ask, chat, config, doctor
// These are critical user-facing commands that must work reliably.
package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/answerline/internal/answer"
)

// =============================================================================
// ARG PARSER TESTS (args.go)
// =============================================================================

func TestArgParser_BasicParsing(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantSub  string
		validate func(*testing.T, *ArgParser)
	}{
		{
			name:    "simple subcommand",
			args:    []string{"show"},
			wantSub: "show",
		},
		{
			name:    "subcommand with flag",
			args:    []string{"show", "--lines", "50"},
			wantSub: "show",
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("lines") != "50" {
					t.Errorf("Flag(lines) = %q, want %q", p.Flag("lines"), "50")
				}
			},
		},
		{
			name:    "flag with equals",
			args:    []string{"set", "--endpoint=http://localhost:9090"},
			wantSub: "set",
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("endpoint") != "http://localhost:9090" {
					t.Errorf("Flag(endpoint) = %q, want %q", p.Flag("endpoint"), "http://localhost:9090")
				}
			},
		},
		{
			name:    "boolean flag",
			args:    []string{"show", "--json"},
			wantSub: "show",
			validate: func(t *testing.T, p *ArgParser) {
				if !p.BoolFlag("json") {
					t.Error("BoolFlag(json) should be true")
				}
			},
		},
		{
			name:    "multiple positional args",
			args:    []string{"ask", "what", "is", "NDJSON"},
			wantSub: "ask",
			validate: func(t *testing.T, p *ArgParser) {
				if p.PositionalCount() != 4 {
					t.Errorf("PositionalCount() = %d, want 4", p.PositionalCount())
				}
				joined := strings.Join(p.PositionalFrom(1), " ")
				if joined != "what is NDJSON" {
					t.Errorf("PositionalFrom(1) joined = %q, want %q", joined, "what is NDJSON")
				}
			},
		},
		{
			name:    "mixed flags and positional",
			args:    []string{"ask", "--file", "notes.txt", "Hello", "world"},
			wantSub: "ask",
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("file") != "notes.txt" {
					t.Errorf("Flag(file) = %q, want %q", p.Flag("file"), "notes.txt")
				}
				// Positional should be: ask, Hello, world
				if p.Positional(1) != "Hello" {
					t.Errorf("Positional(1) = %q, want %q", p.Positional(1), "Hello")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := NewArgParser(tt.args)
			if parser.Subcommand() != tt.wantSub {
				t.Errorf("Subcommand() = %q, want %q", parser.Subcommand(), tt.wantSub)
			}
			if tt.validate != nil {
				tt.validate(t, parser)
			}
		})
	}
}

func TestArgParser_FlagIntOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		flagName   string
		defaultVal int
		want       int
	}{
		{
			name:       "flag present",
			args:       []string{"cmd", "--timeout", "60"},
			flagName:   "timeout",
			defaultVal: 30,
			want:       60,
		},
		{
			name:       "flag missing uses default",
			args:       []string{"cmd"},
			flagName:   "timeout",
			defaultVal: 30,
			want:       30,
		},
		{
			name:       "invalid int uses default",
			args:       []string{"cmd", "--timeout", "abc"},
			flagName:   "timeout",
			defaultVal: 30,
			want:       30,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := NewArgParser(tt.args)
			got := parser.FlagIntOrDefault(tt.flagName, tt.defaultVal)
			if got != tt.want {
				t.Errorf("FlagIntOrDefault(%q, %d) = %d, want %d", tt.flagName, tt.defaultVal, got, tt.want)
			}
		})
	}
}

func TestArgParser_HasFlag(t *testing.T) {
	parser := NewArgParser([]string{"cmd", "--verbose", "--lines", "50"})

	if !parser.HasFlag("verbose") {
		t.Error("HasFlag(verbose) should be true")
	}
	if !parser.HasFlag("lines") {
		t.Error("HasFlag(lines) should be true")
	}
	if parser.HasFlag("nonexistent") {
		t.Error("HasFlag(nonexistent) should be false")
	}
}

// =============================================================================
// PARSE BOOL STRING TESTS
// =============================================================================

func TestParseBoolString(t *testing.T) {
	trueValues := []string{"true", "TRUE", "True", "yes", "YES", "y", "Y", "1", "on", "ON"}
	falseValues := []string{"false", "FALSE", "False", "no", "NO", "n", "N", "0", "off", "OFF"}

	for _, v := range trueValues {
		t.Run("true_"+v, func(t *testing.T) {
			got, err := ParseBoolString(v)
			if err != nil {
				t.Errorf("ParseBoolString(%q) error = %v", v, err)
			}
			if !got {
				t.Errorf("ParseBoolString(%q) = false, want true", v)
			}
		})
	}

	for _, v := range falseValues {
		t.Run("false_"+v, func(t *testing.T) {
			got, err := ParseBoolString(v)
			if err != nil {
				t.Errorf("ParseBoolString(%q) error = %v", v, err)
			}
			if got {
				t.Errorf("ParseBoolString(%q) = true, want false", v)
			}
		})
	}

	t.Run("invalid", func(t *testing.T) {
		_, err := ParseBoolString("maybe")
		if err == nil {
			t.Error("ParseBoolString(maybe) should error")
		}
	})
}

// =============================================================================
// PARSE INT WITH VALIDATION TESTS
// =============================================================================

func TestParseIntWithValidation(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		field   string
		want    int
		wantErr bool
	}{
		{"valid positive", "42", "count", 42, false},
		{"valid one", "1", "count", 1, false},
		{"zero is invalid", "0", "count", 0, true},
		{"negative is invalid", "-5", "count", 0, true},
		{"empty is invalid", "", "count", 0, true},
		{"non-numeric is invalid", "abc", "count", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIntWithValidation(tt.input, tt.field)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseIntWithValidation(%q, %q) error = %v, wantErr %v", tt.input, tt.field, err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ParseIntWithValidation(%q, %q) = %d, want %d", tt.input, tt.field, got, tt.want)
			}
		})
	}
}

// =============================================================================
// EXIT CODE TESTS (errors.go)
// =============================================================================

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "nil error",
			err:  nil,
			want: ExitSuccess,
		},
		{
			name: "validation error",
			err:  NewValidationError("question", "", "must not be empty"),
			want: ExitUsageError,
		},
		{
			name: "not found error",
			err:  NewNotFoundError("file", "missing.txt"),
			want: ExitNotFoundError,
		},
		{
			name: "service unavailable",
			err:  answer.ErrUnavailable,
			want: ExitNetworkError,
		},
		{
			name: "timeout before transport",
			err:  answer.ErrTimeout,
			want: ExitTimeoutError,
		},
		{
			name: "stream error",
			err:  &answer.ClientError{Type: answer.ErrTypeStream, Message: "model overloaded"},
			want: ExitStreamError,
		},
		{
			name: "invalid response is transport",
			err:  &answer.ClientError{Type: answer.ErrTypeInvalidResponse, Message: "status 502"},
			want: ExitNetworkError,
		},
		{
			name: "config message fallback",
			err:  errors.New("failed to save config: permission denied"),
			want: ExitConfigError,
		},
		{
			name: "generic error",
			err:  errors.New("something went wrong"),
			want: ExitGeneralError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetExitCode(tt.err)
			if got != tt.want {
				t.Errorf("GetExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestErrorPredicates(t *testing.T) {
	ve := NewValidationError("key", "bad", "unknown key")
	if !IsValidationError(ve) {
		t.Error("IsValidationError should be true for ValidationError")
	}
	if IsValidationError(errors.New("plain")) {
		t.Error("IsValidationError should be false for plain error")
	}

	nfe := NewNotFoundError("session", "abc")
	if !IsNotFoundError(nfe) {
		t.Error("IsNotFoundError should be true for NotFoundError")
	}

	// Wrapped errors still match
	wrapped := WrapError(ve, "loading input")
	if !IsValidationError(wrapped) {
		t.Error("IsValidationError should see through WrapError")
	}
}

// =============================================================================
// MASKING TESTS (config.go)
// =============================================================================

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want string
	}{
		{"empty key", "", "(not set)"},
		{"short key", "abc", "[invalid key]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := maskAPIKey(tt.key)
			if got != tt.want {
				t.Errorf("maskAPIKey(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}

	t.Run("valid key is fingerprinted", func(t *testing.T) {
		got := maskAPIKey("sk-test-1234567890")
		if !strings.HasPrefix(got, "sha256:") || !strings.HasSuffix(got, "...") {
			t.Errorf("maskAPIKey() = %q, want sha256 fingerprint", got)
		}
		// Must never leak any part of the key itself
		if strings.Contains(got, "sk-test") {
			t.Errorf("maskAPIKey() = %q leaks key material", got)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		a := maskAPIKey("sk-test-1234567890")
		b := maskAPIKey("sk-test-1234567890")
		if a != b {
			t.Errorf("maskAPIKey not deterministic: %q != %q", a, b)
		}
	})
}

func TestMaskIfSecret(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		value      string
		wantMasked bool
	}{
		{"api_key is masked", "api_key", "secret-value-123", true},
		{"token is masked", "auth_token", "secret-value-123", true},
		{"endpoint is not masked", "endpoint", "http://localhost:8080", false},
		{"timeout is not masked", "timeout", "60", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := maskIfSecret(tt.key, tt.value)
			masked := got != tt.value
			if masked != tt.wantMasked {
				t.Errorf("maskIfSecret(%q, %q) = %q, masked = %v, want %v",
					tt.key, tt.value, got, masked, tt.wantMasked)
			}
		})
	}
}

// =============================================================================
// TERMINAL TESTS (terminal.go)
// =============================================================================

func TestWrapText(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		check func(*testing.T, string)
	}{
		{
			name:  "short text unchanged",
			text:  "hello world",
			width: 80,
			check: func(t *testing.T, got string) {
				if got != "hello world" {
					t.Errorf("WrapText() = %q, want unchanged", got)
				}
			},
		},
		{
			name:  "wraps at width",
			text:  "one two three four five six seven eight nine ten",
			width: 20,
			check: func(t *testing.T, got string) {
				for _, line := range strings.Split(got, "\n") {
					if len(line) > 20 {
						t.Errorf("line %q exceeds width 20", line)
					}
				}
			},
		},
		{
			name:  "zero width unchanged",
			text:  "hello world",
			width: 0,
			check: func(t *testing.T, got string) {
				if got != "hello world" {
					t.Errorf("WrapText() with width 0 = %q, want unchanged", got)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, WrapText(tt.text, tt.width))
		})
	}
}

// =============================================================================
// FORMAT HELPERS TESTS (helpers.go)
// =============================================================================

func TestFormatDurationShort(t *testing.T) {
	tests := []struct {
		name  string
		input time.Duration
		want  string
	}{
		{"milliseconds", 150 * time.Millisecond, "150ms"},
		{"seconds", 2500 * time.Millisecond, "2.5s"},
		{"minutes", 90 * time.Second, "1m30s"},
		{"hours", 3700 * time.Second, "1h1m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatDurationShort(tt.input)
			if got != tt.want {
				t.Errorf("formatDurationShort(%v) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name  string
		input time.Duration
		want  string
	}{
		{"seconds", 45 * time.Second, "45s"},
		{"minutes", 5 * time.Minute, "5m"},
		{"hours", 3 * time.Hour, "3h"},
		{"days", 48 * time.Hour, "2d"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatDuration(tt.input)
			if got != tt.want {
				t.Errorf("formatDuration(%v) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		name  string
		input int64
		want  string
	}{
		{"bytes", 512, "512 bytes"},
		{"kilobytes", 51200, "50.00 KB"},
		{"megabytes", 5 * 1024 * 1024, "5.00 MB"},
		{"gigabytes", 3 * 1024 * 1024 * 1024, "3.00 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatBytes(tt.input)
			if got != tt.want {
				t.Errorf("formatBytes(%d) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestReadFileForContextRejectsLargeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.txt")
	data := bytes.Repeat([]byte("x"), MaxFileSize+1)
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err := readFileForContext(path)
	if err == nil {
		t.Fatal("readFileForContext() accepted an oversized file")
	}
	if !strings.Contains(err.Error(), "file too large") {
		t.Errorf("error = %q, want a file-too-large message", err)
	}
	if !strings.Contains(err.Error(), "KB") {
		t.Errorf("error = %q, want a human-readable size", err)
	}
}

// =============================================================================
// INTEGRATION-STYLE TESTS (testing Parse() with os.Args simulation)
// =============================================================================

// TestParse_Integration tests the actual Parse() function by temporarily
// modifying os.Args. This is an integration test of the full CLI parsing.
func TestParse_Integration(t *testing.T) {
	// Save original args
	originalArgs := os.Args
	defer func() { os.Args = originalArgs }()

	tests := []struct {
		name        string
		args        []string
		wantCommand Command
		validate    func(*testing.T, Args)
	}{
		{
			name:        "ask command",
			args:        []string{"answerline", "ask", "What is Go?"},
			wantCommand: CmdAsk,
			validate: func(t *testing.T, a Args) {
				if a.Question != "What is Go?" {
					t.Errorf("Question = %q, want %q", a.Question, "What is Go?")
				}
			},
		},
		{
			name:        "bare question is ask",
			args:        []string{"answerline", "What", "is", "NDJSON?"},
			wantCommand: CmdAsk,
			validate: func(t *testing.T, a Args) {
				if a.Question != "What is NDJSON?" {
					t.Errorf("Question = %q, want %q", a.Question, "What is NDJSON?")
				}
			},
		},
		{
			name:        "ask with file flag",
			args:        []string{"answerline", "ask", "--file", "notes.txt", "Summarize"},
			wantCommand: CmdAsk,
			validate: func(t *testing.T, a Args) {
				if a.File != "notes.txt" {
					t.Errorf("File = %q, want %q", a.File, "notes.txt")
				}
				if a.Question != "Summarize" {
					t.Errorf("Question = %q, want %q", a.Question, "Summarize")
				}
			},
		},
		{
			name:        "ask with no-stream flag",
			args:        []string{"answerline", "ask", "--no-stream", "Question"},
			wantCommand: CmdAsk,
			validate: func(t *testing.T, a Args) {
				if !a.NoStream {
					t.Error("NoStream should be true")
				}
			},
		},
		{
			name:        "ask with quiet flag",
			args:        []string{"answerline", "-q", "ask", "Question"},
			wantCommand: CmdAsk,
			validate: func(t *testing.T, a Args) {
				if !a.Quiet {
					t.Error("Quiet should be true")
				}
			},
		},
		{
			name:        "endpoint override",
			args:        []string{"answerline", "--endpoint", "http://localhost:9090", "ask", "Hi"},
			wantCommand: CmdAsk,
			validate: func(t *testing.T, a Args) {
				if a.Endpoint != "http://localhost:9090" {
					t.Errorf("Endpoint = %q, want %q", a.Endpoint, "http://localhost:9090")
				}
			},
		},
		{
			name:        "chat command",
			args:        []string{"answerline", "chat"},
			wantCommand: CmdChat,
		},
		{
			name:        "config show",
			args:        []string{"answerline", "config", "show"},
			wantCommand: CmdConfig,
			validate: func(t *testing.T, a Args) {
				if a.Subcommand != "show" {
					t.Errorf("Subcommand = %q, want %q", a.Subcommand, "show")
				}
			},
		},
		{
			name:        "config set key value",
			args:        []string{"answerline", "config", "set", "endpoint", "http://localhost:8080"},
			wantCommand: CmdConfig,
			validate: func(t *testing.T, a Args) {
				if a.Subcommand != "set" {
					t.Errorf("Subcommand = %q, want %q", a.Subcommand, "set")
				}
				if a.ConfigKey != "endpoint" {
					t.Errorf("ConfigKey = %q, want %q", a.ConfigKey, "endpoint")
				}
				if a.ConfigVal != "http://localhost:8080" {
					t.Errorf("ConfigVal = %q, want %q", a.ConfigVal, "http://localhost:8080")
				}
			},
		},
		{
			name:        "doctor command",
			args:        []string{"answerline", "doctor"},
			wantCommand: CmdDoctor,
		},
		{
			name:        "doctor fix",
			args:        []string{"answerline", "doctor", "fix"},
			wantCommand: CmdDoctor,
			validate: func(t *testing.T, a Args) {
				if a.Subcommand != "fix" {
					t.Errorf("Subcommand = %q, want %q", a.Subcommand, "fix")
				}
			},
		},
		{
			name:        "version command",
			args:        []string{"answerline", "version"},
			wantCommand: CmdVersion,
		},
		{
			name:        "help command",
			args:        []string{"answerline", "help"},
			wantCommand: CmdHelp,
		},
		{
			name:        "no args shows help",
			args:        []string{"answerline"},
			wantCommand: CmdHelp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			cmd, args := Parse()

			if cmd != tt.wantCommand {
				t.Errorf("Command = %v, want %v", cmd, tt.wantCommand)
			}

			if tt.validate != nil {
				tt.validate(t, args)
			}
		})
	}
}

// =============================================================================
// EDGE CASES
// =============================================================================

func TestArgParser_EmptyArgs(t *testing.T) {
	parser := NewArgParser([]string{})
	if parser.Subcommand() != "" {
		t.Errorf("Subcommand() = %q, want empty", parser.Subcommand())
	}
	if parser.PositionalCount() != 0 {
		t.Errorf("PositionalCount() = %d, want 0", parser.PositionalCount())
	}
}

func TestArgParser_OnlyFlags(t *testing.T) {
	parser := NewArgParser([]string{"--verbose", "--json"})
	if parser.Subcommand() != "" {
		t.Errorf("Subcommand() = %q, want empty", parser.Subcommand())
	}
	if !parser.BoolFlag("verbose") {
		t.Error("BoolFlag(verbose) should be true")
	}
	if !parser.BoolFlag("json") {
		t.Error("BoolFlag(json) should be true")
	}
}

func TestArgParser_FlagOrDefault(t *testing.T) {
	parser := NewArgParser([]string{"cmd", "--present", "value"})

	if parser.FlagOrDefault("present", "default") != "value" {
		t.Error("FlagOrDefault should return actual value when present")
	}
	if parser.FlagOrDefault("missing", "default") != "default" {
		t.Error("FlagOrDefault should return default when missing")
	}
}

// =============================================================================
// BENCHMARKS
// =============================================================================

func BenchmarkArgParser_Simple(b *testing.B) {
	args := []string{"ask", "What is Go?"}
	for i := 0; i < b.N; i++ {
		NewArgParser(args)
	}
}

func BenchmarkArgParser_Complex(b *testing.B) {
	args := []string{"ask", "--no-stream", "--file", "notes.txt", "-q", "Complex question with many arguments"}
	for i := 0; i < b.N; i++ {
		NewArgParser(args)
	}
}
