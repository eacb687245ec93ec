// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command handlers for answerline.
//
// CLI: Comprehensive help and examples for all commands
package cli

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdAsk Command = iota
	CmdChat
	CmdConfig
	CmdDoctor
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet    bool
	Verbose  bool
	JSON     bool   // Output in JSON format
	Endpoint string // Override configured service endpoint
	NoStream bool   // Collect the full answer before printing

	// Command-specific
	Question   string
	File       string
	ConfigKey  string
	ConfigVal  string
	Subcommand string

	// Raw args (remaining after flag parsing)
	Raw []string
}

const usageText = `answerline - streaming answer service client

Answerline is a command-line client for an answer service that streams
responses line by line over NDJSON.

It provides:
  - Single-question asks with live streamed output
  - An interactive chat session with history
  - Markdown rendering on interactive terminals
  - JSON output for scripting

Usage:
  answerline ask "question"      Ask a single question
  answerline "question"          Shorthand for ask
  answerline chat                Interactive chat
  answerline config [show|set]   Configuration
  answerline doctor              System diagnostics
  answerline version             Show version
  answerline help                Show this help

Ask Command:
  answerline ask "What is NDJSON?"
    -f, --file FILE             Include file contents with the question
    --no-stream                 Collect the full answer, then print once
    --json                      Output the answer as JSON

Chat Commands (inside a chat session):
  /help                         Show chat commands
  /clear                        Clear conversation history
  /status                       Show session statistics
  /quit                         Exit chat

Config Commands:
  answerline config show        Show current configuration
  answerline config set KEY VALUE
                                Set a configuration value
  answerline config reset       Reset configuration to defaults
  answerline config path        Print the config file path

  Keys: endpoint, api_key, timeout, rps, markdown, quiet, verbose

Doctor Command:
  answerline doctor             Run health checks
    --json                      Output results as JSON

Global Flags:
  -q, --quiet     Minimal output (answer only, no stats)
  -v, --verbose   Debug output
  --json          Output in JSON format
  --endpoint URL  Override the configured service endpoint

Examples:
  # Basic usage
  answerline ask "What is a goroutine?"
  answerline "What is a goroutine?"        Same thing
  answerline chat                          Start interactive chat

  # Ask command with options
  answerline ask "Review this:" --file x.go   Include file with question
  answerline ask "List options" --json        Output response as JSON
  cat notes.txt | answerline ask "Summarize"  Pipe stdin as context

  # Configuration and diagnostics
  answerline config show                      Show current configuration
  answerline config set endpoint http://localhost:8080
  answerline doctor                           Run health checks

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("answerline version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
}

// Parse parses command-line arguments and returns the command and args.
func Parse() (Command, Args) {
	args := os.Args[1:]

	// Parse global flags first
	remaining, parsedArgs := parseGlobalFlags(args)

	// If no remaining args, show help
	if len(remaining) == 0 {
		return CmdHelp, parsedArgs
	}

	// Check first argument for command
	cmd := strings.ToLower(remaining[0])
	rest := remaining[1:]
	parsedArgs.Raw = rest

	switch cmd {
	case "ask":
		parseAskArgs(&parsedArgs, rest)
		return CmdAsk, parsedArgs

	case "chat":
		return CmdChat, parsedArgs

	case "config":
		parseConfigArgs(&parsedArgs, rest)
		return CmdConfig, parsedArgs

	case "doctor":
		parseDoctorArgs(&parsedArgs, rest)
		return CmdDoctor, parsedArgs

	case "version", "-v", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs

	default:
		// Unknown command - treat the whole input as a question
		parseAskArgs(&parsedArgs, remaining)
		return CmdAsk, parsedArgs
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsedArgs Args

	i := 0
	for i < len(args) {
		arg := args[i]

		switch arg {
		case "-q", "--quiet":
			parsedArgs.Quiet = true
		case "-v", "--verbose":
			parsedArgs.Verbose = true
		case "--json":
			parsedArgs.JSON = true
		case "--endpoint":
			if i+1 < len(args) {
				i++
				parsedArgs.Endpoint = args[i]
			}
		default:
			// Check for --endpoint=value format
			if strings.HasPrefix(arg, "--endpoint=") {
				parsedArgs.Endpoint = strings.TrimPrefix(arg, "--endpoint=")
			} else {
				remaining = append(remaining, arg)
			}
		}
		i++
	}

	return remaining, parsedArgs
}

// parseAskArgs parses ask command specific arguments.
func parseAskArgs(args *Args, remaining []string) {
	var question []string

	i := 0
	for i < len(remaining) {
		arg := remaining[i]

		switch arg {
		case "-f", "--file":
			if i+1 < len(remaining) {
				i++
				args.File = remaining[i]
			}
		case "--no-stream":
			args.NoStream = true
		default:
			if strings.HasPrefix(arg, "--file=") {
				args.File = strings.TrimPrefix(arg, "--file=")
			} else if !strings.HasPrefix(arg, "-") {
				question = append(question, arg)
			}
		}
		i++
	}

	args.Question = strings.Join(question, " ")
}

// parseConfigArgs parses config command specific arguments.
func parseConfigArgs(args *Args, remaining []string) {
	if len(remaining) > 0 {
		args.Subcommand = remaining[0]
		if len(remaining) > 1 {
			args.ConfigKey = remaining[1]
		}
		if len(remaining) > 2 {
			args.ConfigVal = remaining[2]
		}
	}
}

// parseDoctorArgs parses doctor command specific arguments.
func parseDoctorArgs(args *Args, remaining []string) {
	if len(remaining) > 0 {
		args.Subcommand = remaining[0]
	}
}

// =============================================================================
// COMMAND HANDLERS
// =============================================================================

// ERROR HANDLING: Errors must not be silently ignored

// HandleAsk handles the "ask" command.
// This delegates to the full implementation in ask.go.
func HandleAsk(args Args) {
	if err := HandleAskCommand(args); err != nil {
		DisplayError(err, args.JSON)
		os.Exit(GetExitCode(err))
	}
}

// HandleChat handles the "chat" command.
// This delegates to the full implementation in chat.go.
func HandleChat(args Args) {
	if err := HandleChatCommand(args); err != nil {
		DisplayError(err, args.JSON)
		os.Exit(GetExitCode(err))
	}
}

// NOTE: HandleConfig is implemented in config.go
// NOTE: HandleDoctor is implemented in doctor.go

// HandleVersion handles the "version" command.
func HandleVersion() {
	PrintVersion()
}

// HandleVersionWithJSON handles the "version" command with JSON output support.
func HandleVersionWithJSON(args Args) {
	if args.JSON {
		data := VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
		}
		resp := NewJSONResponse("version", data)
		resp.Print()
		return
	}
	PrintVersion()
}

// HandleHelp handles the "help" command.
func HandleHelp() {
	PrintUsage()
}
