// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line interface parsing and execution for answerline.
//
// This package implements all CLI commands for the answerline client,
// providing both interactive and non-interactive modes on top of the
// streaming answer service client in internal/answer.
//
// # Key Types
//
//   - Command: Enumeration of all available CLI commands
//   - Args: Parsed command-line arguments with global and command-specific flags
//   - JSONResponse: Standardized JSON output envelope for scripting
//
// # Usage
//
// Parse and execute commands:
//
//	args := cli.Parse(os.Args[1:])
//	switch args.Cmd {
//	case cli.CmdAsk:
//	    cli.HandleAsk(args)
//	case cli.CmdChat:
//	    cli.HandleChat(args)
//	// ... other commands
//	}
//
// # Commands Overview
//
//   - ask: Single question, streamed answer
//   - chat: Interactive multi-turn session
//   - config: Configuration management
//   - doctor: Health checks and diagnostics
//   - version: Build information
//
// All commands support the --json flag for scripting.
package cli
