// answerline - a command-line client for a streaming answer service.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"

	"github.com/jeranaias/answerline/internal/cli"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdAsk:
		cli.HandleAsk(args)
	case cli.CmdChat:
		cli.HandleChat(args)
	case cli.CmdConfig:
		if err := cli.HandleConfig(args); err != nil {
			cli.DisplayError(err, args.JSON)
			os.Exit(cli.GetExitCode(err))
		}
	case cli.CmdDoctor:
		if err := cli.HandleDoctor(args); err != nil {
			// Doctor prints its own report. The error only drives the exit code.
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case cli.CmdVersion:
		cli.HandleVersionWithJSON(args)
	case cli.CmdHelp:
		cli.HandleHelp()
	default:
		cli.HandleHelp()
	}
}
