// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - Single question command handler for the answerline CLI.
//
// CLI: Comprehensive help and examples for all commands
// USABILITY: Markdown rendering and live streaming for better CLI experience
//
// Handles the "answerline ask" command which sends a single question to
// the answer service and streams the response to stdout.
//
// Command: ask [question]
// Short:   Ask a single question
//
// Examples:
//   answerline ask "What is NDJSON?"
//   answerline ask --json "List the options"
//   answerline ask "Review this code:" --file main.go
//   cat error.log | answerline ask "What went wrong here?"
//
// Flags:
//   -f, --file FILE     Include file content with the question
//   --no-stream         Collect the full answer before printing
//   --json              Output response as JSON
//   -v, --verbose       Verbose output
//   -q, --quiet         Minimal output
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/answerline/internal/answer"
	"github.com/jeranaias/answerline/internal/assembler"
	"github.com/jeranaias/answerline/internal/config"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// MaxFileSize is the maximum file size to include (50KB).
	MaxFileSize = 50 * 1024
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// markdownRenderer is the global glamour renderer for markdown output.
// USABILITY: Renders markdown answers with syntax highlighting and formatting.
var markdownRenderer *glamour.TermRenderer

func init() {
	var err error
	markdownRenderer, err = glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		// Fallback to plain text if renderer initialization fails
		markdownRenderer = nil
	}
}

// renderMarkdown renders markdown content for terminal display.
// Returns the original content if rendering fails or renderer is unavailable.
func renderMarkdown(content string) string {
	if markdownRenderer == nil {
		return content
	}

	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// displayAnswer displays an answer with markdown rendering when appropriate.
// Only renders markdown when stdout is a TTY to avoid corrupting piped output.
func displayAnswer(answer string) {
	if IsStdoutTTY() {
		fmt.Print(renderMarkdown(answer))
	} else {
		fmt.Print(answer)
	}
}

// =============================================================================
// STYLES
// =============================================================================

var (
	// Note prefix style for stderr status lines
	noteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	// Separator style for the stats line
	askSeparatorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))

	// Summary label style
	summaryLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245"))

	// Summary value style
	summaryValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("42"))
)

// =============================================================================
// SERVICE CLIENT CONSTRUCTION
// =============================================================================

// serviceClient builds an answer client from the loaded configuration,
// honoring the --endpoint global flag.
func serviceClient(args Args) *answer.Client {
	cfg := config.Global()

	endpoint := cfg.Service.Endpoint
	if args.Endpoint != "" {
		endpoint = args.Endpoint
	}

	return answer.NewClientWithConfig(&answer.ClientConfig{
		BaseURL:           endpoint,
		APIKey:            cfg.Service.APIKey,
		Timeout:           time.Duration(cfg.Service.TimeoutSecs) * time.Second,
		RequestsPerSecond: cfg.Service.RequestsPerSecond,
	})
}

// =============================================================================
// FILE READING
// =============================================================================

// readFileForContext reads a file and formats it for inclusion in a question.
// Returns the formatted content or an error.
// Files larger than MaxFileSize are rejected.
func readFileForContext(path string) (string, error) {
	// Check file info
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file not found: %s", path)
		}
		return "", fmt.Errorf("cannot access file: %w", err)
	}

	// Check size
	if info.Size() > MaxFileSize {
		return "", fmt.Errorf("file too large: %s (max %s)", formatBytes(info.Size()), formatBytes(MaxFileSize))
	}

	// Read content
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	// Format with header
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("\n--- File: %s ---\n", path))
	builder.Write(content)
	builder.WriteString("\n--- End of file ---\n")

	return builder.String(), nil
}

// =============================================================================
// ASK HANDLER
// =============================================================================

// HandleAskCommand handles the "ask" command with streaming support.
// Supports JSON output for scripting.
func HandleAskCommand(args Args) error {
	cfg := config.Global()

	// Get the question from args.Question (built by parseAskArgs from positional args)
	question := args.Question

	// If no question from args, try reading from stdin (for piped input)
	if question == "" {
		// Check if stdin has data (is a pipe, not a terminal)
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			// Stdin is a pipe, read from it
			reader := bufio.NewReader(os.Stdin)
			stdinData, err := io.ReadAll(reader)
			if err == nil && len(stdinData) > 0 {
				question = strings.TrimSpace(string(stdinData))
				if !args.Quiet && !args.JSON {
					fmt.Fprintf(os.Stderr, "%s Read question from stdin (%d bytes)\n",
						noteStyle.Render("[+]"), len(stdinData))
				}
			}
		}
	}

	if question == "" {
		err := ErrMissingArgument("question", `answerline ask "your question"`)
		if args.JSON {
			resp := NewJSONErrorResponse("ask", err)
			resp.Print()
		}
		return err
	}

	// If file is specified, read and append to question
	if args.File != "" {
		fileContent, err := readFileForContext(args.File)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		question = question + "\n" + fileContent

		if !args.Quiet && !args.JSON {
			fmt.Fprintf(os.Stderr, "%s Including file: %s\n",
				noteStyle.Render("[+]"), args.File)
		}
	}

	client := serviceClient(args)
	ctx := context.Background()

	// Determine if we should use markdown rendering.
	// USABILITY: Render markdown on TTY for better formatting, stream plain for pipes.
	// Markdown needs the whole answer before rendering, so it implies collect mode.
	useMarkdown := IsStdoutTTY() && !args.JSON && cfg.Output.Markdown
	streamLive := !args.JSON && !useMarkdown && !args.NoStream

	if !args.Quiet && !args.JSON {
		fmt.Println() // Space before response
	}

	// Token events carry the full accumulated answer, so live output
	// prints only the suffix past what has already been written.
	var answerText string
	var printed int
	stats := assembler.NewStats()

	err := client.AskStream(ctx, question, func(ev assembler.Event) {
		switch ev.Type {
		case assembler.EventToken:
			stats.RecordFirstToken()
			stats.RecordTokenLine()
			answerText = ev.Text
			if streamLive && len(ev.Text) > printed {
				fmt.Print(ev.Text[printed:])
				printed = len(ev.Text)
			}
		case assembler.EventFinal:
			answerText = ev.Text
			if streamLive {
				if len(ev.Text) > printed {
					fmt.Print(ev.Text[printed:])
				}
				printed = len(ev.Text)
			}
		}
	})
	stats.Finalize()

	if err != nil {
		if streamLive && printed > 0 {
			fmt.Println()
		}
		if args.JSON {
			resp := NewJSONErrorResponseStr("ask", answer.UserMessage(err))
			resp.Print()
		}
		if args.Verbose && !args.JSON {
			fmt.Fprintf(os.Stderr, "%s %v\n", DimStyle.Render("[detail]"), err)
		}
		return err
	}

	// JSON output mode
	if args.JSON {
		data := AskData{
			Question:   args.Question,
			Answer:     answerText,
			TokenLines: stats.TokenLines,
			DurationMs: stats.EndTime.Sub(stats.StartTime).Milliseconds(),
			TTFTMs:     stats.TTFT.Milliseconds(),
		}

		resp := NewJSONResponse("ask", data)
		return resp.Print()
	}

	// USABILITY: Display answer with markdown rendering when on TTY
	if !streamLive {
		displayAnswer(answerText)
	}

	// Ensure newline after response
	fmt.Println()

	// Show stream summary (unless --quiet)
	if !args.Quiet {
		displayStreamSummary(stats)
	}

	return nil
}

// displayStreamSummary shows the timing summary after a streamed answer.
func displayStreamSummary(stats *assembler.Stats) {
	separator := strings.Repeat("─", 45)
	fmt.Fprintln(os.Stderr, askSeparatorStyle.Render(separator))

	fmt.Fprintf(os.Stderr, "%s %s | %s %s | %s %s\n",
		summaryLabelStyle.Render("Time:"),
		summaryValueStyle.Render(formatDurationShort(stats.EndTime.Sub(stats.StartTime))),
		summaryLabelStyle.Render("Lines:"),
		summaryValueStyle.Render(fmt.Sprintf("%d", stats.TokenLines)),
		summaryLabelStyle.Render("TTFT:"),
		summaryValueStyle.Render(fmt.Sprintf("%dms", stats.TTFT.Milliseconds())))
}
