// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat command handler for the answerline CLI.
//
// CLI: Comprehensive help and examples for all commands
// USABILITY: Markdown rendering and history for better CLI experience
//
// Handles the "answerline chat" command which provides an interactive
// REPL for a conversation with the answer service. The conversation ID
// is sent as a session identifier so the service can correlate
// follow-up questions.
//
// Command: chat
// Short:   Start an interactive chat session
//
// Examples:
//   answerline chat                   Start interactive chat
//   answerline chat --quiet           No stats lines between answers
//
// Interactive Commands (during chat):
//   /help, /h           Show available commands
//   /clear, /c          Clear conversation history
//   /status, /s         Show session statistics
//   /history            Show conversation history
//   /quit, /q           Exit chat
//   Ctrl+C              Cancel current answer
//   Ctrl+D              Exit chat
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"

	"github.com/jeranaias/answerline/internal/answer"
	"github.com/jeranaias/answerline/internal/assembler"
	"github.com/jeranaias/answerline/internal/config"
	"github.com/jeranaias/answerline/internal/model"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	// Prompt style
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	// Welcome banner style
	welcomeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Bold(true)

	// Info style
	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	// Command style
	commandStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	// Warning style
	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	// Error style
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	// Session summary header
	summaryHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true)
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for interactive chat.
// USABILITY: Supports arrow keys for history navigation and line editing.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a new ChatCLI with input history support.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	// Get history file path in config directory
	configDir, err := config.ConfigDir()
	if err != nil {
		// Fallback to temp directory if config dir unavailable
		configDir = os.TempDir()
	}
	historyFile := filepath.Join(configDir, "chat_history")

	cli := &ChatCLI{
		line:        line,
		historyFile: historyFile,
	}

	// Load existing history
	cli.LoadHistory()

	return cli
}

// LoadHistory loads command history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt.
// Supports history navigation with arrow keys.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}

	// Add non-empty input to history
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}

	return input, nil
}

// SaveHistory persists command history to file with secure permissions.
func (c *ChatCLI) SaveHistory() {
	// Ensure config directory exists
	if err := config.EnsureConfigDir(); err != nil {
		return
	}

	// Create file with secure permissions (0600 - owner read/write only)
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()

	c.line.WriteHistory(f)
}

// Close saves history and closes the liner.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// SESSION STATE
// =============================================================================

// ChatSession holds the state for an interactive chat session.
type ChatSession struct {
	// Conversation holds the message history. Its ID is reused as the
	// session identifier sent with each question.
	Conversation *model.Conversation

	// Configuration
	Config  *config.Config
	Quiet   bool
	Verbose bool

	// Tracking
	StartTime  time.Time
	Questions  int
	TokenLines int

	// Client
	Client *answer.Client

	// Cancel function for current stream
	CancelFunc context.CancelFunc

	// Input history handler
	// USABILITY: Provides readline-like input with history
	InputCLI *ChatCLI
}

// NewChatSession creates a new chat session.
func NewChatSession(args Args) *ChatSession {
	cfg := config.Global()

	return &ChatSession{
		Conversation: model.NewConversation(),
		Config:       cfg,
		Quiet:        args.Quiet || cfg.Output.Quiet,
		Verbose:      args.Verbose || cfg.Output.Verbose,
		StartTime:    time.Now(),
		Client:       serviceClient(args),
		InputCLI:     NewChatCLI(),
	}
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChatCommand handles the "chat" command with full interactive support.
func HandleChatCommand(args Args) error {
	session := NewChatSession(args)

	// Check the answer service is reachable before entering the loop
	checkCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err := session.Client.CheckReachable(checkCtx)
	cancel()
	if err != nil {
		if session.Verbose {
			fmt.Fprintf(os.Stderr, "%s %v\n", DimStyle.Render("[detail]"), err)
		}
		return err
	}

	// Pick up config edits made while the session is running. A watcher
	// failure is not fatal; the session just keeps its startup config.
	watcher, err := config.StartWatcher(func(cfg *config.Config) {
		session.Config = cfg
	})
	if err != nil {
		if session.Verbose {
			fmt.Fprintf(os.Stderr, "%s config watch unavailable: %v\n",
				DimStyle.Render("[detail]"), err)
		}
	} else {
		defer watcher.Close()
	}

	// Show welcome message
	if !session.Quiet {
		printWelcome(session)
	}

	// Ensure input history is saved on exit
	// USABILITY: Save history for future sessions
	defer session.InputCLI.Close()

	// Set up signal handling for graceful Ctrl+C
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Handle signals in a goroutine
	go func() {
		for sig := range sigChan {
			if sig == os.Interrupt || sig == syscall.SIGTERM {
				// First Ctrl+C cancels current operation
				if session.CancelFunc != nil {
					session.CancelFunc()
					session.CancelFunc = nil
					fmt.Fprintln(os.Stderr, "\n"+warningStyle.Render("[Cancelled]"))
				}
			}
		}
	}()

	// Main REPL loop using liner for input history
	// USABILITY: Provides readline-like line editing and history navigation
	for {
		// Read input with history support
		input, err := session.InputCLI.ReadInput(promptStyle.Render("answerline> "))
		if err != nil {
			if err == liner.ErrPromptAborted {
				// Ctrl+C pressed - exit gracefully
				fmt.Println()
				printExitSummary(session)
				return nil
			}
			// EOF (Ctrl+D) or other error - exit gracefully
			fmt.Println()
			printExitSummary(session)
			return nil
		}

		input = strings.TrimSpace(input)

		// Skip empty input
		if input == "" {
			continue
		}

		// Handle slash commands
		if strings.HasPrefix(input, "/") {
			shouldContinue, err := handleSlashCommand(input, session)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s %v\n",
					errorStyle.Render("[Error]"),
					err)
			}
			if !shouldContinue {
				printExitSummary(session)
				return nil
			}
			continue
		}

		// Handle exit/quit without slash
		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			printExitSummary(session)
			return nil
		}

		// Process the message
		if err := processMessage(session, input); err != nil {
			fmt.Fprintf(os.Stderr, "%s %s\n",
				errorStyle.Render("[Error]"),
				answer.UserMessage(err))
			if session.Verbose {
				fmt.Fprintf(os.Stderr, "%s %v\n", DimStyle.Render("[detail]"), err)
			}
		}
	}
}

// =============================================================================
// MESSAGE PROCESSING
// =============================================================================

// processMessage sends a question to the service and streams the answer.
func processMessage(session *ChatSession, input string) error {
	conv := session.Conversation
	conv.AddUserMessage(input)
	conv.AddAssistantMessage()

	// Create cancellable context so Ctrl+C stops the in-flight stream
	ctx, cancel := context.WithCancel(context.Background())
	session.CancelFunc = cancel
	defer func() {
		session.CancelFunc = nil
		cancel()
	}()

	// Determine if we should use markdown rendering
	// USABILITY: Render markdown on TTY for better formatting
	useMarkdown := IsStdoutTTY() && session.Config.Output.Markdown

	// Stream the response
	fmt.Println() // Space before response

	// Token events carry the full accumulated answer; live output
	// prints only the suffix past what was already written.
	var printed int
	stats := assembler.NewStats()

	err := session.Client.AskStreamSession(ctx, input, conv.ID, func(ev assembler.Event) {
		switch ev.Type {
		case assembler.EventToken:
			stats.RecordFirstToken()
			stats.RecordTokenLine()
			conv.StreamToLast(ev.Text)
			if !useMarkdown && len(ev.Text) > printed {
				fmt.Print(ev.Text[printed:])
				printed = len(ev.Text)
			}
		case assembler.EventFinal:
			if last := conv.GetLastAssistantMessage(); last != nil {
				last.SetFinal(ev.Text)
			}
			if !useMarkdown {
				if len(ev.Text) > printed {
					fmt.Print(ev.Text[printed:])
				}
				printed = len(ev.Text)
			}
		}
	})
	stats.Finalize()
	conv.FinalizeLast(stats)

	if err != nil {
		// Remove the empty assistant message on error
		if last := conv.GetLastAssistantMessage(); last != nil && last.IsEmpty() {
			conv.RemoveMessage(last.ID)
		}
		return err
	}

	// USABILITY: Display answer with markdown rendering when on TTY
	if useMarkdown {
		if last := conv.GetLastAssistantMessage(); last != nil {
			displayAnswer(last.GetDisplayContent())
		}
	}

	// Ensure newline after response
	fmt.Println()
	fmt.Println() // Extra space after response

	session.Questions++
	session.TokenLines += stats.TokenLines

	// Show brief stats (unless quiet)
	if !session.Quiet {
		if last := conv.GetLastAssistantMessage(); last != nil {
			fmt.Fprintf(os.Stderr, "%s %s\n",
				infoStyle.Render("[Stats]"),
				last.FormatStats())
		}
	}

	return nil
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand processes slash commands.
// Returns (shouldContinue, error) where shouldContinue=false means exit.
func handleSlashCommand(cmd string, session *ChatSession) (bool, error) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return true, nil
	}

	command := strings.ToLower(parts[0])

	switch command {
	case "/help", "/h", "/?":
		printHelp()
		return true, nil

	case "/clear", "/c":
		session.Conversation.ClearHistory()
		fmt.Println(commandStyle.Render("[Conversation cleared]"))
		return true, nil

	case "/status", "/s":
		printStatus(session)
		return true, nil

	case "/quit", "/q", "/exit":
		return false, nil

	case "/history":
		printHistory(session)
		return true, nil

	case "/":
		// Just "/" shows help
		printHelp()
		return true, nil

	default:
		return true, fmt.Errorf("unknown command: %s (type /help for commands)", command)
	}
}

// =============================================================================
// DISPLAY FUNCTIONS
// =============================================================================

// printWelcome prints the welcome banner.
func printWelcome(session *ChatSession) {
	fmt.Println()
	fmt.Println(welcomeStyle.Render("answerline interactive chat"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 30)))
	fmt.Printf("%s %s\n",
		infoStyle.Render("Service:"),
		commandStyle.Render(session.Client.GetConfig().BaseURL))
	fmt.Printf("%s %s\n",
		infoStyle.Render("Session:"),
		commandStyle.Render(session.Conversation.ID))

	fmt.Println()
	fmt.Println(infoStyle.Render("Type your question and press Enter. Commands: /help, /quit"))
	fmt.Println()
}

// printHelp prints available commands.
func printHelp() {
	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render("Available Commands"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 20)))
	fmt.Println()

	commands := []struct {
		cmd  string
		desc string
	}{
		{"/help, /h", "Show this help"},
		{"/clear, /c", "Clear conversation history"},
		{"/status, /s", "Show session statistics"},
		{"/history", "Show conversation history"},
		{"/quit, /q", "Exit chat"},
	}

	for _, c := range commands {
		fmt.Printf("  %s  %s\n",
			commandStyle.Render(fmt.Sprintf("%-15s", c.cmd)),
			infoStyle.Render(c.desc))
	}

	fmt.Println()
	fmt.Println(infoStyle.Render("Tip: Ctrl+C cancels the current answer, Ctrl+D exits"))
	fmt.Println()
}

// printStatus prints session statistics.
func printStatus(session *ChatSession) {
	elapsed := formatDuration(time.Since(session.StartTime))

	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render("Session Status"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 20)))
	fmt.Println()

	fmt.Printf("  %s %s\n",
		infoStyle.Render("Service:"),
		commandStyle.Render(session.Client.GetConfig().BaseURL))
	fmt.Printf("  %s %s\n",
		infoStyle.Render("Session:"),
		session.Conversation.ID)
	fmt.Printf("  %s %s\n",
		infoStyle.Render("Duration:"),
		elapsed)
	fmt.Printf("  %s %d messages\n",
		infoStyle.Render("History:"),
		session.Conversation.MessageCount())

	fmt.Println()
	fmt.Println(infoStyle.Render("Statistics:"))
	fmt.Printf("  %s %d\n",
		infoStyle.Render("Questions:"),
		session.Questions)
	fmt.Printf("  %s %d\n",
		infoStyle.Render("Token lines:"),
		session.TokenLines)
	fmt.Printf("  %s ~%d\n",
		infoStyle.Render("Est. tokens:"),
		session.Conversation.EstimateTokens())

	fmt.Println()
}

// printHistory prints conversation history.
func printHistory(session *ChatSession) {
	messages := session.Conversation.GetHistory()
	if len(messages) == 0 {
		fmt.Println(infoStyle.Render("[No messages yet]"))
		return
	}

	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render("Conversation History"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 25)))
	fmt.Println()

	for i, msg := range messages {
		role := msg.Role.DisplayName()
		switch msg.Role {
		case model.RoleUser:
			role = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Render(role)
		case model.RoleAssistant:
			role = lipgloss.NewStyle().Foreground(lipgloss.Color("135")).Render(role)
		case model.RoleSystem:
			role = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Render(role)
		}

		// UNICODE: Rune-aware truncation preserves multi-byte characters
		content := strings.ReplaceAll(msg.Preview(100), "\n", " ")

		fmt.Printf("  %d. %s: %s\n", i+1, role, content)
	}

	fmt.Println()
}

// printExitSummary prints the session summary on exit.
func printExitSummary(session *ChatSession) {
	// Skip if no questions were asked
	if session.Questions == 0 {
		fmt.Println(infoStyle.Render("Goodbye!"))
		return
	}

	elapsed := formatDuration(time.Since(session.StartTime))

	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render("Session Summary"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 15)))

	fmt.Printf("  %s %d\n",
		infoStyle.Render("Questions:"),
		session.Questions)
	fmt.Printf("  %s %d\n",
		infoStyle.Render("Token lines:"),
		session.TokenLines)
	fmt.Printf("  %s %s\n",
		infoStyle.Render("Duration:"),
		elapsed)

	fmt.Println()
	fmt.Println(infoStyle.Render("Goodbye!"))
}
