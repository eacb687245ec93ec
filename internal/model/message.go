// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/answerline/internal/assembler"
	"github.com/jeranaias/answerline/internal/util"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a conversation.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`

	// Content
	Content string `json:"content"`

	// Streaming state (not persisted)
	// Token frames carry the full accumulated answer, so streaming state
	// is a plain string replaced on every frame rather than an append buffer.
	IsStreaming bool   `json:"-"`
	streamText  string `json:"-"`

	// Line count of token frames that produced this message
	TokenLines int `json:"token_lines,omitempty"`

	// Performance metrics (for assistant messages)
	TTFT          time.Duration `json:"ttft_ns,omitempty"`
	TotalDuration time.Duration `json:"total_duration_ns,omitempty"`
	TokensPerSec  float64       `json:"tokens_per_sec,omitempty"`
}

// NewMessage creates a new message with a generated ID.
func NewMessage(role Role, content string) *Message {
	return &Message{
		ID:        generateID("msg"),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) *Message {
	return NewMessage(RoleUser, content)
}

// NewAssistantMessage creates a new streaming assistant message.
func NewAssistantMessage() *Message {
	return &Message{
		ID:          generateID("msg"),
		Role:        RoleAssistant,
		Timestamp:   time.Now(),
		IsStreaming: true,
	}
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) *Message {
	return NewMessage(RoleSystem, content)
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// SetStreamText replaces the streaming text with the latest accumulated
// answer. Token frames are cumulative, so this is a replace, not an append.
func (m *Message) SetStreamText(text string) {
	if m.IsStreaming {
		m.streamText = text
	}
}

// SetFinal latches the authoritative final answer. Any streaming text
// received afterward is ignored.
func (m *Message) SetFinal(text string) {
	m.Content = text
	m.streamText = ""
	m.IsStreaming = false
}

// FinalizeStream completes streaming and copies statistics.
// If no final frame arrived, the last streamed text becomes the content.
func (m *Message) FinalizeStream(stats *assembler.Stats) {
	if m.IsStreaming {
		m.Content = m.streamText
		m.streamText = ""
		m.IsStreaming = false
	}

	if stats != nil {
		m.TTFT = stats.TTFT
		m.TotalDuration = stats.EndTime.Sub(stats.StartTime)
		m.TokenLines = stats.TokenLines
		m.TokensPerSec = stats.TokensPerSecond
	}
}

// GetDisplayContent returns the content to display (streaming or final).
func (m *Message) GetDisplayContent() string {
	if m.IsStreaming {
		return m.streamText
	}
	return m.Content
}

// Preview returns a truncated preview of the message content.
// Uses rune-based truncation to handle Unicode correctly.
func (m *Message) Preview(maxLen int) string {
	return util.TruncateRunes(m.GetDisplayContent(), maxLen)
}

// IsEmpty returns true if the message has no content.
func (m *Message) IsEmpty() bool {
	return len(m.Content) == 0 && len(m.streamText) == 0
}

// EstimateTokens gives a rough estimate of token count.
// Uses the approximation of ~4 characters per token.
func (m *Message) EstimateTokens() int {
	content := m.GetDisplayContent()
	return (len(content) + 3) / 4
}

// FormatStats returns a formatted string of message statistics.
func (m *Message) FormatStats() string {
	if m.Role != RoleAssistant || m.TotalDuration == 0 {
		return ""
	}

	// Format: "2.5s | 12 lines | 4.8 lines/s | TTFT 234ms"
	return formatSeconds(m.TotalDuration.Seconds()) + " | " +
		util.IntToString(m.TokenLines) + " lines | " +
		util.FloatToStringPrec(m.TokensPerSec, 1) + " lines/s | " +
		"TTFT " + util.Int64ToString(m.TTFT.Milliseconds()) + "ms"
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateID creates a unique prefixed ID.
func generateID(prefix string) string {
	return prefix + "_" + uuid.New().String()
}

// formatSeconds formats a duration in seconds as "340ms" or "2.5s".
func formatSeconds(seconds float64) string {
	if seconds < 1 {
		return util.IntToString(int(seconds*1000)) + "ms"
	}
	return util.FloatToStringPrec(seconds, 1) + "s"
}
