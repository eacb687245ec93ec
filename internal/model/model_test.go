// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/answerline/internal/assembler"
)

// =============================================================================
// ROLE TESTS
// =============================================================================

func TestRole_DisplayName(t *testing.T) {
	tests := []struct {
		role Role
		want string
	}{
		{RoleUser, "You"},
		{RoleAssistant, "Assistant"},
		{RoleSystem, "System"},
		{Role("custom"), "custom"},
	}

	for _, tc := range tests {
		if got := tc.role.DisplayName(); got != tc.want {
			t.Errorf("DisplayName(%q) = %q, want %q", tc.role, got, tc.want)
		}
	}
}

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewMessage_GeneratesUniqueIDs(t *testing.T) {
	a := NewUserMessage("one")
	b := NewUserMessage("two")

	if a.ID == "" || b.ID == "" {
		t.Fatal("Message ID should not be empty")
	}
	if a.ID == b.ID {
		t.Errorf("Message IDs should be unique, both = %q", a.ID)
	}
	if !strings.HasPrefix(a.ID, "msg_") {
		t.Errorf("Message ID = %q, want msg_ prefix", a.ID)
	}
}

func TestMessage_StreamTextReplaces(t *testing.T) {
	msg := NewAssistantMessage()

	msg.SetStreamText("Hel")
	msg.SetStreamText("Hello")
	msg.SetStreamText("Hello, world")

	if got := msg.GetDisplayContent(); got != "Hello, world" {
		t.Errorf("GetDisplayContent() = %q, want %q", got, "Hello, world")
	}
	if msg.Content != "" {
		t.Errorf("Content should be empty while streaming, got %q", msg.Content)
	}
}

func TestMessage_SetFinalLatches(t *testing.T) {
	msg := NewAssistantMessage()
	msg.SetStreamText("partial answer")

	msg.SetFinal("complete answer")

	if msg.IsStreaming {
		t.Error("IsStreaming should be false after SetFinal")
	}
	if got := msg.GetDisplayContent(); got != "complete answer" {
		t.Errorf("GetDisplayContent() = %q, want %q", got, "complete answer")
	}

	// Late stream frames must not overwrite the final answer
	msg.SetStreamText("stale token text")
	if got := msg.GetDisplayContent(); got != "complete answer" {
		t.Errorf("GetDisplayContent() after late frame = %q, want %q", got, "complete answer")
	}
}

func TestMessage_FinalizeStreamWithoutFinal(t *testing.T) {
	msg := NewAssistantMessage()
	msg.SetStreamText("best effort answer")

	msg.FinalizeStream(nil)

	if msg.IsStreaming {
		t.Error("IsStreaming should be false after FinalizeStream")
	}
	if msg.Content != "best effort answer" {
		t.Errorf("Content = %q, want last streamed text", msg.Content)
	}
}

func TestMessage_FinalizeStreamCopiesStats(t *testing.T) {
	start := time.Now()
	stats := &assembler.Stats{
		StartTime:       start,
		EndTime:         start.Add(2 * time.Second),
		TTFT:            150 * time.Millisecond,
		TokenLines:      12,
		TokensPerSecond: 6.0,
	}

	msg := NewAssistantMessage()
	msg.SetStreamText("answer")
	msg.FinalizeStream(stats)

	if msg.TTFT != 150*time.Millisecond {
		t.Errorf("TTFT = %v, want 150ms", msg.TTFT)
	}
	if msg.TotalDuration != 2*time.Second {
		t.Errorf("TotalDuration = %v, want 2s", msg.TotalDuration)
	}
	if msg.TokenLines != 12 {
		t.Errorf("TokenLines = %d, want 12", msg.TokenLines)
	}
}

func TestMessage_FormatStats(t *testing.T) {
	msg := NewAssistantMessage()
	msg.SetFinal("done")
	msg.TotalDuration = 2500 * time.Millisecond
	msg.TTFT = 234 * time.Millisecond
	msg.TokenLines = 128
	msg.TokensPerSec = 51.2

	got := msg.FormatStats()
	for _, want := range []string{"2.5s", "128 lines", "51.2 lines/s", "TTFT 234ms"} {
		if !strings.Contains(got, want) {
			t.Errorf("FormatStats() = %q, want to contain %q", got, want)
		}
	}
}

func TestMessage_FormatStatsEmptyForUser(t *testing.T) {
	msg := NewUserMessage("hi")
	msg.TotalDuration = time.Second
	if got := msg.FormatStats(); got != "" {
		t.Errorf("FormatStats() on user message = %q, want empty", got)
	}
}

func TestMessage_Preview(t *testing.T) {
	msg := NewUserMessage("this is a fairly long question about streaming")
	preview := msg.Preview(10)
	if len([]rune(preview)) > 10 {
		t.Errorf("Preview(10) = %q, too long", preview)
	}
	if !strings.HasSuffix(preview, "...") {
		t.Errorf("Preview(10) = %q, want ellipsis", preview)
	}
}

func TestMessage_IsEmpty(t *testing.T) {
	msg := NewAssistantMessage()
	if !msg.IsEmpty() {
		t.Error("new assistant message should be empty")
	}
	msg.SetStreamText("x")
	if msg.IsEmpty() {
		t.Error("message with streamed text should not be empty")
	}
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestConversation_AddAndRetrieve(t *testing.T) {
	conv := NewConversation()

	if !conv.IsEmpty() {
		t.Error("new conversation should be empty")
	}

	user := conv.AddUserMessage("question")
	asst := conv.AddAssistantMessage()

	if conv.MessageCount() != 2 {
		t.Errorf("MessageCount() = %d, want 2", conv.MessageCount())
	}
	if conv.GetLastMessage() != asst {
		t.Error("GetLastMessage() should return the assistant message")
	}
	if conv.GetLastUserMessage() != user {
		t.Error("GetLastUserMessage() should return the user message")
	}
	if conv.GetLastAssistantMessage() != asst {
		t.Error("GetLastAssistantMessage() should return the assistant message")
	}
}

func TestConversation_StreamToLast(t *testing.T) {
	conv := NewConversation()
	conv.AddUserMessage("question")
	conv.AddAssistantMessage()

	conv.StreamToLast("Hel")
	conv.StreamToLast("Hello")
	conv.FinalizeLast(nil)

	last := conv.GetLastMessage()
	if last.Content != "Hello" {
		t.Errorf("Content = %q, want %q", last.Content, "Hello")
	}
	if last.IsStreaming {
		t.Error("message should not be streaming after FinalizeLast")
	}
}

func TestConversation_StreamToLastIgnoresFinalized(t *testing.T) {
	conv := NewConversation()
	conv.AddUserMessage("question")
	msg := conv.AddAssistantMessage()
	msg.SetFinal("final")

	conv.StreamToLast("late")

	if msg.GetDisplayContent() != "final" {
		t.Errorf("GetDisplayContent() = %q, want %q", msg.GetDisplayContent(), "final")
	}
}

func TestConversation_TitleFromFirstUserMessage(t *testing.T) {
	conv := NewConversation()
	if conv.GetTitle() != "New Conversation" {
		t.Errorf("GetTitle() = %q, want default", conv.GetTitle())
	}

	conv.AddUserMessage("How do I parse NDJSON?")
	if conv.GetTitle() != "How do I parse NDJSON?" {
		t.Errorf("GetTitle() = %q, want first user message", conv.GetTitle())
	}

	// Title is sticky once set
	conv.AddUserMessage("Second question")
	if conv.GetTitle() != "How do I parse NDJSON?" {
		t.Errorf("GetTitle() changed to %q", conv.GetTitle())
	}
}

func TestConversation_ClearHistory(t *testing.T) {
	conv := NewConversation()
	conv.AddUserMessage("a")
	conv.AddUserMessage("b")

	conv.ClearHistory()

	if !conv.IsEmpty() {
		t.Error("conversation should be empty after ClearHistory")
	}
	if conv.TokensUsed != 0 {
		t.Errorf("TokensUsed = %d, want 0", conv.TokensUsed)
	}
}

func TestConversation_RemoveMessage(t *testing.T) {
	conv := NewConversation()
	msg := conv.AddUserMessage("removable")

	if !conv.RemoveMessage(msg.ID) {
		t.Fatal("RemoveMessage should return true for existing ID")
	}
	if conv.RemoveMessage("msg_missing") {
		t.Error("RemoveMessage should return false for unknown ID")
	}
	if conv.GetMessageByID(msg.ID) != nil {
		t.Error("removed message should not be retrievable")
	}
}

func TestConversation_PruneKeepsSystemMessages(t *testing.T) {
	conv := NewConversation()
	conv.AddSystemMessage("system prompt")

	for i := 0; i < MaxMessages+10; i++ {
		conv.AddUserMessage("filler")
	}

	if conv.MessageCount() != MaxMessages+1 {
		t.Errorf("MessageCount() = %d, want %d", conv.MessageCount(), MaxMessages+1)
	}
	if conv.Messages[0].Role != RoleSystem {
		t.Error("system message should survive pruning at index 0")
	}
}

func TestConversation_Clone(t *testing.T) {
	conv := NewConversation()
	conv.AddUserMessage("original")

	clone := conv.Clone()
	clone.Messages[0].Content = "mutated"

	if conv.Messages[0].Content != "original" {
		t.Error("mutating clone should not affect the original")
	}
	if clone.ID != conv.ID {
		t.Errorf("clone ID = %q, want %q", clone.ID, conv.ID)
	}
}

func TestConversation_EstimateTokens(t *testing.T) {
	conv := NewConversation()
	conv.AddUserMessage(strings.Repeat("a", 40))

	// 40 chars ~ 10 tokens, plus ~4 structural overhead
	got := conv.EstimateTokens()
	if got < 10 || got > 20 {
		t.Errorf("EstimateTokens() = %d, want roughly 14", got)
	}
	if conv.TokensUsed != got {
		t.Errorf("TokensUsed = %d, want %d", conv.TokensUsed, got)
	}
}
