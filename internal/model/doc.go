// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// This package defines the core domain types used throughout the application
// for representing chat transcripts and streamed answers.
//
// # Key Types
//
//   - Conversation: Container for a chat session with messages and metadata
//   - Message: Single message with role, content, timestamp, and stream state
//   - Role: Message role enumeration (user, assistant, system)
//
// # Usage
//
// Create a new conversation and stream an answer into it:
//
//	conv := model.NewConversation()
//	conv.AddUserMessage("What is NDJSON?")
//	msg := conv.AddAssistantMessage()
//	msg.SetStreamText("NDJSON is")
//	msg.SetStreamText("NDJSON is newline-delimited JSON.")
//	conv.FinalizeLast(stats)
//
// Token frames carry the full accumulated answer, so SetStreamText replaces
// the streaming text rather than appending to it.
package model
