// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package answer provides the HTTP client for the streaming answer service.
//
// The service accepts a question and streams back newline-delimited JSON
// frames (tokens, a final response, or an error). This package owns the
// transport: connection setup, timeouts, retryable failures, and turning
// the raw body into assembler events.
//
// # Key Types
//
//   - Client: HTTP client with typed errors and client-side rate limiting
//   - ClientConfig: endpoint, API key, timeout and limiter settings
//   - StreamReader: drives an assembler from a response body
//
// # Usage
//
//	client := answer.NewClient()
//	err := client.AskStream(ctx, "why is the sky blue?", func(ev assembler.Event) {
//	    fmt.Print(ev.Text)
//	})
//
// For a blocking call that returns only the final text:
//
//	text, err := client.Ask(ctx, "why is the sky blue?")
//
// # Error Handling
//
// Transport failures (refused connections, timeouts, non-2xx statuses,
// dropped bodies) come back as ClientError values that present one fixed
// user-facing message regardless of cause; UserMessage extracts it.
// Server-reported stream errors surface their message verbatim.
package answer
