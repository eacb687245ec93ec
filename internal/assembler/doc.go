// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package assembler turns raw NDJSON stream chunks into answer events.
//
// The answer service streams newline-delimited JSON over HTTP. Chunks
// arrive at arbitrary byte boundaries, so a line may be split across
// any number of chunks. The Assembler buffers the unterminated tail of
// each chunk and emits events only for complete lines, which makes the
// resulting event sequence independent of how the body was chunked.
//
// # Wire Format
//
// Each complete line is one of:
//
//	{"token": "..."}                  incremental token
//	{"response": "...", "done": true} final answer
//	{"error": "..."}                  server-side failure
//
// Token events carry the full accumulated text so far, not the delta.
// A final line latches: token lines arriving after it are ignored.
// Lines that match none of the above are dropped silently.
//
// # Usage
//
//	asm := assembler.New()
//	for chunk := range chunks {
//	    for _, ev := range asm.Feed(chunk) {
//	        handle(ev)
//	    }
//	}
//	for _, ev := range asm.Finish() {
//	    handle(ev)
//	}
//
// The Assembler is push-based and single-threaded. It takes no locks;
// callers that share one across goroutines must serialize access.
//
// # Performance
//
// High-churn callers can use the pooled constructor Get/Put to reuse
// buffers across streams.
package assembler
