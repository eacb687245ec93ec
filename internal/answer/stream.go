// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package answer

import (
	"context"
	"io"

	"github.com/jeranaias/answerline/internal/assembler"
)

// =============================================================================
// STREAM READER
// =============================================================================

// readBufferSize is the chunk size handed to the assembler. Chunk
// boundaries do not matter to it, so this is purely a syscall budget.
const readBufferSize = 4096

// StreamReader pulls raw chunks off a response body and drives an
// assembler, delivering events to a callback as lines complete.
type StreamReader struct {
	src io.Reader
	asm *assembler.Assembler
	buf []byte
}

// NewStreamReader creates a stream reader over a response body.
func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{
		src: r,
		asm: assembler.New(),
		buf: make([]byte, readBufferSize),
	}
}

// Process reads the stream to completion, invoking the callback for
// each event in order. Blocks until the body ends, a terminal frame
// arrives, or the context is cancelled.
//
// A server error frame is both delivered as an event and returned as a
// stream ClientError so blocking callers fail loudly. A body that dies
// mid-read returns a transport error.
func (s *StreamReader) Process(ctx context.Context, callback assembler.Callback) error {
	for {
		select {
		case <-ctx.Done():
			return ErrTimeout
		default:
		}

		n, err := s.src.Read(s.buf)
		if n > 0 {
			for _, ev := range s.asm.Feed(s.buf[:n]) {
				callback(ev)
				if ev.Type == assembler.EventError {
					return &ClientError{Type: ErrTypeStream, Message: ev.Text}
				}
				if ev.Terminal() {
					return nil
				}
			}
		}

		if err != nil {
			if err == io.EOF {
				return s.finish(callback)
			}
			if ctx.Err() != nil {
				return ErrTimeout
			}
			return &ClientError{Type: ErrTypeUnavailable, Message: "stream interrupted", Cause: err}
		}
	}
}

// finish flushes the assembler's pending buffer at end of body.
func (s *StreamReader) finish(callback assembler.Callback) error {
	for _, ev := range s.asm.Finish() {
		callback(ev)
		if ev.Type == assembler.EventError {
			return &ClientError{Type: ErrTypeStream, Message: ev.Text}
		}
	}
	return nil
}

// Answer returns the best text assembled so far.
func (s *StreamReader) Answer() string {
	return s.asm.Answer()
}

// Stats returns the assembler's stream statistics.
func (s *StreamReader) Stats() *assembler.Stats {
	return s.asm.Stats()
}
