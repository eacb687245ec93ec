// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package assembler

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// =============================================================================
// ASSEMBLER
// =============================================================================

// Assembler incrementally parses NDJSON chunks into events.
//
// Feed accepts chunks split at arbitrary byte boundaries; the
// unterminated tail of each chunk is held in a pending buffer until
// the closing newline arrives. Finish flushes that buffer. The same
// body always yields the same event sequence no matter how it was
// chunked.
type Assembler struct {
	// pending holds the bytes after the last newline seen so far.
	pending []byte

	// PERFORMANCE: strings.Builder avoids quadratic allocations
	answer strings.Builder

	// final is the latched response text once a done line arrives.
	final     string
	finalized bool

	// terminal is set by a final or error line; later lines are ignored.
	terminal bool

	// finished is set by Finish; later Feed calls are no-ops.
	finished bool

	stats *Stats
}

// New creates an Assembler ready to receive chunks.
func New() *Assembler {
	return &Assembler{
		stats: NewStats(),
	}
}

// Feed consumes one chunk and returns the events produced by every
// complete line it closed. Bytes after the last newline are buffered
// for the next call. Feed after Finish is a no-op.
func (a *Assembler) Feed(chunk []byte) []Event {
	if a.finished || len(chunk) == 0 {
		return nil
	}

	data := append(a.pending, chunk...)

	var events []Event
	start := 0
	for i := 0; i < len(data); i++ {
		if data[i] != '\n' {
			continue
		}
		if ev, ok := a.processLine(data[start:i]); ok {
			events = append(events, ev)
		}
		start = i + 1
	}

	// Retain the unterminated tail. Forward copy is safe even when
	// data aliases the pending buffer.
	a.pending = append(a.pending[:0], data[start:]...)

	return events
}

// Finish flushes the pending buffer. A complete frame that merely
// lacked its trailing newline still produces its event; truncated or
// malformed trailing bytes are discarded silently.
func (a *Assembler) Finish() []Event {
	if a.finished {
		return nil
	}
	a.finished = true

	var events []Event
	if len(a.pending) > 0 {
		if ev, ok := a.processLine(a.pending); ok {
			events = append(events, ev)
		}
		a.pending = a.pending[:0]
	}

	a.stats.Finalize()
	return events
}

// processLine classifies a single line and updates assembler state.
// The bool result reports whether an event was produced.
func (a *Assembler) processLine(line []byte) (Event, bool) {
	line = bytes.TrimSpace(line)

	// Skip blank lines
	if len(line) == 0 {
		return Event{}, false
	}

	// A final or error line ends the stream; whatever follows is noise.
	if a.terminal {
		return Event{}, false
	}

	var frame wireFrame
	if err := json.Unmarshal(line, &frame); err != nil {
		// Skip malformed lines
		return Event{}, false
	}

	// Classification order is fixed: a done response wins, then a token,
	// then an error. A line carrying several recognized fields is read as
	// the first match.
	switch {
	case frame.Response != nil && frame.Done:
		// RELIABILITY: the final answer latches and replaces whatever
		// the token accumulation produced.
		a.final = *frame.Response
		a.finalized = true
		a.terminal = true
		return Event{Type: EventFinal, Text: a.final}, true

	case frame.Token != nil:
		if a.answer.Len() == 0 && *frame.Token != "" {
			a.stats.RecordFirstToken()
		}
		a.answer.WriteString(*frame.Token)
		a.stats.RecordTokenLine()
		return Event{Type: EventToken, Text: a.answer.String()}, true

	case frame.Error != nil:
		a.terminal = true
		return Event{Type: EventError, Text: *frame.Error}, true

	default:
		// Valid JSON with no recognized field, includes a response
		// without done:true. Dropped like any other malformed line.
		return Event{}, false
	}
}

// Answer returns the best text available: the latched final response
// when one arrived, otherwise the token accumulation so far.
func (a *Assembler) Answer() string {
	if a.finalized {
		return a.final
	}
	return a.answer.String()
}

// Finalized reports whether a final response line has been seen.
func (a *Assembler) Finalized() bool {
	return a.finalized
}

// Terminal reports whether a final or error line ended the stream.
func (a *Assembler) Terminal() bool {
	return a.terminal
}

// PendingBytes returns how many unterminated bytes are buffered.
func (a *Assembler) PendingBytes() int {
	return len(a.pending)
}

// Stats returns the statistics collected so far.
func (a *Assembler) Stats() *Stats {
	return a.stats
}

// Reset restores the assembler to its initial state, keeping the
// allocated buffers.
func (a *Assembler) Reset() {
	a.pending = a.pending[:0]
	a.answer.Reset()
	a.final = ""
	a.finalized = false
	a.terminal = false
	a.finished = false
	a.stats = NewStats()
}

// =============================================================================
// STREAM STATISTICS
// =============================================================================

// Stats holds timing collected while assembling one stream.
type Stats struct {
	StartTime      time.Time
	FirstTokenTime time.Time
	EndTime        time.Time

	// TokenLines counts token frames, not model tokens; the wire
	// format does not expose real token counts.
	TokenLines int

	// Computed
	TTFT            time.Duration // Time to first token
	TokensPerSecond float64
}

// NewStats creates a Stats with the start time set.
func NewStats() *Stats {
	return &Stats{
		StartTime: time.Now(),
	}
}

// RecordFirstToken marks the time of first token arrival.
func (s *Stats) RecordFirstToken() {
	if s.FirstTokenTime.IsZero() {
		s.FirstTokenTime = time.Now()
		s.TTFT = s.FirstTokenTime.Sub(s.StartTime)
	}
}

// RecordTokenLine counts one token frame.
func (s *Stats) RecordTokenLine() {
	s.TokenLines++
}

// Finalize computes the derived figures at stream end.
func (s *Stats) Finalize() {
	if !s.EndTime.IsZero() {
		return
	}
	s.EndTime = time.Now()

	elapsed := s.EndTime.Sub(s.StartTime).Seconds()
	if elapsed > 0 {
		s.TokensPerSecond = float64(s.TokenLines) / elapsed
	}
}

// Format returns a one-line summary for status output.
func (s *Stats) Format() string {
	totalSec := s.EndTime.Sub(s.StartTime).Seconds()
	ttftMs := s.TTFT.Milliseconds()

	return formatStatsDuration(totalSec) + " | " +
		formatStatsInt(s.TokenLines) + " tokens | " +
		formatStatsFloat(s.TokensPerSecond) + " tok/s | " +
		"TTFT " + formatStatsInt(int(ttftMs)) + "ms"
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// formatStatsInt formats an integer without using fmt.
func formatStatsInt(n int) string {
	if n == 0 {
		return "0"
	}

	negative := n < 0
	if negative {
		n = -n
	}

	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}

	if negative {
		return "-" + string(digits)
	}
	return string(digits)
}

// formatStatsFloat formats a float with one decimal place.
func formatStatsFloat(f float64) string {
	whole := int(f)
	frac := int((f - float64(whole)) * 10)
	if frac < 0 {
		frac = -frac
	}
	return formatStatsInt(whole) + "." + formatStatsInt(frac)
}

// formatStatsDuration formats seconds as a short duration string.
func formatStatsDuration(seconds float64) string {
	if seconds < 1 {
		ms := int(seconds * 1000)
		return formatStatsInt(ms) + "ms"
	}
	return formatStatsFloat(seconds) + "s"
}
