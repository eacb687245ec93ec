// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package assembler

// =============================================================================
// EVENT MODEL
// =============================================================================

// EventType identifies what a stream line produced.
type EventType int

const (
	// EventToken is an incremental update. Text holds the full
	// accumulated answer so far, not just the newest fragment.
	EventToken EventType = iota

	// EventFinal is the authoritative complete answer. Terminal.
	EventFinal

	// EventError is a server-reported failure. Text holds the server's
	// message verbatim. Terminal.
	EventError
)

// String returns the event type name for logs and test failures.
func (t EventType) String() string {
	switch t {
	case EventToken:
		return "token"
	case EventFinal:
		return "final"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is a single parsed occurrence from the stream.
type Event struct {
	Type EventType
	Text string
}

// Terminal reports whether no further events can follow this one.
func (e Event) Terminal() bool {
	return e.Type == EventFinal || e.Type == EventError
}

// Callback receives events as they are assembled.
type Callback func(Event)

// wireFrame mirrors one NDJSON line from the answer service. Pointer
// fields distinguish an absent key from an empty string, which the
// line classification depends on.
type wireFrame struct {
	Token    *string `json:"token"`
	Response *string `json:"response"`
	Done     bool    `json:"done"`
	Error    *string `json:"error"`
}
