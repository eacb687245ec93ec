// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package answer

// =============================================================================
// REQUEST TYPES
// =============================================================================

// AskRequest is the JSON body POSTed to the answer endpoint.
type AskRequest struct {
	Question string `json:"question"`

	// SessionID groups follow-up questions server-side. Optional.
	SessionID string `json:"session_id,omitempty"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// ServiceError is the JSON error body returned on non-2xx responses.
// The same shape the stream uses for error frames.
type ServiceError struct {
	Error string `json:"error"`
}
