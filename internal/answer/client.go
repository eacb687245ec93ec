// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package answer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/jeranaias/answerline/internal/assembler"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// TransportUserMessage is the single message shown to users for any
// transport-level failure. The underlying cause goes to verbose output
// only; users should never have to triage a refused connection versus
// a timeout versus a 502.
const TransportUserMessage = "The answer service is unreachable. Check your connection and try again."

// ClientError represents an error from the answer client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeUnavailable
	ErrTypeTimeout
	ErrTypeStream
	ErrTypeInvalidResponse
)

// Sentinel errors for easy checking.
var (
	ErrUnavailable = &ClientError{Type: ErrTypeUnavailable, Message: "answer service is unreachable"}
	ErrTimeout     = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
)

// IsTransport checks if an error is a transport-level failure
// (unreachable service, timeout, bad status, dropped body).
func IsTransport(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeUnavailable ||
			clientErr.Type == ErrTypeTimeout ||
			clientErr.Type == ErrTypeInvalidResponse
	}
	return false
}

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeTimeout
	}
	return errors.Is(err, ErrTimeout)
}

// IsStreamError checks if an error is a server-reported stream error.
func IsStreamError(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeStream
	}
	return false
}

// UserMessage maps an error to the text users should see. Stream
// errors pass the server's message through verbatim; every transport
// failure collapses to one fixed message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var clientErr *ClientError
	if errors.As(err, &clientErr) && clientErr.Type == ErrTypeStream {
		return clientErr.Message
	}
	if IsTransport(err) {
		return TransportUserMessage
	}
	return err.Error()
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the answer client.
type ClientConfig struct {
	// BaseURL is the answer service base URL (default: http://127.0.0.1:8080)
	BaseURL string

	// APIKey is sent as a bearer token when non-empty.
	APIKey string

	// Timeout for non-streaming requests such as the reachability
	// probe (default: 30s). Streaming requests ignore it and rely on
	// the caller's context.
	Timeout time.Duration

	// RequestsPerSecond throttles outgoing asks client-side.
	// Zero disables the limiter.
	RequestsPerSecond float64

	// Burst is the limiter burst size (default: 1 when limiting).
	Burst int
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL: "http://127.0.0.1:8080",
		Timeout: 30 * time.Second,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the answer service.
//
// The Client is thread-safe for concurrent use.
//
// Example:
//
//	client := answer.NewClient()
//	if err := client.CheckReachable(ctx); err != nil {
//	    log.Fatal(answer.UserMessage(err))
//	}
//	text, err := client.Ask(ctx, "what is NDJSON?")
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a new answer client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a new answer client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	// Fill in defaults for any zero values
	if config.BaseURL == "" {
		config.BaseURL = "http://127.0.0.1:8080"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	var limiter *rate.Limiter
	if config.RequestsPerSecond > 0 {
		burst := config.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), burst)
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: limiter,
	}
}

// GetConfig returns the client configuration.
func (c *Client) GetConfig() *ClientConfig {
	return c.config
}

// =============================================================================
// HEALTH CHECK
// =============================================================================

// CheckReachable verifies that the answer service responds at all.
func (c *Client) CheckReachable(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL, nil)
	if err != nil {
		return &ClientError{Type: ErrTypeUnavailable, Message: "failed to create request", Cause: err}
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrTimeout
		}
		return ErrUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return &ClientError{
			Type:    ErrTypeUnavailable,
			Message: "unexpected status from answer service: " + resp.Status,
		}
	}

	return nil
}

// =============================================================================
// STREAMING ASK
// =============================================================================

// AskStream POSTs a question and feeds the NDJSON response through an
// assembler, invoking the callback for each event in arrival order.
//
// The streaming request is bounded only by the caller's context, so
// long generations are not cut off mid-answer; ClientConfig.Timeout
// applies to CheckReachable, not here. Returns a stream error when the
// server sent an error frame, a transport error when the body dropped,
// nil on a clean finish.
func (c *Client) AskStream(ctx context.Context, question string, callback assembler.Callback) error {
	return c.stream(ctx, AskRequest{Question: question}, callback)
}

// AskStreamSession is AskStream with a session identifier attached so
// the service can correlate follow-up questions in a conversation.
func (c *Client) AskStreamSession(ctx context.Context, question, sessionID string, callback assembler.Callback) error {
	return c.stream(ctx, AskRequest{Question: question, SessionID: sessionID}, callback)
}

func (c *Client) stream(ctx context.Context, askReq AskRequest, callback assembler.Callback) error {
	if err := c.waitLimiter(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(askReq)
	if err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	// Use a client without timeout for streaming; the context owns
	// cancellation once the body is open.
	streamClient := &http.Client{}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/ask", bytes.NewReader(body))
	if err != nil {
		return &ClientError{Type: ErrTypeUnavailable, Message: "failed to create request", Cause: err}
	}
	c.setHeaders(req)

	resp, err := streamClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return ErrTimeout
		}
		return &ClientError{Type: ErrTypeUnavailable, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// The error body detail is kept for verbose output; the user
		// message stays fixed either way.
		var svcErr ServiceError
		if err := json.NewDecoder(resp.Body).Decode(&svcErr); err == nil && svcErr.Error != "" {
			return &ClientError{
				Type:    ErrTypeInvalidResponse,
				Message: "ask request failed: " + resp.Status + " (" + svcErr.Error + ")",
			}
		}
		return &ClientError{
			Type:    ErrTypeInvalidResponse,
			Message: "ask request failed: " + resp.Status,
		}
	}

	reader := NewStreamReader(resp.Body)
	return reader.Process(ctx, callback)
}

// Ask is the blocking convenience wrapper: it runs the stream to
// completion and returns the final answer text.
func (c *Client) Ask(ctx context.Context, question string) (string, error) {
	var last string
	err := c.AskStream(ctx, question, func(ev assembler.Event) {
		if ev.Type == assembler.EventToken || ev.Type == assembler.EventFinal {
			last = ev.Text
		}
	})
	if err != nil {
		return "", err
	}
	return last, nil
}

// AskStreamChan runs AskStream in a goroutine and delivers events on a
// channel. The channel closes when the stream ends; a non-nil error is
// sent on the error channel first.
func (c *Client) AskStreamChan(ctx context.Context, question string) (<-chan assembler.Event, <-chan error) {
	events := make(chan assembler.Event)
	errc := make(chan error, 1)

	go func() {
		defer close(events)
		defer close(errc)

		err := c.AskStream(ctx, question, func(ev assembler.Event) {
			select {
			case events <- ev:
			case <-ctx.Done():
			}
		})
		if err != nil {
			errc <- err
		}
	}()

	return events, errc
}

// =============================================================================
// INTERNAL HELPERS
// =============================================================================

// setHeaders applies the shared request headers: content type, bearer
// auth when configured, and a request ID for server-side correlation.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/x-ndjson")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}
}

// waitLimiter blocks until the client-side rate limiter admits the
// request, or the context ends first.
func (c *Client) waitLimiter(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return ErrTimeout
	}
	return nil
}
