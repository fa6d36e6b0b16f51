package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a language-model failure.
type Kind string

const (
	KindOverloaded     Kind = "overloaded"
	KindRateLimited    Kind = "rate_limited"
	KindAuth           Kind = "auth"
	KindContextTooLong Kind = "context_too_long"
	KindInvalidRequest Kind = "invalid_request"
	KindTimeout        Kind = "timeout"
	KindUnavailable    Kind = "unavailable"
	KindUnknown        Kind = "unknown"
)

// ErrLimitExceeded is wrapped by rate-limited errors raised locally, before
// any request leaves the process.
var ErrLimitExceeded = errors.New("language model budget exhausted")

// Error is a classified failure from the language-model backend.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("llm %s (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("llm %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the classification of err. Unclassified errors report
// KindUnknown; a nil error reports "".
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTimeout
	}
	return KindUnknown
}

type apiErrorBody struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// classify maps a non-200 response to an Error.
func classify(status int, body []byte) *Error {
	var parsed apiErrorBody
	_ = json.Unmarshal(body, &parsed)

	msg := parsed.Error.Message
	if msg == "" {
		msg = strings.TrimSpace(string(body))
		if len(msg) > 300 {
			msg = msg[:300]
		}
	}
	errType := parsed.Error.Type
	lowerMsg := strings.ToLower(msg)

	kind := KindUnknown
	switch {
	case status == 529 || errType == "overloaded_error":
		kind = KindOverloaded
	case status == http.StatusTooManyRequests || errType == "rate_limit_error":
		kind = KindRateLimited
	case status == http.StatusUnauthorized || status == http.StatusForbidden ||
		errType == "authentication_error" || errType == "permission_error":
		kind = KindAuth
	case status == http.StatusRequestEntityTooLarge || errType == "request_too_large" ||
		strings.Contains(lowerMsg, "prompt is too long") || strings.Contains(lowerMsg, "context length") ||
		strings.Contains(lowerMsg, "too many tokens"):
		kind = KindContextTooLong
	case status == http.StatusBadRequest || errType == "invalid_request_error":
		kind = KindInvalidRequest
	case status >= 500:
		kind = KindUnavailable
	}

	return &Error{Kind: kind, StatusCode: status, Message: msg}
}
