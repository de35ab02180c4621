package openai

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"profileai/internal/domain"
)

const maxMessageBytes = 300

// ErrorKind classifies why an inference call failed.
type ErrorKind string

const (
	KindInvalidCredential ErrorKind = "invalid_credential"
	KindQuotaExceeded     ErrorKind = "quota_exceeded"
	KindUpstreamFault     ErrorKind = "upstream_fault"
	KindTransport         ErrorKind = "transport"
	KindUnknown           ErrorKind = "unknown"
)

// InferenceError is returned for every failed call to the inference API.
// It matches domain.ErrInference.
type InferenceError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *InferenceError) Error() string {
	var sb strings.Builder
	sb.WriteString("openai: ")
	sb.WriteString(string(e.Kind))
	if e.StatusCode != 0 {
		fmt.Fprintf(&sb, " (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	} else if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *InferenceError) Unwrap() error { return e.Err }

func (e *InferenceError) Is(target error) bool { return target == domain.ErrInference }

// AsInferenceError extracts an *InferenceError from err.
func AsInferenceError(err error) (*InferenceError, bool) {
	var ie *InferenceError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}

type apiErrorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// statusError builds the classified error for a non-2xx reply.
func statusError(status int, body []byte) *InferenceError {
	var parsed apiErrorBody
	_ = json.Unmarshal(body, &parsed)
	message := strings.TrimSpace(parsed.Error.Message)
	if message == "" {
		message = strings.TrimSpace(string(body))
		message = truncate(message, maxMessageBytes)
	}
	if message == "" {
		message = http.StatusText(status)
	}
	kind := classifyStatus(status)
	if code, _ := parsed.Error.Code.(string); code == "insufficient_quota" {
		kind = KindQuotaExceeded
	}
	return &InferenceError{Kind: kind, StatusCode: status, Message: message}
}

func classifyStatus(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindInvalidCredential
	case status == http.StatusTooManyRequests:
		return KindQuotaExceeded
	case status >= 500:
		return KindUpstreamFault
	default:
		return KindUnknown
	}
}
