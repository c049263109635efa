// Package provider abstracts the LLM completion service behind a small,
// typed contract: a call yields either a Completion or a classified *Error.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a provider failure.
type Kind string

const (
	KindQuota Kind = "quota" // quota exhausted or rate limited
	KindAuth  Kind = "auth"  // credential rejected
	KindOther Kind = "other"
)

// Completion is the result of a single completion call.
type Completion struct {
	Text string
	// Raw is the undecoded provider payload. Only used when Text is empty.
	Raw string
}

// String returns the answer text, falling back to the raw payload when the
// provider returned a shape without a text part.
func (c Completion) String() string {
	if c.Text != "" {
		return c.Text
	}
	return c.Raw
}

// Completer sends one prompt and returns the provider's answer.
// Implementations must be safe for concurrent use.
type Completer interface {
	Complete(ctx context.Context, prompt string) (Completion, error)
}

// Factory builds a Completer for the given credential. It must not perform a
// network call; diagnostics use it to check that a client can be constructed.
type Factory func(apiKey string) (Completer, error)

// ErrMissingCredential is returned by factories when apiKey is empty.
var ErrMissingCredential = errors.New("provider credential is not set")

// Error is a classified provider failure.
type Error struct {
	Kind       Kind
	StatusCode int    // HTTP status if known, 0 otherwise
	Code       string // provider error code, e.g. "insufficient_quota"
	Message    string
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("provider error")
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " status=%d", e.StatusCode)
	}
	if e.Code != "" {
		fmt.Fprintf(&b, " code=%s", e.Code)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Classify returns the Kind of err. Structured *Error values are trusted
// first; anything else is classified by message text.
func Classify(err error) Kind {
	if err == nil {
		return ""
	}
	var pe *Error
	if errors.As(err, &pe) && pe.Kind != "" && pe.Kind != KindOther {
		return pe.Kind
	}
	return classifyMessage(err.Error())
}

// classifyMessage is the substring fallback for errors that carry no
// structured code.
func classifyMessage(msg string) Kind {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "insufficient_quota"):
		return KindQuota
	case strings.Contains(lower, "invalid api key"),
		strings.Contains(lower, "invalid_api_key"),
		strings.Contains(lower, "incorrect api key"):
		return KindAuth
	default:
		return KindOther
	}
}

// kindForStatus maps an HTTP status and provider code to a Kind.
func kindForStatus(status int, code, message string) Kind {
	switch {
	case code == "insufficient_quota":
		return KindQuota
	case code == "invalid_api_key", status == 401:
		return KindAuth
	case status == 402, status == 429:
		return KindQuota
	}
	return classifyMessage(code + " " + message)
}
