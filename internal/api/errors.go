package api

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	// KindNetwork covers transport failures, unreadable bodies and an open
	// circuit breaker.
	KindNetwork Kind = iota
	// KindHTTP is a non-2xx response without a usable error message.
	KindHTTP
	KindRateLimited
	// KindApplication is a response whose body carries error or message.
	KindApplication
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindHTTP:
		return "http"
	case KindRateLimited:
		return "rate_limited"
	case KindApplication:
		return "application"
	default:
		return "unknown"
	}
}

const DefaultRateLimitMessage = "Too many requests. Please slow down."

type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s error: status %d", e.Kind, e.StatusCode)
	default:
		return fmt.Sprintf("%s error", e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// UserMessage returns the text shown to the user, or fallback when the
// server gave no message.
func (e *Error) UserMessage(fallback string) string {
	if e.Message != "" {
		return e.Message
	}
	return fallback
}

// KindOf reports the taxonomy kind of err. Errors that did not come from
// the client are treated as network failures.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindNetwork
}

func IsRateLimited(err error) bool {
	return err != nil && KindOf(err) == KindRateLimited
}

// MessageOf is the user-facing text for err: the server message for
// application and rate-limit errors, otherwise fallback.
func MessageOf(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage(fallback)
	}
	return fallback
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// classify turns a decoded response into an *Error, or nil when the
// response is a success. A 2xx body that still carries "error" is an
// application error.
func classify(status int, body errorBody) error {
	switch {
	case status == http.StatusTooManyRequests:
		msg := body.Message
		if msg == "" {
			msg = DefaultRateLimitMessage
		}
		return &Error{Kind: KindRateLimited, StatusCode: status, Message: msg}
	case status < 200 || status > 299:
		if msg := firstNonEmpty(body.Error, body.Message); msg != "" {
			return &Error{Kind: KindApplication, StatusCode: status, Message: msg}
		}
		return &Error{Kind: KindHTTP, StatusCode: status}
	case body.Error != "":
		return &Error{Kind: KindApplication, StatusCode: status, Message: body.Error}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
