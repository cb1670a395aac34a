// Package apperr classifies failures so callers can pick a recovery policy
// (cache fallback, skip, or surface) without string matching.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	Unknown Kind = iota
	ConfigMissing
	QuotaExceeded
	UpstreamPermission
	UpstreamConfig
	UpstreamTransient
	ParseFailure
	IOError
	InvalidInput
)

func (k Kind) String() string {
	switch k {
	case ConfigMissing:
		return "config_missing"
	case QuotaExceeded:
		return "quota_exceeded"
	case UpstreamPermission:
		return "upstream_permission"
	case UpstreamConfig:
		return "upstream_config"
	case UpstreamTransient:
		return "upstream_transient"
	case ParseFailure:
		return "parse_failure"
	case IOError:
		return "io_error"
	case InvalidInput:
		return "invalid_input"
	default:
		return "unknown"
	}
}

// Error carries a Kind plus an optional remediation hint for the user.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Hint    string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// WithHint returns a copy of e carrying hint.
func (e *Error) WithHint(hint string) *Error {
	cp := *e
	cp.Hint = hint
	return &cp
}

// KindOf returns the Kind of the first *Error in err's chain, or Unknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HintOf returns the remediation hint attached to err, if any.
func HintOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Hint
	}
	return ""
}
