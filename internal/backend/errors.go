package backend

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotConnected is returned when the backend reports a connection as
// inactive, or when an operation needs a confirmed connection and none
// is active.
var ErrNotConnected = errors.New("jira connection is not active")

// Kind classifies a backend failure.
type Kind int

const (
	// KindNetwork covers transport failures and unexpected server responses.
	KindNetwork Kind = iota
	// KindNotFound means the backend does not know the requested resource.
	KindNotFound
	// KindValidation means the request was rejected as invalid, either
	// locally before sending or by the backend (400/422).
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindValidation:
		return "validation"
	default:
		return "network"
	}
}

// Error is returned by Client operations.
type Error struct {
	Kind Kind

	// Op names the failed operation (e.g. "check status").
	Op string

	// StatusCode is the HTTP status, zero for transport or local errors.
	StatusCode int

	// Detail is the human-readable message from the backend's error
	// payload, or the local validation message.
	Detail string

	// Err is the underlying transport error, if any.
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s error", e.Op, e.Kind)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (%d)", e.StatusCode)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewValidationError builds a local validation failure for op.
func NewValidationError(op, detail string) *Error {
	return &Error{Kind: KindValidation, Op: op, Detail: detail}
}

func isKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// IsNotFound reports whether err (or any error in its chain) is a
// not-found backend error.
func IsNotFound(err error) bool {
	return isKind(err, KindNotFound)
}

// IsValidation reports whether err (or any error in its chain) is a
// validation error, local or from the backend.
func IsValidation(err error) bool {
	return isKind(err, KindValidation)
}

// IsNetwork reports whether err (or any error in its chain) is a
// transport or server failure.
func IsNetwork(err error) bool {
	return isKind(err, KindNetwork)
}

// Message extracts a message suitable for showing to the user: the
// backend's detail when present, otherwise fallback.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Detail != "" {
		return e.Detail
	}
	return fallback
}
