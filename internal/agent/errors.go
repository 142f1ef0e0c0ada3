package agent

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a signing failure. Every kind is terminal for the request.
type Kind string

const (
	KindUnauthorized     Kind = "UNAUTHORIZED"
	KindBadRequest       Kind = "BAD_REQUEST"
	KindEncoding         Kind = "ENCODING_ERROR"
	KindChainUnavailable Kind = "CHAIN_UNAVAILABLE"
	KindSigning          Kind = "SIGNING_ERROR"
)

// Error is returned by all Service operations. Msg is safe to show to callers,
// Err carries the internal cause and is only logged.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

var (
	ErrUnauthorized     = &Error{Kind: KindUnauthorized, Msg: "Unauthorized"}
	ErrBadRequest       = &Error{Kind: KindBadRequest, Msg: "Bad request"}
	ErrEncoding         = &Error{Kind: KindEncoding, Msg: "Failed to encode contract call"}
	ErrChainUnavailable = &Error{Kind: KindChainUnavailable, Msg: "Chain unavailable"}
	ErrSigning          = &Error{Kind: KindSigning, Msg: "Failed to sign transaction"}
)

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Kind only, so errors.Is(err, ErrChainUnavailable) holds for any chain failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Retryable reports whether the caller may retry the identical request later.
func (e *Error) Retryable() bool {
	return e.Kind == KindChainUnavailable
}

func newError(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: cause}
}

func badRequest(format string, args ...any) *Error {
	return newError(KindBadRequest, nil, format, args...)
}

func chainUnavailable(cause error, msg string) *Error {
	return newError(KindChainUnavailable, cause, "%s", msg)
}

func encodingError(cause error, msg string) *Error {
	return newError(KindEncoding, cause, "%s", msg)
}

func signingError(cause error, msg string) *Error {
	return newError(KindSigning, cause, "%s", msg)
}

// AsError extracts the classified error from err. Unclassified errors are reported as signing failures.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return signingError(err, ErrSigning.Msg)
}
