package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure for callers and the HTTP boundary.
type ErrorKind string

const (
	KindValidation      ErrorKind = "validation"
	KindAuthorization   ErrorKind = "authorization"
	KindUnauthenticated ErrorKind = "unauthenticated"
	KindNotFound        ErrorKind = "not_found"
	KindConflict        ErrorKind = "conflict"
	KindIncomplete      ErrorKind = "incomplete"
	KindUpstream        ErrorKind = "upstream"
	KindInternal        ErrorKind = "internal"
)

// Stable error codes callers can branch on.
const (
	CodeInvalidInput        = "InvalidInput"
	CodeInvalidPeriod       = "InvalidPeriod"
	CodeAlreadyClaimed      = "AlreadyClaimed"
	CodeNoEligibleDays      = "NoEligibleDays"
	CodePeriodIncomplete    = "PeriodIncomplete"
	CodeIncompleteGrants    = "IncompleteGrants"
	CodeForbidden           = "Forbidden"
	CodeOutOfWindow         = "OutOfWindow"
	CodeInvalidChallenge    = "InvalidChallenge"
	CodeAlreadySelected     = "AlreadySelected"
	CodeRepeatedPair        = "RepeatedPair"
	CodeDuplicateGrant      = "DuplicateGrant"
	CodeInsufficientBalance = "InsufficientBalance"
	CodeNotFound            = "NotFound"
	CodeUnauthenticated     = "Unauthenticated"
	CodeUpstreamError       = "UpstreamError"
	CodePartialFailure      = "PartialFailure"
)

// Error is a classified domain failure with structured details.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Details map[string]any
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.err }

// E builds a classified error.
func E(kind ErrorKind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// With attaches a detail field and returns the error for chaining.
func (e *Error) With(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// Wrap records the underlying cause.
func (e *Error) Wrap(err error) *Error {
	e.err = err
	return e
}

// KindOf extracts the classification of an error; unclassified errors
// are internal.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf extracts the stable code of an error, or empty for
// unclassified errors.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Internal wraps a store or infrastructure failure that has no domain
// meaning beyond "it broke", keeping the underlying message as detail.
func Internal(op string, err error) *Error {
	return E(KindInternal, "Internal", op).Wrap(err)
}
