// Package fault defines the error taxonomy shared by the triage pipeline:
// not-found, validation, external-service and degraded-classification
// failures. Callers branch on kind via the Is* predicates instead of
// matching error strings.
package fault

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// KindNotFound: a referenced user, task, message or domain is absent.
	KindNotFound Kind = iota + 1
	// KindValidation: a precondition failed (nil message, message already
	// processed, invalid state transition). Never retried.
	KindValidation
	// KindExternal: the mail connector or the agent service failed.
	KindExternal
	// KindDegraded: the agent answered but the response was unusable; the
	// operation completed with a conservative fallback.
	KindDegraded
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindExternal:
		return "external_service"
	case KindDegraded:
		return "degraded_classification"
	}
	return "unknown"
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func NotFoundf(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func Validationf(format string, args ...any) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// Externalf wraps a connector or agent failure. The wrapped error stays
// reachable through errors.Is/As.
func Externalf(err error, format string, args ...any) error {
	return &Error{Kind: KindExternal, Msg: fmt.Sprintf(format, args...), Err: err}
}

func Degradedf(err error, format string, args ...any) error {
	return &Error{Kind: KindDegraded, Msg: fmt.Sprintf(format, args...), Err: err}
}

func isKind(err error, k Kind) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind == k
	}
	return false
}

func IsNotFound(err error) bool   { return isKind(err, KindNotFound) }
func IsValidation(err error) bool { return isKind(err, KindValidation) }
func IsExternal(err error) bool   { return isKind(err, KindExternal) }
func IsDegraded(err error) bool   { return isKind(err, KindDegraded) }
