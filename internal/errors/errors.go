// Package errors defines typed errors with categories for user-friendly reporting.
// It provides a structured approach to error handling with machine-readable error kinds
// and human-friendly messages. Sign-in and session-restore failures are reported
// through these kinds so the command layer can decide how to present them.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// SignInNetwork indicates the sign-in request never produced a response.
	SignInNetwork Kind = "network"
	// SignInRejected indicates the API answered the sign-in with a non-2xx status.
	SignInRejected Kind = "rejected"
	// SignInMalformed indicates the sign-in response lacked required fields.
	SignInMalformed Kind = "malformed"
	// SignInStorage indicates the issued tokens could not be stored.
	SignInStorage Kind = "storage"
	// RestoreFailed indicates the stored session could not be restored.
	RestoreFailed Kind = "restore_failed"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *E) Unwrap() error { return e.Err }

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// KindOf returns the kind of the first *E in err's chain, or "" when there is none.
func KindOf(err error) Kind {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}
