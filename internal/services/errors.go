package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies domain failures so handlers can map them to HTTP
// status codes without string matching.
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindNotFound
	KindUserNotFound
	KindAlreadyCollaborator
	KindAlreadyAccepted
	KindEntityCompleted
	KindDateConflict
	KindInconsistentReference
	KindWriteFailed
)

// DomainError carries an error kind plus a human-readable message. All
// operation failures are surfaced as values of this type; none are fatal.
type DomainError struct {
	Kind    ErrorKind
	Message string
}

func (e *DomainError) Error() string { return e.Message }

func newError(kind ErrorKind, format string, args ...interface{}) *DomainError {
	return &DomainError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err is a DomainError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Kind == kind
}

// KindOf returns the error kind, or 0 for non-domain errors.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}
