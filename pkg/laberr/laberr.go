// Package laberr defines the typed failure kinds returned by the lab
// workflow core. Every kind is recoverable at the caller; handlers map
// them to HTTP statuses with Status.
package laberr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// NotFoundError reports that a requested entity does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// NotFound builds a NotFoundError for the given entity kind and identifier.
func NotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// ReferenceNotFoundError reports that a foreign reference supplied at
// creation time does not resolve to an existing entity.
type ReferenceNotFoundError struct {
	Entity string
	ID     string
}

func (e *ReferenceNotFoundError) Error() string {
	return fmt.Sprintf("referenced %s %s does not exist", e.Entity, e.ID)
}

// ReferenceNotFound builds a ReferenceNotFoundError.
func ReferenceNotFound(entity, id string) error {
	return &ReferenceNotFoundError{Entity: entity, ID: id}
}

// InvalidTransitionError reports a state machine violation.
type InvalidTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s transition from %s to %s", e.Entity, e.From, e.To)
}

// InvalidTransition builds an InvalidTransitionError.
func InvalidTransition(entity, from, to string) error {
	return &InvalidTransitionError{Entity: entity, From: from, To: to}
}

// DeniedError reports an authorization failure. Missing lists the
// permissions the actor lacked, when the denial is permission-based.
type DeniedError struct {
	Reason  string
	Missing []string
}

func (e *DeniedError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("denied: missing permission(s) %s", strings.Join(e.Missing, ", "))
	}
	return "denied: " + e.Reason
}

// Denied builds a DeniedError with a free-text reason.
func Denied(reason string) error {
	return &DeniedError{Reason: reason}
}

// DeniedMissing builds a DeniedError carrying the missing permissions.
func DeniedMissing(missing []string) error {
	return &DeniedError{Missing: missing}
}

// AllocationExhaustedError reports that a fixed-width sequential
// identifier space has no values left.
type AllocationExhaustedError struct {
	Kind  string
	Limit int64
}

func (e *AllocationExhaustedError) Error() string {
	return fmt.Sprintf("%s identifier space exhausted (limit %d)", e.Kind, e.Limit)
}

// AllocationExhausted builds an AllocationExhaustedError.
func AllocationExhausted(kind string, limit int64) error {
	return &AllocationExhaustedError{Kind: kind, Limit: limit}
}

// ValidationError reports a field-level validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validation builds a ValidationError for the given field.
func Validation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

// IsDenied reports whether err is a DeniedError.
func IsDenied(err error) bool {
	var e *DeniedError
	return errors.As(err, &e)
}

// Status maps a core failure to an HTTP status code. Unknown errors map
// to 500.
func Status(err error) int {
	var (
		nf *NotFoundError
		rf *ReferenceNotFoundError
		it *InvalidTransitionError
		de *DeniedError
		ae *AllocationExhaustedError
		ve *ValidationError
	)
	switch {
	case errors.As(err, &nf):
		return http.StatusNotFound
	case errors.As(err, &rf):
		return http.StatusUnprocessableEntity
	case errors.As(err, &it):
		return http.StatusConflict
	case errors.As(err, &de):
		return http.StatusForbidden
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &ae):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
