package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrUserPasswordMismatch = errors.New("user password mismatch")
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionExpired       = errors.New("session expired")
)

// Error kinds raised by the list engine. Match them with errors.Is.
var (
	// ErrAccess covers both a missing resource and a caller who is not a
	// member of it, so non-members cannot tell whether it exists.
	ErrAccess = errors.New("access error")
	// ErrValidation is a schema-level rejection of the entity or patch.
	ErrValidation = errors.New("validation error")
	// ErrPermissions means the caller may see the resource but not act on
	// the narrower object requested.
	ErrPermissions = errors.New("permissions error")
)

const (
	msgInvalidListID            = "Invalid List ID"
	msgInvalidTaskID            = "Invalid Task ID"
	msgInvalidUserID            = "Invalid user ID"
	msgInvalidTasksModification = "Invalid modification of tasks"
	msgUnauthorizedList         = "User is not authorized to access list"
	msgUnauthorizedTask         = "User is not authorized to access task"
	msgOwnerRemoval             = "The list owner cannot be removed from members"
	msgImmutableFieldFormat     = "Field %s cannot be modified"
	msgValidationFailed         = "Validation failed"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is returned for every rejected engine operation.
type Error struct {
	Kind   error
	Msg    string
	Fields []FieldError
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	fields := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		fields[i] = f.Field + ": " + f.Message
	}
	return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Msg, strings.Join(fields, "; "))
}

func (e *Error) Unwrap() error { return e.Kind }

func accessError(msg string) error {
	return &Error{Kind: ErrAccess, Msg: msg}
}

func permissionsError(msg string) error {
	return &Error{Kind: ErrPermissions, Msg: msg}
}

func validationError(msg string, fields ...FieldError) error {
	return &Error{Kind: ErrValidation, Msg: msg, Fields: fields}
}

// Message returns the human readable part of an engine error, or "" for
// anything else.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return ""
}

// Fields returns the field-level details of a validation error.
func Fields(err error) []FieldError {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}
