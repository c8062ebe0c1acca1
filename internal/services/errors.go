package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrTaskNotFound       = errors.New("task not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("no active account found with the given credentials")
	ErrInvalidToken       = errors.New("token is invalid or expired")
	ErrUnauthenticated    = errors.New("authentication credentials were not provided")
	ErrInvalidPage        = errors.New("invalid page")
)

// Field error messages shared with the serializers.
const (
	MsgRequired      = "This field is required."
	MsgBlank         = "This field may not be blank."
	MsgNull          = "This field may not be null."
	MsgInvalidChoice = "Select a valid choice. That choice is not one of the available choices."
	MsgUsernameTaken = "A user with that username already exists."
	MsgEmailTaken    = "user with this email already exists."
	MsgInvalidEmail  = "Enter a valid email address."
	MsgInvalidToken  = "Token is invalid or expired"
	MsgUsernameChars = "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	MsgNumericPwd    = "This password is entirely numeric."
	MsgPasswordLong  = "This password is too long. It must contain at most 72 bytes."
)

func MsgMaxLength(n int) string {
	return fmt.Sprintf("Ensure this field has no more than %d characters.", n)
}

func MsgMinPasswordLength(n int) string {
	return fmt.Sprintf("This password is too short. It must contain at least %d characters.", n)
}

// ValidationError carries per-field messages for a rejected input.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

func FieldError(field, msg string) *ValidationError {
	v := NewValidationError()
	v.Add(field, msg)
	return v
}

func (e *ValidationError) Add(field, msg string) {
	e.Fields[field] = append(e.Fields[field], msg)
}

func (e *ValidationError) Has(field string) bool {
	return len(e.Fields[field]) > 0
}

func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(e.Fields[f], " "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// errOrNil returns e as an error only when it holds messages.
func (e *ValidationError) errOrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}
