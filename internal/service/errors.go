package service

import (
	"errors"
	"strings"
)

var (
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrUnauthorized       = errors.New("invalid authentication credentials")
)

type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, "; ")
}

// InvalidArgumentError reports a malformed query parameter. Message is shown
// to the caller unchanged.
type InvalidArgumentError struct {
	Message string
}

func (e *InvalidArgumentError) Error() string {
	return e.Message
}

func invalidArgument(msg string) error {
	return &InvalidArgumentError{Message: msg}
}
