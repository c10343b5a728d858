package service

import (
	"errors"
	"net/http"
)

// dependencyUnavailableError signals a component that is not loaded or not
// reachable so the HTTP layer can return 503 Service Unavailable instead of 500.
type dependencyUnavailableError struct {
	component string
	msg       string
	cause     error
}

func (e dependencyUnavailableError) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

func (e dependencyUnavailableError) Unwrap() error { return e.cause }

// PublicMessage is the client-facing text; the cause stays in logs.
func (e dependencyUnavailableError) PublicMessage() string { return e.msg }

// StatusCode implements the HTTP layer's status-bearing error contract.
func (e dependencyUnavailableError) StatusCode() int { return http.StatusServiceUnavailable }

// Component names the dependency that failed.
func (e dependencyUnavailableError) Component() string { return e.component }

// ErrDependencyUnavailable constructs a dependencyUnavailableError.
func ErrDependencyUnavailable(component, msg string) error {
	return dependencyUnavailableError{component: component, msg: msg}
}

func dependencyFailed(component, msg string, cause error) error {
	return dependencyUnavailableError{component: component, msg: msg, cause: cause}
}

// IsDependencyUnavailable reports whether err indicates a missing or failing dependency.
func IsDependencyUnavailable(err error) bool {
	var d dependencyUnavailableError
	return errors.As(err, &d)
}

// invalidInputError signals a client input problem (return 422).
type invalidInputError struct{ msg string }

func (e invalidInputError) Error() string { return e.msg }

func (e invalidInputError) StatusCode() int { return http.StatusUnprocessableEntity }

// ErrInvalidInput constructs an invalidInputError.
func ErrInvalidInput(msg string) error { return invalidInputError{msg: msg} }

// IsInvalidInput reports whether err was caused by client input.
func IsInvalidInput(err error) bool {
	var e invalidInputError
	return errors.As(err, &e)
}
