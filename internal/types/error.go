package types

import (
	"errors"
	"fmt"
)

// Startup error categories. Every startup failure wraps exactly one of these.
var (
	ErrMissingArgument    = errors.New("missing argument")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrUnsupportedBackend = errors.New("bad db type")
	ErrBadCredentials     = errors.New("bad credentials")
	ErrServe              = errors.New("failed to run server")
)

// Process exit codes
const (
	ExitFailure     = 1
	ExitUsage       = 2
	ExitCredentials = 3
	ExitServe       = 4
)

// MissingArgumentError reports a required flag that was not supplied.
type MissingArgumentError struct {
	Field string
}

func (e *MissingArgumentError) Error() string {
	return fmt.Sprintf("%s is missing", e.Field)
}

func (e *MissingArgumentError) Is(target error) bool {
	return target == ErrMissingArgument
}

// InvalidArgumentError reports a supplied flag whose value was rejected.
type InvalidArgumentError struct {
	Field string
	Value string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Field, e.Value)
}

func (e *InvalidArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// ExitCode maps a startup error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrMissingArgument),
		errors.Is(err, ErrInvalidArgument),
		errors.Is(err, ErrUnsupportedBackend):
		return ExitUsage
	case errors.Is(err, ErrBadCredentials):
		return ExitCredentials
	case errors.Is(err, ErrServe):
		return ExitServe
	}
	return ExitFailure
}
