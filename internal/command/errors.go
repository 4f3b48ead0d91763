package command

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownCommand   = errors.New("unknown command")
	ErrDuplicateCommand = errors.New("duplicate command")
	ErrPermissionDenied = errors.New("permission denied")
)

// ArgumentError reports a parameter that could not be parsed or validated.
type ArgumentError struct {
	Param  string
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("argument %q: %s", e.Param, e.Reason)
}

// RemoteError wraps a failure from the chat platform API.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// NotConfiguredError reports a feature whose required channel or setting is
// missing.
type NotConfiguredError struct {
	What string
}

func (e *NotConfiguredError) Error() string {
	return fmt.Sprintf("%s is not configured", e.What)
}
