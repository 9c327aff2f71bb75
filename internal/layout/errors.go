package layout

import (
	"errors"
	"fmt"

	"docklayout/internal/config"
)

// AssertError reports a broken internal invariant. It is raised with
// panic: it always indicates a bug in the caller or in this package,
// never bad input.
type AssertError struct {
	Code    string
	Message string
}

func (e *AssertError) Error() string {
	if e.Message == "" {
		return "assertion failed: " + e.Code
	}
	return fmt.Sprintf("assertion failed: %s: %s", e.Code, e.Message)
}

func invariant(ok bool, code, format string, args ...any) {
	if !ok {
		panic(&AssertError{Code: code, Message: fmt.Sprintf(format, args...)})
	}
}

// PopoutBlockedError is returned when a pop-out window could not be
// opened and blockedPopoutsThrowError is set.
type PopoutBlockedError struct {
	Err error
}

func (e *PopoutBlockedError) Error() string {
	return "popout blocked: " + e.Err.Error()
}

func (e *PopoutBlockedError) Unwrap() error { return e.Err }

// ErrPopoutBlocked is what launchers return when no window can be opened.
var ErrPopoutBlocked = errors.New("window could not be opened")

// BindError reports a failure to bind a component to its container.
type BindError struct {
	ComponentType string
	Message       string
}

func (e *BindError) Error() string {
	if e.ComponentType == "" {
		return "bind error: " + e.Message
	}
	return fmt.Sprintf("bind error: %s: %s", e.ComponentType, e.Message)
}

// APIError reports a call that is not valid in the layout's current state.
type APIError struct {
	Op      string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func apiErr(op string, id config.TextID) error {
	return &APIError{Op: op, Message: config.Text(id)}
}
