package core

import (
	"errors"
	"fmt"
)

// Code categorizes failures raised by agents and clans.
type Code string

const (
	CodeTurnLimitExceeded       Code = "TURN_LIMIT_EXCEEDED"
	CodeModelBackend            Code = "MODEL_BACKEND_ERROR"
	CodeUnrecoverableParseError Code = "UNRECOVERABLE_PARSE_ERROR"
	CodePlanningFailed          Code = "PLANNING_FAILED"
	CodeUnknownAgent            Code = "UNKNOWN_AGENT"
	CodeEmptyTask               Code = "EMPTY_TASK"
	CodeUserChannel             Code = "USER_CHANNEL_ERROR"
	CodeInvalidConfig           Code = "INVALID_CONFIG"
	CodeAgentBusy               Code = "AGENT_BUSY"
)

// Sentinels for errors.Is comparisons. Matching is by Code only.
var (
	ErrTurnLimitExceeded  = &Error{Code: CodeTurnLimitExceeded}
	ErrModelBackend       = &Error{Code: CodeModelBackend}
	ErrUnrecoverableParse = &Error{Code: CodeUnrecoverableParseError}
	ErrPlanningFailed     = &Error{Code: CodePlanningFailed}
	ErrUnknownAgent       = &Error{Code: CodeUnknownAgent}
	ErrEmptyTask          = &Error{Code: CodeEmptyTask}
	ErrUserChannel        = &Error{Code: CodeUserChannel}
	ErrInvalidConfig      = &Error{Code: CodeInvalidConfig}
	ErrAgentBusy          = &Error{Code: CodeAgentBusy}
)

// Error is the coded error type returned by agent loops and clans.
type Error struct {
	Code    Code
	Agent   string
	Message string
	// Partial holds the best answer produced so far, set for turn limit errors.
	Partial string
	// Fatal marks errors that must end every enclosing loop, even when they
	// surface from inside a tool call.
	Fatal bool
	Err   error
}

// NewError creates a coded error.
func NewError(code Code, agent, msg string) *Error {
	return &Error{Code: code, Agent: agent, Message: msg}
}

// WrapError creates a coded error around err.
func WrapError(code Code, agent string, err error) *Error {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return &Error{Code: code, Agent: agent, Message: msg, Err: err}
}

func (e *Error) Error() string {
	prefix := string(e.Code)
	if e.Agent != "" {
		prefix = fmt.Sprintf("%s [%s]", e.Code, e.Agent)
	}
	if e.Message == "" {
		return prefix
	}
	return prefix + ": " + e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// CodeOf returns the code of the first *Error in err's chain.
func CodeOf(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}

// IsTerminal reports whether err must stop an enclosing loop instead of being
// fed back to the model as a failed tool result.
func IsTerminal(err error) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Fatal || e.Code == CodeModelBackend {
			return true
		}
		err = e.Err
	}
	return false
}

// PartialAnswer extracts the partial text carried by a turn limit error.
func PartialAnswer(err error) (string, bool) {
	var e *Error
	if errors.As(err, &e) && e.Code == CodeTurnLimitExceeded {
		return e.Partial, true
	}
	return "", false
}
