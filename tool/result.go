package tool

import (
	"encoding/json"
	"fmt"
)

// Result is the outcome envelope of every tool call. Exactly one of Value
// and ErrorMessage is meaningful, selected by Success.
type Result struct {
	Success      bool           `json:"success"`
	Value        any            `json:"value,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`

	final bool
	err   error
}

// Succeeded wraps a successful value.
func Succeeded(v any) Result {
	return Result{Success: true, Value: v, Metadata: map[string]any{}}
}

// Failed wraps a failure message.
func Failed(msg string) Result {
	return Result{Success: false, ErrorMessage: msg, Metadata: map[string]any{}}
}

// FailedWith wraps err, keeping it available through Err.
func FailedWith(err error) Result {
	r := Failed(err.Error())
	r.err = err
	return r
}

// Final wraps the value handed over by a terminating tool such as pass_result.
func Final(v any) Result {
	r := Succeeded(v)
	r.final = true
	return r
}

// IsFinal reports whether the calling agent's loop must end with Value as
// its answer.
func (r Result) IsFinal() bool { return r.final }

// Err returns the error behind a failed result, if one was recorded.
func (r Result) Err() error { return r.err }

// Text renders the value (or error) for feedback to the model.
func (r Result) Text() string {
	if !r.Success {
		return "Error: " + r.ErrorMessage
	}
	return FormatValue(r.Value)
}

// FormatValue renders a tool value as text: strings verbatim, everything
// else as JSON.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// FinalValue is returned by a handler to hand back Value and end the
// calling agent's loop with it.
type FinalValue struct {
	Value any
}
