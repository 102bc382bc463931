package gateway

import (
	"fmt"
	"strings"
	"time"
)

// UnknownToolError reports a tools/call naming a tool that is not registered
// in the catalog.
type UnknownToolError struct {
	Tool string
}

func (e UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool: %s", e.Tool)
}

// TypeMismatch describes a single argument whose JSON type does not match the
// declared parameter type.
type TypeMismatch struct {
	Field string
	Want  string
	Got   string
}

// ValidationError reports tool arguments that fail the catalog's declared
// parameter schema. It is returned to clients as a tool-level error
// (isError:true), not as a protocol fault.
type ValidationError struct {
	Tool            string
	MissingFields   []string
	TypeMismatches  []TypeMismatch
	EchoedArguments map[string]any
}

func (e ValidationError) Error() string {
	var parts []string
	if len(e.MissingFields) > 0 {
		parts = append(parts, fmt.Sprintf("missing required fields: %s", strings.Join(e.MissingFields, ", ")))
	}
	for _, tm := range e.TypeMismatches {
		parts = append(parts, fmt.Sprintf("field %s: want %s, got %s", tm.Field, tm.Want, tm.Got))
	}
	return fmt.Sprintf("invalid arguments for tool %s: %s", e.Tool, strings.Join(parts, "; "))
}

// TimeoutError reports a client-side tool call that exceeded its bound before
// the executor replied.
type TimeoutError struct {
	Tool    string
	Elapsed time.Duration
}

func (e TimeoutError) Error() string {
	return fmt.Sprintf("tool %s timed out after %dms waiting for the workbench", e.Tool, e.Elapsed.Milliseconds())
}

// NoClientError reports a client-side tool call made while no executor is
// connected. It is returned immediately, never after a timeout.
type NoClientError struct {
	Tool string
}

func (e NoClientError) Error() string {
	return fmt.Sprintf("tool %s requires a connected workbench, but none is connected", e.Tool)
}

// ExecutorError carries a failure the executor explicitly reported for a
// forwarded tool call. The message is passed through verbatim.
type ExecutorError struct {
	Tool    string
	Message string
}

func (e ExecutorError) Error() string {
	return fmt.Sprintf("workbench reported failure for tool %s: %s", e.Tool, e.Message)
}
