package records

import (
	"errors"
	"fmt"
)

// ErrNotAnalyzed marks a StateError raised because an analysis step has not run yet.
var ErrNotAnalyzed = errors.New("analysis not yet run")

// InputError reports malformed input to a core operation, such as a missing
// lookup column or an out-of-range threshold.
type InputError struct {
	Op     string
	Key    string
	Reason string
}

func (e *InputError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s: invalid input %q: %s", e.Op, e.Key, e.Reason)
	}
	return fmt.Sprintf("%s: invalid input: %s", e.Op, e.Reason)
}

// StateError reports an operation invoked before its prerequisite step.
type StateError struct {
	Op     string
	Reason string
	Err    error
}

func (e *StateError) Error() string {
	msg := e.Reason
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *StateError) Unwrap() error { return e.Err }

// ValidateThreshold checks that a similarity threshold lies on the 0–100 scale.
func ValidateThreshold(op string, threshold int) error {
	if threshold < 0 || threshold > 100 {
		return &InputError{Op: op, Key: "threshold", Reason: fmt.Sprintf("must be between 0 and 100, got %d", threshold)}
	}
	return nil
}
