package console

import (
	"errors"
	"fmt"
)

// ErrNotNumber is returned when a prompt reply is not an integer.
var ErrNotNumber = errors.New("input is not a number")

// ValidationError reports a chosen number outside the offered range.
type ValidationError struct {
	Value int
	Min   int
	Max   int
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid option %d: choose %d-%d", e.Value, e.Min, e.Max)
}

// CheckRange returns a ValidationError unless 1 <= n <= max.
func CheckRange(n, max int) error {
	if n < 1 || n > max {
		return &ValidationError{Value: n, Min: 1, Max: max}
	}
	return nil
}
