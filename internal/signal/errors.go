package signal

import (
	"errors"
	"fmt"
)

// UndefinedValueError is returned when a signal holding Unknown or Error
// bits is converted to an integer.
type UndefinedValueError struct {
	Signal Signal
}

// Error implements the error interface.
func (e *UndefinedValueError) Error() string {
	return fmt.Sprintf("signal %s is not fully defined", e.Signal)
}

// IsUndefinedValueError returns true if err is an *UndefinedValueError.
// Uses errors.As to handle wrapped errors.
func IsUndefinedValueError(err error) bool {
	var ue *UndefinedValueError
	return errors.As(err, &ue)
}

// RangeError is returned when an integer does not fit in a bus width.
type RangeError struct {
	Width Width
	Value int64
}

// Error implements the error interface.
func (e *RangeError) Error() string {
	return fmt.Sprintf("value %d does not fit in %d bits", e.Value, e.Width)
}
