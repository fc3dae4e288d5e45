package netlist

import (
	"errors"
	"fmt"

	"github.com/roach88/digisim/internal/component"
	"github.com/roach88/digisim/internal/signal"
)

// ErrorCode categorizes netlist construction errors.
type ErrorCode string

const (
	// ErrCodePinNotFound indicates the component has no pin of that name.
	ErrCodePinNotFound ErrorCode = "PIN_NOT_FOUND"

	// ErrCodeWidthMismatch indicates pin and net widths differ.
	ErrCodeWidthMismatch ErrorCode = "WIDTH_MISMATCH"

	// ErrCodeAlreadyConnected indicates the pin is attached to another net.
	ErrCodeAlreadyConnected ErrorCode = "ALREADY_CONNECTED"

	// ErrCodeInvalidWidth indicates a zero or too large net width.
	ErrCodeInvalidWidth ErrorCode = "INVALID_WIDTH"

	// ErrCodeNetNotFound indicates an unknown net id.
	ErrCodeNetNotFound ErrorCode = "NET_NOT_FOUND"

	// ErrCodeComponentNotFound indicates an unknown component id.
	ErrCodeComponentNotFound ErrorCode = "COMPONENT_NOT_FOUND"

	// ErrCodeDuplicateComponent indicates a component id registered twice.
	ErrCodeDuplicateComponent ErrorCode = "DUPLICATE_COMPONENT"

	// ErrCodeNotAttached indicates a contribution from a pin that is not
	// attached to the net, such as one disconnected after it was scheduled.
	ErrCodeNotAttached ErrorCode = "NOT_ATTACHED"
)

// Error is returned by netlist construction calls. Fields other than Code
// are filled when relevant to the failure.
type Error struct {
	Code      ErrorCode
	Component component.ID
	Pin       string
	Net       NetID
	Want      signal.Width // net width
	Got       signal.Width // pin width
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch e.Code {
	case ErrCodePinNotFound:
		return fmt.Sprintf("%s: component %s has no pin %q", e.Code, e.Component, e.Pin)
	case ErrCodeWidthMismatch:
		return fmt.Sprintf("%s: pin %s.%s has width %d, net %s has width %d",
			e.Code, e.Component, e.Pin, e.Got, e.Net, e.Want)
	case ErrCodeAlreadyConnected:
		return fmt.Sprintf("%s: pin %s.%s is already connected to net %s", e.Code, e.Component, e.Pin, e.Net)
	case ErrCodeInvalidWidth:
		return fmt.Sprintf("%s: net width %d must be between 1 and %d", e.Code, e.Got, signal.MaxWidth)
	case ErrCodeNetNotFound:
		return fmt.Sprintf("%s: no net %s", e.Code, e.Net)
	case ErrCodeComponentNotFound:
		return fmt.Sprintf("%s: no component %s", e.Code, e.Component)
	case ErrCodeDuplicateComponent:
		return fmt.Sprintf("%s: component %s already added", e.Code, e.Component)
	case ErrCodeNotAttached:
		return fmt.Sprintf("%s: pin %s.%s is not attached to net %s", e.Code, e.Component, e.Pin, e.Net)
	}
	return string(e.Code)
}

func hasCode(err error, code ErrorCode) bool {
	var ne *Error
	if errors.As(err, &ne) {
		return ne.Code == code
	}
	return false
}

// IsPinNotFound returns true if err is a PinNotFound netlist error.
func IsPinNotFound(err error) bool { return hasCode(err, ErrCodePinNotFound) }

// IsWidthMismatch returns true if err is a WidthMismatch netlist error.
func IsWidthMismatch(err error) bool { return hasCode(err, ErrCodeWidthMismatch) }

// IsAlreadyConnected returns true if err is an AlreadyConnected netlist error.
func IsAlreadyConnected(err error) bool { return hasCode(err, ErrCodeAlreadyConnected) }

// IsNotAttached returns true if err is a NotAttached netlist error.
func IsNotAttached(err error) bool { return hasCode(err, ErrCodeNotAttached) }
