// Package capture holds the device integrations a survey session depends on:
// a microphone recorder and a one-shot geolocation request. Every failure
// here is non-fatal for the survey; callers degrade and report a message.
package capture

import (
	"errors"
	"fmt"
)

type Code int

// Geolocation codes keep the numbering used by browser position errors.
const (
	CodeUnknown             Code = 0
	CodePermissionDenied    Code = 1
	CodePositionUnavailable Code = 2
	CodeTimeout             Code = 3
	CodeUnsupported         Code = 4
	CodeDeviceUnavailable   Code = 5
)

func (c Code) String() string {
	switch c {
	case CodePermissionDenied:
		return "permission denied"
	case CodePositionUnavailable:
		return "position unavailable"
	case CodeTimeout:
		return "timeout"
	case CodeUnsupported:
		return "unsupported"
	case CodeDeviceUnavailable:
		return "device unavailable"
	default:
		return "unknown"
	}
}

type Error struct {
	Code Code
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code, so wrapped errors compare equal
// to the sentinels below.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrPermissionDenied    = &Error{Code: CodePermissionDenied}
	ErrPositionUnavailable = &Error{Code: CodePositionUnavailable}
	ErrTimeout             = &Error{Code: CodeTimeout}
	ErrUnsupported         = &Error{Code: CodeUnsupported}
	ErrDeviceUnavailable   = &Error{Code: CodeDeviceUnavailable}
)

// CodeOf extracts the capture code of err, or CodeUnknown.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

func wrap(code Code, err error) error {
	return &Error{Code: code, Err: err}
}
