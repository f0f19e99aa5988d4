package survey

import "errors"

var (
	ErrInvalidState    = errors.New("survey: operation not valid in current state")
	ErrSubmitInFlight  = errors.New("survey: submission already in progress")
	ErrSubmitFailed    = errors.New("survey: submission failed")
	ErrUnknownField    = errors.New("survey: unknown field")
	ErrInvalidValue    = errors.New("survey: invalid value")
	ErrUnknownQuestion = errors.New("survey: unknown question")
	ErrUnknownOption   = errors.New("survey: unknown option")
)
