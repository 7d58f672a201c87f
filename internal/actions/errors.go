package actions

import "errors"

var (
	// ErrUnknownAction is returned when no action is registered under the requested name
	ErrUnknownAction = errors.New("unknown action")
	// ErrInvalidArguments is returned by executors when required arguments are missing
	ErrInvalidArguments = errors.New("invalid action arguments")
)
