package storefront

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig matches every *ConfigError.
	ErrConfig = errors.New("invalid configuration")

	ErrResourceNotFound = errors.New("unable to find resource")
	ErrMissingLaunchURL = errors.New("resource missing launchurl")

	// ErrLaunch hides launcher failures; the cause is only logged.
	ErrLaunch = errors.New("unable to launch ica file")
)

// ConfigError reports a missing or invalid setting, detected before any
// request is made.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("storefront: invalid %s: %s", e.Field, e.Reason)
	}
	return "storefront: requires " + e.Field
}

func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

// StatusError is returned when the portal answers with a status >= 400.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
	Action     string // "fetching" when empty
}

func (e *StatusError) Error() string {
	action := e.Action
	if action == "" {
		action = "fetching"
	}
	return fmt.Sprintf("unexpected status code (%d) when %s %s", e.StatusCode, action, e.Endpoint)
}

// StepError attaches the failing pipeline step to its cause.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string { return e.Step + ": " + e.Err.Error() }

func (e *StepError) Unwrap() error { return e.Err }
