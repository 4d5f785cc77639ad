package llm

import "errors"

// The retry loop keys off two error classes. Anything a provider wraps as
// transient gets backed off and retried; anything fatal aborts the endpoint
// immediately. Unclassified errors are treated as transient.

// TransientError marks a failure worth retrying, such as a timeout or a
// 5xx from the model endpoint.
type TransientError struct {
	cause error
}

func (e *TransientError) Error() string { return e.cause.Error() }

func (e *TransientError) Unwrap() error { return e.cause }

// NewTransientError wraps err so the retry loop will back off and try again.
func NewTransientError(err error) error {
	return &TransientError{cause: err}
}

// FatalError marks a failure no retry can fix, such as a 4xx or a
// malformed response body.
type FatalError struct {
	cause error
}

func (e *FatalError) Error() string { return e.cause.Error() }

func (e *FatalError) Unwrap() error { return e.cause }

// NewFatalError wraps err so the retry loop stops immediately.
func NewFatalError(err error) error {
	return &FatalError{cause: err}
}

// IsTransient reports whether err carries a TransientError anywhere in its
// chain.
func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}

// IsFatal reports whether err carries a FatalError anywhere in its chain.
func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}
