package nodesource

import (
	"errors"
	"fmt"
)

// SourceUnavailableError indicates that a single metrics call against the node
// failed, either in transport, authentication or decoding of the reply.
type SourceUnavailableError struct {
	Call string
	Host string
	Err  error
}

func NewSourceUnavailableError(call, host string, err error) SourceUnavailableError {
	return SourceUnavailableError{Call: call, Host: host, Err: err}
}

func (e SourceUnavailableError) Error() string {
	return fmt.Sprintf("node %s: %s failed: %v", e.Host, e.Call, e.Err)
}

func (e SourceUnavailableError) Unwrap() error {
	return e.Err
}

// IsSourceUnavailable returns true if err is or wraps a SourceUnavailableError.
func IsSourceUnavailable(err error) bool {
	var target SourceUnavailableError
	return errors.As(err, &target)
}

// FailedCall returns the name of the failed call if err is a SourceUnavailableError,
// or "unknown" otherwise.
func FailedCall(err error) string {
	var target SourceUnavailableError
	if errors.As(err, &target) {
		return target.Call
	}
	return "unknown"
}
