package telemetry

import (
	"errors"
	"fmt"
)

// InvalidRecordError indicates that a node record could not be decoded or failed
// validation. Such a record must never reach the snapshot cache.
type InvalidRecordError struct {
	Err error
}

func NewInvalidRecordErrorf(msg string, args ...any) InvalidRecordError {
	return InvalidRecordError{
		Err: fmt.Errorf(msg, args...),
	}
}

func (e InvalidRecordError) Error() string {
	return fmt.Sprintf("invalid node record: %v", e.Err)
}

func (e InvalidRecordError) Unwrap() error {
	return e.Err
}

// IsInvalidRecordError returns true if err is or wraps an InvalidRecordError.
func IsInvalidRecordError(err error) bool {
	var target InvalidRecordError
	return errors.As(err, &target)
}
