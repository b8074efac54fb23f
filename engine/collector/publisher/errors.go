package publisher

import (
	"errors"
	"fmt"
)

// PublishFailure indicates that a record could not be delivered to a hub target,
// or that the target could not be reached at all.
type PublishFailure struct {
	Target string
	Err    error
}

func NewPublishFailure(target string, err error) PublishFailure {
	return PublishFailure{Target: target, Err: err}
}

func (e PublishFailure) Error() string {
	return fmt.Sprintf("publishing to %s failed: %v", e.Target, e.Err)
}

func (e PublishFailure) Unwrap() error {
	return e.Err
}

// IsPublishFailure returns true if err is or wraps a PublishFailure.
func IsPublishFailure(err error) bool {
	var target PublishFailure
	return errors.As(err, &target)
}
