package unittest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/onflow/node-dashboard/module"
	"github.com/onflow/node-dashboard/module/util"
)

// RequireReturnsBefore requires that the given function returns before the
// duration expires.
func RequireReturnsBefore(t testing.TB, f func(), duration time.Duration, message string) {
	done := make(chan struct{})

	go func() {
		f()
		close(done)
	}()

	RequireCloseBefore(t, done, duration, message+": function did not return on time")
}

// RequireCloseBefore requires that the given channel closes before the
// duration expires.
func RequireCloseBefore(t testing.TB, c <-chan struct{}, duration time.Duration, message string) {
	select {
	case <-time.After(duration):
		require.Fail(t, "could not close done channel on time: "+message)
	case <-c:
		return
	}
}

// RequireNeverClosedWithin requires that the given channel stays open for the
// whole duration.
func RequireNeverClosedWithin(t testing.TB, c <-chan struct{}, duration time.Duration, message string) {
	select {
	case <-time.After(duration):
		return
	case <-c:
		require.Fail(t, "channel closed before timeout: "+message)
	}
}

// RequireComponentsReadyBefore requires that all the given components become
// ready before the duration expires.
func RequireComponentsReadyBefore(t testing.TB, duration time.Duration, components ...module.ReadyDoneAware) {
	RequireCloseBefore(t, util.AllReady(components...), duration, "components not ready on time")
}

// RequireComponentsDoneBefore requires that all the given components shut
// down before the duration expires.
func RequireComponentsDoneBefore(t testing.TB, duration time.Duration, components ...module.ReadyDoneAware) {
	RequireCloseBefore(t, util.AllDone(components...), duration, "components not done on time")
}
