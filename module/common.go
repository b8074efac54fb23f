package module

import (
	"errors"

	"github.com/onflow/node-dashboard/module/irrecoverable"
)

// ErrMultipleStartup is returned when Start is called on a component that has
// already been started.
var ErrMultipleStartup = errors.New("component may only be started once")

// ReadyDoneAware provides an interface to wait for module startup and shutdown.
// Modules that implement this interface only support a single start-stop cycle.
type ReadyDoneAware interface {
	// Ready returns a channel that is closed once startup has completed.
	Ready() <-chan struct{}

	// Done returns a channel that is closed once shutdown has completed.
	Done() <-chan struct{}
}

// Startable provides an interface to start a component. Once started, the component
// can be stopped by cancelling the given context.
type Startable interface {
	// Start starts the component. Any irrecoverable errors encountered while the component
	// is running are thrown on the given context.
	Start(irrecoverable.SignalerContext)
}
