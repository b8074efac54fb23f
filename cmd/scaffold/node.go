package scaffold

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/onflow/node-dashboard/module/component"
	"github.com/onflow/node-dashboard/module/irrecoverable"
	"github.com/onflow/node-dashboard/module/util"
)

var _ component.Component = (*Node)(nil)

// ErrShutdownAborted is returned when a second signal arrives before shutdown completed.
var ErrShutdownAborted = errors.New("shutdown aborted")

// Node runs the components of one process. Any irrecoverable error thrown by a
// component terminates the process with a non-zero exit code.
type Node struct {
	*component.ComponentManager
	Logger       zerolog.Logger
	name         string
	postShutdown func() error
}

// NewNode creates a node starting the given components in parallel. postShutdown is
// called once all components are done and may be nil.
func NewNode(log zerolog.Logger, name string, postShutdown func() error, components ...component.Component) *Node {
	builder := component.NewComponentManagerBuilder()
	for _, c := range components {
		c := c
		builder.AddWorker(func(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
			c.Start(ctx)
			select {
			case <-c.Ready():
				ready()
			case <-ctx.Done():
			}
			<-c.Done()
		})
	}

	if postShutdown == nil {
		postShutdown = func() error { return nil }
	}

	return &Node{
		ComponentManager: builder.Build(),
		Logger:           log,
		name:             name,
		postShutdown:     postShutdown,
	}
}

// Run calls Start() to start all the node components. It also sets up a channel to gracefully shut
// down each component if a SIGINT or SIGTERM is received. Until then, Run blocks.
// Since Run is a blocking call it should only be used when running a node as its own independent process.
// Any unhandled irrecoverable errors thrown in child components will propagate up to here and result in a fatal
// error.
func (node *Node) Run() {
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

	if err := node.run(context.Background(), signalChan); err != nil {
		node.Logger.Fatal().Err(err).Msgf("%s terminated", node.name)
	}
	os.Exit(0)
}

func (node *Node) run(parent context.Context, signalChan <-chan os.Signal) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	signalerCtx, errChan := irrecoverable.WithSignaler(ctx)
	go node.Start(signalerCtx)

	go func() {
		select {
		case <-node.Ready():
			node.Logger.Info().Msgf("%s startup complete", node.name)
		case <-ctx.Done():
		}
	}()

	// block till a signal is received or a fatal error is encountered
	sigCtx, sigCancel := util.WithSignal(ctx, signalChan)
	defer sigCancel()
	if err := util.WaitError(sigCtx, errChan); err != nil {
		return fmt.Errorf("unhandled irrecoverable error: %w", err)
	}

	node.Logger.Info().Msgf("%s shutting down", node.name)
	cancel()

	sigCtx, sigCancel = util.WithSignal(context.Background(), signalChan)
	defer sigCancel()
	doneCtx, doneCancel := util.WithDone(sigCtx, node.Done())
	defer doneCancel()
	if err := util.WaitError(doneCtx, errChan); err != nil {
		return fmt.Errorf("unhandled irrecoverable error during shutdown: %w", err)
	} else if errors.Is(sigCtx.Err(), util.ErrSignalReceived) {
		return ErrShutdownAborted
	}

	if err := node.postShutdown(); err != nil {
		return fmt.Errorf("could not clean up: %w", err)
	}

	node.Logger.Info().Msgf("%s shutdown complete", node.name)
	return nil
}
